// Package hash provides the checksum trailer that seals snapshot blocks.
//
// The checksum is CRC32-Castagnoli (CRC32C), stored little-endian after the
// block it covers. A block read back in pieces is verified without
// reassembling it:
//
//	out = hash.AppendTrailer(out, block)
//	...
//	ok := hash.VerifyTrailer(trailer, blockHeader, body)
package hash
