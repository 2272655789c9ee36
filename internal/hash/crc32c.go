package hash

import (
	"encoding/binary"
	"hash/crc32"
)

// TrailerSize is the encoded length of a checksum trailer.
const TrailerSize = 4

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C checksums the concatenation of parts.
func CRC32C(parts ...[]byte) uint32 {
	var sum uint32
	for _, p := range parts {
		sum = crc32.Update(sum, castagnoli, p)
	}
	return sum
}

// AppendTrailer appends the little-endian checksum of parts to dst.
func AppendTrailer(dst []byte, parts ...[]byte) []byte {
	return binary.LittleEndian.AppendUint32(dst, CRC32C(parts...))
}

// VerifyTrailer reports whether trailer holds the checksum of parts.
func VerifyTrailer(trailer []byte, parts ...[]byte) bool {
	return len(trailer) == TrailerSize && binary.LittleEndian.Uint32(trailer) == CRC32C(parts...)
}
