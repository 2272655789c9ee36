// Package snapshot persists solved version maps.
//
// A snapshot is a small header followed by one block:
//
//	magic   "SSAV"
//	version uint8
//	codec   uint8 (Compression)
//	block   [uncompressed uint32][compressed uint32][data]
//	crc     uint32, CRC32C of block
//
// A compressed size of 0 means the data is stored as is. The payload lists
// maps in order; each occupied slot is written as its domain, its index and
// a roaring bitmap of version ids. Nil maps round-trip as empty maps. Slot
// indices above 64*StackBase are refused on both sides.
//
// Version sets are stored by value, not by bit position, so a snapshot can
// be decoded into any factory.
package snapshot
