package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/ssaflow/bitset"
	"github.com/hupe1980/ssaflow/internal/hash"
	"github.com/hupe1980/ssaflow/versionmap"
)

const (
	magic = "SSAV"
	// FormatVersion is the current snapshot format.
	FormatVersion uint8 = 1

	headerSize = len(magic) + 2

	// maxPayload bounds allocations driven by untrusted headers.
	maxPayload = 1 << 30

	// maxSlotIndex bounds slot indices on both encode and decode; decoded
	// maps size their slot arrays by the largest index.
	maxSlotIndex = 64 * versionmap.StackBase
)

var (
	// ErrBadMagic is returned when the input is not a snapshot.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrUnsupportedVersion is returned for snapshots of a newer format.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	// ErrCorrupt is returned when the payload cannot be parsed.
	ErrCorrupt = errors.New("snapshot: corrupt payload")
)

type options struct {
	compression Compression
}

// Option configures Encode.
type Option func(*options)

// WithCompression sets the block codec. The default is ZSTD.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// Encode writes maps to w.
func Encode(w io.Writer, maps []*versionmap.Map, optFns ...Option) error {
	opts := options{compression: ZSTD}
	for _, fn := range optFns {
		fn(&opts)
	}

	payload, err := encodePayload(maps)
	if err != nil {
		return err
	}
	block, err := packBlock(payload, opts.compression)
	if err != nil {
		return err
	}

	header := make([]byte, 0, headerSize)
	header = append(header, magic...)
	header = append(header, FormatVersion, byte(opts.compression))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(block); err != nil {
		return err
	}
	_, err = w.Write(hash.AppendTrailer(nil, block))
	return err
}

func encodePayload(maps []*versionmap.Map) ([]byte, error) {
	var buf bytes.Buffer
	var scratch [4]byte

	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(scratch[:], v)
		buf.Write(scratch[:])
	}

	putU32(uint32(len(maps)))
	for _, m := range maps {
		if m == nil {
			putU32(0)
			continue
		}
		putU32(uint32(m.Size()))
		for k, vs := range m.All() {
			if k.Index > maxSlotIndex {
				return nil, fmt.Errorf("snapshot: encode %s: slot index exceeds %d", k, maxSlotIndex)
			}
			rb := roaring.New()
			for v := range vs.All() {
				rb.Add(uint32(v))
			}
			rb.RunOptimize()
			data, err := rb.ToBytes()
			if err != nil {
				return nil, fmt.Errorf("snapshot: encode %s: %w", k, err)
			}

			buf.WriteByte(byte(k.Domain))
			putU32(k.Index)
			putU32(uint32(len(data)))
			buf.Write(data)
		}
	}
	return buf.Bytes(), nil
}

// Decode reads the maps written by Encode. Version sets are allocated
// from f.
func Decode(r io.Reader, f *bitset.SparseFactory[int32]) ([]*versionmap.Map, error) {
	header := make([]byte, headerSize+blockHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: short header", ErrCorrupt)
		}
		return nil, err
	}
	if string(header[:len(magic)]) != magic {
		return nil, ErrBadMagic
	}
	if v := header[len(magic)]; v != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	codec := Compression(header[len(magic)+1])

	uncompressed := binary.LittleEndian.Uint32(header[headerSize:])
	compressed := binary.LittleEndian.Uint32(header[headerSize+4:])
	if uncompressed > maxPayload || compressed > maxPayload {
		return nil, fmt.Errorf("%w: block too large", ErrCorrupt)
	}

	bodyLen := compressed
	if compressed == 0 {
		bodyLen = uncompressed
	}
	rest := make([]byte, bodyLen+hash.TrailerSize)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("%w: truncated block: %w", ErrCorrupt, err)
	}
	body, trailer := rest[:bodyLen], rest[bodyLen:]

	if !hash.VerifyTrailer(trailer, header[headerSize:], body) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	payload, err := unpackBlock(body, uncompressed, compressed == 0, codec)
	if err != nil {
		return nil, err
	}
	return decodePayload(payload, f)
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || len(r.buf)-r.off < n {
		return nil, fmt.Errorf("%w: unexpected end at offset %d", ErrCorrupt, r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func decodePayload(payload []byte, f *bitset.SparseFactory[int32]) ([]*versionmap.Map, error) {
	r := &reader{buf: payload}

	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	// Every map takes at least four bytes.
	if int(count) > len(payload)/4 {
		return nil, fmt.Errorf("%w: %d maps in %d bytes", ErrCorrupt, count, len(payload))
	}

	maps := make([]*versionmap.Map, 0, count)
	for range count {
		entries, err := r.u32()
		if err != nil {
			return nil, err
		}

		m := versionmap.New()
		for range entries {
			head, err := r.take(9)
			if err != nil {
				return nil, err
			}
			d := versionmap.Domain(head[0])
			if d > versionmap.Field {
				return nil, fmt.Errorf("%w: domain %d", ErrCorrupt, head[0])
			}
			key := versionmap.Key{Domain: d, Index: binary.LittleEndian.Uint32(head[1:])}
			if key.Index > maxSlotIndex {
				return nil, fmt.Errorf("%w: slot index %d exceeds %d", ErrCorrupt, key.Index, maxSlotIndex)
			}

			data, err := r.take(int(binary.LittleEndian.Uint32(head[5:])))
			if err != nil {
				return nil, err
			}
			rb := roaring.New()
			if err := rb.UnmarshalBinary(data); err != nil {
				return nil, fmt.Errorf("%w: bitmap for %s: %w", ErrCorrupt, key, err)
			}
			if rb.IsEmpty() {
				return nil, fmt.Errorf("%w: empty set for %s", ErrCorrupt, key)
			}
			if m.Has(key) {
				return nil, fmt.Errorf("%w: duplicate key %s", ErrCorrupt, key)
			}

			set := f.EmptySet()
			it := rb.Iterator()
			for it.HasNext() {
				set.Add(int32(it.Next()))
			}
			m.Put(key, set)
		}
		maps = append(maps, m)
	}

	if r.off != len(payload) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(payload)-r.off)
	}
	return maps, nil
}
