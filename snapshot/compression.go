package snapshot

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec.
type Compression uint8

const (
	// None stores the payload uncompressed.
	None Compression = 0
	// LZ4 favors speed.
	LZ4 Compression = 1
	// ZSTD favors ratio.
	ZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression maps a codec name as returned by String back to its value.
func ParseCompression(name string) (Compression, error) {
	for _, c := range []Compression{None, LZ4, ZSTD} {
		if c.String() == name {
			return c, nil
		}
	}
	return None, fmt.Errorf("snapshot: unknown compression %q", name)
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

const blockHeaderSize = 8

// packBlock frames data as [uncompressed][compressed][bytes]. Compressed
// output that saves less than 10% is discarded in favor of the raw bytes.
func packBlock(data []byte, c Compression) ([]byte, error) {
	var packed []byte
	switch c {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n]
	case ZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		packed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("snapshot: unknown compression %d", uint8(c))
	}

	if len(packed) == 0 || float64(len(packed)) > float64(len(data))*0.9 {
		packed = nil
	}

	body := data
	if packed != nil {
		body = packed
	}
	out := make([]byte, blockHeaderSize+len(body))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(packed)))
	copy(out[blockHeaderSize:], body)
	return out, nil
}

// unpackBlock reverses packBlock given the two header words and the body.
func unpackBlock(body []byte, uncompressed uint32, stored bool, c Compression) ([]byte, error) {
	if stored {
		if uint32(len(body)) != uncompressed {
			return nil, fmt.Errorf("%w: stored block is %d bytes, header says %d", ErrCorrupt, len(body), uncompressed)
		}
		return body, nil
	}

	out := make([]byte, uncompressed)
	switch c {
	case LZ4:
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		if uint32(n) != uncompressed {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil
	case ZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(body, out[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != uncompressed {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: compressed block with codec %s", ErrCorrupt, c)
	}
}
