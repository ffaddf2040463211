// Package snapshot packs serializer payloads into the persisted snapshot envelope
// and unpacks them back for the next differencing pass.
//
// An envelope records which serializer produced the payload, how it is compressed,
// and a checksum of the uncompressed bytes, so that a corrupted or foreign snapshot
// is rejected before a serializer tries to interpret it as history.
package snapshot

import (
	"fmt"
	"time"

	"github.com/arloliu/rowdiff/compress"
	"github.com/arloliu/rowdiff/errs"
	"github.com/arloliu/rowdiff/format"
	"github.com/arloliu/rowdiff/section"
)

// Pack wraps payload in an envelope for serializer id, compressed with compression.
//
// The returned slice is newly allocated and owned by the caller.
func Pack(id format.SerializerID, compression format.CompressionType, payload []byte) ([]byte, error) {
	data, _, err := PackWithStats(id, compression, payload)
	return data, err
}

// PackWithStats is like Pack and also reports how the payload compressed.
func PackWithStats(id format.SerializerID, compression format.CompressionType, payload []byte) ([]byte, compress.CompressionStats, error) {
	stats := compress.CompressionStats{
		Algorithm:    compression,
		OriginalSize: int64(len(payload)),
	}

	header, err := section.NewSnapshotHeader(id, compression, payload)
	if err != nil {
		return nil, stats, err
	}

	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, stats, err
	}

	start := time.Now()
	compressed, err := codec.Compress(payload)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to compress %s snapshot payload: %w", compression, err)
	}
	stats.CompressionTimeNs = time.Since(start).Nanoseconds()
	stats.CompressedSize = int64(len(compressed))

	out := make([]byte, 0, section.HeaderSize+len(compressed))
	out = header.AppendTo(out)
	out = append(out, compressed...)

	return out, stats, nil
}

// Unpack parses the envelope in data, decompresses its payload and verifies the
// payload size and checksum.
//
// Returns:
//   - section.SnapshotHeader: The parsed header
//   - []byte: The uncompressed payload; for uncompressed envelopes it aliases data
//   - error: errs.ErrInvalidHeaderSize, errs.ErrInvalidMagicNumber,
//     errs.ErrInvalidHeaderFlags, errs.ErrPayloadSizeMismatch or errs.ErrChecksumMismatch
//     (wrapped), or a decompression error
func Unpack(data []byte) (section.SnapshotHeader, []byte, error) {
	var header section.SnapshotHeader
	if err := header.Parse(data); err != nil {
		return header, nil, err
	}

	codec, err := compress.GetCodec(header.Compression)
	if err != nil {
		return header, nil, err
	}

	payload, err := compress.Decompress(codec, data[section.HeaderSize:], int(header.PayloadSize))
	if err != nil {
		return header, nil, fmt.Errorf("failed to decompress %s snapshot payload: %w", header.Compression, err)
	}

	if err := header.Verify(payload); err != nil {
		return header, nil, err
	}

	return header, payload, nil
}

// UnpackFor is like Unpack and additionally requires the payload to come from
// serializer id, returning errs.ErrSerializerMismatch otherwise.
func UnpackFor(id format.SerializerID, data []byte) ([]byte, error) {
	header, payload, err := Unpack(data)
	if err != nil {
		return nil, err
	}

	if header.Serializer != id {
		return nil, fmt.Errorf("%w: want %s, got %s", errs.ErrSerializerMismatch, id, header.Serializer)
	}

	return payload, nil
}
