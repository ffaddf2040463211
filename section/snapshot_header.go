package section

import (
	"fmt"

	"github.com/arloliu/rowdiff/endian"
	"github.com/arloliu/rowdiff/errs"
	"github.com/arloliu/rowdiff/format"
	"github.com/arloliu/rowdiff/internal/hash"
)

// SnapshotHeader is the fixed-size header of a persisted snapshot.
type SnapshotHeader struct {
	// Magic identifies the envelope format and version.
	Magic uint16 // 2 bytes, offset 0-1
	// Serializer is the id of the serializer that produced the payload.
	Serializer format.SerializerID // 1 byte, offset 2
	// Compression is the codec applied to the payload.
	Compression format.CompressionType // 1 byte, offset 3
	// PayloadSize is the uncompressed payload size in bytes.
	PayloadSize uint32 // 4 bytes, offset 4-7
	// Checksum is the xxHash64 of the uncompressed payload.
	Checksum uint64 // 8 bytes, offset 8-15
}

// NewSnapshotHeader creates the header describing payload.
func NewSnapshotHeader(id format.SerializerID, compression format.CompressionType, payload []byte) (*SnapshotHeader, error) {
	if uint64(len(payload)) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds %d", errs.ErrInvalidHeaderSize, len(payload), MaxPayloadSize)
	}

	h := &SnapshotHeader{
		Magic:       MagicSnapshotV1,
		Serializer:  id,
		Compression: compression,
		PayloadSize: uint32(len(payload)), //nolint:gosec
		Checksum:    hash.Sum(payload),
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}

	return h, nil
}

// Parse parses the header from the first HeaderSize bytes of data and validates it.
func (h *SnapshotHeader) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: got %d bytes, need %d", errs.ErrInvalidHeaderSize, len(data), HeaderSize)
	}

	engine := endian.GetLittleEndianEngine()

	h.Magic = engine.Uint16(data[0:2])
	h.Serializer = format.SerializerID(data[2])
	h.Compression = format.CompressionType(data[3])
	h.PayloadSize = engine.Uint32(data[4:8])
	h.Checksum = engine.Uint64(data[8:16])

	return h.Validate()
}

// Bytes serializes the header into a new HeaderSize byte slice.
func (h *SnapshotHeader) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// AppendTo appends the serialized header to dst.
func (h *SnapshotHeader) AppendTo(dst []byte) []byte {
	engine := endian.GetLittleEndianEngine()

	dst = engine.AppendUint16(dst, h.Magic)
	dst = append(dst, byte(h.Serializer), byte(h.Compression))
	dst = engine.AppendUint32(dst, h.PayloadSize)
	dst = engine.AppendUint64(dst, h.Checksum)

	return dst
}

// Validate checks the magic number, serializer id and compression type.
func (h *SnapshotHeader) Validate() error {
	if h.Magic != MagicSnapshotV1 {
		return fmt.Errorf("%w: 0x%04x", errs.ErrInvalidMagicNumber, h.Magic)
	}
	if !h.Serializer.IsValid() {
		return fmt.Errorf("%w: serializer id 0x%02x", errs.ErrInvalidHeaderFlags, byte(h.Serializer))
	}
	if !h.Compression.IsValid() {
		return fmt.Errorf("%w: compression 0x%02x", errs.ErrInvalidHeaderFlags, byte(h.Compression))
	}

	return nil
}

// Verify checks payload, the uncompressed payload, against the recorded size and checksum.
func (h *SnapshotHeader) Verify(payload []byte) error {
	if uint64(len(payload)) != uint64(h.PayloadSize) {
		return fmt.Errorf("%w: got %d bytes, header says %d", errs.ErrPayloadSizeMismatch, len(payload), h.PayloadSize)
	}
	if sum := hash.Sum(payload); sum != h.Checksum {
		return fmt.Errorf("%w: got 0x%016x, header says 0x%016x", errs.ErrChecksumMismatch, sum, h.Checksum)
	}

	return nil
}
