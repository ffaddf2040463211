package section

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/rowdiff/errs"
	"github.com/arloliu/rowdiff/format"
	"github.com/arloliu/rowdiff/internal/hash"
)

func TestNewSnapshotHeader(t *testing.T) {
	payload := []byte(`{"name":"bob"}` + "\n")

	h, err := NewSnapshotHeader(format.JSON, format.CompressionZstd, payload)
	require.NoError(t, err)
	require.Equal(t, uint16(MagicSnapshotV1), h.Magic)
	require.Equal(t, format.JSON, h.Serializer)
	require.Equal(t, format.CompressionZstd, h.Compression)
	require.Equal(t, uint32(len(payload)), h.PayloadSize)
	require.Equal(t, hash.Sum(payload), h.Checksum)
	require.NoError(t, h.Verify(payload))

	_, err = NewSnapshotHeader(format.SerializerID('x'), format.CompressionNone, payload)
	require.ErrorIs(t, err, errs.ErrInvalidHeaderFlags)
}

func TestSnapshotHeader_Layout(t *testing.T) {
	h := &SnapshotHeader{
		Magic:       MagicSnapshotV1,
		Serializer:  format.Crow,
		Compression: format.CompressionS2,
		PayloadSize: 0x0102,
		Checksum:    0x1122334455667788,
	}

	b := h.Bytes()
	require.Len(t, b, HeaderSize)
	require.Equal(t, "10ec"+"63"+"03"+"02010000"+"8877665544332211", hex.EncodeToString(b))

	var parsed SnapshotHeader
	require.NoError(t, parsed.Parse(b))
	require.Equal(t, *h, parsed)

	// AppendTo keeps what is already in dst
	out := h.AppendTo([]byte{0xAA})
	require.Equal(t, byte(0xAA), out[0])
	require.Equal(t, b, out[1:])
}

func TestSnapshotHeader_ParseErrors(t *testing.T) {
	valid := (&SnapshotHeader{
		Magic:       MagicSnapshotV1,
		Serializer:  format.OsqueryJSON,
		Compression: format.CompressionNone,
	}).Bytes()

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{"short", func(b []byte) []byte { return b[:HeaderSize-1] }, errs.ErrInvalidHeaderSize},
		{"empty", func([]byte) []byte { return nil }, errs.ErrInvalidHeaderSize},
		{"bad magic", func(b []byte) []byte { b[0] = 0x11; return b }, errs.ErrInvalidMagicNumber},
		{"bad serializer", func(b []byte) []byte { b[2] = 'z'; return b }, errs.ErrInvalidHeaderFlags},
		{"bad compression", func(b []byte) []byte { b[3] = 0x00; return b }, errs.ErrInvalidHeaderFlags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), valid...))

			var h SnapshotHeader
			require.ErrorIs(t, h.Parse(data), tt.want)
		})
	}
}

func TestSnapshotHeader_Verify(t *testing.T) {
	payload := []byte("43000100046e616d65")
	h, err := NewSnapshotHeader(format.Crow, format.CompressionNone, payload)
	require.NoError(t, err)

	require.ErrorIs(t, h.Verify(payload[:len(payload)-1]), errs.ErrPayloadSizeMismatch)

	flipped := append([]byte(nil), payload...)
	flipped[3] ^= 0x01
	require.ErrorIs(t, h.Verify(flipped), errs.ErrChecksumMismatch)
}
