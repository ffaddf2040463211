package pool

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ByteBuffer Tests
// =============================================================================

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(128)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len(), "new buffer should have zero length")
	assert.Equal(t, 128, bb.Cap(), "new buffer should have specified capacity")
}

func TestByteBuffer_Writes(t *testing.T) {
	bb := NewByteBuffer(RowBufferDefaultSize)

	bb.MustWriteByte(0x05)
	bb.MustWrite([]byte{0x80, 0x03})
	bb.MustWriteString("bob")
	n, err := bb.Write([]byte{0x81})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Equal(t, []byte{0x05, 0x80, 0x03, 'b', 'o', 'b', 0x81}, bb.Bytes())
}

func TestByteBuffer_Reset(t *testing.T) {
	bb := NewByteBuffer(RowBufferDefaultSize)
	bb.MustWriteString("some data")
	originalCap := bb.Cap()

	bb.Reset()

	assert.Equal(t, 0, bb.Len(), "Reset should clear the buffer length")
	assert.Equal(t, originalCap, bb.Cap(), "Reset should preserve capacity")
}

func TestByteBuffer_Truncate(t *testing.T) {
	bb := NewByteBuffer(16)
	bb.MustWriteString("headerrow")

	bb.Truncate(6)
	require.Equal(t, "header", string(bb.Bytes()))

	bb.Truncate(0)
	require.Equal(t, 0, bb.Len())

	require.Panics(t, func() { bb.Truncate(1) })
	require.Panics(t, func() { bb.Truncate(-1) })
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("sufficient capacity", func(t *testing.T) {
		bb := NewByteBuffer(64)
		bb.Grow(32)
		require.Equal(t, 64, bb.Cap())
	})

	t.Run("small buffer grows by default size", func(t *testing.T) {
		bb := NewByteBuffer(8)
		bb.MustWriteString("abcdefgh")
		bb.Grow(1)

		require.Equal(t, 8+RowBufferDefaultSize, bb.Cap())
		require.Equal(t, "abcdefgh", string(bb.Bytes()), "Grow must keep existing data")
	})

	t.Run("large buffer grows by a quarter", func(t *testing.T) {
		size := 8 * RowBufferDefaultSize
		bb := NewByteBuffer(size)
		bb.B = bb.B[:size]
		bb.Grow(1)

		require.Equal(t, size+size/4, bb.Cap())
	})

	t.Run("large request", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(3 * RowBufferDefaultSize)
		require.GreaterOrEqual(t, bb.Cap(), 3*RowBufferDefaultSize)
	})
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(16)
	bb.MustWriteString(`{"name":"bob"}`)

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(14), n)
	require.Equal(t, `{"name":"bob"}`, out.String())
}

// =============================================================================
// ByteBufferPool Tests
// =============================================================================

func TestByteBufferPool_GetPut(t *testing.T) {
	p := NewByteBufferPool(256, 1024)

	bb := p.Get()
	require.NotNil(t, bb)
	require.Equal(t, 0, bb.Len())
	require.GreaterOrEqual(t, bb.Cap(), 256)

	bb.MustWriteString("dirty")
	p.Put(bb)

	again := p.Get()
	require.Equal(t, 0, again.Len(), "pooled buffers must come back empty")

	// nil is ignored
	require.NotPanics(t, func() { p.Put(nil) })
}

func TestByteBufferPool_DropsOversized(t *testing.T) {
	p := NewByteBufferPool(16, 32)

	bb := p.Get()
	bb.Grow(1024)
	oversized := bb.Cap()
	p.Put(bb)

	for range 8 {
		got := p.Get()
		require.Less(t, got.Cap(), oversized)
	}
}

func TestDefaultPools(t *testing.T) {
	rb := GetRowBuffer()
	require.GreaterOrEqual(t, rb.Cap(), RowBufferDefaultSize)
	PutRowBuffer(rb)

	sb := GetSnapshotBuffer()
	require.GreaterOrEqual(t, sb.Cap(), SnapshotBufferDefaultSize)
	PutSnapshotBuffer(sb)
}

func TestByteBufferPool_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for range 100 {
				bb := GetRowBuffer()
				bb.MustWriteByte(byte(i))
				if bb.Len() != 1 || bb.Bytes()[0] != byte(i) {
					t.Errorf("buffer shared between goroutines")
				}
				PutRowBuffer(bb)
			}
		}(i)
	}
	wg.Wait()
}
