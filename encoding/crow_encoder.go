package encoding

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/rowdiff/endian"
	"github.com/arloliu/rowdiff/errs"
	"github.com/arloliu/rowdiff/internal/pool"
	"github.com/arloliu/rowdiff/row"
)

type fieldSlot struct {
	id  uint64
	typ row.Type
}

// CrowEncoder encodes rows into a Crow buffer.
//
// Rows are built field by field with Put and committed with Flush. Header records
// for fields first seen in the current row are held back until FlushHeaders or
// Flush, so a caller can always isolate the bytes of the row itself:
//
//	enc.Put(name, row.String("bob"))
//	enc.Put(age, row.Int32(32))
//	enc.FlushHeaders()
//	key := enc.Flush() // row bytes, without the kind marker
//
// DiscardRow drops a partially built row together with the headers it declared.
//
// The encoder is not safe for concurrent use.
type CrowEncoder struct {
	engine  endian.EndianEngine
	out     *pool.ByteBuffer // committed records
	pending *pool.ByteBuffer // header records of the current row
	fields  *pool.ByteBuffer // field entries of the current row
	slots   map[string]fieldSlot
	added   []string // names declared by the current row
	nextID  uint64
	rows    int
}

// NewCrowEncoder creates an encoder backed by pooled buffers.
//
// Call Release when the encoder is no longer needed.
//
// Returns:
//   - *CrowEncoder: A new encoder with an empty header dictionary
func NewCrowEncoder() *CrowEncoder {
	return &CrowEncoder{
		engine:  endian.GetLittleEndianEngine(),
		out:     pool.GetSnapshotBuffer(),
		pending: pool.GetRowBuffer(),
		fields:  pool.GetRowBuffer(),
		slots:   make(map[string]fieldSlot),
	}
}

// Put appends one field of the current row.
//
// The value is converted to the column type first: numeric values convert between
// widths when they fit, strings and byte sequences convert into each other. The
// first Put of a column declares its header even when v is null; a null value
// adds no field entry.
//
// Parameters:
//   - col: Column descriptor; its name and type define the header
//   - v: Value to encode
//
// Returns:
//   - error: errs.ErrFieldTypeMismatch if v cannot be converted, errs.ErrHeaderConflict
//     if the column name was declared earlier with another type
func (e *CrowEncoder) Put(col *row.Column, v row.Value) error {
	slot, err := e.declare(col)
	if err != nil {
		return err
	}

	if !v.Valid() {
		return nil
	}

	cv, err := v.Convert(slot.typ)
	if err != nil {
		return fmt.Errorf("column %q: %w", col.Name(), err)
	}

	e.appendRef(slot.id)
	e.appendValue(cv)

	return nil
}

func (e *CrowEncoder) declare(col *row.Column) (fieldSlot, error) {
	if slot, ok := e.slots[col.Name()]; ok {
		if slot.typ != col.Type() {
			return fieldSlot{}, fmt.Errorf("%w: %q declared as %s, got %s",
				errs.ErrHeaderConflict, col.Name(), slot.typ, col.Type())
		}

		return slot, nil
	}

	if !col.Type().IsValid() {
		return fieldSlot{}, fmt.Errorf("%w: %s", errs.ErrUnsupportedType, col.Type())
	}

	slot := fieldSlot{id: e.nextID, typ: col.Type()}
	e.nextID++
	e.slots[col.Name()] = slot
	e.added = append(e.added, col.Name())

	name := col.Name()
	b := e.pending.B
	b = append(b, RecordHeader)
	b = binary.AppendUvarint(b, slot.id)
	b = append(b, byte(slot.typ), headerFlags)
	b = binary.AppendUvarint(b, uint64(len(name)))
	b = append(b, name...)
	e.pending.B = b

	return slot, nil
}

func (e *CrowEncoder) appendRef(id uint64) {
	if id < MaxInlineFieldID {
		e.fields.MustWriteByte(FieldRefFlag | byte(id))
		return
	}

	e.fields.Grow(1 + varintLen(id))
	e.fields.MustWriteByte(FieldRefExtended)
	e.fields.B = binary.AppendUvarint(e.fields.B, id)
}

// appendValue writes v, which must already carry the column type.
func (e *CrowEncoder) appendValue(v row.Value) {
	b := e.fields.B

	switch t := v.Type(); t {
	case row.TypeString, row.TypeBytes:
		s, _ := v.Str()
		b = binary.AppendUvarint(b, uint64(len(s)))
		b = append(b, s...)
	case row.TypeInt32, row.TypeInt64:
		n, _ := v.Int64()
		b = binary.AppendVarint(b, n)
	case row.TypeUint32, row.TypeUint64:
		n, _ := v.Uint64()
		b = binary.AppendUvarint(b, n)
	case row.TypeInt8:
		n, _ := v.Int64()
		b = append(b, byte(int8(n))) //nolint:gosec
	case row.TypeUint8:
		n, _ := v.Uint64()
		b = append(b, byte(n)) //nolint:gosec
	case row.TypeDouble:
		f, _ := v.Float64()
		b = e.engine.AppendUint64(b, math.Float64bits(f))
	}

	e.fields.B = b
}

// FlushHeaders commits the header records declared by the current row without
// committing the row itself.
func (e *CrowEncoder) FlushHeaders() {
	if e.pending.Len() > 0 {
		e.out.MustWrite(e.pending.Bytes())
		e.pending.Reset()
	}
	e.added = e.added[:0]
}

// Flush commits pending headers and the current row.
//
// Returns:
//   - []byte: The row's bytes after the kind marker, valid until the next write
func (e *CrowEncoder) Flush() []byte {
	e.FlushHeaders()

	e.out.Grow(1 + e.fields.Len())
	e.out.MustWriteByte(RecordRow)
	start := e.out.Len()
	e.out.MustWrite(e.fields.Bytes())
	e.fields.Reset()
	e.rows++

	return e.out.B[start:]
}

// DiscardRow drops the current row and forgets the headers it declared, as if
// none of its Put calls had happened.
func (e *CrowEncoder) DiscardRow() {
	for _, name := range e.added {
		delete(e.slots, name)
	}
	e.nextID -= uint64(len(e.added))
	e.added = e.added[:0]
	e.pending.Reset()
	e.fields.Reset()
}

// Bytes returns the committed buffer. The slice is owned by the encoder.
func (e *CrowEncoder) Bytes() []byte {
	return e.out.Bytes()
}

// Size returns the committed size in bytes.
func (e *CrowEncoder) Size() int {
	return e.out.Len()
}

// Rows returns the number of committed rows.
func (e *CrowEncoder) Rows() int {
	return e.rows
}

// Fields returns the number of declared fields.
func (e *CrowEncoder) Fields() int {
	return len(e.slots)
}

// Reset clears the buffer and the header dictionary so the encoder can start a new pass.
func (e *CrowEncoder) Reset() {
	e.out.Reset()
	e.pending.Reset()
	e.fields.Reset()
	clear(e.slots)
	e.added = e.added[:0]
	e.nextID = 0
	e.rows = 0
}

// Release returns the buffers to the pool. The encoder must not be used afterwards.
func (e *CrowEncoder) Release() {
	pool.PutSnapshotBuffer(e.out)
	pool.PutRowBuffer(e.pending)
	pool.PutRowBuffer(e.fields)
	e.out, e.pending, e.fields = nil, nil, nil
}
