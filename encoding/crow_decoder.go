package encoding

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/rowdiff/endian"
	"github.com/arloliu/rowdiff/errs"
	"github.com/arloliu/rowdiff/row"
)

// FieldInfo describes a field as declared by a header record.
type FieldInfo struct {
	ID   uint64
	Name string
	Type row.Type
}

// Visitor receives the fields and rows of a full decode.
//
// Returning an error from any method aborts the decode with that error.
type Visitor interface {
	// OnField is called once per decoded field, with the column the resolver returned
	// and the value converted to that column's type.
	OnField(col *row.Column, v row.Value) error
	// OnFieldError is called for a field that cannot be delivered: its name is not
	// known to the resolver (errs.ErrUnknownField) or its value does not convert to the
	// resolved column type (errs.ErrFieldTypeMismatch). Return nil to skip the field.
	OnFieldError(info FieldInfo, err error) error
	// OnRowEnd is called after the last field of each row with the row's bytes after
	// the kind marker.
	OnRowEnd(encoded []byte) error
}

// CrowDecoder decodes Crow buffers. It is stateless and safe to reuse.
type CrowDecoder struct {
	engine endian.EndianEngine
}

// NewCrowDecoder creates a new decoder.
func NewCrowDecoder() CrowDecoder {
	return CrowDecoder{engine: endian.GetLittleEndianEngine()}
}

// Scan walks data without building values.
//
// The structure and every field's type are validated, each row's bytes (without the
// kind marker) are passed to onRow as a sub-slice of data, and the header records are
// returned concatenated in order, ready to be prepended to a subset of the rows.
//
// Parameters:
//   - data: Crow buffer
//   - onRow: Called once per row; may be nil. Returning an error aborts the scan
//
// Returns:
//   - []byte: Concatenated header records, a fresh slice
//   - error: Wrapped errs sentinel on malformed input, or the error from onRow
func (d CrowDecoder) Scan(data []byte, onRow func(encoded []byte) error) ([]byte, error) {
	var headers []byte
	var defs fieldTable

	offset := 0
	for offset < len(data) {
		switch kind := data[offset]; kind {
		case RecordHeader:
			info, n, err := parseHeader(data[offset+1:])
			if err != nil {
				return nil, fmt.Errorf("header at offset %d: %w", offset, err)
			}
			if err := defs.declare(info); err != nil {
				return nil, fmt.Errorf("header at offset %d: %w", offset, err)
			}

			headers = append(headers, data[offset:offset+1+n]...)
			offset += 1 + n
		case RecordRow:
			start := offset + 1
			end := start
			for end < len(data) && data[end] >= FieldRefFlag {
				info, n, err := defs.parseRef(data[end:])
				if err != nil {
					return nil, fmt.Errorf("row at offset %d: %w", offset, err)
				}
				end += n

				size, err := d.valueSize(info.Type, data[end:])
				if err != nil {
					return nil, fmt.Errorf("row at offset %d, field %q: %w", offset, info.Name, err)
				}
				end += size
			}

			if onRow != nil {
				if err := onRow(data[start:end]); err != nil {
					return nil, err
				}
			}
			offset = end
		default:
			return nil, fmt.Errorf("%w: 0x%02x at offset %d", errs.ErrInvalidRecordKind, kind, offset)
		}
	}

	return headers, nil
}

// Decode walks data and delivers every field and row to v.
//
// Field names are resolved to columns through resolver; a wire type that differs
// from the resolved column type is converted when the value fits.
//
// Parameters:
//   - data: Crow buffer
//   - resolver: Maps field names to the caller's column descriptors
//   - v: Receives fields, field errors and row ends
//
// Returns:
//   - error: Wrapped errs sentinel on malformed input, or the first error v returned
func (d CrowDecoder) Decode(data []byte, resolver row.Resolver, v Visitor) error {
	var defs fieldTable
	cols := make(map[uint64]*row.Column) // resolved column per field id

	offset := 0
	for offset < len(data) {
		switch kind := data[offset]; kind {
		case RecordHeader:
			info, n, err := parseHeader(data[offset+1:])
			if err != nil {
				return fmt.Errorf("header at offset %d: %w", offset, err)
			}
			if err := defs.declare(info); err != nil {
				return fmt.Errorf("header at offset %d: %w", offset, err)
			}

			if col, ok := resolver.Lookup(info.Name); ok {
				cols[info.ID] = col
			}
			offset += 1 + n
		case RecordRow:
			start := offset + 1
			end := start
			for end < len(data) && data[end] >= FieldRefFlag {
				info, n, err := defs.parseRef(data[end:])
				if err != nil {
					return fmt.Errorf("row at offset %d: %w", offset, err)
				}
				end += n

				val, size, err := d.readValue(info.Type, data[end:])
				if err != nil {
					return fmt.Errorf("row at offset %d, field %q: %w", offset, info.Name, err)
				}
				end += size

				if err := deliver(v, cols[info.ID], info, val); err != nil {
					return err
				}
			}

			if err := v.OnRowEnd(data[start:end]); err != nil {
				return err
			}
			offset = end
		default:
			return fmt.Errorf("%w: 0x%02x at offset %d", errs.ErrInvalidRecordKind, kind, offset)
		}
	}

	return nil
}

func deliver(v Visitor, col *row.Column, info FieldInfo, val row.Value) error {
	if col == nil {
		return v.OnFieldError(info, fmt.Errorf("%w: %q", errs.ErrUnknownField, info.Name))
	}

	cv, err := val.Convert(col.Type())
	if err != nil {
		return v.OnFieldError(info, fmt.Errorf("field %q: %w", info.Name, err))
	}

	return v.OnField(col, cv)
}

// denseFieldIDs is the id range kept in slices. Higher ids, which only very wide
// schemas or corrupted input produce, go to a map so one header cannot force a
// large table.
const denseFieldIDs = 256

// fieldTable holds the header definitions seen so far, indexed by field id.
type fieldTable struct {
	dense  []FieldInfo
	set    []bool
	sparse map[uint64]FieldInfo
}

func (t *fieldTable) lookup(id uint64) (FieldInfo, bool) {
	if id < uint64(len(t.dense)) {
		return t.dense[id], t.set[id]
	}
	if id < denseFieldIDs {
		return FieldInfo{}, false
	}
	info, ok := t.sparse[id]

	return info, ok
}

func (t *fieldTable) declare(info FieldInfo) error {
	if prev, ok := t.lookup(info.ID); ok {
		if prev.Name != info.Name || prev.Type != info.Type {
			return fmt.Errorf("%w: id %d is %q:%s, redefined as %q:%s",
				errs.ErrHeaderConflict, info.ID, prev.Name, prev.Type, info.Name, info.Type)
		}

		return nil
	}

	if info.ID >= denseFieldIDs {
		if t.sparse == nil {
			t.sparse = make(map[uint64]FieldInfo)
		}
		t.sparse[info.ID] = info

		return nil
	}

	for uint64(len(t.dense)) <= info.ID {
		t.dense = append(t.dense, FieldInfo{})
		t.set = append(t.set, false)
	}
	t.dense[info.ID] = info
	t.set[info.ID] = true

	return nil
}

// parseRef reads a field reference at the start of b.
func (t *fieldTable) parseRef(b []byte) (FieldInfo, int, error) {
	var id uint64
	n := 1

	if b[0] == FieldRefExtended {
		v, m, err := uvarint(b[1:], "extended field reference")
		if err != nil {
			return FieldInfo{}, 0, err
		}
		if v < MaxInlineFieldID {
			return FieldInfo{}, 0, fmt.Errorf("%w: id %d uses the extended form", errs.ErrInvalidFieldRef, v)
		}
		id = v
		n += m
	} else {
		id = uint64(b[0] &^ FieldRefFlag)
	}

	info, ok := t.lookup(id)
	if !ok {
		return FieldInfo{}, 0, fmt.Errorf("%w: id %d", errs.ErrUndeclaredField, id)
	}

	return info, n, nil
}

// parseHeader reads a header record body (after the kind byte).
func parseHeader(b []byte) (FieldInfo, int, error) {
	id, n, err := uvarint(b, "field id")
	if err != nil {
		return FieldInfo{}, 0, err
	}
	if id >= MaxFieldID {
		return FieldInfo{}, 0, fmt.Errorf("%w: id %d exceeds %d", errs.ErrInvalidFieldRef, id, MaxFieldID)
	}
	offset := n

	if len(b) < offset+2 {
		return FieldInfo{}, 0, fmt.Errorf("%w: header type and flags", errs.ErrTruncatedRecord)
	}
	typ := row.Type(b[offset])
	if !typ.IsValid() {
		return FieldInfo{}, 0, fmt.Errorf("%w: 0x%02x", errs.ErrUnsupportedType, b[offset])
	}
	offset += 2 // type, flags

	nameLen, n, err := uvarint(b[offset:], "name length")
	if err != nil {
		return FieldInfo{}, 0, err
	}
	offset += n

	if nameLen > uint64(len(b)-offset) {
		return FieldInfo{}, 0, fmt.Errorf("%w: name needs %d bytes, %d left", errs.ErrTruncatedRecord, nameLen, len(b)-offset)
	}
	name := string(b[offset : offset+int(nameLen)])
	offset += int(nameLen)

	return FieldInfo{ID: id, Name: name, Type: typ}, offset, nil
}

// valueSize returns the encoded size of a value of type typ at the start of b.
func (d CrowDecoder) valueSize(typ row.Type, b []byte) (int, error) {
	switch typ {
	case row.TypeString, row.TypeBytes:
		l, n, err := uvarint(b, "value length")
		if err != nil {
			return 0, err
		}
		if l > uint64(len(b)-n) {
			return 0, fmt.Errorf("%w: value needs %d bytes, %d left", errs.ErrTruncatedRecord, l, len(b)-n)
		}

		return n + int(l), nil
	case row.TypeInt32, row.TypeInt64:
		_, n := binary.Varint(b)
		if err := varintError(n, typ.String()+" value"); err != nil {
			return 0, err
		}

		return n, nil
	case row.TypeUint32, row.TypeUint64:
		_, n, err := uvarint(b, typ.String()+" value")
		if err != nil {
			return 0, err
		}

		return n, nil
	case row.TypeInt8, row.TypeUint8:
		if len(b) < 1 {
			return 0, fmt.Errorf("%w: %s value", errs.ErrTruncatedRecord, typ)
		}

		return 1, nil
	case row.TypeDouble:
		if len(b) < 8 {
			return 0, fmt.Errorf("%w: %s value", errs.ErrTruncatedRecord, typ)
		}

		return 8, nil
	default:
		return 0, fmt.Errorf("%w: %s", errs.ErrUnsupportedType, typ)
	}
}

// readValue decodes a value of type typ at the start of b.
func (d CrowDecoder) readValue(typ row.Type, b []byte) (row.Value, int, error) {
	size, err := d.valueSize(typ, b)
	if err != nil {
		return row.Value{}, 0, err
	}

	switch typ {
	case row.TypeString:
		l, n := binary.Uvarint(b)
		return row.String(string(b[n : n+int(l)])), size, nil
	case row.TypeBytes:
		l, n := binary.Uvarint(b)
		return row.Bytes(b[n : n+int(l)]), size, nil
	case row.TypeInt32:
		v, _ := binary.Varint(b)
		if v < math.MinInt32 || v > math.MaxInt32 {
			return row.Value{}, 0, fmt.Errorf("%w: %d overflows %s", errs.ErrInvalidVarint, v, typ)
		}

		return row.Int32(int32(v)), size, nil
	case row.TypeInt64:
		v, _ := binary.Varint(b)
		return row.Int64(v), size, nil
	case row.TypeUint32:
		v, _ := binary.Uvarint(b)
		if v > math.MaxUint32 {
			return row.Value{}, 0, fmt.Errorf("%w: %d overflows %s", errs.ErrInvalidVarint, v, typ)
		}

		return row.Uint32(uint32(v)), size, nil
	case row.TypeUint64:
		v, _ := binary.Uvarint(b)
		return row.Uint64(v), size, nil
	case row.TypeInt8:
		return row.Int8(int8(b[0])), size, nil //nolint:gosec
	case row.TypeUint8:
		return row.Uint8(b[0]), size, nil
	default: // row.TypeDouble
		return row.Double(math.Float64frombits(d.engine.Uint64(b))), size, nil
	}
}

// uvarint reads a uvarint, telling a short buffer apart from an overlong encoding.
func uvarint(b []byte, what string) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	if err := varintError(n, what); err != nil {
		return 0, 0, err
	}

	return v, n, nil
}

func varintError(n int, what string) error {
	switch {
	case n == 0:
		return fmt.Errorf("%w: %s", errs.ErrTruncatedRecord, what)
	case n < 0:
		return fmt.Errorf("%w: %s overflows 64 bits", errs.ErrInvalidVarint, what)
	default:
		return nil
	}
}
