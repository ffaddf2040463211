package row

import (
	"fmt"
	"math"
	"strconv"

	"github.com/arloliu/rowdiff/errs"
)

// Type is the type tag of a column or value.
//
// The numeric values are part of the Crow wire format and must not change.
type Type uint8

const (
	TypeInvalid Type = 0x00
	TypeString  Type = 0x01
	TypeInt32   Type = 0x02
	TypeUint32  Type = 0x03
	TypeInt64   Type = 0x04
	TypeUint64  Type = 0x05
	TypeDouble  Type = 0x06
	TypeBytes   Type = 0x07
	TypeInt8    Type = 0x08
	TypeUint8   Type = 0x09
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeInt32:
		return "Int32"
	case TypeUint32:
		return "Uint32"
	case TypeInt64:
		return "Int64"
	case TypeUint64:
		return "Uint64"
	case TypeDouble:
		return "Double"
	case TypeBytes:
		return "Bytes"
	case TypeInt8:
		return "Int8"
	case TypeUint8:
		return "Uint8"
	default:
		return "Invalid"
	}
}

// IsValid reports whether t is a concrete value type.
func (t Type) IsValid() bool {
	return t >= TypeString && t <= TypeUint8
}

// IsSigned reports whether t is a signed integer type.
func (t Type) IsSigned() bool {
	return t == TypeInt8 || t == TypeInt32 || t == TypeInt64
}

// IsUnsigned reports whether t is an unsigned integer type.
func (t Type) IsUnsigned() bool {
	return t == TypeUint8 || t == TypeUint32 || t == TypeUint64
}

// IsText reports whether t carries a length-prefixed byte sequence.
func (t Type) IsText() bool {
	return t == TypeString || t == TypeBytes
}

// Value is an immutable tagged union holding one scalar.
//
// The zero Value is invalid and represents SQL NULL: it is never encoded.
type Value struct {
	typ Type
	i   int64
	u   uint64
	f   float64
	s   string
}

// Null returns the invalid value.
func Null() Value { return Value{} }

func String(s string) Value { return Value{typ: TypeString, s: s} }

// Bytes returns a byte-sequence value. The slice is copied.
func Bytes(b []byte) Value { return Value{typ: TypeBytes, s: string(b)} }

func Int8(v int8) Value     { return Value{typ: TypeInt8, i: int64(v)} }
func Int32(v int32) Value   { return Value{typ: TypeInt32, i: int64(v)} }
func Int64(v int64) Value   { return Value{typ: TypeInt64, i: v} }
func Uint8(v uint8) Value   { return Value{typ: TypeUint8, u: uint64(v)} }
func Uint32(v uint32) Value { return Value{typ: TypeUint32, u: uint64(v)} }
func Uint64(v uint64) Value { return Value{typ: TypeUint64, u: v} }
func Double(v float64) Value {
	return Value{typ: TypeDouble, f: v}
}

// Bool returns a Uint8 value of 1 or 0.
func Bool(v bool) Value {
	if v {
		return Uint8(1)
	}

	return Uint8(0)
}

// Type returns the type tag, TypeInvalid for null.
func (v Value) Type() Type { return v.typ }

// Valid reports whether the value is present.
func (v Value) Valid() bool { return v.typ != TypeInvalid }

// Int64 returns the value as a signed integer.
//
// The second result is false when the value is not numeric or does not fit.
func (v Value) Int64() (int64, bool) {
	switch {
	case v.typ.IsSigned():
		return v.i, true
	case v.typ.IsUnsigned():
		if v.u > math.MaxInt64 {
			return 0, false
		}

		return int64(v.u), true
	case v.typ == TypeDouble:
		if v.f != math.Trunc(v.f) || v.f < math.MinInt64 || v.f >= math.MaxInt64 {
			return 0, false
		}

		return int64(v.f), true
	default:
		return 0, false
	}
}

// Uint64 returns the value as an unsigned integer.
//
// The second result is false when the value is not numeric, negative or fractional.
func (v Value) Uint64() (uint64, bool) {
	switch {
	case v.typ.IsUnsigned():
		return v.u, true
	case v.typ.IsSigned():
		if v.i < 0 {
			return 0, false
		}

		return uint64(v.i), true
	case v.typ == TypeDouble:
		if v.f != math.Trunc(v.f) || v.f < 0 || v.f >= math.MaxUint64 {
			return 0, false
		}

		return uint64(v.f), true
	default:
		return 0, false
	}
}

// Float64 returns the value as a float.
func (v Value) Float64() (float64, bool) {
	switch {
	case v.typ == TypeDouble:
		return v.f, true
	case v.typ.IsSigned():
		return float64(v.i), true
	case v.typ.IsUnsigned():
		return float64(v.u), true
	default:
		return 0, false
	}
}

// Str returns the raw string or byte-sequence content.
func (v Value) Str() (string, bool) {
	if !v.typ.IsText() {
		return "", false
	}

	return v.s, true
}

// Raw returns a copy of the string or byte-sequence content.
func (v Value) Raw() ([]byte, bool) {
	if !v.typ.IsText() {
		return nil, false
	}

	return []byte(v.s), true
}

// String renders the value in the textual form used by the JSON formats.
//
// Integers are decimal, doubles use the shortest representation that round-trips,
// strings and byte sequences are returned verbatim. Null renders as "".
func (v Value) String() string {
	switch {
	case v.typ.IsText():
		return v.s
	case v.typ.IsSigned():
		return strconv.FormatInt(v.i, 10)
	case v.typ.IsUnsigned():
		return strconv.FormatUint(v.u, 10)
	case v.typ == TypeDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return ""
	}
}

// Equal reports whether both values have the same type and content.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}

	switch {
	case v.typ.IsText():
		return v.s == o.s
	case v.typ.IsSigned():
		return v.i == o.i
	case v.typ.IsUnsigned():
		return v.u == o.u
	case v.typ == TypeDouble:
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	default:
		return true
	}
}

// Convert coerces v to typ.
//
// Numeric values convert between integer widths and doubles when the value fits;
// strings and byte sequences convert into each other. Anything else fails with
// errs.ErrFieldTypeMismatch. Null converts to null.
func (v Value) Convert(typ Type) (Value, error) {
	if !v.Valid() || v.typ == typ {
		return v, nil
	}

	mismatch := func() (Value, error) {
		return Value{}, fmt.Errorf("%w: cannot convert %s to %s", errs.ErrFieldTypeMismatch, v.typ, typ)
	}

	switch typ {
	case TypeString:
		if v.typ == TypeBytes {
			return String(v.s), nil
		}
	case TypeBytes:
		if v.typ == TypeString {
			return Value{typ: TypeBytes, s: v.s}, nil
		}
	case TypeInt8, TypeInt32, TypeInt64:
		n, ok := v.Int64()
		if !ok || !fitsSigned(n, typ) {
			return mismatch()
		}

		return Value{typ: typ, i: n}, nil
	case TypeUint8, TypeUint32, TypeUint64:
		n, ok := v.Uint64()
		if !ok || !fitsUnsigned(n, typ) {
			return mismatch()
		}

		return Value{typ: typ, u: n}, nil
	case TypeDouble:
		f, ok := v.Float64()
		if !ok {
			return mismatch()
		}

		return Double(f), nil
	}

	return mismatch()
}

// ParseValue converts the textual form produced by Value.String back into typ.
func ParseValue(typ Type, text string) (Value, error) {
	switch typ {
	case TypeString:
		return String(text), nil
	case TypeBytes:
		return Value{typ: TypeBytes, s: text}, nil
	case TypeInt8, TypeInt32, TypeInt64:
		n, err := strconv.ParseInt(text, 10, bitSize(typ))
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q as %s: %w", errs.ErrValueParse, text, typ, err)
		}

		return Value{typ: typ, i: n}, nil
	case TypeUint8, TypeUint32, TypeUint64:
		n, err := strconv.ParseUint(text, 10, bitSize(typ))
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q as %s: %w", errs.ErrValueParse, text, typ, err)
		}

		return Value{typ: typ, u: n}, nil
	case TypeDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q as %s: %w", errs.ErrValueParse, text, typ, err)
		}

		return Double(f), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", errs.ErrInvalidColumnType, typ)
	}
}

func bitSize(typ Type) int {
	switch typ {
	case TypeInt8, TypeUint8:
		return 8
	case TypeInt32, TypeUint32:
		return 32
	default:
		return 64
	}
}

func fitsSigned(n int64, typ Type) bool {
	switch typ {
	case TypeInt8:
		return n >= math.MinInt8 && n <= math.MaxInt8
	case TypeInt32:
		return n >= math.MinInt32 && n <= math.MaxInt32
	default:
		return true
	}
}

func fitsUnsigned(n uint64, typ Type) bool {
	switch typ {
	case TypeUint8:
		return n <= math.MaxUint8
	case TypeUint32:
		return n <= math.MaxUint32
	default:
		return true
	}
}
