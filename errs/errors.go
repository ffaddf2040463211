// Package errs defines the sentinel errors shared by the rowdiff packages.
//
// Errors are wrapped with context using fmt.Errorf("%w: ...") and should be
// matched with errors.Is.
package errs

import "errors"

// Column and value errors.
var (
	// ErrEmptyColumnName is returned when a column is registered without a name.
	ErrEmptyColumnName = errors.New("column name must not be empty")
	// ErrInvalidColumnType is returned when a column is registered with an unknown type tag.
	ErrInvalidColumnType = errors.New("invalid column type")
	// ErrColumnTypeConflict is returned when a name is registered twice with different types.
	ErrColumnTypeConflict = errors.New("column already registered with a different type")
	// ErrValueParse is returned when a textual value cannot be converted to the column type.
	ErrValueParse = errors.New("cannot parse value")
)

// Crow wire format errors.
var (
	ErrInvalidRecordKind = errors.New("invalid record kind")
	ErrTruncatedRecord   = errors.New("truncated record")
	ErrInvalidVarint     = errors.New("invalid varint")
	ErrInvalidFieldRef   = errors.New("invalid field reference")
	ErrUndeclaredField   = errors.New("field referenced before its header")
	ErrHeaderConflict    = errors.New("conflicting field header")
	ErrUnsupportedType   = errors.New("unsupported field type")
	ErrFieldTypeMismatch = errors.New("value type does not match column type")
	// ErrUnknownField is reported when decoded data names a field the caller did not declare.
	ErrUnknownField = errors.New("unknown field")
)

// Serializer state errors.
var (
	ErrNotBegun = errors.New("BeginData has not been called")
	ErrNotEnded = errors.New("EndData has not been called")
	// ErrMalformedHistory describes historical data that could not be parsed.
	ErrMalformedHistory = errors.New("malformed historical data")
	// ErrUnsupportedSerializer is returned by factories for an unknown serializer id.
	ErrUnsupportedSerializer = errors.New("unsupported serializer")
)

// Snapshot envelope errors.
var (
	ErrInvalidHeaderSize   = errors.New("invalid header size")
	ErrInvalidMagicNumber  = errors.New("invalid magic number")
	ErrInvalidHeaderFlags  = errors.New("invalid header flags")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrPayloadSizeMismatch = errors.New("payload size mismatch")
	ErrSerializerMismatch  = errors.New("snapshot written by a different serializer")

	// ErrUnsupportedCompression is returned for a compression type with no registered codec.
	ErrUnsupportedCompression = errors.New("unsupported compression type")
)
