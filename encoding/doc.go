// Package encoding implements the Crow row codec, a compact self-describing binary
// format for heterogeneous typed rows.
//
// A Crow buffer is a sequence of records, each starting with a one-byte kind:
//
//	header: 0x43 | uvarint(fieldID) | type | flags(0x00) | uvarint(len) | name
//	row:    0x05 | field*
//	field:  ref | value
//
// A field's name and type are written once, in a header record, the first time the
// encoder sees the field. Rows then reference fields by id: ids below 0x7F are a
// single byte 0x80|id, larger ids are 0xFF followed by uvarint(id). Since every
// reference byte has the high bit set and every record kind does not, a row ends at
// the next record or at the end of the buffer.
//
// Values are encoded by column type:
//   - String, Bytes: uvarint(len) followed by the raw bytes, so embedded NUL and
//     multi-byte characters survive unchanged
//   - Int32, Int64: zig-zag varint
//   - Uint32, Uint64: uvarint
//   - Int8, Uint8: one byte
//   - Double: 8 bytes, little-endian IEEE-754
//
// Null values produce no field entry, but still declare the field's header.
//
// The bytes of a row record after the kind byte are the row's identity: two rows
// encoded with the same header dictionary are equal exactly when these bytes are.
// CrowDecoder.Scan exposes them without building values, which is what the
// differencing engines match history on.
package encoding
