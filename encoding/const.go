package encoding

// Record kinds and field reference markers.
const (
	RecordHeader byte = 0x43
	RecordRow    byte = 0x05

	// FieldRefFlag marks a single-byte field reference: FieldRefFlag|id.
	FieldRefFlag byte = 0x80
	// FieldRefExtended prefixes a uvarint field id that does not fit a single byte.
	FieldRefExtended byte = 0xFF

	// MaxInlineFieldID is the first id that needs the extended reference form.
	MaxInlineFieldID = 0x7F

	// MaxFieldID bounds the field ids a decoder accepts.
	MaxFieldID = 1 << 20

	headerFlags byte = 0x00
)

// varintLen returns the number of bytes required to encode a uvarint.
func varintLen(n uint64) int {
	if n < 1<<7 {
		return 1
	}
	if n < 1<<14 {
		return 2
	}
	if n < 1<<21 {
		return 3
	}
	if n < 1<<28 {
		return 4
	}
	if n < 1<<35 {
		return 5
	}
	if n < 1<<42 {
		return 6
	}
	if n < 1<<49 {
		return 7
	}
	if n < 1<<56 {
		return 8
	}
	if n < 1<<63 {
		return 9
	}

	return 10
}
