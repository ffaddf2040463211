package format

type (
	SerializerID    byte
	CompressionType uint8
)

const (
	Crow        SerializerID = 'c' // Crow is the binary header-deduplicated row format.
	JSON        SerializerID = 'j' // JSON is the newline-delimited JSON object format.
	OsqueryJSON SerializerID = 'o' // OsqueryJSON is the JSON array-of-objects format.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (id SerializerID) String() string {
	switch id {
	case Crow:
		return "Crow"
	case JSON:
		return "JSON"
	case OsqueryJSON:
		return "OsqueryJSON"
	default:
		return "Unknown"
	}
}

// IsValid reports whether id names a known serializer.
func (id SerializerID) IsValid() bool {
	switch id {
	case Crow, JSON, OsqueryJSON:
		return true
	default:
		return false
	}
}

// IsValid reports whether c names a known compression type.
func (c CompressionType) IsValid() bool {
	return c >= CompressionNone && c <= CompressionLZ4
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
