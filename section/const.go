package section

const (
	// MagicSnapshotV1 identifies version 1 of the snapshot envelope.
	MagicSnapshotV1 = 0xEC10

	// HeaderSize is the fixed size of the snapshot header in bytes.
	HeaderSize = 16

	// MaxPayloadSize is the largest uncompressed payload the header can describe.
	MaxPayloadSize = 1<<32 - 1
)
