// Package section defines the binary layout of the snapshot envelope header.
//
// A persisted snapshot is a fixed 16-byte little-endian header followed by the
// (possibly compressed) serializer payload:
//
//	offset  size  field
//	0       2     magic number (0xEC10)
//	2       1     serializer id ('c', 'j' or 'o')
//	3       1     compression type
//	4       4     uncompressed payload size
//	8       8     xxHash64 of the uncompressed payload
//
// The checksum detects accidental corruption of stored snapshots. It is not an
// integrity guarantee against deliberate tampering.
package section
