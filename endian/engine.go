// Package endian provides the byte order used by rowdiff's binary formats.
//
// EndianEngine combines binary.ByteOrder and binary.AppendByteOrder so callers can
// both read fixed slots (snapshot headers) and append to growing buffers (Crow row
// values) through one value. Every rowdiff format is little-endian on the wire
// regardless of the host.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}
