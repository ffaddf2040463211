// Package compress provides the payload codecs of the snapshot envelope.
//
// A serializer pass produces a payload (a Crow buffer or a JSON document) that is
// persisted until the next pass reads it back as history. Row-oriented payloads
// repeat field references and column names on every row, so general-purpose
// compression typically shrinks them several times over.
//
// Supported algorithms:
//   - None (format.CompressionNone): payload stored as is
//   - Zstd (format.CompressionZstd): best ratio, moderate speed
//   - S2 (format.CompressionS2): fast, moderate ratio
//   - LZ4 (format.CompressionLZ4): fastest decompression
//
// Zstd uses the pure-Go github.com/klauspost/compress/zstd by default. Building
// with the gozstd tag switches to the cgo github.com/valyala/gozstd binding:
//
//	go build -tags gozstd ./...
//
// Both produce standard zstd frames, so snapshots written by one build are readable
// by the other.
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	compressed, err := codec.Compress(payload)
//	...
//	payload, err = compress.Decompress(codec, compressed, originalSize)
//
// All built-in codecs are stateless values and safe for concurrent use; encoder and
// decoder state is pooled internally.
package compress
