// Package rowdiff computes differential snapshots of tabular query results.
//
// A query that runs on a schedule returns a set of rows each time. rowdiff keeps
// the previous result as a compact snapshot and, on every new run, reports which
// rows appeared and which disappeared, then produces the snapshot for the next run.
//
// # Serializers
//
// Three snapshot formats are available, selected by a one-byte id:
//
//   - 'c' (format.Crow): binary rows with deduplicated field headers
//   - 'j' (format.JSON): one JSON object per line
//   - 'o' (format.OsqueryJSON): a JSON array of objects
//
// New returns a serializer over typed rows for any of them; NewStringMap returns one
// over string maps for the JSON formats.
//
// # Basic Usage
//
// A Snapshotter runs a whole pass and keeps the snapshot in a checksummed,
// optionally compressed envelope:
//
//	s, _ := rowdiff.NewSnapshotter(format.Crow, rowdiff.WithCompression(format.CompressionZstd))
//
//	res, err := s.Diff(prev, rows, columns, serializer.ListenerFuncs[row.Row]{
//	    Added:   func(r row.Row) { fmt.Println("added", r) },
//	    Removed: func(r row.Row) { fmt.Println("removed", r) },
//	})
//	if err != nil {
//	    return err
//	}
//	prev = res.Snapshot // persist for the next pass
//
// The lower-level serializer cycle is described in package serializer.
package rowdiff

import (
	"fmt"

	"github.com/arloliu/rowdiff/errs"
	"github.com/arloliu/rowdiff/format"
	"github.com/arloliu/rowdiff/row"
	"github.com/arloliu/rowdiff/serializer"
)

// New creates a serializer over typed rows for id.
//
// Parameters:
//   - id: format.Crow, format.JSON or format.OsqueryJSON
//   - opts: Serializer options such as serializer.WithLogger
//
// Returns:
//   - serializer.ResultsSerializer[row.Row]: The serializer
//   - error: errs.ErrUnsupportedSerializer (wrapped) for any other id
func New(id format.SerializerID, opts ...serializer.Option) (serializer.ResultsSerializer[row.Row], error) {
	switch id {
	case format.Crow:
		s, err := serializer.NewCrowSerializer(opts...)
		if err != nil {
			return nil, err
		}

		return s, nil
	case format.JSON:
		s, err := serializer.NewLineSerializer(opts...)
		if err != nil {
			return nil, err
		}

		return s, nil
	case format.OsqueryJSON:
		inner, err := serializer.NewArraySerializer(opts...)
		if err != nil {
			return nil, err
		}
		s, err := serializer.NewTypedAdapter(inner, opts...)
		if err != nil {
			return nil, err
		}

		return s, nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedSerializer, id)
	}
}

// NewStringMap creates a serializer over string maps for id.
//
// Parameters:
//   - id: format.JSON or format.OsqueryJSON
//   - opts: Serializer options
//
// Returns:
//   - serializer.ResultsSerializer[row.StringMap]: The serializer
//   - error: errs.ErrUnsupportedSerializer (wrapped) for any other id
func NewStringMap(id format.SerializerID, opts ...serializer.Option) (serializer.ResultsSerializer[row.StringMap], error) {
	switch id {
	case format.JSON:
		s, err := serializer.NewStringMapLineSerializer(opts...)
		if err != nil {
			return nil, err
		}

		return s, nil
	case format.OsqueryJSON:
		s, err := serializer.NewArraySerializer(opts...)
		if err != nil {
			return nil, err
		}

		return s, nil
	default:
		return nil, fmt.Errorf("%w: %s over string maps", errs.ErrUnsupportedSerializer, id)
	}
}
