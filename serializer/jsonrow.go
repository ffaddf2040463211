package serializer

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/arloliu/rowdiff/errs"
	"github.com/arloliu/rowdiff/row"
)

var json = jsoniter.ConfigFastest

// appendRowJSON appends r as a JSON object with the present values of cols, in
// column order, every value rendered as a string.
func appendRowJSON(dst []byte, r row.Row, cols row.Columns) []byte {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	stream.SetBuffer(dst)
	stream.WriteObjectStart()
	first := true
	for _, col := range cols {
		v := r[col]
		if !v.Valid() {
			continue
		}
		if !first {
			stream.WriteMore()
		}
		first = false
		stream.WriteObjectField(col.Name())
		stream.WriteString(v.String())
	}
	stream.WriteObjectEnd()

	out := stream.Buffer()
	stream.SetBuffer(nil)

	return out
}

// appendStringMapJSON appends sm as a JSON object with sorted keys.
func appendStringMapJSON(dst []byte, sm row.StringMap) []byte {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	stream.SetBuffer(dst)
	stream.WriteObjectStart()
	for i, k := range sm.Keys() {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(k)
		stream.WriteString(sm[k])
	}
	stream.WriteObjectEnd()

	out := stream.Buffer()
	stream.SetBuffer(nil)

	return out
}

// decodeObject parses data as a single JSON object. Only string members with a
// non-empty name are kept.
func decodeObject(data []byte) (row.StringMap, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformedHistory, err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object", errs.ErrMalformedHistory)
	}

	return stringMembers(obj), nil
}

// decodeArray parses data as a JSON array of objects. Any element that is not an
// object fails the whole array.
func decodeArray(data []byte) ([]row.StringMap, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformedHistory, err)
	}

	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON array", errs.ErrMalformedHistory)
	}

	out := make([]row.StringMap, 0, len(arr))
	for i, elem := range arr {
		obj, ok := elem.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not an object", errs.ErrMalformedHistory, i)
		}
		out = append(out, stringMembers(obj))
	}

	return out, nil
}

func stringMembers(obj map[string]any) row.StringMap {
	sm := make(row.StringMap, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok || k == "" {
			continue
		}
		sm[k] = s
	}

	return sm
}
