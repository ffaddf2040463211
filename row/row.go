// Package row provides the typed row model consumed by the rowdiff serializers:
// scalar values, column descriptors, a name-keyed column registry and the two row
// representations (typed Row and string-keyed StringMap).
package row

import (
	"maps"
	"slices"
	"strings"
)

// Row maps column descriptors to values. A missing column or an invalid value
// both mean "not present".
type Row map[*Column]Value

// StringMap is a row keyed by column name with textual values.
type StringMap map[string]string

// Get returns the value for col, or the invalid value when absent.
func (r Row) Get(col *Column) Value {
	return r[col]
}

// Clone returns a shallow copy of the row. Values are immutable.
func (r Row) Clone() Row {
	return maps.Clone(r)
}

// Equal reports whether both rows hold the same present values.
func (r Row) Equal(o Row) bool {
	for col, v := range r {
		if v.Valid() && !v.Equal(o[col]) {
			return false
		}
	}
	for col, v := range o {
		if v.Valid() && !r[col].Valid() {
			return false
		}
	}

	return true
}

// InferColumns returns the columns of r ordered by name.
//
// Map iteration order is random in Go, so inference sorts to keep the column order,
// and with it the encoded bytes, stable between passes.
func InferColumns(r Row) Columns {
	cols := make(Columns, 0, len(r))
	for col := range r {
		cols = append(cols, col)
	}

	slices.SortFunc(cols, func(a, b *Column) int {
		return strings.Compare(a.name, b.name)
	})

	return cols
}

// ToStringMap renders the present values of r over cols.
func ToStringMap(r Row, cols Columns) StringMap {
	sm := make(StringMap, len(cols))
	for _, col := range cols {
		v := r[col]
		if !v.Valid() {
			continue
		}
		sm[col.name] = v.String()
	}

	return sm
}

// FromStringMap converts sm back to a typed row through resolver.
//
// Names the resolver does not know and values that do not parse as the column type
// are skipped and returned in skipped, so the caller can report them.
func FromStringMap(sm StringMap, resolver Resolver) (r Row, skipped []string) {
	r = make(Row, len(sm))
	for _, name := range slices.Sorted(maps.Keys(sm)) {
		col, ok := resolver.Lookup(name)
		if !ok {
			skipped = append(skipped, name)
			continue
		}

		v, err := ParseValue(col.typ, sm[name])
		if err != nil {
			skipped = append(skipped, name)
			continue
		}
		r[col] = v
	}

	return r, skipped
}

// Clone returns a copy of the map.
func (sm StringMap) Clone() StringMap {
	return maps.Clone(sm)
}

// Keys returns the keys in sorted order.
func (sm StringMap) Keys() []string {
	return slices.Sorted(maps.Keys(sm))
}
