package serializer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/rowdiff/errs"
	"github.com/arloliu/rowdiff/format"
	"github.com/arloliu/rowdiff/row"
)

func newArray(t *testing.T, opts ...Option) *ArraySerializer {
	t.Helper()

	s, err := NewArraySerializer(opts...)
	require.NoError(t, err)
	t.Cleanup(s.Release)

	return s
}

func TestArraySerializer_ReferenceOutput(t *testing.T) {
	s := newArray(t)
	require.Equal(t, format.OsqueryJSON, s.ID())

	res := runPass[row.StringMap](t, s, nil, nil, bobMap, judyMap, cocoMap)

	require.True(t, res.changed)
	require.Equal(t, arrayReference, string(res.snapshot))
	require.Equal(t, []row.StringMap{bobMap, judyMap, cocoMap}, res.events.added)
}

func TestArraySerializer_EmptyPass(t *testing.T) {
	s := newArray(t)

	res := runPass[row.StringMap](t, s, nil, nil)
	require.False(t, res.changed)
	require.Equal(t, "[]", string(res.snapshot))

	res = runPass[row.StringMap](t, s, []byte("[]"), nil)
	require.False(t, res.changed)
	require.False(t, res.historyFailed)
}

func TestArraySerializer_ReplayAndRemoval(t *testing.T) {
	s := newArray(t)

	replay := runPass[row.StringMap](t, s, []byte(arrayReference), nil, cocoMap, judyMap, bobMap)
	require.False(t, replay.changed)
	require.Empty(t, replay.events.added)
	require.Empty(t, replay.events.removed)
	require.Equal(t, Stats{Unchanged: 3, History: 3}, replay.stats)

	removal := runPass[row.StringMap](t, s, []byte(arrayReference), nil, bobMap, cocoMap)
	require.True(t, removal.changed)
	require.Equal(t, []row.StringMap{judyMap}, removal.events.removed)
	require.Equal(t, `[{"active":"1","age":"32","name":"bob"},{"age":"3","name":"Coco"}]`, string(removal.snapshot))
}

func TestArraySerializer_Multiset(t *testing.T) {
	s := newArray(t)
	history := []byte(`[{"name":"bob"},{"name":"bob"},{"name":"Coco"}]`)

	res := runPass[row.StringMap](t, s, history, nil, row.StringMap{"name": "bob"})
	require.True(t, res.changed)
	require.Equal(t, []row.StringMap{{"name": "bob"}, {"name": "Coco"}}, res.events.removed)

	res = runPass[row.StringMap](t, s, history, nil,
		row.StringMap{"name": "bob"}, row.StringMap{"name": "Coco"}, row.StringMap{"name": "bob"})
	require.False(t, res.changed)

	res = runPass[row.StringMap](t, s, []byte(`[{"name":"bob"}]`), nil,
		row.StringMap{"name": "bob"}, row.StringMap{"name": "bob"})
	require.Equal(t, []row.StringMap{{"name": "bob"}}, res.events.added)
}

func TestArraySerializer_MalformedHistory(t *testing.T) {
	tests := []struct {
		name    string
		history string
	}{
		{name: "not json", history: "{"},
		{name: "object", history: `{"name":"bob"}`},
		{name: "non-object element", history: `[{"name":"bob"},3]`},
		{name: "trailing bytes", history: `[{"name":"bob"}] x`},
		{name: "null", history: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newArray(t)

			res := runPass[row.StringMap](t, s, []byte(tt.history), nil, bobMap)
			require.True(t, res.historyFailed)
			require.Empty(t, res.events.removed)
			require.Equal(t, []row.StringMap{bobMap}, res.events.added)
		})
	}
}

func TestArraySerializer_BlankHistory(t *testing.T) {
	s := newArray(t)

	res := runPass[row.StringMap](t, s, []byte(" \n\t"), nil, bobMap)
	require.False(t, res.historyFailed)
	require.Equal(t, 1, res.stats.Added)
}

func TestArraySerializer_NonStringMembers(t *testing.T) {
	s := newArray(t)
	history := []byte(`[{"name":"bob","age":32,"tags":["a"],"":"empty"}]`)

	res := runPass[row.StringMap](t, s, history, nil, row.StringMap{"name": "bob"})
	require.False(t, res.changed)
}

func TestArraySerializer_EmptyObjects(t *testing.T) {
	s := newArray(t)

	res := runPass[row.StringMap](t, s, nil, nil, row.StringMap{}, row.StringMap{})
	require.Equal(t, "[{},{}]", string(res.snapshot))

	res = runPass[row.StringMap](t, s, res.snapshot, nil, row.StringMap{})
	require.Len(t, res.events.removed, 1)
}

func TestArraySerializer_StateErrors(t *testing.T) {
	s := newArray(t)

	_, err := s.AddNewResult(bobMap)
	require.ErrorIs(t, err, errs.ErrNotBegun)

	s.BeginData(nil, nil, nil)
	_, err = s.Serialize(nil)
	require.ErrorIs(t, err, errs.ErrNotEnded)
}

func TestTypedAdapter(t *testing.T) {
	inner := newArray(t)
	a, err := NewTypedAdapter(inner)
	require.NoError(t, err)
	require.Equal(t, format.OsqueryJSON, a.ID())

	first := runPass[row.Row](t, a, nil, refCols, bob, judy, coco)
	require.Equal(t, arrayReference, string(first.snapshot))
	require.Len(t, first.events.added, 3)
	// added callbacks receive the caller's own rows
	require.Equal(t, bob, first.events.added[0])

	second := runPass[row.Row](t, a, first.snapshot, refCols, bob, coco)
	require.True(t, second.changed)
	requireRows(t, []row.Row{judy}, second.events.removed)
	require.Equal(t, Stats{Removed: 1, Unchanged: 2, History: 3}, second.stats)
}

func TestTypedAdapter_InferredColumns(t *testing.T) {
	a, err := NewTypedAdapter(newArray(t))
	require.NoError(t, err)

	first := runPass[row.Row](t, a, nil, nil, bob)
	require.Equal(t, `[{"active":"1","age":"32","name":"bob"}]`, string(first.snapshot))

	// active is unknown to a pass that only saw coco
	second := runPass[row.Row](t, a, first.snapshot, nil, coco)
	requireRows(t, []row.Row{{nameCol: row.String("bob"), ageCol: row.Int32(32)}}, second.events.removed)
}

func TestTypedAdapter_StateErrors(t *testing.T) {
	a, err := NewTypedAdapter(newArray(t))
	require.NoError(t, err)

	_, err = a.AddNewResult(bob)
	require.ErrorIs(t, err, errs.ErrNotBegun)
	require.Empty(t, a.columns.cols)

	first := runPass[row.Row](t, a, nil, nil, judy)
	require.Equal(t, []string{"active", "name"}, a.columns.cols.Names())

	// a rejected row does not widen the inferred columns
	_, err = a.AddNewResult(bob)
	require.ErrorIs(t, err, errs.ErrNotBegun)
	require.Equal(t, []string{"active", "name"}, a.columns.cols.Names())

	second := runPass[row.Row](t, a, first.snapshot, nil, judy)
	require.False(t, second.changed)
	require.Empty(t, second.events.removed)
}

func TestTypedAdapter_OverLines(t *testing.T) {
	inner, err := NewStringMapLineSerializer()
	require.NoError(t, err)
	a, err := NewTypedAdapter(inner)
	require.NoError(t, err)

	res := runPass[row.Row](t, a, nil, refCols, judy)
	require.Equal(t, `{"active":"0","name":"Judy"}`+"\n", string(res.snapshot))
}
