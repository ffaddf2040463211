package serializer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/rowdiff/row"
)

func TestStats_Changed(t *testing.T) {
	require.False(t, Stats{}.Changed())
	require.False(t, Stats{Unchanged: 3, History: 3, Failed: 1}.Changed())
	require.True(t, Stats{Added: 1}.Changed())
	require.True(t, Stats{Removed: 1}.Changed())
	require.True(t, Stats{Discarded: 1}.Changed())
}

func TestListenerFuncs(t *testing.T) {
	var added, removed []row.StringMap
	l := ListenerFuncs[row.StringMap]{
		Added:   func(sm row.StringMap) { added = append(added, sm) },
		Removed: func(sm row.StringMap) { removed = append(removed, sm) },
	}

	l.OnAdded(bobMap)
	l.OnRemoved(judyMap)
	require.Equal(t, []row.StringMap{bobMap}, added)
	require.Equal(t, []row.StringMap{judyMap}, removed)

	require.NotPanics(t, func() {
		ListenerFuncs[row.StringMap]{}.OnAdded(bobMap)
		ListenerFuncs[row.StringMap]{}.OnRemoved(bobMap)
	})
}

func TestResolverChain(t *testing.T) {
	reg := row.NewRegistry()
	regName := reg.MustRegister("name", row.TypeString)
	extra := reg.MustRegister("extra", row.TypeInt64)

	chain := resolverChain{refCols, nil, reg}

	col, ok := chain.Lookup("name")
	require.True(t, ok)
	require.Same(t, nameCol, col)
	require.NotSame(t, regName, col)

	col, ok = chain.Lookup("extra")
	require.True(t, ok)
	require.Same(t, extra, col)

	_, ok = chain.Lookup("missing")
	require.False(t, ok)
}

func TestColumnSet(t *testing.T) {
	var s columnSet

	s.reset(refCols)
	require.Equal(t, 3, s.observe(row.Row{row.MustColumn("other", row.TypeString): row.String("x")}, discardLogger(t)))
	require.Equal(t, refCols, s.cols)

	s.reset(nil)
	mark := s.observe(bob, discardLogger(t))
	require.Zero(t, mark)
	require.Equal(t, []string{"active", "age", "name"}, s.cols.Names())

	foreign := row.MustColumn("name", row.TypeString)
	extra := row.MustColumn("zone", row.TypeString)
	mark = s.observe(row.Row{foreign: row.String("x"), extra: row.String("eu")}, discardLogger(t))
	require.Equal(t, 3, mark)
	require.Equal(t, []string{"active", "age", "name", "zone"}, s.cols.Names())
	require.Same(t, nameCol, s.cols[2])

	s.rollback(mark)
	require.Len(t, s.cols, 3)
}

func TestColumnSet_ResetCopiesKnown(t *testing.T) {
	known := row.Columns{nameCol, ageCol}

	var s columnSet
	s.reset(known)
	s.cols[0] = activeCol

	require.Same(t, nameCol, known[0])
}

func discardLogger(t *testing.T) Logger {
	t.Helper()

	cfg, err := newConfig()
	require.NoError(t, err)

	return cfg.logger
}
