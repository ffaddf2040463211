package serializer

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/rowdiff/row"
)

const (
	crowHeaders = "43000100046e616d65" + "4301020003616765" + "4302090006616374697665"
	crowBob     = "058003626f6281408201"
	crowJudy    = "0580044a7564798200"
	crowCoco    = "058004436f636f8106"

	lineBob  = `{"name":"bob","age":"32","active":"1"}`
	lineJudy = `{"name":"Judy","active":"0"}`
	lineCoco = `{"name":"Coco","age":"3"}`

	arrayReference = `[{"active":"1","age":"32","name":"bob"},{"active":"0","name":"Judy"},{"age":"3","name":"Coco"}]`
)

var (
	nameCol   = row.MustColumn("name", row.TypeString)
	ageCol    = row.MustColumn("age", row.TypeInt32)
	activeCol = row.MustColumn("active", row.TypeUint8)
	refCols   = row.Columns{nameCol, ageCol, activeCol}

	bob  = row.Row{nameCol: row.String("bob"), ageCol: row.Int32(32), activeCol: row.Bool(true)}
	judy = row.Row{nameCol: row.String("Judy"), activeCol: row.Bool(false)}
	coco = row.Row{nameCol: row.String("Coco"), ageCol: row.Int32(3)}

	bobMap  = row.StringMap{"name": "bob", "age": "32", "active": "1"}
	judyMap = row.StringMap{"name": "Judy", "active": "0"}
	cocoMap = row.StringMap{"name": "Coco", "age": "3"}
)

func mustHex(t *testing.T, parts ...string) []byte {
	t.Helper()

	var s string
	for _, p := range parts {
		s += p
	}
	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

// recorder collects listener callbacks.
type recorder[R any] struct {
	added   []R
	removed []R
}

func (r *recorder[R]) OnAdded(v R)   { r.added = append(r.added, v) }
func (r *recorder[R]) OnRemoved(v R) { r.removed = append(r.removed, v) }

type passResult[R any] struct {
	snapshot      []byte
	changed       bool
	historyFailed bool
	newRows       int
	stats         Stats
	events        *recorder[R]
}

// runPass drives one full cycle and fails the test on any row error.
func runPass[R any](t *testing.T, s ResultsSerializer[R], history []byte, known []*row.Column, rows ...R) passResult[R] {
	t.Helper()

	res := passResult[R]{events: &recorder[R]{}}
	res.historyFailed = s.BeginData(history, res.events, known)
	for _, r := range rows {
		isNew, err := s.AddNewResult(r)
		require.NoError(t, err)
		if isNew {
			res.newRows++
		}
	}

	changed, err := s.EndData()
	require.NoError(t, err)
	res.changed = changed

	res.snapshot, err = s.Serialize(nil)
	require.NoError(t, err)
	res.stats = s.Stats()

	return res
}

func requireRows(t *testing.T, want []row.Row, got []row.Row) {
	t.Helper()

	require.Len(t, got, len(want))
	for i := range want {
		require.True(t, want[i].Equal(got[i]), "row %d: want %v, got %v", i, want[i], got[i])
	}
}
