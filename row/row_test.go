package row

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testName   = MustColumn("name", TypeString)
	testAge    = MustColumn("age", TypeInt32)
	testActive = MustColumn("active", TypeUint8)
)

func TestInferColumns_SortedByName(t *testing.T) {
	r := Row{testName: String("bob"), testAge: Int32(32), testActive: Bool(true)}

	require.Equal(t, Columns{testActive, testAge, testName}, InferColumns(r))
}

func TestRow_Equal(t *testing.T) {
	a := Row{testName: String("Judy"), testAge: Null(), testActive: Bool(false)}
	b := Row{testName: String("Judy"), testActive: Bool(false)}

	require.True(t, a.Equal(b), "null and absent are the same")
	require.True(t, b.Equal(a))

	b[testAge] = Int32(1)
	require.False(t, a.Equal(b))
	require.False(t, b.Equal(a))
}

func TestRow_Clone(t *testing.T) {
	r := Row{testName: String("bob")}
	c := r.Clone()
	c[testAge] = Int32(1)

	require.Len(t, r, 1)
	require.Equal(t, String("bob"), c.Get(testName))
	require.False(t, r.Get(testAge).Valid())
}

func TestToStringMap_FromStringMap(t *testing.T) {
	cols := Columns{testName, testAge, testActive}
	r := Row{testName: String("Coco"), testAge: Int32(3), testActive: Null()}

	sm := ToStringMap(r, cols)
	require.Equal(t, StringMap{"name": "Coco", "age": "3"}, sm)

	back, skipped := FromStringMap(sm, cols)
	require.Empty(t, skipped)
	require.True(t, r.Equal(back))
}

func TestFromStringMap_SkipsUnknownAndUnparsable(t *testing.T) {
	cols := Columns{testName, testAge}
	sm := StringMap{"name": "bob", "age": "old", "color": "red"}

	r, skipped := FromStringMap(sm, cols)
	require.Equal(t, []string{"age", "color"}, skipped)
	require.Equal(t, Row{testName: String("bob")}, r)
}

func TestStringMap_Keys(t *testing.T) {
	sm := StringMap{"name": "bob", "age": "32", "active": "1"}

	require.Equal(t, []string{"active", "age", "name"}, sm.Keys())
	require.Equal(t, sm, sm.Clone())
}
