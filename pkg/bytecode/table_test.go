package bytecode

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableSetGetDelete(t *testing.T) {
	var table Table
	key := &ObjString{Chars: "x", Hash: HashString("x")}

	_, ok := table.Get(key)
	require.False(t, ok)

	isNew := table.Set(key, NumberVal(1))
	require.True(t, isNew)

	v, ok := table.Get(key)
	require.True(t, ok)
	require.Equal(t, float64(1), v.Number)

	isNew = table.Set(key, NumberVal(2))
	require.False(t, isNew, "overwriting an existing key is not a new insert")
	v, _ = table.Get(key)
	require.Equal(t, float64(2), v.Number)

	require.True(t, table.Delete(key))
	_, ok = table.Get(key)
	require.False(t, ok)
}

func TestTableTombstoneDoesNotBreakProbing(t *testing.T) {
	var table Table
	keys := make([]*ObjString, 0, 16)
	for i := 0; i < 16; i++ {
		s := fmt.Sprintf("k%d", i)
		key := &ObjString{Chars: s, Hash: HashString(s)}
		keys = append(keys, key)
		table.Set(key, NumberVal(float64(i)))
	}

	// Delete every other key, leaving tombstones interleaved with survivors.
	for i := 0; i < len(keys); i += 2 {
		table.Delete(keys[i])
	}

	for i, key := range keys {
		v, ok := table.Get(key)
		if i%2 == 0 {
			require.False(t, ok, "deleted key %d must stay gone", i)
		} else {
			require.True(t, ok, "surviving key %d must still be reachable past tombstones", i)
			require.Equal(t, float64(i), v.Number)
		}
	}
}

func TestTableRehashDropsTombstones(t *testing.T) {
	var table Table
	key := &ObjString{Chars: "a", Hash: HashString("a")}
	table.Set(key, NumberVal(1))
	table.Delete(key)
	require.Equal(t, 0, table.Count())

	// Force enough growth to trigger adjustCapacity and confirm the
	// rehash-time count recomputation doesn't resurrect the tombstone.
	for i := 0; i < 32; i++ {
		s := fmt.Sprintf("z%d", i)
		table.Set(&ObjString{Chars: s, Hash: HashString(s)}, NumberVal(float64(i)))
	}
	_, ok := table.Get(key)
	require.False(t, ok)
}

func TestFindStringMatchesByContentNotIdentity(t *testing.T) {
	var table Table
	key := &ObjString{Chars: "hello", Hash: HashString("hello")}
	table.Set(key, NilVal)

	found := table.FindString("hello", HashString("hello"))
	require.Same(t, key, found)

	require.Nil(t, table.FindString("goodbye", HashString("goodbye")))
}

func TestAddAllCopiesLiveEntriesOnly(t *testing.T) {
	var src, dst Table
	a := &ObjString{Chars: "a", Hash: HashString("a")}
	b := &ObjString{Chars: "b", Hash: HashString("b")}
	src.Set(a, NumberVal(1))
	src.Set(b, NumberVal(2))
	src.Delete(b)

	AddAll(&src, &dst)
	_, ok := dst.Get(a)
	require.True(t, ok)
	_, ok = dst.Get(b)
	require.False(t, ok, "a tombstoned source entry must not be copied")
}

func TestRemoveWhiteDeletesUnmarkedKeys(t *testing.T) {
	var table Table
	live := &ObjString{Chars: "live", Hash: HashString("live")}
	dead := &ObjString{Chars: "dead", Hash: HashString("dead")}
	live.SetMarked(true)
	table.Set(live, NilVal)
	table.Set(dead, NilVal)

	table.RemoveWhite()

	_, ok := table.Get(live)
	require.True(t, ok)
	_, ok = table.Get(dead)
	require.False(t, ok)
}
