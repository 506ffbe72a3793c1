package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glox-lang/glox/pkg/bytecode"
)

func TestCopyStringInternsByContent(t *testing.T) {
	v := New()
	a := v.CopyString("hello")
	b := v.CopyString("hello")
	require.Same(t, a, b, "two copies of the same bytes must be the identical interned object")
}

func TestConcatenateProducesInternedResult(t *testing.T) {
	v := New()
	ab := v.concatenate(v.CopyString("ab"), v.CopyString("c"))
	abc := v.CopyString("abc")
	require.Same(t, ab, abc, "\"ab\"+\"c\" must intern to the same object as the literal \"abc\"")
}

func TestStressGCDoesNotCorruptLiveStrings(t *testing.T) {
	v := New()
	v.StressGC = true

	var roots []*bytecode.ObjString
	for i := 0; i < 200; i++ {
		s := v.CopyString(string(rune('a' + i%26)))
		v.push(bytecode.ObjVal(s))
		roots = append(roots, s)
	}

	for i, s := range roots {
		require.Equal(t, string(rune('a'+i%26)), s.Chars, "a live, stack-rooted string must survive stress GC intact")
	}
}

func TestWeakInterningDoesNotKeepStringsAlive(t *testing.T) {
	v := New()
	s := v.CopyString("transient")
	_, ok := v.strings.Get(s)
	require.True(t, ok, "interning inserts into the string table")

	// Nothing roots s once it's off the VM's stack: a collection should
	// remove it from the intern table via RemoveWhite even though the
	// table itself never marks its own keys.
	v.resetStack()
	v.collectGarbage()

	found := v.strings.FindString("transient", bytecode.HashString("transient"))
	require.Nil(t, found, "an unrooted interned string must be swept from the weak intern table")
}

func TestGCSweepUnlinksUnreachableObjects(t *testing.T) {
	v := New()
	fn := v.NewFunction()
	v.push(bytecode.ObjVal(fn))
	v.collectGarbage()
	require.True(t, fn.IsMarked() == false, "mark bits are cleared after sweep")

	v.pop()
	v.collectGarbage()
	// fn is no longer reachable from any root; the allocation list must no
	// longer contain it.
	for o := v.objects; o != nil; o = o.Next() {
		require.NotSame(t, fn, o)
	}
}
