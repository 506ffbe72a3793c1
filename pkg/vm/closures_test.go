package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glox-lang/glox/pkg/compiler"
	"github.com/glox-lang/glox/pkg/vm"
)

func runGlox(t *testing.T, src string) string {
	t.Helper()
	v := vm.New()
	var out bytes.Buffer
	v.SetStdout(&out)

	fn, err := compiler.Compile(src, v)
	require.NoError(t, err)
	result := v.Interpret(fn)
	msg := "ok"
	if e := v.LastError(); e != nil {
		msg = e.Error()
	}
	require.Equal(t, vm.InterpretOK, result, msg)
	return out.String()
}

func TestClosureMutatesCapturedVariableAcrossCalls(t *testing.T) {
	out := runGlox(t, `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestTwoClosuresOverSameVariableShareState(t *testing.T) {
	out := runGlox(t, `
		fun pair() {
			var n = 0;
			fun get() { return n; }
			fun set(v) { n = v; }
			set(42);
			return get;
		}
		print pair()();
	`)
	require.Equal(t, "42\n", out)
}

func TestClosureSurvivesEnclosingReturnViaClosing(t *testing.T) {
	out := runGlox(t, `
		fun make(x) {
			fun get() { return x; }
			return get;
		}
		var a = make(1);
		var b = make(2);
		print a();
		print b();
	`)
	require.Equal(t, "1\n2\n", out)
}
