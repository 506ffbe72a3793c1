package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glox-lang/glox/pkg/compiler"
	"github.com/glox-lang/glox/pkg/vm"
)

func TestArithmeticAndPrint(t *testing.T) {
	require.Equal(t, "10\n", runGlox(t, "print 1 + 2 * 3 + 3;"))
}

func TestStringConcatenation(t *testing.T) {
	require.Equal(t, "hello world\n", runGlox(t, `print "hello" + " " + "world";`))
}

func TestControlFlowIfElse(t *testing.T) {
	require.Equal(t, "yes\n", runGlox(t, `if (1 < 2) print "yes"; else print "no";`))
}

func TestWhileLoopAccumulates(t *testing.T) {
	require.Equal(t, "6\n", runGlox(t, `
		var total = 0;
		var i = 1;
		while (i <= 3) {
			total = total + i;
			i = i + 1;
		}
		print total;
	`))
}

func TestForLoopFibonacci(t *testing.T) {
	out := runGlox(t, `
		var a = 0;
		var b = 1;
		for (var i = 0; i < 6; i = i + 1) {
			print a;
			var next = a + b;
			a = b;
			b = next;
		}
	`)
	require.Equal(t, "0\n1\n1\n2\n3\n5\n", out)
}

func TestRecursiveFunction(t *testing.T) {
	out := runGlox(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	require.Equal(t, "55\n", out)
}

func TestIEEE754DivisionByZeroIsNaN(t *testing.T) {
	out := runGlox(t, `print (0 / 0) != (0 / 0);`)
	require.Equal(t, "true\n", out, "NaN must compare unequal to itself")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	v := vm.New()
	fn, err := compiler.Compile(`
		fun f(a, b) { return a + b; }
		f(1);
	`, v)
	require.NoError(t, err)
	require.Equal(t, vm.InterpretRuntimeError, v.Interpret(fn))
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	v := vm.New()
	fn, err := compiler.Compile(`var x = 1; x();`, v)
	require.NoError(t, err)
	require.Equal(t, vm.InterpretRuntimeError, v.Interpret(fn))
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	v := vm.New()
	fn, err := compiler.Compile(`print nope;`, v)
	require.NoError(t, err)
	require.Equal(t, vm.InterpretRuntimeError, v.Interpret(fn))
}

func TestStackOverflowAtFramesMaxIsRuntimeErrorNotCrash(t *testing.T) {
	v := vm.New()
	fn, err := compiler.Compile(`
		fun recurse(n) { return recurse(n + 1); }
		recurse(0);
	`, v)
	require.NoError(t, err)
	require.Equal(t, vm.InterpretRuntimeError, v.Interpret(fn))
	require.Contains(t, v.LastError().Error(), "Stack overflow")
}

func TestRuntimeErrorStackTraceIsInnermostFirst(t *testing.T) {
	v := vm.New()
	fn, err := compiler.Compile(`
		fun a() { return 1 + nil; }
		fun b() { return a(); }
		b();
	`, v)
	require.NoError(t, err)
	require.Equal(t, vm.InterpretRuntimeError, v.Interpret(fn))
	msg := v.LastError().Error()
	require.Contains(t, msg, "in a()")
	require.Contains(t, msg, "in b()")
	require.Less(t, indexOf(msg, "in a()"), indexOf(msg, "in b()"), "innermost frame must be reported first")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestInterpretCanRunAgainAfterARuntimeError(t *testing.T) {
	v := vm.New()
	fn, err := compiler.Compile(`print 1 + nil;`, v)
	require.NoError(t, err)
	require.Equal(t, vm.InterpretRuntimeError, v.Interpret(fn))

	fn2, err := compiler.Compile(`print "recovered";`, v)
	require.NoError(t, err)
	require.Equal(t, vm.InterpretOK, v.Interpret(fn2))
}
