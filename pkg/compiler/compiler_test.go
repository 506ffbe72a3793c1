package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glox-lang/glox/pkg/bytecode"
)

// fakeAllocator is a minimal Allocator that doesn't intern strings,
// adequate for tests that only inspect the shape of emitted bytecode
// rather than runtime string identity.
type fakeAllocator struct{}

func (fakeAllocator) CopyString(s string) *bytecode.ObjString {
	return &bytecode.ObjString{Chars: s, Hash: bytecode.HashString(s)}
}

func (fakeAllocator) NewFunction() *bytecode.ObjFunction {
	return &bytecode.ObjFunction{Chunk: bytecode.NewChunk()}
}

func (fakeAllocator) SetCompilerRootMarker(fn func(mark func(bytecode.Obj))) {}

func mustCompile(t *testing.T, src string) *bytecode.ObjFunction {
	t.Helper()
	fn, err := Compile(src, fakeAllocator{})
	require.NoError(t, err)
	require.NotNil(t, fn)
	return fn
}

func opsOf(fn *bytecode.ObjFunction) []bytecode.OpCode {
	var ops []bytecode.OpCode
	code := fn.Chunk.Code
	for i := 0; i < len(code); {
		op := bytecode.OpCode(code[i])
		ops = append(ops, op)
		switch op {
		case bytecode.OpConstant, bytecode.OpGetLocal, bytecode.OpSetLocal,
			bytecode.OpGetGlobal, bytecode.OpDefineGlobal, bytecode.OpSetGlobal,
			bytecode.OpGetUpvalue, bytecode.OpSetUpvalue, bytecode.OpGetProperty,
			bytecode.OpSetProperty, bytecode.OpGetSuper, bytecode.OpCall,
			bytecode.OpClass, bytecode.OpMethod:
			i += 2
		case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpLoop:
			i += 3
		case bytecode.OpInvoke, bytecode.OpSuperInvoke:
			i += 3
		case bytecode.OpClosure:
			fnConst := fn.Chunk.Constants[code[i+1]].Obj.(*bytecode.ObjFunction)
			i += 2 + 2*fnConst.UpvalueCount
		default:
			i++
		}
	}
	return ops
}

func TestCompileArithmeticExpressionStatement(t *testing.T) {
	fn := mustCompile(t, "1 + 2 * 3;")
	ops := opsOf(fn)
	require.Contains(t, ops, bytecode.OpAdd)
	require.Contains(t, ops, bytecode.OpMultiply)
	require.Contains(t, ops, bytecode.OpPop)
}

func TestCompileReportsSyntaxError(t *testing.T) {
	_, err := Compile("1 +;", fakeAllocator{})
	require.Error(t, err)
}

func TestCompileGlobalVarUsesGlobalOps(t *testing.T) {
	fn := mustCompile(t, "var x = 1; print x;")
	ops := opsOf(fn)
	require.Contains(t, ops, bytecode.OpDefineGlobal)
	require.Contains(t, ops, bytecode.OpGetGlobal)
	require.Contains(t, ops, bytecode.OpPrint)
}

func TestCompileLocalVarUsesLocalOps(t *testing.T) {
	fn := mustCompile(t, "{ var x = 1; print x; }")
	ops := opsOf(fn)
	require.NotContains(t, ops, bytecode.OpDefineGlobal)
	require.Contains(t, ops, bytecode.OpGetLocal)
}

func TestCompileSelfReferentialInitializerIsAnError(t *testing.T) {
	_, err := Compile("{ var a = a; }", fakeAllocator{})
	require.Error(t, err)
}

func TestCompileFunctionEmitsClosure(t *testing.T) {
	fn := mustCompile(t, "fun f(a, b) { return a + b; } f(1, 2);")
	ops := opsOf(fn)
	require.Contains(t, ops, bytecode.OpClosure)
	require.Contains(t, ops, bytecode.OpCall)
}

func TestCompileClosureCapturesUpvalue(t *testing.T) {
	fn := mustCompile(t, `
		fun outer() {
			var x = 1;
			fun inner() { return x; }
			return inner;
		}
	`)
	// outer's body is itself compiled into a nested function constant.
	require.NotEmpty(t, fn.Chunk.Constants)
	var outer *bytecode.ObjFunction
	for _, c := range fn.Chunk.Constants {
		if c.IsObjType(bytecode.ObjTypeFunction) {
			outer = c.Obj.(*bytecode.ObjFunction)
		}
	}
	require.NotNil(t, outer)
	require.Contains(t, opsOf(outer), bytecode.OpClosure)
	// inner is a function constant of outer and captures outer's local x.
	var inner *bytecode.ObjFunction
	for _, c := range outer.Chunk.Constants {
		if c.IsObjType(bytecode.ObjTypeFunction) {
			inner = c.Obj.(*bytecode.ObjFunction)
		}
	}
	require.NotNil(t, inner)
	require.Equal(t, 1, inner.UpvalueCount)
}

func TestCompileClassWithMethodAndInheritance(t *testing.T) {
	fn := mustCompile(t, `
		class A { greet() { return "hi"; } }
		class B < A {
			greet() { return super.greet(); }
		}
	`)
	ops := opsOf(fn)
	require.Contains(t, ops, bytecode.OpClass)
	require.Contains(t, ops, bytecode.OpMethod)
	require.Contains(t, ops, bytecode.OpInherit)
	// super.greet() is compiled into B's greet method, the last function
	// constant of the top-level chunk.
	var greetB *bytecode.ObjFunction
	for _, c := range fn.Chunk.Constants {
		if c.IsObjType(bytecode.ObjTypeFunction) {
			greetB = c.Obj.(*bytecode.ObjFunction)
		}
	}
	require.NotNil(t, greetB)
	require.Contains(t, opsOf(greetB), bytecode.OpSuperInvoke)
}

func TestCompileMethodCallUsesInvokeFastPath(t *testing.T) {
	fn := mustCompile(t, `
		class A { greet() { return "hi"; } }
		var a = A();
		print a.greet();
	`)
	require.Contains(t, opsOf(fn), bytecode.OpInvoke)
}

func TestCompileForLoopDesugarsToJumpsAndLoop(t *testing.T) {
	fn := mustCompile(t, "for (var i = 0; i < 3; i = i + 1) print i;")
	ops := opsOf(fn)
	require.Contains(t, ops, bytecode.OpLoop)
	require.Contains(t, ops, bytecode.OpJumpIfFalse)
}

func TestCompileCannotReturnFromTopLevel(t *testing.T) {
	_, err := Compile("return 1;", fakeAllocator{})
	require.Error(t, err)
}

func TestCompileCannotUseThisOutsideClass(t *testing.T) {
	_, err := Compile("print this;", fakeAllocator{})
	require.Error(t, err)
}
