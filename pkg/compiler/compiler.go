// Package compiler compiles glox source directly to bytecode.Chunk values
// in a single pass — no intermediate AST — following the classic
// Pratt-parser design this VM family uses ("a tree-free... virtual
// machine"). A tree-walking AST has no job to do in a VM whose whole
// premise is executing bytecode directly off the parser's output, so
// building one here would just be allocation pressure on the very
// collector this repo implements. See DESIGN.md for the full accounting
// of what replaced what.
//
// The compiler never imports pkg/vm. It must call into the VM to intern
// strings and allocate Functions, and the VM's only call back into it is
// the root-marking callback Compile registers, so Compile takes an
// Allocator instead, satisfied structurally by *vm.VM, which keeps the
// dependency pointed one direction and leaves pkg/vm free of any
// reference to this package.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glox-lang/glox/pkg/bytecode"
	"github.com/glox-lang/glox/pkg/lexer"
)

// Allocator is the slice of the VM's embedding API the compiler needs:
// string interning and Function allocation both have to go through the
// VM's managed heap so the objects they produce are tracked by the
// garbage collector from the moment they exist. SetCompilerRootMarker
// lets Compile register its own in-progress Function objects as GC roots
// for the duration of one compile, since they are reachable only through
// the compiler's funcState chain, not from any VM stack slot or table.
type Allocator interface {
	CopyString(s string) *bytecode.ObjString
	NewFunction() *bytecode.ObjFunction
	SetCompilerRootMarker(fn func(mark func(bytecode.Obj)))
}

type funcType int

const (
	typeFunction funcType = iota
	typeInitializer
	typeMethod
	typeScript
)

type local struct {
	name       lexer.Token
	depth      int
	isCaptured bool
}

type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcState is one nested compilation context — one per function (or the
// top-level script) currently being compiled. They chain through
// enclosing the way the compiler's own call stack nests, which is also
// exactly what a registered compiler-root marker walks to protect
// in-progress Function objects from a GC triggered mid-compile.
type funcState struct {
	enclosing *funcState
	function  *bytecode.ObjFunction
	kind      funcType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// compiler holds everything one Compile call needs: the token stream, the
// allocator, and the current function/class nesting.
type compiler struct {
	lx         *lexer.Lexer
	alloc      Allocator
	current    lexer.Token
	previous   lexer.Token
	hadError   bool
	panicMode  bool
	errs       []string

	fn    *funcState
	class *classState

	// pendingUpvalues is a one-shot handoff from endFunction to the CLOSURE
	// opcode emission in function/method, since funcState is already gone
	// by the time the caller needs the upvalue table to emit operands.
	pendingUpvalues []upvalueRef
}

// Compile compiles source into a top-level Function (the implicit
// "script" the VM wraps in a Closure and runs). On a compile error it
// returns a nil function and a non-nil error describing every syntax
// error found — the compiler does not stop at the first one, so a single
// Compile call can report several (clox-style panic-mode recovery).
func Compile(source string, alloc Allocator) (*bytecode.ObjFunction, error) {
	c := &compiler{lx: lexer.New(source), alloc: alloc}
	c.fn = &funcState{function: alloc.NewFunction(), kind: typeScript}
	// Slot 0 of every frame is reserved for the callable itself; giving it
	// an empty name keeps user code from ever naming a local that collides
	// with it.
	c.fn.locals = append(c.fn.locals, local{name: lexer.Token{Lexeme: ""}, depth: 0})

	// Every funcState on the chain holds a Function reachable only from
	// this compiler, not from any VM stack slot or table, so a GC
	// triggered mid-compile (every allocation under --stress-gc) would
	// otherwise sweep it out from under us. Register it as a root for the
	// rest of this call and unregister on the way out.
	alloc.SetCompilerRootMarker(c.markCompilerRoots)
	defer alloc.SetCompilerRootMarker(nil)

	c.advance()
	for !c.match(lexer.EOF) {
		c.declaration()
	}
	fn := c.endFunction()

	if c.hadError {
		return nil, errors.New(strings.Join(c.errs, "\n"))
	}
	return fn, nil
}

// markCompilerRoots marks every in-progress Function on the live
// funcState chain, innermost first, so the GC keeps them and the
// in-flight functions enclosing them alive through a mid-compile
// collection.
func (c *compiler) markCompilerRoots(mark func(bytecode.Obj)) {
	for fn := c.fn; fn != nil; fn = fn.enclosing {
		mark(fn.function)
	}
}

// --- token plumbing -----------------------------------------------------

func (c *compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lx.Next()
		if c.current.Type != lexer.Error {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *compiler) check(t lexer.TokenType) bool { return c.current.Type == t }

func (c *compiler) match(t lexer.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *compiler) consume(t lexer.TokenType, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *compiler) errorAt(tok lexer.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	where := ""
	switch tok.Type {
	case lexer.EOF:
		where = " at end"
	case lexer.Error:
	default:
		where = " at '" + tok.Lexeme + "'"
	}
	c.errs = append(c.errs, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, msg))
	c.hadError = true
}

// synchronize skips tokens until a likely statement boundary, limiting how
// many cascading errors one mistake produces.
func (c *compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != lexer.EOF {
		if c.previous.Type == lexer.Semicolon {
			return
		}
		switch c.current.Type {
		case lexer.Class, lexer.Fun, lexer.Var, lexer.For, lexer.If, lexer.While, lexer.Print, lexer.Return:
			return
		}
		c.advance()
	}
}

// --- emission ------------------------------------------------------------

func (c *compiler) chunk() *bytecode.Chunk { return c.fn.function.Chunk }

func (c *compiler) emitByte(b byte) { c.chunk().Write(b, c.previous.Line) }
func (c *compiler) emitOp(op bytecode.OpCode) { c.chunk().WriteOp(op, c.previous.Line) }
func (c *compiler) emitOpByte(op bytecode.OpCode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

func (c *compiler) emitJump(op bytecode.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *compiler) emitReturn() {
	if c.fn.kind == typeInitializer {
		c.emitOpByte(bytecode.OpGetLocal, 0)
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.emitOp(bytecode.OpReturn)
}

func (c *compiler) makeConstant(v bytecode.Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx > 255 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *compiler) emitConstant(v bytecode.Value) {
	c.emitOpByte(bytecode.OpConstant, c.makeConstant(v))
}

func (c *compiler) identifierConstant(tok lexer.Token) byte {
	return c.makeConstant(bytecode.ObjVal(c.alloc.CopyString(tok.Lexeme)))
}

// endFunction closes out the current funcState, emits an implicit return,
// and restores the enclosing one. The outgoing function's upvalue table is
// stashed in pendingUpvalues for the caller to emit as CLOSURE operands.
func (c *compiler) endFunction() *bytecode.ObjFunction {
	c.emitReturn()
	fn := c.fn.function
	fn.UpvalueCount = len(c.fn.upvalues)
	c.pendingUpvalues = c.fn.upvalues
	c.fn = c.fn.enclosing
	return fn
}
