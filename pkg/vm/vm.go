// Package vm implements glox's execution engine: the operand-stack
// interpreter, call-frame management, upvalue-based closure capture,
// method dispatch, and the tri-color mark-sweep garbage collector that
// backs it all.
//
// The pipeline this package sits at the end of is:
//
//	source -> pkg/lexer -> pkg/compiler -> bytecode.Chunk -> vm.VM -> output
//
// The VM is single-threaded and non-reentrant by design: one VM executes
// one program at a time, with no suspension points and no opcode that
// blocks on I/O beyond PRINT's line-buffered stdout write. Callers that
// want isolated execution create separate *VM values rather than sharing
// one across goroutines.
package vm

import (
	"io"
	"os"

	"github.com/glox-lang/glox/pkg/bytecode"
)

const (
	// FramesMax bounds call-frame nesting; exceeding it is a stack-overflow
	// runtime error, not a crash.
	FramesMax = 64
	// StackMax bounds the operand stack. Sized the way clox-family VMs
	// size it: enough slots per frame that realistic programs never hit
	// bytecode's 256-local-per-function ceiling across all active frames.
	StackMax = FramesMax * 256
	// HeapGrowFactor is the multiplier applied to bytesAllocated to compute
	// the next GC trigger threshold.
	HeapGrowFactor = 2
	// initialNextGC is the trigger threshold before the first collection;
	// small enough that stress-GC-style testing exercises the collector
	// quickly, large enough that ordinary programs don't collect on their
	// first few allocations.
	initialNextGC = 1 << 20
)

// CallFrame is one entry of the VM's call stack: the closure currently
// executing, its instruction pointer, and the base of its window onto the
// operand stack. ip is authoritative only between opcode
// dispatches in VM.run's loop — the hot loop keeps its own local copy and
// writes it back here before anything that can observe frame state (error
// reporting, a nested call, a GC cycle).
type CallFrame struct {
	Closure *bytecode.ObjClosure
	IP      int
	base    int // index into vm.stack of this frame's slot 0 (the callable itself)
}

// VM holds all state for one program execution: the operand stack, the
// frame stack, the globals environment, the string-intern table, the
// allocation list, GC accounting, and the open-upvalue list.
type VM struct {
	stack    [StackMax]bytecode.Value
	stackTop int

	frames     [FramesMax]CallFrame
	frameCount int

	Globals bytecode.Table
	strings bytecode.Table // intern table; weak references only

	openUpvalues *bytecode.ObjUpvalue // sorted by decreasing stack address

	initString *bytecode.ObjString // cached "init", reinterned after strings exists

	// GC bookkeeping.
	objects        bytecode.Obj // head of the global allocation list
	bytesAllocated int
	nextGC         int
	grayStack      []bytecode.Obj // mark-phase worklist; never allocated through vm.allocate

	StressGC bool // collect before every allocation, for GC-safety testing
	Trace    bool // print each instruction and the stack before executing it

	stdout    io.Writer // PRINT's destination; defaults to os.Stdout
	traceDest io.Writer // trace mode's destination; defaults to os.Stderr

	// markCompilerRoots, when set, is invoked during mark-roots so an
	// in-progress compile's own Function objects (not yet reachable from
	// any frame or global) survive a GC triggered mid-compilation.
	markCompilerRoots func(mark func(bytecode.Obj))

	lastError error
}

// SetCompilerRootMarker registers the compiler collaborator's root-marking
// callback; see markCompilerRoots above.
func (vm *VM) SetCompilerRootMarker(fn func(mark func(bytecode.Obj))) {
	vm.markCompilerRoots = fn
}

// New creates a VM with empty stacks, an empty globals table, and the
// clock() native installed.
func New() *VM {
	vm := &VM{nextGC: initialNextGC}
	// initString must be interned after the tables it will itself mutate
	// exist.
	vm.initString = vm.CopyString("init")
	vm.defineStdNatives()
	return vm
}

// Free releases the VM's tables and walks the allocation list freeing
// every remaining object. initString is cleared first so it is never
// treated as a stale root into torn-down tables.
func (vm *VM) Free() {
	vm.initString = nil
	vm.Globals = bytecode.Table{}
	vm.strings = bytecode.Table{}

	for obj := vm.objects; obj != nil; {
		next := obj.Next()
		obj.SetNext(nil)
		obj = next
	}
	vm.objects = nil
	vm.bytesAllocated = 0
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v bytecode.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() bytecode.Value {
	vm.stackTop--
	v := vm.stack[vm.stackTop]
	vm.stack[vm.stackTop] = bytecode.NilVal
	return v
}

func (vm *VM) peek(distance int) bytecode.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) currentFrame() *CallFrame {
	return &vm.frames[vm.frameCount-1]
}

// slot returns a pointer to local i (0 is the callable itself, 1..arity
// the arguments) of frame, a live window into vm.stack.
func (vm *VM) slot(frame *CallFrame, i int) *bytecode.Value {
	return &vm.stack[frame.base+i]
}

// Stdout returns PRINT's destination, defaulting to os.Stdout. Tests set
// it with SetStdout to capture program output.
func (vm *VM) Stdout() io.Writer {
	if vm.stdout == nil {
		return os.Stdout
	}
	return vm.stdout
}

// SetStdout redirects PRINT's output.
func (vm *VM) SetStdout(w io.Writer) { vm.stdout = w }

// TraceWriter returns the trace mode's destination, defaulting to os.Stderr.
func (vm *VM) TraceWriter() io.Writer {
	if vm.traceDest == nil {
		return os.Stderr
	}
	return vm.traceDest
}

// SetTraceWriter redirects trace-mode output.
func (vm *VM) SetTraceWriter(w io.Writer) { vm.traceDest = w }
