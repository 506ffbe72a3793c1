package vm

import "github.com/glox-lang/glox/pkg/bytecode"

// InterpretResult is the three-way outcome of running a compiled program.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// Interpret runs fn, the top-level Function the compiler produced from a
// source program: the VM wraps it in a Closure, pushes it on the operand
// stack, installs a frame, and enters the dispatch loop. Compiling source
// into fn is deliberately not this method's job — pkg/compiler.Compile
// takes the VM only as an Allocator, not the other way around, so this
// package never imports the compiler. Callers (cmd/glox, or tests) are
// expected to call compiler.Compile first and report
// InterpretCompileError themselves on failure; this method only ever
// returns InterpretOK or InterpretRuntimeError.
func (vm *VM) Interpret(fn *bytecode.ObjFunction) InterpretResult {
	vm.resetStack()
	vm.lastError = nil

	vm.push(bytecode.ObjVal(fn))
	closure := vm.NewClosure(fn)
	vm.pop()
	vm.push(bytecode.ObjVal(closure))
	if err := vm.call(closure, 0); err != nil {
		return InterpretRuntimeError
	}

	if err := vm.run(); err != nil {
		vm.lastError = err
		return InterpretRuntimeError
	}
	return InterpretOK
}

// LastError returns the RuntimeError from the most recent InterpretRuntimeError
// result, or nil if the last Interpret call succeeded.
func (vm *VM) LastError() *RuntimeError {
	if vm.lastError == nil {
		return nil
	}
	return vm.lastError.(*RuntimeError)
}
