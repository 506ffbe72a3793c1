// Package vm - error handling with stack traces.
//
// A runtime fault carries the full call stack rather than just a
// message, and rendering it walks frames innermost-first, giving the
// source line and the function name (or "script" for the top level) at
// each level.
package vm

import (
	"fmt"
	"strings"
)

// StackFrame captures one call stack entry at the moment a runtime error
// was raised: which function it was in, and what source line its
// instruction pointer corresponded to.
type StackFrame struct {
	FunctionName string // "script" for the top-level frame
	Line         int
}

// RuntimeError is a glox runtime fault: a message plus the call stack at
// the moment it was raised, rendered innermost-frame-first.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, frame := range e.StackTrace {
		b.WriteString("\n")
		if frame.FunctionName == "" {
			fmt.Fprintf(&b, "[line %d] in script", frame.Line)
		} else {
			fmt.Fprintf(&b, "[line %d] in %s()", frame.Line, frame.FunctionName)
		}
	}
	return b.String()
}

// newRuntimeError builds a RuntimeError from the VM's current call stack,
// innermost frame first.
func (vm *VM) newRuntimeError(format string, args ...interface{}) *RuntimeError {
	message := fmt.Sprintf(format, args...)
	trace := make([]StackFrame, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.Closure.Function
		line := fn.Chunk.LineAt(frame.IP - 1)
		name := ""
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		trace = append(trace, StackFrame{FunctionName: name, Line: line})
	}
	return &RuntimeError{Message: message, StackTrace: trace}
}

// runtimeError raises err, unwinds by resetting the VM's stacks so
// subsequent Interpret calls are permitted, and records it so Interpret
// can report InterpretRuntimeError.
func (vm *VM) runtimeError(format string, args ...interface{}) *RuntimeError {
	err := vm.newRuntimeError(format, args...)
	vm.lastError = err
	vm.resetStack()
	return err
}
