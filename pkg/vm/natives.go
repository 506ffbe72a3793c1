package vm

import (
	"time"

	"github.com/glox-lang/glox/pkg/bytecode"
)

var processStart = time.Now()

// DefineNative registers a host function under name, callable from glox
// code before the next Interpret call. fn must not trigger garbage
// collection other than through the VM's own allocator.
func (vm *VM) DefineNative(name string, arity int, fn bytecode.NativeFn) {
	// Anchor both the name and the native value on the stack across the
	// two allocations/table insert below, the same push-then-allocate
	// discipline CopyString uses.
	vm.push(bytecode.ObjVal(vm.CopyString(name)))
	vm.push(bytecode.ObjVal(vm.NewNative(name, arity, fn)))
	vm.Globals.Set(vm.stack[vm.stackTop-2].Obj.(*bytecode.ObjString), vm.stack[vm.stackTop-1])
	vm.pop()
	vm.pop()
}

// defineStdNatives installs the VM's built-in natives: clock(), seconds
// of wall-clock time since process start (a practical stand-in for CPU
// time that needs no platform-specific syscall).
func (vm *VM) defineStdNatives() {
	vm.DefineNative("clock", 0, func(args []bytecode.Value) (bytecode.Value, error) {
		return bytecode.NumberVal(time.Since(processStart).Seconds()), nil
	})
}
