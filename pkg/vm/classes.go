package vm

import "github.com/glox-lang/glox/pkg/bytecode"

// defineMethod implements the METHOD opcode: the closure on top of the
// stack becomes class.methods[name], where class sits just below it. The
// method value is left on the stack as a closure object only
// transiently — it's popped once installed, since the class itself stays
// on the stack for any further METHOD opcodes in the same class body.
func (vm *VM) defineMethod(name *bytecode.ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).Obj.(*bytecode.ObjClass)
	class.Methods.Set(name, method)
	vm.pop()
}
