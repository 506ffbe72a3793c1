package vm

import "github.com/glox-lang/glox/pkg/bytecode"

// callValue implements the CALL protocol: the callee sits at
// stack[top-argCount-1], and what happens next depends on its runtime
// type.
func (vm *VM) callValue(callee bytecode.Value, argCount int) error {
	if callee.Kind != bytecode.ValObj {
		return vm.runtimeError("Can only call functions and classes.")
	}

	switch obj := callee.Obj.(type) {
	case *bytecode.ObjClosure:
		return vm.call(obj, argCount)

	case *bytecode.ObjNative:
		if argCount != obj.Arity {
			return vm.runtimeError("Expected %d arguments but got %d.", obj.Arity, argCount)
		}
		args := make([]bytecode.Value, argCount)
		base := vm.stackTop - argCount
		copy(args, vm.stack[base:vm.stackTop])
		result, err := obj.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stackTop -= argCount + 1
		vm.push(result)
		return nil

	case *bytecode.ObjClass:
		instance := vm.NewInstance(obj)
		vm.stack[vm.stackTop-argCount-1] = bytecode.ObjVal(instance)
		if init, ok := obj.Methods.Get(vm.initString); ok {
			return vm.call(init.Obj.(*bytecode.ObjClosure), argCount)
		}
		if argCount != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
		}
		return nil

	case *bytecode.ObjBoundMethod:
		vm.stack[vm.stackTop-argCount-1] = obj.Receiver
		return vm.call(obj.Method, argCount)

	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

// call pushes a new frame for closure, checking arity and frame-stack
// depth first.
func (vm *VM) call(closure *bytecode.ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == FramesMax {
		return vm.runtimeError("Stack overflow.")
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.Closure = closure
	frame.IP = 0
	frame.base = vm.stackTop - argCount - 1
	return nil
}

// bindMethod looks up name on class, and — if found — pops the receiver
// and pushes a fresh BoundMethod fusing it with the method closure. It
// reports an undefined-property error on miss.
func (vm *VM) bindMethod(class *bytecode.ObjClass, name *bytecode.ObjString) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.NewBoundMethod(vm.peek(0), method.Obj.(*bytecode.ObjClosure))
	vm.pop()
	vm.push(bytecode.ObjVal(bound))
	return nil
}

// invoke implements the INVOKE fast path: "get_property + call" without
// allocating an intermediate BoundMethod. A field that itself holds a
// callable value shadows a same-named method.
func (vm *VM) invoke(name *bytecode.ObjString, argCount int) error {
	receiver := vm.peek(argCount)
	if receiver.Kind != bytecode.ValObj {
		return vm.runtimeError("Only instances have methods.")
	}
	instance, ok := receiver.Obj.(*bytecode.ObjInstance)
	if !ok {
		return vm.runtimeError("Only instances have methods.")
	}

	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}

	return vm.invokeFromClass(instance.Class, name, argCount)
}

// invokeFromClass looks method up on class directly and calls it,
// bypassing bindMethod's BoundMethod allocation.
func (vm *VM) invokeFromClass(class *bytecode.ObjClass, name *bytecode.ObjString, argCount int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method.Obj.(*bytecode.ObjClosure), argCount)
}
