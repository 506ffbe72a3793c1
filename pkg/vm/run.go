package vm

import (
	"fmt"

	"github.com/glox-lang/glox/pkg/bytecode"
)

// run is the single flat dispatch loop: decode one opcode, act on it,
// repeat until the outermost frame returns or a runtime fault aborts. ip
// is kept in a local across iterations for speed and written back to
// frame.IP before any step that can raise an error, allocate (and so
// trigger a GC), or switch frames, so that step sees a consistent frame.
func (vm *VM) run() *RuntimeError {
	frame := vm.currentFrame()
	chunk := frame.Closure.Function.Chunk
	ip := frame.IP

	readByte := func() byte {
		b := chunk.Code[ip]
		ip++
		return b
	}
	readShort := func() int {
		hi, lo := chunk.Code[ip], chunk.Code[ip+1]
		ip += 2
		return int(hi)<<8 | int(lo)
	}
	readConstant := func() bytecode.Value { return chunk.Constants[readByte()] }
	readString := func() *bytecode.ObjString { return readConstant().Obj.(*bytecode.ObjString) }
	reloadFrame := func() {
		frame = vm.currentFrame()
		chunk = frame.Closure.Function.Chunk
		ip = frame.IP
	}

	for {
		if vm.Trace {
			vm.printTraceLine(chunk, ip)
		}

		op := bytecode.OpCode(readByte())

		switch op {
		case bytecode.OpConstant:
			vm.push(readConstant())

		case bytecode.OpNil:
			vm.push(bytecode.NilVal)

		case bytecode.OpTrue:
			vm.push(bytecode.BoolVal(true))

		case bytecode.OpFalse:
			vm.push(bytecode.BoolVal(false))

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			i := int(readByte())
			vm.push(*vm.slot(frame, i))

		case bytecode.OpSetLocal:
			i := int(readByte())
			*vm.slot(frame, i) = vm.peek(0)

		case bytecode.OpGetGlobal:
			name := readString()
			value, ok := vm.Globals.Get(name)
			if !ok {
				frame.IP = ip
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(value)

		case bytecode.OpDefineGlobal:
			name := readString()
			vm.Globals.Set(name, vm.peek(0))
			vm.pop()

		case bytecode.OpSetGlobal:
			name := readString()
			if vm.Globals.Set(name, vm.peek(0)) {
				// Set reports "newly inserted" — there was nothing to
				// overwrite, so the global was never defined.
				vm.Globals.Delete(name)
				frame.IP = ip
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case bytecode.OpGetUpvalue:
			i := readByte()
			vm.push(vm.readUpvalue(frame.Closure.Upvalues[i]))

		case bytecode.OpSetUpvalue:
			i := readByte()
			vm.writeUpvalue(frame.Closure.Upvalues[i], vm.peek(0))

		case bytecode.OpGetProperty:
			name := readString()
			if !vm.peek(0).IsObjType(bytecode.ObjTypeInstance) {
				frame.IP = ip
				return vm.runtimeError("Only instances have properties.")
			}
			instance := vm.peek(0).Obj.(*bytecode.ObjInstance)
			if value, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(value)
				break
			}
			frame.IP = ip
			if err := vm.bindMethod(instance.Class, name); err != nil {
				return err.(*RuntimeError)
			}

		case bytecode.OpSetProperty:
			name := readString()
			if !vm.peek(1).IsObjType(bytecode.ObjTypeInstance) {
				frame.IP = ip
				return vm.runtimeError("Only instances have fields.")
			}
			instance := vm.peek(1).Obj.(*bytecode.ObjInstance)
			instance.Fields.Set(name, vm.peek(0))
			value := vm.pop()
			vm.pop()
			vm.push(value)

		case bytecode.OpGetSuper:
			name := readString()
			superclass := vm.pop().Obj.(*bytecode.ObjClass)
			frame.IP = ip
			if err := vm.bindMethod(superclass, name); err != nil {
				return err.(*RuntimeError)
			}

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(bytecode.BoolVal(bytecode.ValuesEqual(a, b)))

		case bytecode.OpGreater:
			a, b, ok := vm.popTwoNumbers()
			if !ok {
				frame.IP = ip
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.push(bytecode.BoolVal(a > b))

		case bytecode.OpLess:
			a, b, ok := vm.popTwoNumbers()
			if !ok {
				frame.IP = ip
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.push(bytecode.BoolVal(a < b))

		case bytecode.OpAdd:
			if vm.peek(0).IsObjType(bytecode.ObjTypeString) && vm.peek(1).IsObjType(bytecode.ObjTypeString) {
				b := vm.pop().Obj.(*bytecode.ObjString)
				a := vm.pop().Obj.(*bytecode.ObjString)
				frame.IP = ip
				vm.push(bytecode.ObjVal(vm.concatenate(a, b)))
			} else if vm.peek(0).Kind == bytecode.ValNumber && vm.peek(1).Kind == bytecode.ValNumber {
				b := vm.pop().Number
				a := vm.pop().Number
				vm.push(bytecode.NumberVal(a + b))
			} else {
				frame.IP = ip
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}

		case bytecode.OpSubtract:
			a, b, ok := vm.popTwoNumbers()
			if !ok {
				frame.IP = ip
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.push(bytecode.NumberVal(a - b))

		case bytecode.OpMultiply:
			a, b, ok := vm.popTwoNumbers()
			if !ok {
				frame.IP = ip
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.push(bytecode.NumberVal(a * b))

		case bytecode.OpDivide:
			a, b, ok := vm.popTwoNumbers()
			if !ok {
				frame.IP = ip
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.push(bytecode.NumberVal(a / b)) // IEEE-754: 0/0 is NaN, not an error

		case bytecode.OpNot:
			vm.push(bytecode.BoolVal(vm.pop().IsFalsey()))

		case bytecode.OpNegate:
			if vm.peek(0).Kind != bytecode.ValNumber {
				frame.IP = ip
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(bytecode.NumberVal(-vm.pop().Number))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.Stdout(), bytecode.ValueString(vm.pop()))

		case bytecode.OpJump:
			offset := readShort()
			ip += offset

		case bytecode.OpJumpIfFalse:
			offset := readShort()
			if vm.peek(0).IsFalsey() {
				ip += offset
			}

		case bytecode.OpLoop:
			offset := readShort()
			ip -= offset

		case bytecode.OpCall:
			argCount := int(readByte())
			frame.IP = ip
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err.(*RuntimeError)
			}
			reloadFrame()

		case bytecode.OpInvoke:
			name := readString()
			argCount := int(readByte())
			frame.IP = ip
			if err := vm.invoke(name, argCount); err != nil {
				return err.(*RuntimeError)
			}
			reloadFrame()

		case bytecode.OpSuperInvoke:
			name := readString()
			argCount := int(readByte())
			superclass := vm.pop().Obj.(*bytecode.ObjClass)
			frame.IP = ip
			if err := vm.invokeFromClass(superclass, name, argCount); err != nil {
				return err.(*RuntimeError)
			}
			reloadFrame()

		case bytecode.OpClosure:
			fn := readConstant().Obj.(*bytecode.ObjFunction)
			frame.IP = ip
			closure := vm.NewClosure(fn)
			vm.push(bytecode.ObjVal(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte()
				index := int(readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.base + index)
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[index]
				}
			}

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop() // the top-level script closure itself
				return nil
			}
			vm.stackTop = frame.base
			vm.push(result)
			reloadFrame()

		case bytecode.OpClass:
			name := readString()
			frame.IP = ip
			vm.push(bytecode.ObjVal(vm.NewClass(name)))

		case bytecode.OpInherit:
			superclassVal := vm.peek(1)
			if !superclassVal.IsObjType(bytecode.ObjTypeClass) {
				frame.IP = ip
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).Obj.(*bytecode.ObjClass)
			superclass := superclassVal.Obj.(*bytecode.ObjClass)
			bytecode.AddAll(&superclass.Methods, &subclass.Methods)
			vm.pop() // subclass binding only; superclass stays for the enclosing scope

		case bytecode.OpMethod:
			name := readString()
			vm.defineMethod(name)

		default:
			frame.IP = ip
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

func (vm *VM) popTwoNumbers() (a, b float64, ok bool) {
	if vm.peek(0).Kind != bytecode.ValNumber || vm.peek(1).Kind != bytecode.ValNumber {
		return 0, 0, false
	}
	b = vm.pop().Number
	a = vm.pop().Number
	return a, b, true
}
