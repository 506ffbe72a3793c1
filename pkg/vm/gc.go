package vm

import "github.com/glox-lang/glox/pkg/bytecode"

// allocate registers obj on the VM's allocation list and accounts for its
// approximate size, running a collection first if adding that size would
// take the byte counter over nextGC (or StressGC is set).
func (vm *VM) allocate(obj bytecode.Obj, size int) {
	if vm.StressGC || vm.bytesAllocated+size > vm.nextGC {
		vm.collectGarbage()
	}
	obj.SetNext(vm.objects)
	vm.objects = obj
	vm.bytesAllocated += size
}

// NewFunction allocates an empty function shell; the compiler fills in
// Arity, UpvalueCount, Chunk, and Name as it compiles the body.
func (vm *VM) NewFunction() *bytecode.ObjFunction {
	fn := &bytecode.ObjFunction{Chunk: bytecode.NewChunk()}
	vm.allocate(fn, 64)
	return fn
}

// NewNative wraps a host function as a callable glox value.
func (vm *VM) NewNative(name string, arity int, fn bytecode.NativeFn) *bytecode.ObjNative {
	native := &bytecode.ObjNative{Name: name, Arity: arity, Fn: fn}
	vm.allocate(native, 48)
	return native
}

// NewClosure allocates a closure over fn with upvalueCount empty upvalue
// slots, to be filled in by the CLOSURE opcode handler.
func (vm *VM) NewClosure(fn *bytecode.ObjFunction) *bytecode.ObjClosure {
	closure := &bytecode.ObjClosure{
		Function: fn,
		Upvalues: make([]*bytecode.ObjUpvalue, fn.UpvalueCount),
	}
	vm.allocate(closure, 32+8*fn.UpvalueCount)
	return closure
}

// NewUpvalue allocates a fresh open upvalue over the given stack slot.
func (vm *VM) NewUpvalue(slot int) *bytecode.ObjUpvalue {
	up := &bytecode.ObjUpvalue{Open: true, StackSlot: slot}
	vm.allocate(up, 40)
	return up
}

// NewClass allocates an empty class named name.
func (vm *VM) NewClass(name *bytecode.ObjString) *bytecode.ObjClass {
	class := &bytecode.ObjClass{Name: name}
	vm.allocate(class, 56)
	return class
}

// NewInstance allocates an instance of class with an empty field table.
func (vm *VM) NewInstance(class *bytecode.ObjClass) *bytecode.ObjInstance {
	inst := &bytecode.ObjInstance{Class: class}
	vm.allocate(inst, 56)
	return inst
}

// NewBoundMethod fuses receiver with method.
func (vm *VM) NewBoundMethod(receiver bytecode.Value, method *bytecode.ObjClosure) *bytecode.ObjBoundMethod {
	bound := &bytecode.ObjBoundMethod{Receiver: receiver, Method: method}
	vm.allocate(bound, 40)
	return bound
}

// CopyString interns a copy of chars, returning the existing interned
// String on a hit. The new string is pushed onto the operand stack before
// the table insert so it stays reachable through a GC triggered by that
// insert, even though Go's allocator never itself collects mid-call.
func (vm *VM) CopyString(chars string) *bytecode.ObjString {
	hash := bytecode.HashString(chars)
	if interned := vm.strings.FindString(chars, hash); interned != nil {
		return interned
	}
	str := &bytecode.ObjString{Chars: chars, Hash: hash}
	vm.allocate(str, len(chars)+24)
	vm.push(bytecode.ObjVal(str))
	vm.strings.Set(str, bytecode.NilVal)
	vm.pop()
	return str
}

// TakeString interns chars, which the caller is done with (no separate
// "free the buffer" step is needed in Go — there is no owned C buffer to
// release — but the hit/miss interning contract matches copyString's).
func (vm *VM) TakeString(chars string) *bytecode.ObjString {
	return vm.CopyString(chars)
}

// concatenate implements ADD's string case: "ab"+"c" and "a"+"bc" must
// both produce the same interned object, which CopyString's intern lookup
// guarantees for free.
func (vm *VM) concatenate(a, b *bytecode.ObjString) *bytecode.ObjString {
	return vm.CopyString(a.Chars + b.Chars)
}

// collectGarbage runs one stop-the-world tri-color mark-sweep cycle: mark
// roots, trace to a fixed point, sweep the intern table's weak
// references, sweep the allocation list, grow nextGC.
func (vm *VM) collectGarbage() {
	vm.markRoots()
	vm.traceReferences()
	vm.strings.RemoveWhite()
	vm.sweep()
	vm.nextGC = vm.bytesAllocated * HeapGrowFactor
}

// markRoots marks every GC root: the operand stack, every live frame's
// closure, every open upvalue, the globals table, and the cached
// initString. The compiler's in-progress roots are reported through the
// callback registered with SetCompilerRootMarker, when one is set.
func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].Closure)
	}
	for up := vm.openUpvalues; up != nil; up = up.Next {
		vm.markObject(up)
	}
	vm.markTable(&vm.Globals)
	vm.markObject(vm.initString)
	if vm.markCompilerRoots != nil {
		vm.markCompilerRoots(vm.markObject)
	}
}

func (vm *VM) markTable(t *bytecode.Table) {
	t.Each(func(key *bytecode.ObjString, value bytecode.Value) {
		vm.markObject(key)
		vm.markValue(value)
	})
}

func (vm *VM) markValue(v bytecode.Value) {
	if v.Kind == bytecode.ValObj {
		vm.markObject(v.Obj)
	}
}

// markObject grays obj: if it isn't already marked, mark it and push it
// onto the worklist for traceReferences to blacken later. The gray stack
// is a plain Go slice grown with append — it lives outside the managed
// heap and must never itself go through vm.allocate.
//
// obj is an interface value, so a nil concrete pointer passed in through
// a field like ObjFunction.Name or an ObjClosure.Upvalues slot (e.g. the
// top-level script function's nil Name, or an upvalue slot a CLOSURE
// opcode hasn't filled in yet) is a non-nil interface wrapping a nil
// pointer — obj == nil does not catch it. Unwrap the concrete type first
// to find a genuine nil before touching IsMarked.
func (vm *VM) markObject(obj bytecode.Obj) {
	if obj == nil || isNilObj(obj) || obj.IsMarked() {
		return
	}
	obj.SetMarked(true)
	vm.grayStack = append(vm.grayStack, obj)
}

// isNilObj reports whether obj is a typed nil pointer hiding behind the
// Obj interface.
func isNilObj(obj bytecode.Obj) bool {
	switch o := obj.(type) {
	case *bytecode.ObjString:
		return o == nil
	case *bytecode.ObjFunction:
		return o == nil
	case *bytecode.ObjNative:
		return o == nil
	case *bytecode.ObjUpvalue:
		return o == nil
	case *bytecode.ObjClosure:
		return o == nil
	case *bytecode.ObjClass:
		return o == nil
	case *bytecode.ObjInstance:
		return o == nil
	case *bytecode.ObjBoundMethod:
		return o == nil
	default:
		return false
	}
}

// traceReferences pops each gray object and blackens it by marking its
// outgoing references via the exhaustive type switch in blacken.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		obj := vm.grayStack[n]
		vm.grayStack = vm.grayStack[:n]
		vm.blacken(obj)
	}
}

func (vm *VM) blacken(obj bytecode.Obj) {
	switch o := obj.(type) {
	case *bytecode.ObjString, *bytecode.ObjNative:
		// no outgoing references
	case *bytecode.ObjUpvalue:
		if !o.Open {
			vm.markValue(o.Closed)
		} // while open the stack cell is already a root; nothing to do here
	case *bytecode.ObjFunction:
		vm.markObject(o.Name)
		for _, c := range o.Chunk.Constants {
			vm.markValue(c)
		}
	case *bytecode.ObjClosure:
		vm.markObject(o.Function)
		for _, up := range o.Upvalues {
			vm.markObject(up)
		}
	case *bytecode.ObjClass:
		vm.markObject(o.Name)
		vm.markTable(&o.Methods)
	case *bytecode.ObjInstance:
		vm.markObject(o.Class)
		vm.markTable(&o.Fields)
	case *bytecode.ObjBoundMethod:
		vm.markValue(o.Receiver)
		vm.markObject(o.Method)
	}
}

// sweep walks the allocation list, drops unmarked objects, and clears the
// mark bit of every survivor for the next cycle.
func (vm *VM) sweep() {
	var prev bytecode.Obj
	obj := vm.objects
	for obj != nil {
		if obj.IsMarked() {
			obj.SetMarked(false)
			prev = obj
			obj = obj.Next()
			continue
		}
		unreached := obj
		obj = obj.Next()
		if prev != nil {
			prev.SetNext(obj)
		} else {
			vm.objects = obj
		}
		unreached.SetNext(nil)
	}
}
