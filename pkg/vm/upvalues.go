package vm

import "github.com/glox-lang/glox/pkg/bytecode"

// readUpvalue and writeUpvalue are the only places that dereference an
// upvalue's location: while open it aliases a live stack slot, while
// closed it's the upvalue's own Closed field.
func (vm *VM) readUpvalue(up *bytecode.ObjUpvalue) bytecode.Value {
	if up.Open {
		return vm.stack[up.StackSlot]
	}
	return up.Closed
}

func (vm *VM) writeUpvalue(up *bytecode.ObjUpvalue, v bytecode.Value) {
	if up.Open {
		vm.stack[up.StackSlot] = v
	} else {
		up.Closed = v
	}
}

// captureUpvalue returns the open upvalue for stack slot, reusing an
// existing one if two closures capture the same variable — this shared
// identity is what makes closure sharing observable. The open-upvalue
// list is kept sorted by strictly decreasing stack slot so this scan can
// stop as soon as it passes slot.
func (vm *VM) captureUpvalue(slot int) *bytecode.ObjUpvalue {
	var prev *bytecode.ObjUpvalue
	up := vm.openUpvalues
	for up != nil && up.StackSlot > slot {
		prev = up
		up = up.Next
	}
	if up != nil && up.StackSlot == slot {
		return up
	}

	created := vm.NewUpvalue(slot)
	created.Next = up
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above lastSlot: it copies
// the pointed-to value into the upvalue's own Closed cell and flips Open
// off, so future readUpvalue/writeUpvalue calls transparently use Closed.
// Called on CLOSE_UPVALUE, on RETURN with the frame's base slot, and
// wherever the compiler emits CLOSE_UPVALUE for a scope exit.
func (vm *VM) closeUpvalues(lastSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.StackSlot >= lastSlot {
		up := vm.openUpvalues
		up.Closed = vm.stack[up.StackSlot]
		up.Open = false
		vm.openUpvalues = up.Next
		up.Next = nil
	}
}
