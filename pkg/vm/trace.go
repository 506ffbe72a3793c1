// Execution tracing: a non-interactive trace mode that prints what the VM
// is about to do before it does it, the direct equivalent of clox's
// DEBUG_TRACE_EXECUTION build flag. cmd/glox's --trace flag enables it.
package vm

import (
	"fmt"

	"github.com/glox-lang/glox/pkg/bytecode"
)

// printTraceLine writes the current operand stack followed by the
// disassembly of the instruction about to execute, to vm.TraceWriter().
func (vm *VM) printTraceLine(chunk *bytecode.Chunk, ip int) {
	w := vm.TraceWriter()
	fmt.Fprint(w, "          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(w, "[ %s ]", bytecode.ValueString(vm.stack[i]))
	}
	fmt.Fprintln(w)
	bytecode.DisassembleInstruction(w, chunk, ip)
}
