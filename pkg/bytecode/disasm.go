package bytecode

import (
	"fmt"
	"io"
)

// Disassemble prints every instruction in chunk to w, labelled with name.
// It is not part of the VM's execution path, but it shares this package
// because it has to understand the same byte-oriented instruction
// encoding the interpreter does, and is what cmd/glox's `disassemble`
// subcommand and the VM's optional trace mode (pkg/vm/trace.go) both
// drive off of.
func Disassemble(w io.Writer, chunk *Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = DisassembleInstruction(w, chunk, offset)
	}
}

// DisassembleInstruction prints the instruction at offset and returns the
// offset of the next instruction.
func DisassembleInstruction(w io.Writer, chunk *Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", chunk.Lines[offset])
	}

	op := OpCode(chunk.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal, OpClass, OpGetProperty, OpSetProperty, OpGetSuper, OpMethod:
		return constantInstruction(w, op.String(), chunk, offset)
	case OpNil, OpTrue, OpFalse, OpPop, OpEqual, OpGreater, OpLess, OpAdd, OpSubtract,
		OpMultiply, OpDivide, OpNot, OpNegate, OpPrint, OpCloseUpvalue, OpReturn, OpInherit:
		return simpleInstruction(w, op.String(), offset)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return byteInstruction(w, op.String(), chunk, offset)
	case OpJump, OpJumpIfFalse:
		return jumpInstruction(w, op.String(), 1, chunk, offset)
	case OpLoop:
		return jumpInstruction(w, op.String(), -1, chunk, offset)
	case OpInvoke, OpSuperInvoke:
		return invokeInstruction(w, op.String(), chunk, offset)
	case OpClosure:
		return closureInstruction(w, chunk, offset)
	default:
		fmt.Fprintf(w, "Unknown opcode %d\n", op)
		return offset + 1
	}
}

func simpleInstruction(w io.Writer, name string, offset int) int {
	fmt.Fprintf(w, "%s\n", name)
	return offset + 1
}

func byteInstruction(w io.Writer, name string, chunk *Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", name, slot)
	return offset + 2
}

func jumpInstruction(w io.Writer, name string, sign int, chunk *Chunk, offset int) int {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", name, offset, offset+3+sign*jump)
	return offset + 3
}

func constantInstruction(w io.Writer, name string, chunk *Chunk, offset int) int {
	constant := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", name, constant, ValueString(chunk.Constants[constant]))
	return offset + 2
}

func invokeInstruction(w io.Writer, name string, chunk *Chunk, offset int) int {
	constant := chunk.Code[offset+1]
	argCount := chunk.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", name, argCount, constant, ValueString(chunk.Constants[constant]))
	return offset + 3
}

func closureInstruction(w io.Writer, chunk *Chunk, offset int) int {
	offset++
	constant := chunk.Code[offset]
	offset++
	fmt.Fprintf(w, "%-16s %4d '%s'\n", OpClosure.String(), constant, ValueString(chunk.Constants[constant]))

	fn, ok := chunk.Constants[constant].Obj.(*ObjFunction)
	if !ok {
		return offset
	}
	for j := 0; j < fn.UpvalueCount; j++ {
		isLocal := chunk.Code[offset]
		offset++
		index := chunk.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset-2, kind, index)
	}
	return offset
}
