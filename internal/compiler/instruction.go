package compiler

// IntermediateInstruction is one node of the doubly-linked intermediate
// list the compiler emits before linearization (spec.md §4.4). Operands
// are symbol/constant-table indices or inline literal values depending on
// Op; Target names a branch destination by label (after linearization it
// points at the destination instruction, whose Index is the jump target;
// see segment.go).
type IntermediateInstruction struct {
	Op         Opcode
	Operands   []int32
	Target     *IntermediateInstruction // nil unless Op branches
	StackDelta int                      // net operand-stack effect of this instruction alone
	Index      int                      // position within its ByteCodeSegment, set by linearize

	Prev, Next *IntermediateInstruction
}

// CompiledBlock is the unit of emission: a run of IntermediateInstructions
// with a cumulative stack-delta, so callers compiling a containing form
//(e.g. `if`, `while`) know how many values a sub-block leaves behind
// without re-walking it.
type CompiledBlock struct {
	FirstInstr *IntermediateInstruction
	LastInstr  *IntermediateInstruction
	StackDelta int
}

// newBlock wraps a single instruction as a one-node block.
func newBlock(instr *IntermediateInstruction) *CompiledBlock {
	return &CompiledBlock{FirstInstr: instr, LastInstr: instr, StackDelta: instr.StackDelta}
}

// emptyBlock is the identity element for append: compiling a no-op form
// (e.g. an empty $progn) produces one of these.
func emptyBlock() *CompiledBlock {
	return &CompiledBlock{}
}

// append concatenates two blocks in sequence, linking their instruction
// lists and summing their stack deltas.
func (b *CompiledBlock) append(other *CompiledBlock) *CompiledBlock {
	if b.FirstInstr == nil {
		return other
	}
	if other.FirstInstr == nil {
		return b
	}
	b.LastInstr.Next = other.FirstInstr
	other.FirstInstr.Prev = b.LastInstr
	return &CompiledBlock{
		FirstInstr: b.FirstInstr,
		LastInstr:  other.LastInstr,
		StackDelta: b.StackDelta + other.StackDelta,
	}
}

// appendInstr is a convenience for append(newBlock(instr)).
func (b *CompiledBlock) appendInstr(instr *IntermediateInstruction) *CompiledBlock {
	return b.append(newBlock(instr))
}

func instr(op Opcode, delta int, operands ...int32) *IntermediateInstruction {
	return &IntermediateInstruction{Op: op, Operands: operands, StackDelta: delta}
}

// newLabel creates an unattached Op_Label instruction, used as a branch
// target before the code it precedes has been emitted.
func newLabel() *IntermediateInstruction {
	return &IntermediateInstruction{Op: OpLabel}
}

func branch(op Opcode, delta int, target *IntermediateInstruction) *IntermediateInstruction {
	return &IntermediateInstruction{Op: op, StackDelta: delta, Target: target}
}
