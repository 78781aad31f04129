package compiler

// linearize walks a CompiledBlock's doubly-linked instruction list once,
// dropping Op_Label pseudo-instructions and resolving every branch's
// Target pointer to an index into the flattened slice (spec.md §4.4,
// "assign each Label instruction an address, resolve each branch's
// branchTarget to a ... offset, drop label pseudo-instructions").
//
// Unlike the reference C implementation, which resolves branches to a
// signed byte offset because its instructions are variable-width encoded
// bytes, this implementation keeps the intermediate instruction objects
// themselves as the segment's elements and resolves a branch's Target to
// the resolved *index* of its destination instruction (stashed back into
// Target, now pointing at the post-linearization instruction rather than
// the label). internal/eval reads Target directly rather than decoding an
// offset, which is equivalent in effect and avoids a second encode/decode
// step this Go implementation has no use for.
func linearize(block *CompiledBlock) *ByteCodeSegment {
	seg := &ByteCodeSegment{}
	if block == nil || block.FirstInstr == nil {
		return seg
	}

	labelTarget := make(map[*IntermediateInstruction]*IntermediateInstruction)

	// Pass 1: emit every non-label instruction in order, remembering what
	// real instruction each label now refers to (the next non-label
	// instruction that follows it, or a synthetic Ret if a label is the
	// very last thing in the block).
	var pendingLabels []*IntermediateInstruction
	for node := block.FirstInstr; node != nil; node = node.Next {
		if node.Op == OpLabel {
			pendingLabels = append(pendingLabels, node)
			continue
		}
		for _, lbl := range pendingLabels {
			labelTarget[lbl] = node
		}
		pendingLabels = nil
		node.Index = len(seg.Instructions)
		seg.Instructions = append(seg.Instructions, node)
	}
	if len(pendingLabels) > 0 {
		ret := instr(OpRet, 0)
		for _, lbl := range pendingLabels {
			labelTarget[lbl] = ret
		}
		ret.Index = len(seg.Instructions)
		seg.Instructions = append(seg.Instructions, ret)
	}

	// Pass 2: rewrite every branch's Target from a label to the label's
	// resolved real instruction (resolving through chains of labels that
	// point at further labels).
	for _, node := range seg.Instructions {
		if node.Target == nil {
			continue
		}
		t := node.Target
		for t.Op == OpLabel {
			resolved, ok := labelTarget[t]
			if !ok || resolved == t {
				break
			}
			t = resolved
		}
		node.Target = t
	}

	return seg
}
