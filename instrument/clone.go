package instrument

import "github.com/maoif/trec/ir"

// cloneFunctionBody clones every basic block of f into fresh blocks
// appended to f, mirroring PerfInstr::copyBasicBlocks: a first pass
// copies each instruction verbatim, and a second pass, run once both
// remap tables are complete, remaps every operand and branch target
// through the clone's value- and block-remap tables and fixes up phi
// incoming pairs the same way. Because
// each cloned instruction is a brand-new *ir.Instruction, a call's debug
// metadata (modeled here as its Line/Col) is naturally a private copy,
// not a value shared with the original, satisfying the remapped
// debug-value requirement without a separate pass.
//
// cloneFunctionBody does not touch f's original blocks or instructions:
// every pointer a caller already holds into the original body (escape
// points, the entry block) stays valid.
func cloneFunctionBody(f *ir.Function) []*ir.BasicBlock {
	oldBlocks := make([]*ir.BasicBlock, len(f.Blocks))
	copy(oldBlocks, f.Blocks)

	blockMap := make(map[*ir.BasicBlock]*ir.BasicBlock, len(oldBlocks))
	instMap := make(map[*ir.Instruction]*ir.Instruction)

	newBlocks := make([]*ir.BasicBlock, len(oldBlocks))
	for i, old := range oldBlocks {
		clone := &ir.BasicBlock{Name: old.Name + ".trec", Parent: f}
		blockMap[old] = clone
		newBlocks[i] = clone
	}

	for i, old := range oldBlocks {
		clone := newBlocks[i]
		for _, oldInst := range old.Instructions {
			cloneInst := &ir.Instruction{
				Kind:     oldInst.Kind,
				Line:     oldInst.Line,
				Col:      oldInst.Col,
				Callee:   oldInst.Callee,
				NoReturn: oldInst.NoReturn,
			}
			instMap[oldInst] = cloneInst
			clone.Append(cloneInst)
		}
	}

	for i, old := range oldBlocks {
		clone := newBlocks[i]
		for j, oldInst := range old.Instructions {
			cloneInst := clone.Instructions[j]
			cloneInst.Operands = remapOperands(oldInst.Operands, instMap, blockMap)
			cloneInst.Targets = remapBlocks(oldInst.Targets, blockMap)
			if oldInst.Kind == ir.InstPhi {
				cloneInst.Incoming = make([]ir.PhiIncoming, len(oldInst.Incoming))
				for k, in := range oldInst.Incoming {
					cloneInst.Incoming[k] = ir.PhiIncoming{
						Value: remapOperand(in.Value, instMap, blockMap),
						Block: remapBlock(in.Block, blockMap),
					}
				}
			}
		}
	}

	f.Blocks = append(f.Blocks, newBlocks...)
	return newBlocks
}

func remapOperand(op ir.Operand, instMap map[*ir.Instruction]*ir.Instruction, blockMap map[*ir.BasicBlock]*ir.BasicBlock) ir.Operand {
	remapped := op
	if op.Inst != nil {
		remapped.Inst = remapInst(op.Inst, instMap)
	}
	if op.Block != nil {
		remapped.Block = remapBlock(op.Block, blockMap)
	}
	return remapped
}

func remapOperands(ops []ir.Operand, instMap map[*ir.Instruction]*ir.Instruction, blockMap map[*ir.BasicBlock]*ir.BasicBlock) []ir.Operand {
	if ops == nil {
		return nil
	}
	out := make([]ir.Operand, len(ops))
	for i, op := range ops {
		out[i] = remapOperand(op, instMap, blockMap)
	}
	return out
}

func remapBlocks(blocks []*ir.BasicBlock, blockMap map[*ir.BasicBlock]*ir.BasicBlock) []*ir.BasicBlock {
	if blocks == nil {
		return nil
	}
	out := make([]*ir.BasicBlock, len(blocks))
	for i, b := range blocks {
		out[i] = remapBlock(b, blockMap)
	}
	return out
}

// remapBlock maps a block reference through blockMap when it points
// inside the function being cloned, and passes it through unchanged
// otherwise (e.g. a landing pad in another function).
func remapBlock(b *ir.BasicBlock, blockMap map[*ir.BasicBlock]*ir.BasicBlock) *ir.BasicBlock {
	if mapped, ok := blockMap[b]; ok {
		return mapped
	}
	return b
}

// remapInst maps an instruction reference through instMap when it was
// itself cloned, and passes it through unchanged otherwise (a value
// defined outside the cloned region, e.g. a function argument).
func remapInst(inst *ir.Instruction, instMap map[*ir.Instruction]*ir.Instruction) *ir.Instruction {
	if mapped, ok := instMap[inst]; ok {
		return mapped
	}
	return inst
}
