package instrument

import (
	"github.com/maoif/trec/ir"
	"github.com/maoif/trec/probe"
)

// buildDispatcher creates the synthetic entry block spec.md §4.3
// describes: it calls __trec_perf_record_bbl(fid) and branches to
// cloneEntry when the result is non-zero, or to coldEntry (the
// function's original, untouched entry block) otherwise. It is prepended
// to f so it becomes the function's new entry point; cloneEntry and
// coldEntry keep their own identities and predecessors besides this new
// edge.
func buildDispatcher(f *ir.Function, fid uint64, cloneEntry, coldEntry *ir.BasicBlock) *ir.BasicBlock {
	dispatcher := &ir.BasicBlock{Name: "trec.dispatch", Parent: f}

	predicate := &ir.Instruction{
		Kind:     ir.InstCall,
		Callee:   probe.RecordBBLSymbol,
		Operands: []ir.Operand{{Const: fid}},
	}
	dispatcher.Append(predicate)

	branch := &ir.Instruction{
		Kind:     ir.InstCondBr,
		Operands: []ir.Operand{{Inst: predicate}},
		Targets:  []*ir.BasicBlock{cloneEntry, coldEntry},
	}
	dispatcher.Append(branch)

	f.Blocks = append([]*ir.BasicBlock{dispatcher}, f.Blocks...)
	return dispatcher
}
