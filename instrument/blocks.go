package instrument

import (
	"github.com/maoif/trec/catalog"
	"github.com/maoif/trec/ir"
	"github.com/maoif/trec/probe"
)

// lineRange scans b forward from its first insertion point for the
// earliest instruction carrying a source line, and backward from (but
// excluding) its terminator for the latest, mirroring
// PerfInstr::instrumentBasicBlocks' enter_line/exit_line discovery. ok is
// false when b carries no line info at all — spec.md §4.3's
// EmptyBasicBlock case — and such blocks are left uninstrumented.
func lineRange(b *ir.BasicBlock) (enter, exit int, ok bool) {
	start := b.FirstInsertionIndex()
	for i := start; i < len(b.Instructions); i++ {
		if l := b.Instructions[i].Line; l > 0 {
			enter = l
			ok = true
			break
		}
	}
	if !ok {
		return 0, 0, false
	}

	end := len(b.Instructions) - 1 // exclude the terminator itself
	for i := end - 1; i >= start; i-- {
		if l := b.Instructions[i].Line; l > 0 {
			exit = l
			return enter, exit, true
		}
	}
	return enter, enter, true
}

// instrumentBasicBlocks brackets every line-bearing block in blocks with
// an enter/exit probe pair keyed by a freshly allocated bbid, per
// spec.md §3/§4.1. Blocks failing the EmptyBasicBlock check are skipped
// entirely, matching the original pass.
func instrumentBasicBlocks(store *catalog.Store, blocks []*ir.BasicBlock, fid uint64) error {
	for _, b := range blocks {
		enterLine, exitLine, ok := lineRange(b)
		if !ok {
			continue
		}

		bbid, err := store.RecordBasicBlock(fid, enterLine, exitLine)
		if err != nil {
			return err
		}

		enterCall := &ir.Instruction{Kind: ir.InstCall, Callee: probe.EnterSymbol, Operands: []ir.Operand{{Const: bbid}}}
		b.InsertAt(b.FirstInsertionIndex(), enterCall)

		exitCall := &ir.Instruction{Kind: ir.InstCall, Callee: probe.ExitSymbol, Operands: []ir.Operand{{Const: bbid}}}
		b.InsertBefore(b.Terminator(), exitCall)
	}
	return nil
}
