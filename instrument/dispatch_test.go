package instrument

import (
	"testing"

	"github.com/maoif/trec/ir"
	"github.com/maoif/trec/probe"
	"github.com/stretchr/testify/require"
)

func TestBuildDispatcherPrependsAndBranches(t *testing.T) {
	f := &ir.Function{Name: "f"}
	hot := &ir.BasicBlock{Name: "hot"}
	cold := &ir.BasicBlock{Name: "cold"}
	f.Blocks = []*ir.BasicBlock{cold}

	dispatcher := buildDispatcher(f, 0xABCD, hot, cold)

	require.Same(t, dispatcher, f.Blocks[0])
	require.Len(t, f.Blocks, 2)

	predicate := dispatcher.Instructions[0]
	require.Equal(t, ir.InstCall, predicate.Kind)
	require.Equal(t, probe.RecordBBLSymbol, predicate.Callee)
	require.Equal(t, uint64(0xABCD), predicate.Operands[0].Const)

	branch := dispatcher.Terminator()
	require.Equal(t, ir.InstCondBr, branch.Kind)
	require.Same(t, predicate, branch.Operands[0].Inst)
	require.Equal(t, []*ir.BasicBlock{hot, cold}, branch.Targets)
}
