package instrument

import (
	"testing"

	"github.com/maoif/trec/ir"
	"github.com/stretchr/testify/require"
)

// buildDiamond returns a function with a diamond CFG (entry -> {left,
// right} -> join) where join has a phi node selecting between values
// defined in left and right, the shape that most directly exercises
// phi-incoming remapping.
func buildDiamond() (*ir.Function, *ir.BasicBlock, *ir.BasicBlock, *ir.BasicBlock, *ir.BasicBlock, *ir.Instruction, *ir.Instruction) {
	f := &ir.Function{Name: "diamond"}
	entry := &ir.BasicBlock{Name: "entry"}
	left := &ir.BasicBlock{Name: "left"}
	right := &ir.BasicBlock{Name: "right"}
	join := &ir.BasicBlock{Name: "join"}

	entry.Append(&ir.Instruction{Kind: ir.InstCondBr, Line: 1, Targets: []*ir.BasicBlock{left, right}})

	leftVal := &ir.Instruction{Kind: ir.InstOther, Line: 2}
	left.Append(leftVal)
	left.Append(&ir.Instruction{Kind: ir.InstBr, Targets: []*ir.BasicBlock{join}})

	rightVal := &ir.Instruction{Kind: ir.InstOther, Line: 3}
	right.Append(rightVal)
	right.Append(&ir.Instruction{Kind: ir.InstBr, Targets: []*ir.BasicBlock{join}})

	phi := &ir.Instruction{
		Kind: ir.InstPhi,
		Line: 4,
		Incoming: []ir.PhiIncoming{
			{Value: ir.Operand{Inst: leftVal}, Block: left},
			{Value: ir.Operand{Inst: rightVal}, Block: right},
		},
	}
	join.Append(phi)
	join.Append(&ir.Instruction{Kind: ir.InstRet, Operands: []ir.Operand{{Inst: phi}}})

	f.Blocks = []*ir.BasicBlock{entry, left, right, join}
	return f, entry, left, right, join, leftVal, rightVal
}

func TestCloneFunctionBodyPreservesBlockCountAndOrder(t *testing.T) {
	f, _, _, _, _, _, _ := buildDiamond()
	cloned := cloneFunctionBody(f)

	require.Len(t, cloned, 4)
	require.Len(t, f.Blocks, 8)
	for i, c := range cloned {
		require.NotSame(t, f.Blocks[i], c)
	}
}

func TestCloneFunctionBodyRetargetsBranches(t *testing.T) {
	f, _, _, _, _, _, _ := buildDiamond()
	cloned := cloneFunctionBody(f)

	clonedEntry, clonedLeft, clonedRight, clonedJoin := cloned[0], cloned[1], cloned[2], cloned[3]

	entryTerm := clonedEntry.Terminator()
	require.ElementsMatch(t, []*ir.BasicBlock{clonedLeft, clonedRight}, entryTerm.Targets,
		"cloned entry must branch to cloned successors, not the originals")

	require.Equal(t, []*ir.BasicBlock{clonedJoin}, clonedLeft.Terminator().Targets)
	require.Equal(t, []*ir.BasicBlock{clonedJoin}, clonedRight.Terminator().Targets)
}

func TestCloneFunctionBodyFixesPhiIncoming(t *testing.T) {
	f, _, left, right, _, leftVal, rightVal := buildDiamond()
	cloned := cloneFunctionBody(f)
	clonedLeft, clonedRight, clonedJoin := cloned[1], cloned[2], cloned[3]

	clonedPhi := clonedJoin.Instructions[0]
	require.Equal(t, ir.InstPhi, clonedPhi.Kind)
	require.Len(t, clonedPhi.Incoming, 2)

	for _, in := range clonedPhi.Incoming {
		switch in.Block {
		case clonedLeft:
			require.Same(t, clonedLeft.Instructions[0], in.Value.Inst)
			require.NotSame(t, leftVal, in.Value.Inst)
		case clonedRight:
			require.Same(t, clonedRight.Instructions[0], in.Value.Inst)
			require.NotSame(t, rightVal, in.Value.Inst)
		default:
			t.Fatalf("phi incoming block %v is neither cloned predecessor", in.Block)
		}
	}

	// The original phi must be untouched by the clone.
	require.Same(t, leftVal, f.Blocks[3].Instructions[0].Incoming[0].Value.Inst)
	require.Same(t, left, f.Blocks[3].Instructions[0].Incoming[0].Block)
	_ = right
}

func TestCloneFunctionBodyLeavesOriginalUntouched(t *testing.T) {
	f, entry, _, _, join, _, _ := buildDiamond()
	originalEntryTerm := entry.Terminator()
	originalTargets := append([]*ir.BasicBlock{}, originalEntryTerm.Targets...)

	cloneFunctionBody(f)

	require.Equal(t, originalTargets, originalEntryTerm.Targets)
	require.Same(t, join, originalEntryTerm.Targets[0].Terminator().Targets[0])
}
