package ir

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCFGSingleJumpShape(t *testing.T) {
	fun := NewFunction(testIdent("f", 0))
	b := NewFunctionBuilder(fun)
	entry, _ := b.InsertEntryBlock(0)
	target := b.InsertBlock()
	b.PositionAtEnd(entry)
	call := b.Jump(target)

	cfg := BuildCFG(fun)

	var opNodes []NodeID
	for id, n := range cfg.Nodes() {
		if n.Kind == NodeOp {
			opNodes = append(opNodes, id)
		}
	}
	require.Len(t, opNodes, 1, "exactly one branching-op node")
	jump := opNodes[0]

	entryNode, ok := cfg.BlockNode(entry)
	require.True(t, ok)
	targetNode, ok := cfg.BlockNode(target)
	require.True(t, ok)

	in := cfg.InEdges(jump)
	require.Len(t, in, 1)
	assert.Equal(t, EdgeFlow, in[0].Kind)
	assert.Equal(t, entryNode, in[0].From)

	calls := slices.Collect(cfg.CallEdges())
	require.Len(t, calls, 1)
	assert.Equal(t, CFGEdge{From: jump, To: targetNode, Kind: EdgeCall, Call: call}, calls[0])
	assert.Len(t, cfg.Edges(), 2)
}

func TestCFGSkipsStraightLineOps(t *testing.T) {
	fun := NewFunction(testIdent("f", 1))
	b := NewFunctionBuilder(fun)
	entry, args := b.InsertEntryBlock(1)
	b.PositionAtEnd(entry)
	x := b.Move(args[0])
	y := b.MakeTuple(x, x)
	ret := b.ReturnOk(y)

	cfg := BuildCFG(fun)

	assert.Equal(t, 2, cfg.NodeCount(), "block node plus terminator node")
	_, ok := cfg.OpNode(ret)
	assert.True(t, ok)
	first, _ := fun.BlockFirstOp(entry)
	_, ok = cfg.OpNode(first)
	assert.False(t, ok)
}

func TestCFGForwardBranches(t *testing.T) {
	fun := buildMax()
	cfg := BuildCFG(fun)
	blocks := slices.Collect(fun.Blocks())
	entry, then, els, join := blocks[0], blocks[1], blocks[2], blocks[3]

	assert.Equal(t, []Block{then, els}, cfg.BlockSuccessors(entry))
	assert.Equal(t, []Block{join}, cfg.BlockSuccessors(then))
	assert.Equal(t, []Block{then, els}, cfg.BlockPredecessors(join))
	assert.Empty(t, cfg.BlockSuccessors(join))
	assert.Equal(t, blocks, slices.Collect(cfg.Blocks()))
	assert.Len(t, slices.Collect(cfg.CallEdges()), 4, "entry call is not an edge")
}

// buildLoop builds entry -> header; header -> body | exit; body -> header,
// plus an unreachable block.
func buildLoop() (*Function, []Block) {
	fun := NewFunction(testIdent("loop", 1))
	b := NewFunctionBuilder(fun)
	entry, args := b.InsertEntryBlock(1)
	header := b.InsertBlock()
	n := b.AddBlockArg(header)
	body := b.InsertBlock()
	exit := b.InsertBlock()
	dead := b.InsertBlock()

	b.PositionAtEnd(entry)
	b.Jump(header, args[0])

	b.PositionAtEnd(header)
	more := b.PrimOp(">", n, b.Constant(Int(0)))
	b.IfTruthy(more, body, nil, exit, nil)

	b.PositionAtEnd(body)
	next := b.PrimOp("-", n, b.Constant(Int(1)))
	b.Jump(header, next)

	b.PositionAtEnd(exit)
	b.ReturnOk(args[0])

	b.PositionAtEnd(dead)
	b.Unreachable()

	return fun, []Block{entry, header, body, exit, dead}
}

func TestCFGLoops(t *testing.T) {
	fun, blocks := buildLoop()
	header, body := blocks[1], blocks[2]

	cfg := BuildCFG(fun)

	loops := cfg.Loops()
	require.Len(t, loops, 1)
	assert.ElementsMatch(t, []Block{header, body}, loops[0])

	sccs := cfg.StronglyConnected()
	assert.Len(t, sccs, 4, "loop plus three singleton components")
}

func TestCFGSelfLoop(t *testing.T) {
	fun := NewFunction(testIdent("spin", 0))
	b := NewFunctionBuilder(fun)
	entry, _ := b.InsertEntryBlock(0)
	spin := b.InsertBlock()
	b.PositionAtEnd(entry)
	b.Jump(spin)
	b.PositionAtEnd(spin)
	b.Jump(spin)

	loops := BuildCFG(fun).Loops()
	assert.Equal(t, [][]Block{{spin}}, loops)
}

func TestCFGReachable(t *testing.T) {
	fun, blocks := buildLoop()
	reach := BuildCFG(fun).Reachable()

	for _, b := range blocks[:4] {
		assert.True(t, reach[b], "%s reachable", b)
	}
	assert.False(t, reach[blocks[4]])
}

func TestCFGReachableWithoutEntry(t *testing.T) {
	fun := NewFunction(testIdent("f", 0))
	assert.Empty(t, BuildCFG(fun).Reachable())
}

func TestCFGIgnoresUnlinkedTargets(t *testing.T) {
	fun, blocks := buildLoop()
	fun.BlockRemove(blocks[3])

	cfg := BuildCFG(fun)
	assert.Equal(t, []Block{blocks[2]}, cfg.BlockSuccessors(blocks[1]))
}
