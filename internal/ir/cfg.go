package ir

import "iter"

// NodeID indexes a node of a FunctionCFG.
type NodeID int

// CFGNodeKind distinguishes block nodes from branching-op nodes.
type CFGNodeKind uint8

const (
	// NodeBlock is the entry point of a block.
	NodeBlock CFGNodeKind = iota

	// NodeOp is an op that carries block calls or terminates its block.
	NodeOp
)

// CFGNode is one node of a FunctionCFG. Op is meaningful only for NodeOp.
type CFGNode struct {
	Kind  CFGNodeKind
	Block Block
	Op    Op
}

// CFGEdgeKind distinguishes fall-through edges from control transfers.
type CFGEdgeKind uint8

const (
	// EdgeFlow is sequential fall-through inside one block.
	EdgeFlow CFGEdgeKind = iota

	// EdgeCall is a control transfer through a BlockCall.
	EdgeCall
)

// CFGEdge is one edge of a FunctionCFG. Call is meaningful only for EdgeCall.
type CFGEdge struct {
	From NodeID
	To   NodeID
	Kind CFGEdgeKind
	Call BlockCall
}

// FunctionCFG is an explicit control-flow graph derived from a Function's
// Layout and block calls. It is a snapshot: mutating the function does not
// update it.
type FunctionCFG struct {
	nodes []CFGNode
	edges []CFGEdge
	out   [][]int
	in    [][]int

	blockNodes map[Block]NodeID
	opNodes    map[Op]NodeID

	entry    Block
	hasEntry bool
}

// BuildCFG derives the control-flow graph of fun.
//
// Nodes are created first for every linked block and, walking each block in
// order, for every op that has outgoing block calls or terminates the block;
// each such op node is linked to the previous node of its block by a Flow
// edge. Once every node exists, one Call edge is added per block call from
// its source op node to its target block node. Forward branches may target
// blocks not yet visited, so node creation completes before any Call edge is
// wired. Block calls whose target is no longer linked get no edge.
func BuildCFG(fun *Function) *FunctionCFG {
	g := &FunctionCFG{
		blockNodes: make(map[Block]NodeID),
		opNodes:    make(map[Op]NodeID),
	}
	g.entry, g.hasEntry = fun.EntryBlock()

	var branching []Op
	for b := range fun.Blocks() {
		prev := g.addNode(CFGNode{Kind: NodeBlock, Block: b, Op: noOp})
		g.blockNodes[b] = prev
		for op := range fun.Ops(b) {
			if len(fun.OpBranches(op)) == 0 && !fun.OpKind(op).IsBlockTerminator() {
				continue
			}
			n := g.addNode(CFGNode{Kind: NodeOp, Block: b, Op: op})
			g.opNodes[op] = n
			g.addEdge(CFGEdge{From: prev, To: n, Kind: EdgeFlow})
			prev = n
			branching = append(branching, op)
		}
	}

	for _, op := range branching {
		from := g.opNodes[op]
		for _, c := range fun.OpBranches(op) {
			to, ok := g.blockNodes[fun.BlockCallTarget(c)]
			if !ok {
				continue
			}
			g.addEdge(CFGEdge{From: from, To: to, Kind: EdgeCall, Call: c})
		}
	}
	return g
}

func (g *FunctionCFG) addNode(n CFGNode) NodeID {
	g.nodes = append(g.nodes, n)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return NodeID(len(g.nodes) - 1)
}

func (g *FunctionCFG) addEdge(e CFGEdge) {
	g.edges = append(g.edges, e)
	i := len(g.edges) - 1
	g.out[e.From] = append(g.out[e.From], i)
	g.in[e.To] = append(g.in[e.To], i)
}

// NodeCount returns the number of nodes.
func (g *FunctionCFG) NodeCount() int {
	return len(g.nodes)
}

// Node returns the node with the given ID.
func (g *FunctionCFG) Node(id NodeID) CFGNode {
	return g.nodes[id]
}

// Nodes iterates nodes in creation order.
func (g *FunctionCFG) Nodes() iter.Seq2[NodeID, CFGNode] {
	return func(yield func(NodeID, CFGNode) bool) {
		for i, n := range g.nodes {
			if !yield(NodeID(i), n) {
				return
			}
		}
	}
}

// Edges returns every edge in creation order.
func (g *FunctionCFG) Edges() []CFGEdge {
	return g.edges
}

// BlockNode returns the node standing for the entry of b.
func (g *FunctionCFG) BlockNode(b Block) (NodeID, bool) {
	n, ok := g.blockNodes[b]
	return n, ok
}

// OpNode returns the node of a branching op.
func (g *FunctionCFG) OpNode(op Op) (NodeID, bool) {
	n, ok := g.opNodes[op]
	return n, ok
}

// OutEdges returns the edges leaving id.
func (g *FunctionCFG) OutEdges(id NodeID) []CFGEdge {
	return g.collect(g.out[id])
}

// InEdges returns the edges entering id.
func (g *FunctionCFG) InEdges(id NodeID) []CFGEdge {
	return g.collect(g.in[id])
}

func (g *FunctionCFG) collect(idx []int) []CFGEdge {
	edges := make([]CFGEdge, len(idx))
	for i, e := range idx {
		edges[i] = g.edges[e]
	}
	return edges
}

// CallEdges iterates the Call edges, one per wired block call.
func (g *FunctionCFG) CallEdges() iter.Seq[CFGEdge] {
	return func(yield func(CFGEdge) bool) {
		for _, e := range g.edges {
			if e.Kind != EdgeCall {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// BlockSuccessors returns the blocks b transfers control to, in branch order.
// A block reached through several calls is listed once.
func (g *FunctionCFG) BlockSuccessors(b Block) []Block {
	start, ok := g.blockNodes[b]
	if !ok {
		return nil
	}
	var succs []Block
	seen := make(map[Block]bool)
	// Flow edges chain the op nodes of one block.
	for n, more := start, true; more; {
		more = false
		for _, ei := range g.out[n] {
			e := g.edges[ei]
			switch e.Kind {
			case EdgeFlow:
				n, more = e.To, true
			case EdgeCall:
				t := g.nodes[e.To].Block
				if !seen[t] {
					seen[t] = true
					succs = append(succs, t)
				}
			}
		}
	}
	return succs
}

// BlockPredecessors returns the blocks that transfer control to b, in edge
// order. A block branching to b several times is listed once.
func (g *FunctionCFG) BlockPredecessors(b Block) []Block {
	n, ok := g.blockNodes[b]
	if !ok {
		return nil
	}
	var preds []Block
	seen := make(map[Block]bool)
	for _, ei := range g.in[n] {
		e := g.edges[ei]
		if e.Kind != EdgeCall {
			continue
		}
		p := g.nodes[e.From].Block
		if !seen[p] {
			seen[p] = true
			preds = append(preds, p)
		}
	}
	return preds
}

// Blocks iterates the blocks of the graph in layout order.
func (g *FunctionCFG) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		for _, n := range g.nodes {
			if n.Kind != NodeBlock {
				continue
			}
			if !yield(n.Block) {
				return
			}
		}
	}
}

// Reachable returns the set of blocks reachable from the entry block. It is
// empty when the function has no entry block.
func (g *FunctionCFG) Reachable() map[Block]bool {
	seen := make(map[Block]bool)
	if !g.hasEntry {
		return seen
	}
	if _, ok := g.blockNodes[g.entry]; !ok {
		return seen
	}
	work := []Block{g.entry}
	seen[g.entry] = true
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, s := range g.BlockSuccessors(b) {
			if !seen[s] {
				seen[s] = true
				work = append(work, s)
			}
		}
	}
	return seen
}
