package ir

// StronglyConnected returns the strongly connected components of the block
// graph using Tarjan's algorithm. Blocks are visited in layout order, so the
// result is deterministic. Components come out in reverse topological order:
// a component is listed before every component that can reach it.
func (g *FunctionCFG) StronglyConnected() [][]Block {
	var (
		index   = 0
		stack   []Block
		indices = make(map[Block]int)
		lowlink = make(map[Block]int)
		onStack = make(map[Block]bool)
		sccs    [][]Block
	)

	var strongConnect func(Block)
	strongConnect = func(v Block) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.BlockSuccessors(v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component.
		if lowlink[v] == indices[v] {
			var scc []Block
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for b := range g.Blocks() {
		if _, visited := indices[b]; !visited {
			strongConnect(b)
		}
	}
	return sccs
}

// Loops returns the components of the block graph that contain a cycle:
// components of more than one block, or a single block branching to itself.
func (g *FunctionCFG) Loops() [][]Block {
	var loops [][]Block
	for _, scc := range g.StronglyConnected() {
		if len(scc) > 1 || g.hasSelfLoop(scc[0]) {
			loops = append(loops, scc)
		}
	}
	return loops
}

func (g *FunctionCFG) hasSelfLoop(b Block) bool {
	for _, s := range g.BlockSuccessors(b) {
		if s == b {
			return true
		}
	}
	return false
}
