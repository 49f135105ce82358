package pass

import "github.com/roach88/eir/internal/ir"

// Stats reports what a pass changed.
type Stats struct {
	RemovedOps     int `json:"removed_ops"`
	RemovedBlocks  int `json:"removed_blocks"`
	RewrittenReads int `json:"rewritten_reads"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.RemovedOps += other.RemovedOps
	s.RemovedBlocks += other.RemovedBlocks
	s.RewrittenReads += other.RewrittenReads
}

// Changed reports whether the pass modified the function.
func (s Stats) Changed() bool {
	return s != Stats{}
}

// PropagateAtomics performs copy and constant propagation.
//
// Moves, and unpacks of a single value, whose write is never passed as a
// block call argument are deleted; reads of their writes are rewritten to
// the ultimate source, or to the constant it denotes. Unpacks with no writes
// are deleted. Unpacks with several writes are kept. Block call arguments
// are not rewritten: a definition read across an edge is never deleted, so
// they never refer to a removed write.
func PropagateAtomics(fun *ir.Function) Stats {
	var stats Stats

	crossEdge := crossEdgeReads(fun)

	constants := make(map[ir.Value]ir.Value)
	moves := make(map[ir.Value]ir.Value)
	record := func(op ir.Op) bool {
		w := fun.OpWrites(op)[0]
		if _, keep := crossEdge[w]; keep {
			return false
		}
		src := fun.OpReads(op)[0]
		if fun.ValueIsConstant(src) {
			constants[w] = src
		} else {
			moves[w] = src
		}
		return true
	}

	for b := range fun.Blocks() {
		for op := range fun.Ops(b) {
			remove := false
			switch fun.OpKind(op) {
			case ir.OpMove:
				remove = record(op)
			case ir.OpUnpackValueList:
				switch len(fun.OpWrites(op)) {
				case 0:
					remove = true
				case 1:
					remove = record(op)
				}
			}
			if remove {
				fun.OpRemove(op)
				stats.RemovedOps++
			}
		}
	}

	if len(constants) == 0 && len(moves) == 0 {
		return stats
	}

	resolved := resolveMoves(moves)

	for b := range fun.Blocks() {
		for op := range fun.Ops(b) {
			for i, r := range fun.OpReads(op) {
				to, ok := constants[r]
				if !ok {
					to, ok = resolved[r]
					if c, isConst := constants[to]; ok && isConst {
						to = c
					}
				}
				if ok && to != r {
					fun.OpReplaceRead(op, i, to)
					stats.RewrittenReads++
				}
			}
		}
	}
	return stats
}

// crossEdgeReads collects every value passed as a block call argument,
// from the Call edges of the function's graph.
func crossEdgeReads(fun *ir.Function) map[ir.Value]struct{} {
	reads := make(map[ir.Value]struct{})
	for e := range ir.BuildCFG(fun).CallEdges() {
		for _, a := range fun.BlockCallArgs(e.Call) {
			reads[a] = struct{}{}
		}
	}
	return reads
}

// resolveMoves maps every recorded write to the end of its move chain.
// Chains are acyclic in SSA form; a chain longer than the map is a cycle.
func resolveMoves(moves map[ir.Value]ir.Value) map[ir.Value]ir.Value {
	resolved := make(map[ir.Value]ir.Value, len(moves))
	for w, to := range moves {
		for steps := 0; ; steps++ {
			if steps > len(moves) {
				ir.Fatalf(ir.ErrCodeMoveCycle, "move chain from %s does not terminate", w)
			}
			next, ok := moves[to]
			if !ok {
				break
			}
			to = next
		}
		resolved[w] = to
	}
	return resolved
}
