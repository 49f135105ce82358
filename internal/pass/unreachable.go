package pass

import "github.com/roach88/eir/internal/ir"

// RemoveUnreachable unlinks every block not reachable from the entry block.
// A function with no entry block is left alone.
func RemoveUnreachable(fun *ir.Function) Stats {
	var stats Stats
	if _, ok := fun.EntryBlock(); !ok {
		return stats
	}
	reach := ir.BuildCFG(fun).Reachable()
	for b := range fun.Blocks() {
		if !reach[b] {
			fun.BlockRemove(b)
			stats.RemovedBlocks++
		}
	}
	return stats
}
