package ir

import "slices"

// Liveness holds the variables live on entry to each block.
type Liveness struct {
	liveIn map[Block]map[Value]struct{}
}

// LiveValues computes block live-in sets by backward dataflow over cfg.
//
// A block call reads its arguments at its source op and makes the target's
// live-in set live there. Block arguments are defined on block entry.
// Constants are never live.
func LiveValues(fun *Function, cfg *FunctionCFG) *Liveness {
	lv := &Liveness{liveIn: make(map[Block]map[Value]struct{})}

	var order []Block
	for b := range cfg.Blocks() {
		order = append(order, b)
		lv.liveIn[b] = make(map[Value]struct{})
	}
	slices.Reverse(order)

	for changed := true; changed; {
		changed = false
		for _, b := range order {
			in := lv.blockLiveIn(fun, b)
			if len(in) != len(lv.liveIn[b]) {
				lv.liveIn[b] = in
				changed = true
			}
		}
	}
	return lv
}

func (lv *Liveness) blockLiveIn(fun *Function, b Block) map[Value]struct{} {
	live := make(map[Value]struct{})
	use := func(v Value) {
		if !fun.ValueIsConstant(v) {
			live[v] = struct{}{}
		}
	}
	for op := range fun.OpsReverse(b) {
		for _, c := range fun.OpBranches(op) {
			for v := range lv.liveIn[fun.BlockCallTarget(c)] {
				live[v] = struct{}{}
			}
			for _, a := range fun.BlockCallArgs(c) {
				use(a)
			}
		}
		for _, w := range fun.OpWrites(op) {
			delete(live, w)
		}
		for _, r := range fun.OpReads(op) {
			use(r)
		}
	}
	for _, a := range fun.BlockArgs(b) {
		delete(live, a)
	}
	return live
}

// LiveIn returns the variables live on entry to b, sorted by handle.
func (lv *Liveness) LiveIn(b Block) []Value {
	set := lv.liveIn[b]
	vals := make([]Value, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}
	slices.Sort(vals)
	return vals
}

// IsLiveIn reports whether v is live on entry to b.
func (lv *Liveness) IsLiveIn(b Block, v Value) bool {
	_, ok := lv.liveIn[b][v]
	return ok
}
