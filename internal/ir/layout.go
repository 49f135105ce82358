package ir

// Layout threads the blocks of a function, and the ops of each block, into
// intrusive doubly-linked lists. It is separate from the arenas that own block
// and op data: linking and unlinking are O(1) and never move or invalidate a
// handle.
type Layout struct {
	blocks []blockNode
	ops    []opNode

	firstBlock Block
	lastBlock  Block
}

type blockNode struct {
	prev, next      Block
	firstOp, lastOp Op
	linked          bool
}

type opNode struct {
	prev, next Op
	block      Block // noBlock while unlinked
}

func newLayout() Layout {
	return Layout{firstBlock: noBlock, lastBlock: noBlock}
}

func (l *Layout) ensureBlock(b Block) {
	for int(b) >= len(l.blocks) {
		l.blocks = append(l.blocks, blockNode{prev: noBlock, next: noBlock, firstOp: noOp, lastOp: noOp})
	}
}

func (l *Layout) ensureOp(o Op) {
	for int(o) >= len(l.ops) {
		l.ops = append(l.ops, opNode{prev: noOp, next: noOp, block: noBlock})
	}
}

// IsBlockLinked reports whether b is currently part of the layout.
func (l *Layout) IsBlockLinked(b Block) bool {
	return int(b) < len(l.blocks) && l.blocks[b].linked
}

// IsOpLinked reports whether o is currently part of the layout.
func (l *Layout) IsOpLinked(o Op) bool {
	return int(o) < len(l.ops) && l.ops[o].block != noBlock
}

// FirstBlock returns the first block in layout order.
func (l *Layout) FirstBlock() (Block, bool) {
	return l.firstBlock, l.firstBlock != noBlock
}

func (l *Layout) appendBlock(b Block) {
	l.ensureBlock(b)
	n := &l.blocks[b]
	n.linked = true
	n.prev = l.lastBlock
	n.next = noBlock
	if l.lastBlock == noBlock {
		l.firstBlock = b
	} else {
		l.blocks[l.lastBlock].next = b
	}
	l.lastBlock = b
}

func (l *Layout) insertBlockAfter(b, after Block) {
	if !l.IsBlockLinked(after) {
		Fatalf(ErrCodeLayout, "insert %s after unlinked %s", b, after)
	}
	l.ensureBlock(b)
	next := l.blocks[after].next
	n := &l.blocks[b]
	n.linked = true
	n.prev = after
	n.next = next
	l.blocks[after].next = b
	if next == noBlock {
		l.lastBlock = b
	} else {
		l.blocks[next].prev = b
	}
}

func (l *Layout) insertBlockBefore(b, before Block) {
	if !l.IsBlockLinked(before) {
		Fatalf(ErrCodeLayout, "insert %s before unlinked %s", b, before)
	}
	l.ensureBlock(b)
	prev := l.blocks[before].prev
	n := &l.blocks[b]
	n.linked = true
	n.prev = prev
	n.next = before
	l.blocks[before].prev = b
	if prev == noBlock {
		l.firstBlock = b
	} else {
		l.blocks[prev].next = b
	}
}

func (l *Layout) removeBlock(b Block) {
	if !l.IsBlockLinked(b) {
		return
	}
	n := &l.blocks[b]
	if n.prev == noBlock {
		l.firstBlock = n.next
	} else {
		l.blocks[n.prev].next = n.next
	}
	if n.next == noBlock {
		l.lastBlock = n.prev
	} else {
		l.blocks[n.next].prev = n.prev
	}
	n.prev, n.next = noBlock, noBlock
	n.linked = false
}

func (l *Layout) appendOp(b Block, o Op) {
	l.ensureOp(o)
	bn := &l.blocks[b]
	n := &l.ops[o]
	n.block = b
	n.prev = bn.lastOp
	n.next = noOp
	if bn.lastOp == noOp {
		bn.firstOp = o
	} else {
		l.ops[bn.lastOp].next = o
	}
	bn.lastOp = o
}

func (l *Layout) insertOpAfter(o, after Op) {
	if !l.IsOpLinked(after) {
		Fatalf(ErrCodeLayout, "insert %s after unlinked %s", o, after)
	}
	l.ensureOp(o)
	b := l.ops[after].block
	next := l.ops[after].next
	n := &l.ops[o]
	n.block = b
	n.prev = after
	n.next = next
	l.ops[after].next = o
	if next == noOp {
		l.blocks[b].lastOp = o
	} else {
		l.ops[next].prev = o
	}
}

func (l *Layout) insertOpBefore(o, before Op) {
	if !l.IsOpLinked(before) {
		Fatalf(ErrCodeLayout, "insert %s before unlinked %s", o, before)
	}
	l.ensureOp(o)
	b := l.ops[before].block
	prev := l.ops[before].prev
	n := &l.ops[o]
	n.block = b
	n.prev = prev
	n.next = before
	l.ops[before].prev = o
	if prev == noOp {
		l.blocks[b].firstOp = o
	} else {
		l.ops[prev].next = o
	}
}

func (l *Layout) removeOp(o Op) {
	if !l.IsOpLinked(o) {
		return
	}
	n := &l.ops[o]
	bn := &l.blocks[n.block]
	if n.prev == noOp {
		bn.firstOp = n.next
	} else {
		l.ops[n.prev].next = n.next
	}
	if n.next == noOp {
		bn.lastOp = n.prev
	} else {
		l.ops[n.next].prev = n.prev
	}
	n.prev, n.next = noOp, noOp
	n.block = noBlock
}
