package ir

import (
	"fmt"
	"math"
)

// Block is a handle to an extended basic block of a Function.
type Block uint32

// Op is a handle to an operation inside a Block.
type Op uint32

// Value is a handle to either an SSA variable or a constant.
type Value uint32

// BlockCall is a handle to one control transfer from an Op to a Block.
type BlockCall uint32

// FunRef is a handle to a reference to another function.
type FunRef uint32

// Sentinel handles used by the layout to mark absent links.
const (
	noBlock Block = math.MaxUint32
	noOp    Op    = math.MaxUint32
)

func (b Block) String() string     { return fmt.Sprintf("blk%d", uint32(b)) }
func (o Op) String() string        { return fmt.Sprintf("op%d", uint32(o)) }
func (v Value) String() string     { return fmt.Sprintf("%%%d", uint32(v)) }
func (c BlockCall) String() string { return fmt.Sprintf("call%d", uint32(c)) }
func (f FunRef) String() string    { return fmt.Sprintf("fn%d", uint32(f)) }

// EntityList is a handle to a variable-length list stored in a ListPool.
//
// Copying an EntityList is O(1) and shares storage with the original. Pushing
// onto a list that does not end at the tail of the pool relocates it, so a
// shared copy never observes growth of the other.
type EntityList struct {
	start  uint32
	length uint32
}

// Len returns the number of elements in the list.
func (l EntityList) Len() int {
	return int(l.length)
}

// ListPool is a contiguous growable buffer holding many small lists.
type ListPool[T any] struct {
	data []T
}

// NewList stores elems as a new list and returns its handle.
func (p *ListPool[T]) NewList(elems ...T) EntityList {
	if len(elems) == 0 {
		return EntityList{}
	}
	start := len(p.data)
	p.data = append(p.data, elems...)
	return EntityList{start: uint32(start), length: uint32(len(elems))}
}

// Slice returns the list contents. The returned slice aliases pool storage:
// element writes are visible through the handle, but it must not be appended
// to and is invalidated by the next push onto any list of the pool.
func (p *ListPool[T]) Slice(l EntityList) []T {
	if l.length == 0 {
		return nil
	}
	return p.data[l.start : l.start+l.length : l.start+l.length]
}

// Push appends elem to the list and returns the updated handle.
func (p *ListPool[T]) Push(l EntityList, elem T) EntityList {
	end := int(l.start + l.length)
	if l.length > 0 && end == len(p.data) {
		p.data = append(p.data, elem)
		l.length++
		return l
	}
	start := len(p.data)
	p.data = append(p.data, p.data[l.start:end]...)
	p.data = append(p.data, elem)
	return EntityList{start: uint32(start), length: l.length + 1}
}

// Clone copies the list into fresh pool storage.
func (p *ListPool[T]) Clone(l EntityList) EntityList {
	if l.length == 0 {
		return EntityList{}
	}
	start := len(p.data)
	p.data = append(p.data, p.data[l.start:l.start+l.length]...)
	return EntityList{start: uint32(start), length: l.length}
}

// Len returns the total number of slots ever allocated in the pool.
func (p *ListPool[T]) Len() int {
	return len(p.data)
}
