package ir

import (
	"iter"
	"math"
)

const (
	noFunRef  FunRef    = math.MaxUint32
	noCall    BlockCall = math.MaxUint32
	noCallSrc Op        = noOp
)

type opData struct {
	kind   OpKind
	reads  EntityList
	writes EntityList
	calls  EntityList
	fun    FunRef
	prim   Atom
}

type blockData struct {
	args     EntityList
	finished bool
}

type valueData struct {
	constant ConstantTerm // nil for variables
}

type callData struct {
	source Op // noCallSrc for the synthetic entry binding
	target Block
	args   EntityList
}

// WriteToken records a value an op used to define. It is inert: holding one
// grants no access to the removed op.
type WriteToken struct {
	value Value
}

// Value returns the value the removed op wrote.
func (w WriteToken) Value() Value {
	return w.value
}

// Function is a single function in SSA form. It owns every arena and the
// Layout, and exposes only handle-based accessors.
//
// Create structure with a FunctionBuilder.
type Function struct {
	ident  FunctionIdent
	layout Layout

	ops     []opData
	blocks  []blockData
	values  []valueData
	calls   []callData
	funRefs []FunctionIdent

	valuePool ListPool[Value]
	callPool  ListPool[BlockCall]

	funRefIndex map[FunctionIdent]FunRef
	constIndex  map[string]Value
	constants   map[Value]struct{}

	entryCall BlockCall
}

// NewFunction creates an empty function. It has no entry block until one is
// inserted with FunctionBuilder.InsertEntryBlock.
func NewFunction(ident FunctionIdent) *Function {
	return &Function{
		ident:       ident,
		layout:      newLayout(),
		funRefIndex: make(map[FunctionIdent]FunRef),
		constIndex:  make(map[string]Value),
		constants:   make(map[Value]struct{}),
		entryCall:   noCall,
	}
}

// Ident returns the function's identity.
func (f *Function) Ident() FunctionIdent {
	return f.ident
}

// Layout returns the function's ordering layer, for read-only queries.
func (f *Function) Layout() *Layout {
	return &f.layout
}

// ---- values ----

// NewVariable allocates a fresh SSA variable.
func (f *Function) NewVariable() Value {
	f.values = append(f.values, valueData{})
	return Value(len(f.values) - 1)
}

// Constant returns the value denoting c, allocating it on first use.
// Equal constants share one value.
func (f *Function) Constant(c ConstantTerm) Value {
	key := constantKey(c)
	if v, ok := f.constIndex[key]; ok {
		return v
	}
	f.values = append(f.values, valueData{constant: c})
	v := Value(len(f.values) - 1)
	f.constIndex[key] = v
	f.constants[v] = struct{}{}
	return v
}

// ValueIsConstant reports whether v denotes a constant. O(1).
func (f *Function) ValueIsConstant(v Value) bool {
	_, ok := f.constants[v]
	return ok
}

// ValueConstant returns the constant denoted by v.
func (f *Function) ValueConstant(v Value) (ConstantTerm, bool) {
	if !f.ValueIsConstant(v) {
		return nil, false
	}
	return f.values[v].constant, true
}

// MustValueConstant is like ValueConstant but treats a variable as an
// internal-consistency failure.
func (f *Function) MustValueConstant(v Value) ConstantTerm {
	c, ok := f.ValueConstant(v)
	if !ok {
		Fatalf(ErrCodeNotConstant, "%s is a variable, not a constant", v)
	}
	return c
}

// ValueCount returns the number of values ever allocated.
func (f *Function) ValueCount() int {
	return len(f.values)
}

// Constants iterates constant values in allocation order.
func (f *Function) Constants() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for i, d := range f.values {
			if d.constant == nil {
				continue
			}
			if !yield(Value(i)) {
				return
			}
		}
	}
}

// ---- function references ----

// FunRef returns the reference handle for ident, allocating it on first use.
func (f *Function) FunRef(ident FunctionIdent) FunRef {
	if r, ok := f.funRefIndex[ident]; ok {
		return r
	}
	f.funRefs = append(f.funRefs, ident)
	r := FunRef(len(f.funRefs) - 1)
	f.funRefIndex[ident] = r
	return r
}

// FunRefIdent returns the function a reference names.
func (f *Function) FunRefIdent(r FunRef) FunctionIdent {
	return f.funRefs[r]
}

// FunRefs iterates all referenced functions in allocation order.
func (f *Function) FunRefs() iter.Seq2[FunRef, FunctionIdent] {
	return func(yield func(FunRef, FunctionIdent) bool) {
		for i, id := range f.funRefs {
			if !yield(FunRef(i), id) {
				return
			}
		}
	}
}

// ---- blocks ----

// Blocks iterates blocks in layout order. The sequence is lazy and may be
// ranged over repeatedly; the current block may be removed while iterating.
func (f *Function) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		for b := f.layout.firstBlock; b != noBlock; {
			next := f.layout.blocks[b].next
			if !yield(b) {
				return
			}
			b = next
		}
	}
}

// EntryBlock returns the entry block, or false while none has been inserted.
func (f *Function) EntryBlock() (Block, bool) {
	if f.entryCall == noCall {
		return 0, false
	}
	return f.calls[f.entryCall].target, true
}

// EntryCall returns the synthetic block call binding the function's
// parameters to the entry block. It has no source op.
func (f *Function) EntryCall() (BlockCall, bool) {
	return f.entryCall, f.entryCall != noCall
}

// BlockArgs returns the formal arguments of b.
func (f *Function) BlockArgs(b Block) []Value {
	return f.valuePool.Slice(f.blocks[b].args)
}

// BlockFinished reports whether a terminator has been attached to b.
func (f *Function) BlockFinished(b Block) bool {
	return f.blocks[b].finished
}

// BlockFirstOp returns the first op of b.
func (f *Function) BlockFirstOp(b Block) (Op, bool) {
	o := f.layout.blocks[b].firstOp
	return o, o != noOp
}

// BlockLastOp returns the last op of b.
func (f *Function) BlockLastOp(b Block) (Op, bool) {
	o := f.layout.blocks[b].lastOp
	return o, o != noOp
}

// BlockRemove unlinks b from the layout. Its ops stay attached to it.
func (f *Function) BlockRemove(b Block) {
	f.layout.removeBlock(b)
}

// BlockCount returns the number of blocks ever allocated.
func (f *Function) BlockCount() int {
	return len(f.blocks)
}

// ---- block calls ----

// BlockCallSource returns the op a block call leaves from. The synthetic
// entry call has no source.
func (f *Function) BlockCallSource(c BlockCall) (Op, bool) {
	src := f.calls[c].source
	return src, src != noCallSrc
}

// MustBlockCallSource is like BlockCallSource but treats the synthetic entry
// call as an internal-consistency failure.
func (f *Function) MustBlockCallSource(c BlockCall) Op {
	src, ok := f.BlockCallSource(c)
	if !ok {
		Fatalf(ErrCodeNoSource, "%s is the synthetic entry binding and has no source op", c)
	}
	return src
}

// BlockCallTarget returns the block a call transfers control to.
func (f *Function) BlockCallTarget(c BlockCall) Block {
	return f.calls[c].target
}

// BlockCallArgs returns the values passed to the target's formal arguments.
func (f *Function) BlockCallArgs(c BlockCall) []Value {
	return f.valuePool.Slice(f.calls[c].args)
}

// BlockCallSetTarget retargets a block call.
func (f *Function) BlockCallSetTarget(c BlockCall, b Block) {
	f.calls[c].target = b
}

// BlockCallReplaceArg replaces the i-th argument of a block call.
func (f *Function) BlockCallReplaceArg(c BlockCall, i int, v Value) {
	f.valuePool.Slice(f.calls[c].args)[i] = v
}

// BlockCallCount returns the number of block calls ever allocated.
func (f *Function) BlockCallCount() int {
	return len(f.calls)
}

// ---- ops ----

// Ops iterates the ops of b in layout order. The sequence is lazy and may be
// ranged over repeatedly; the current op may be removed while iterating.
func (f *Function) Ops(b Block) iter.Seq[Op] {
	return f.opsFrom(f.layout.blocks[b].firstOp)
}

// OpsReverse iterates the ops of b from last to first.
func (f *Function) OpsReverse(b Block) iter.Seq[Op] {
	return f.opsReverseFrom(f.layout.blocks[b].lastOp)
}

// OpsReverseFrom iterates from op (inclusive) back to the first op of its
// block. op must be linked.
func (f *Function) OpsReverseFrom(op Op) iter.Seq[Op] {
	if !f.layout.IsOpLinked(op) {
		Fatalf(ErrCodeLayout, "reverse iteration from unlinked %s", op)
	}
	return f.opsReverseFrom(op)
}

func (f *Function) opsFrom(start Op) iter.Seq[Op] {
	return func(yield func(Op) bool) {
		for o := start; o != noOp; {
			next := f.layout.ops[o].next
			if !yield(o) {
				return
			}
			o = next
		}
	}
}

func (f *Function) opsReverseFrom(start Op) iter.Seq[Op] {
	return func(yield func(Op) bool) {
		for o := start; o != noOp; {
			prev := f.layout.ops[o].prev
			if !yield(o) {
				return
			}
			o = prev
		}
	}
}

// OpKind returns the operator of op.
func (f *Function) OpKind(op Op) OpKind {
	return f.ops[op].kind
}

// OpReads returns the values op reads.
func (f *Function) OpReads(op Op) []Value {
	return f.valuePool.Slice(f.ops[op].reads)
}

// OpWrites returns the values op defines.
func (f *Function) OpWrites(op Op) []Value {
	return f.valuePool.Slice(f.ops[op].writes)
}

// OpBranches returns the block calls leaving op.
func (f *Function) OpBranches(op Op) []BlockCall {
	return f.callPool.Slice(f.ops[op].calls)
}

// OpFunRef returns the function reference attribute of a call, capture or
// closure op.
func (f *Function) OpFunRef(op Op) (FunRef, bool) {
	r := f.ops[op].fun
	return r, r != noFunRef
}

// OpPrim returns the primitive name of a PrimOp.
func (f *Function) OpPrim(op Op) Atom {
	return f.ops[op].prim
}

// OpBlock returns the block containing op.
func (f *Function) OpBlock(op Op) (Block, bool) {
	b := f.layout.ops[op].block
	return b, b != noBlock
}

// OpAfter returns the op following op in its block.
func (f *Function) OpAfter(op Op) (Op, bool) {
	n := f.layout.ops[op].next
	return n, n != noOp
}

// OpBefore returns the op preceding op in its block.
func (f *Function) OpBefore(op Op) (Op, bool) {
	p := f.layout.ops[op].prev
	return p, p != noOp
}

// OpReplaceRead replaces the i-th read of op.
func (f *Function) OpReplaceRead(op Op, i int, v Value) {
	f.valuePool.Slice(f.ops[op].reads)[i] = v
}

// OpRemove unlinks op from its block. Removing the terminator reopens the
// block for appends.
func (f *Function) OpRemove(op Op) {
	b, linked := f.OpBlock(op)
	if !linked {
		return
	}
	if f.ops[op].kind.IsBlockTerminator() && f.layout.blocks[b].lastOp == op {
		f.blocks[b].finished = false
	}
	f.layout.removeOp(op)
}

// OpRemoveTakeWrites removes op and reports the values it used to define,
// reusing buf's storage.
func (f *Function) OpRemoveTakeWrites(op Op, buf []WriteToken) []WriteToken {
	buf = buf[:0]
	for _, w := range f.OpWrites(op) {
		buf = append(buf, WriteToken{value: w})
	}
	f.OpRemove(op)
	return buf
}

// OpCount returns the number of ops ever allocated.
func (f *Function) OpCount() int {
	return len(f.ops)
}

// LinkedBlockCount returns the number of blocks in the layout.
func (f *Function) LinkedBlockCount() int {
	n := 0
	for range f.Blocks() {
		n++
	}
	return n
}

// LinkedOpCount returns the number of ops in the layout.
func (f *Function) LinkedOpCount() int {
	n := 0
	for b := range f.Blocks() {
		for range f.Ops(b) {
			n++
		}
	}
	return n
}

// ---- whole-function queries ----

// UsedValues recomputes, with one forward scan, the set of every value
// referenced anywhere in the layout: block arguments, op reads and writes, and
// block call arguments. set is cleared first.
func (f *Function) UsedValues(set map[Value]struct{}) {
	clear(set)
	for b := range f.Blocks() {
		for _, arg := range f.BlockArgs(b) {
			set[arg] = struct{}{}
		}
		for op := range f.Ops(b) {
			for _, r := range f.OpReads(op) {
				set[r] = struct{}{}
			}
			for _, w := range f.OpWrites(op) {
				set[w] = struct{}{}
			}
			for _, c := range f.OpBranches(op) {
				for _, a := range f.BlockCallArgs(c) {
					set[a] = struct{}{}
				}
			}
		}
	}
}

// ---- arena constructors used by FunctionBuilder ----

func (f *Function) newBlock() Block {
	f.blocks = append(f.blocks, blockData{})
	b := Block(len(f.blocks) - 1)
	f.layout.ensureBlock(b)
	return b
}

func (f *Function) newOp(kind OpKind, reads, writes []Value, fun FunRef, prim Atom) Op {
	for _, w := range writes {
		if f.ValueIsConstant(w) {
			Fatalf(ErrCodeConstantWrite, "%s op writes constant %s", kind, w)
		}
	}
	f.ops = append(f.ops, opData{
		kind:   kind,
		reads:  f.valuePool.NewList(reads...),
		writes: f.valuePool.NewList(writes...),
		fun:    fun,
		prim:   prim,
	})
	o := Op(len(f.ops) - 1)
	f.layout.ensureOp(o)
	return o
}

func (f *Function) newBlockCall(source Op, target Block, args []Value) BlockCall {
	f.calls = append(f.calls, callData{
		source: source,
		target: target,
		args:   f.valuePool.NewList(args...),
	})
	c := BlockCall(len(f.calls) - 1)
	if source != noCallSrc {
		d := &f.ops[source]
		d.calls = f.callPool.Push(d.calls, c)
	}
	return c
}

func (f *Function) addBlockArg(b Block) Value {
	v := f.NewVariable()
	d := &f.blocks[b]
	d.args = f.valuePool.Push(d.args, v)
	return v
}
