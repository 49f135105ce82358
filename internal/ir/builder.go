package ir

// cursorMode says where the next op emitted by a FunctionBuilder goes.
type cursorMode uint8

const (
	cursorNone cursorMode = iota
	cursorEnd
	cursorBefore
	cursorAfter
)

// FunctionBuilder creates blocks and ops in a Function. It keeps a cursor; ops
// are emitted at the cursor and the Layout is updated in the same step.
//
// A builder is not safe for concurrent use. Contract violations (appending
// past a terminator, positioning relative to an unlinked op) are raised with
// Fatalf.
type FunctionBuilder struct {
	fun *Function

	mode   cursorMode
	block  Block
	anchor Op
}

// NewFunctionBuilder returns a builder for fun with no position.
func NewFunctionBuilder(fun *Function) *FunctionBuilder {
	return &FunctionBuilder{fun: fun, block: noBlock, anchor: noOp}
}

// Function returns the function under construction.
func (b *FunctionBuilder) Function() *Function {
	return b.fun
}

// ---- blocks ----

// InsertEntryBlock appends the entry block with arity formal arguments and
// binds it with the synthetic entry call. It returns the block and its
// arguments. A function has exactly one entry block.
func (b *FunctionBuilder) InsertEntryBlock(arity int) (Block, []Value) {
	if _, ok := b.fun.EntryBlock(); ok {
		Fatalf(ErrCodeLayout, "%s already has an entry block", b.fun.ident)
	}
	blk := b.InsertBlock()
	for range arity {
		b.fun.addBlockArg(blk)
	}
	b.fun.entryCall = b.fun.newBlockCall(noCallSrc, blk, nil)
	return blk, append([]Value(nil), b.fun.BlockArgs(blk)...)
}

// InsertBlock allocates a block and appends it to the layout.
func (b *FunctionBuilder) InsertBlock() Block {
	blk := b.fun.newBlock()
	b.fun.layout.appendBlock(blk)
	return blk
}

// InsertBlockAfter allocates a block and links it right after after.
func (b *FunctionBuilder) InsertBlockAfter(after Block) Block {
	blk := b.fun.newBlock()
	b.fun.layout.insertBlockAfter(blk, after)
	return blk
}

// InsertBlockBefore allocates a block and links it right before before.
func (b *FunctionBuilder) InsertBlockBefore(before Block) Block {
	blk := b.fun.newBlock()
	b.fun.layout.insertBlockBefore(blk, before)
	return blk
}

// AddBlockArg appends a fresh formal argument to blk.
func (b *FunctionBuilder) AddBlockArg(blk Block) Value {
	return b.fun.addBlockArg(blk)
}

// ---- cursor ----

// PositionAtEnd places the cursor at the end of blk.
func (b *FunctionBuilder) PositionAtEnd(blk Block) {
	if !b.fun.layout.IsBlockLinked(blk) {
		Fatalf(ErrCodeLayout, "position at end of unlinked %s", blk)
	}
	b.mode, b.block, b.anchor = cursorEnd, blk, noOp
}

// PositionBefore places the cursor right before op. Successive ops are
// emitted in order, all before op.
func (b *FunctionBuilder) PositionBefore(op Op) {
	blk, ok := b.fun.OpBlock(op)
	if !ok {
		Fatalf(ErrCodeLayout, "position before unlinked %s", op)
	}
	b.mode, b.block, b.anchor = cursorBefore, blk, op
}

// PositionAfter places the cursor right after op. The cursor advances past
// each emitted op.
func (b *FunctionBuilder) PositionAfter(op Op) {
	blk, ok := b.fun.OpBlock(op)
	if !ok {
		Fatalf(ErrCodeLayout, "position after unlinked %s", op)
	}
	b.mode, b.block, b.anchor = cursorAfter, blk, op
}

// CurrentBlock returns the block the cursor is in.
func (b *FunctionBuilder) CurrentBlock() (Block, bool) {
	return b.block, b.mode != cursorNone
}

// ---- ops ----

// Branch is one outgoing block call of an op being emitted.
type Branch struct {
	Target Block
	Args   []Value
}

// OpSpec describes an op for Emit. Writes must be fresh variables not
// defined by any other op.
type OpSpec struct {
	Kind     OpKind
	Reads    []Value
	Writes   []Value
	Branches []Branch

	// Fun is the call target, captured function or lambda, when the kind
	// takes one.
	Fun *FunctionIdent

	// Prim names the primitive of an OpPrimOp.
	Prim Atom
}

// Emit creates the op described by spec at the cursor.
func (b *FunctionBuilder) Emit(spec OpSpec) Op {
	b.checkPlacement(spec.Kind)

	fun := noFunRef
	if spec.Fun != nil {
		fun = b.fun.FunRef(*spec.Fun)
	}
	op := b.fun.newOp(spec.Kind, spec.Reads, spec.Writes, fun, spec.Prim)
	for _, br := range spec.Branches {
		b.fun.newBlockCall(op, br.Target, br.Args)
	}

	switch b.mode {
	case cursorEnd:
		b.fun.layout.appendOp(b.block, op)
		if spec.Kind.IsBlockTerminator() {
			b.fun.blocks[b.block].finished = true
		}
	case cursorBefore:
		b.fun.layout.insertOpBefore(op, b.anchor)
	case cursorAfter:
		b.fun.layout.insertOpAfter(op, b.anchor)
		b.anchor = op
	}
	return op
}

func (b *FunctionBuilder) checkPlacement(kind OpKind) {
	switch b.mode {
	case cursorNone:
		Fatalf(ErrCodeLayout, "emit %s with no builder position", kind)
	case cursorEnd:
		if b.fun.blocks[b.block].finished {
			Fatalf(ErrCodeBlockFinished, "emit %s into finished %s", kind, b.block)
		}
	case cursorBefore:
		if kind.IsBlockTerminator() {
			Fatalf(ErrCodeLayout, "terminator %s must be appended at the end of %s", kind, b.block)
		}
	case cursorAfter:
		if kind.IsBlockTerminator() {
			Fatalf(ErrCodeLayout, "terminator %s must be appended at the end of %s", kind, b.block)
		}
		if b.fun.OpKind(b.anchor).IsBlockTerminator() {
			Fatalf(ErrCodeBlockFinished, "emit %s after terminator %s of %s", kind, b.anchor, b.block)
		}
	}
}

// Constant returns the value denoting c.
func (b *FunctionBuilder) Constant(c ConstantTerm) Value {
	return b.fun.Constant(c)
}

func (b *FunctionBuilder) emit1(spec OpSpec) Value {
	res := b.fun.NewVariable()
	spec.Writes = []Value{res}
	b.Emit(spec)
	return res
}

func (b *FunctionBuilder) emitN(spec OpSpec, n int) []Value {
	writes := make([]Value, n)
	for i := range writes {
		writes[i] = b.fun.NewVariable()
	}
	spec.Writes = writes
	b.Emit(spec)
	return writes
}

// Move copies src into a fresh variable.
func (b *FunctionBuilder) Move(src Value) Value {
	return b.emit1(OpSpec{Kind: OpMove, Reads: []Value{src}})
}

// PackValueList builds a value list.
func (b *FunctionBuilder) PackValueList(vals ...Value) Value {
	return b.emit1(OpSpec{Kind: OpPackValueList, Reads: vals})
}

// UnpackValueList splits list into n fresh variables.
func (b *FunctionBuilder) UnpackValueList(list Value, n int) []Value {
	return b.emitN(OpSpec{Kind: OpUnpackValueList, Reads: []Value{list}}, n)
}

// Call calls ident with args.
func (b *FunctionBuilder) Call(ident FunctionIdent, args ...Value) Value {
	return b.emit1(OpSpec{Kind: OpCall, Reads: args, Fun: &ident})
}

// Apply calls the closure fn with args.
func (b *FunctionBuilder) Apply(fn Value, args ...Value) Value {
	reads := make([]Value, 0, len(args)+1)
	reads = append(reads, fn)
	reads = append(reads, args...)
	return b.emit1(OpSpec{Kind: OpApply, Reads: reads})
}

// CaptureFunction produces a function value for ident.
func (b *FunctionBuilder) CaptureFunction(ident FunctionIdent) Value {
	return b.emit1(OpSpec{Kind: OpCaptureFunction, Fun: &ident})
}

// BindClosure allocates a closure of lambda over captures.
func (b *FunctionBuilder) BindClosure(lambda FunctionIdent, captures ...Value) Value {
	return b.emit1(OpSpec{Kind: OpBindClosure, Reads: captures, Fun: &lambda})
}

// UnpackEnv splits a closure environment into n captured values.
func (b *FunctionBuilder) UnpackEnv(env Value, n int) []Value {
	return b.emitN(OpSpec{Kind: OpUnpackEnv, Reads: []Value{env}}, n)
}

// MakeTuple builds a tuple.
func (b *FunctionBuilder) MakeTuple(elems ...Value) Value {
	return b.emit1(OpSpec{Kind: OpMakeTuple, Reads: elems})
}

// MakeList builds a list of elems ending in tail.
func (b *FunctionBuilder) MakeList(elems []Value, tail Value) Value {
	reads := make([]Value, 0, len(elems)+1)
	reads = append(reads, elems...)
	reads = append(reads, tail)
	return b.emit1(OpSpec{Kind: OpMakeList, Reads: reads})
}

// PrimOp applies the primitive name to args.
func (b *FunctionBuilder) PrimOp(name Atom, args ...Value) Value {
	return b.emit1(OpSpec{Kind: OpPrimOp, Reads: args, Prim: name})
}

// Jump ends the current block with an unconditional transfer to target.
func (b *FunctionBuilder) Jump(target Block, args ...Value) BlockCall {
	op := b.Emit(OpSpec{Kind: OpJump, Branches: []Branch{{Target: target, Args: args}}})
	return b.fun.OpBranches(op)[0]
}

// IfTruthy ends the current block with a two-way branch on cond.
func (b *FunctionBuilder) IfTruthy(cond Value, then Block, thenArgs []Value, els Block, elseArgs []Value) (BlockCall, BlockCall) {
	op := b.Emit(OpSpec{
		Kind:  OpIfTruthy,
		Reads: []Value{cond},
		Branches: []Branch{
			{Target: then, Args: thenArgs},
			{Target: els, Args: elseArgs},
		},
	})
	calls := b.fun.OpBranches(op)
	return calls[0], calls[1]
}

// ReturnOk ends the current block returning v.
func (b *FunctionBuilder) ReturnOk(v Value) Op {
	return b.Emit(OpSpec{Kind: OpReturnOk, Reads: []Value{v}})
}

// ReturnThrow ends the current block raising class, reason and trace.
func (b *FunctionBuilder) ReturnThrow(class, reason, trace Value) Op {
	return b.Emit(OpSpec{Kind: OpReturnThrow, Reads: []Value{class, reason, trace}})
}

// Unreachable ends the current block with an unreachable marker.
func (b *FunctionBuilder) Unreachable() Op {
	return b.Emit(OpSpec{Kind: OpUnreachable})
}
