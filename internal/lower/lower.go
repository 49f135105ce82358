package lower

import (
	"log/slog"

	"github.com/roach88/eir/internal/hir"
	"github.com/roach88/eir/internal/ir"
	"github.com/roach88/eir/internal/scope"
)

// Module lowers m into an IR module with its closure environment table.
// An internal-consistency failure aborts the whole module and is returned as
// an *ir.InternalError.
func Module(m *hir.Module) (_ *ir.Module, err error) {
	defer ir.Recover(&err)

	l := &lowerer{
		module: m.Name,
		tr:     scope.NewTracker(),
		out:    ir.NewModule(m.Name),
	}
	for _, f := range m.Functions {
		l.function(f)
	}
	l.out.Envs = l.tr.Finish()

	slog.Debug("module lowered",
		"module", m.Name.String(),
		"functions", l.out.Len(),
		"envs", l.out.Envs.Len())
	return l.out, nil
}

type lowerer struct {
	module ir.Atom
	tr     *scope.Tracker
	out    *ir.Module
}

func (l *lowerer) add(fun *ir.Function) {
	if err := l.out.AddFunction(fun); err != nil {
		ir.Fatalf(ir.ErrCodeDuplicateFunction, "%v", err)
	}
	slog.Debug("function lowered",
		"ident", fun.Ident().String(),
		"blocks", fun.LinkedBlockCount(),
		"ops", fun.LinkedOpCount())
}

func (l *lowerer) function(f hir.Function) {
	ident := ir.FunctionIdent{Module: l.module, Name: f.Name, Arity: f.Arity()}
	ctx := l.newFunCtx(ident, f.Name)

	entry, args := ctx.b.InsertEntryBlock(f.Arity())
	ctx.b.PositionAtEnd(entry)

	l.tr.PushBinding(ctx.bindParams(f.Params, args))
	ctx.b.ReturnOk(ctx.expr(f.Body))
	l.tr.PopBinding()

	if d := l.tr.Depth(); d != 0 {
		ir.Fatalf(ir.ErrCodeScopeMismatch, "%d scope frames left open after %s", d, ident)
	}
	l.add(ctx.fun)
}

// funCtx is the state of one ir.Function under construction.
type funCtx struct {
	l   *lowerer
	fun *ir.Function
	b   *ir.FunctionBuilder

	// base names the lambdas created inside this function.
	base ir.Atom

	// vals maps scope variables to the IR values denoting them here. Bound
	// variables are entered when bound; captured and recursive variables
	// are entered on first use and defined by the prologue.
	vals map[scope.Variable]ir.Value
}

func (l *lowerer) newFunCtx(ident ir.FunctionIdent, base ir.Atom) *funCtx {
	fun := ir.NewFunction(ident)
	return &funCtx{
		l:    l,
		fun:  fun,
		b:    ir.NewFunctionBuilder(fun),
		base: base,
		vals: make(map[scope.Variable]ir.Value),
	}
}

// value returns the IR value of v, allocating one on first use.
func (c *funCtx) value(v scope.Variable) ir.Value {
	if val, ok := c.vals[v]; ok {
		return val
	}
	val := c.fun.NewVariable()
	c.vals[v] = val
	return val
}

// bind allocates a scope variable denoting val.
func (c *funCtx) bind(val ir.Value) scope.Variable {
	v := c.l.tr.NewVariable()
	c.vals[v] = val
	return v
}

func (c *funCtx) bindParams(names []ir.Atom, vals []ir.Value) map[scope.Definition]scope.Variable {
	m := make(map[scope.Definition]scope.Variable, len(names))
	for i, n := range names {
		m[scope.VarDef(n)] = c.bind(vals[i])
	}
	return m
}

func (c *funCtx) exprs(es []hir.Expr) []ir.Value {
	vals := make([]ir.Value, len(es))
	for i, e := range es {
		vals[i] = c.expr(e)
	}
	return vals
}

func (c *funCtx) expr(e hir.Expr) ir.Value {
	b := c.b
	switch e := e.(type) {
	case hir.Const:
		return b.Constant(e.Value)

	case hir.Var:
		return c.value(c.l.tr.Resolve(scope.VarDef(e.Name)))

	case hir.FunName:
		def := scope.FunDef(ir.FunctionIdent{Module: c.l.module, Name: e.Name, Arity: e.Arity})
		if c.l.tr.IsBound(def) {
			return c.value(c.l.tr.Resolve(def))
		}
		return b.CaptureFunction(def.Fun)

	case hir.Let:
		return c.let(e)

	case hir.Values:
		return b.PackValueList(c.exprs(e.Elems)...)

	case hir.Tuple:
		return b.MakeTuple(c.exprs(e.Elems)...)

	case hir.List:
		elems := c.exprs(e.Elems)
		tail := b.Constant(ir.Nil{})
		if e.Tail != nil {
			tail = c.expr(e.Tail)
		}
		return b.MakeList(elems, tail)

	case hir.Call:
		module := e.Module
		if module == "" {
			module = c.l.module
		}
		args := c.exprs(e.Args)
		return b.Call(ir.FunctionIdent{Module: module, Name: e.Name, Arity: len(args)}, args...)

	case hir.Apply:
		fn := c.expr(e.Fun)
		return b.Apply(fn, c.exprs(e.Args)...)

	case hir.PrimOp:
		return b.PrimOp(e.Name, c.exprs(e.Args)...)

	case hir.Fun:
		return c.lambda(e)

	case hir.LetRec:
		return c.letRec(e)

	case hir.If:
		return c.branch(e)

	case hir.Seq:
		var last ir.Value
		for _, x := range e.Exprs {
			last = c.expr(x)
		}
		if len(e.Exprs) == 0 {
			last = b.Constant(ir.Nil{})
		}
		return last

	case hir.Raise:
		class := c.expr(e.Class)
		reason := c.expr(e.Reason)
		nilv := b.Constant(ir.Nil{})
		b.ReturnThrow(class, reason, nilv)
		// Whatever follows is dead; give it a block of its own.
		b.PositionAtEnd(b.InsertBlock())
		return nilv

	default:
		ir.Fatalf(ir.ErrCodeLayout, "cannot lower %T", e)
		return 0
	}
}

func (c *funCtx) let(e hir.Let) ir.Value {
	val := c.expr(e.Value)

	var results []ir.Value
	switch len(e.Names) {
	case 0:
		c.b.UnpackValueList(val, 0)
	case 1:
		results = []ir.Value{c.b.Move(val)}
	default:
		results = c.b.UnpackValueList(val, len(e.Names))
	}

	c.l.tr.PushBinding(c.bindParams(e.Names, results))
	res := c.expr(e.Body)
	c.l.tr.PopBinding()
	return res
}

func (c *funCtx) branch(e hir.If) ir.Value {
	b := c.b
	cond := c.expr(e.Cond)

	then := b.InsertBlock()
	els := b.InsertBlock()
	join := b.InsertBlock()
	res := b.AddBlockArg(join)
	b.IfTruthy(cond, then, nil, els, nil)

	for _, arm := range []struct {
		blk  ir.Block
		expr hir.Expr
	}{{then, e.Then}, {els, e.Else}} {
		b.PositionAtEnd(arm.blk)
		v := c.expr(arm.expr)
		cur, _ := b.CurrentBlock()
		if !c.fun.BlockFinished(cur) {
			b.Jump(join, v)
		}
	}

	b.PositionAtEnd(join)
	return res
}
