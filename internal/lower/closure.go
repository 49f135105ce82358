package lower

import (
	"github.com/roach88/eir/internal/hir"
	"github.com/roach88/eir/internal/ir"
	"github.com/roach88/eir/internal/scope"
)

// lambdaBody is a lambda being lowered: its context and environment
// argument.
type lambdaBody struct {
	ctx *funCtx
	env ir.Value
}

// openLambda creates the function for a lambda and binds its parameters.
// The caller pushes the tracking frame first and pops the returned binding
// frame after lowering the body.
func (c *funCtx) openLambda(ident ir.FunctionIdent, params []ir.Atom) lambdaBody {
	child := c.l.newFunCtx(ident, c.base)
	entry, args := child.b.InsertEntryBlock(len(params) + 1)
	child.b.PositionAtEnd(entry)
	c.l.tr.PushBinding(child.bindParams(params, args[1:]))
	return lambdaBody{ctx: child, env: args[0]}
}

// prologue inserts, ahead of the body, the UnpackEnv defining the captured
// values and a closure for every recursive member the body references.
func (lb lambdaBody) prologue(captures []scope.Capture, rec []scope.MetaBind) {
	c := lb.ctx
	first, ok := c.fun.BlockFirstOp(entryBlock(c.fun))
	if !ok {
		ir.Fatalf(ir.ErrCodeLayout, "%s has an empty entry block", c.fun.Ident())
	}
	c.b.PositionBefore(first)

	capVals := make([]ir.Value, len(captures))
	for i, capt := range captures {
		capVals[i] = c.value(capt.Inner)
	}
	if len(captures) > 0 {
		c.b.Emit(ir.OpSpec{
			Kind:   ir.OpUnpackEnv,
			Reads:  []ir.Value{lb.env},
			Writes: capVals,
		})
	}

	for _, mb := range rec {
		val, used := c.vals[mb.Recursive]
		if !used {
			continue
		}
		ident := mb.Ident
		c.b.Emit(ir.OpSpec{
			Kind:   ir.OpBindClosure,
			Reads:  capVals,
			Writes: []ir.Value{val},
			Fun:    &ident,
		})
	}
}

func entryBlock(fun *ir.Function) ir.Block {
	entry, ok := fun.EntryBlock()
	if !ok {
		ir.Fatalf(ir.ErrCodeLayout, "%s has no entry block", fun.Ident())
	}
	return entry
}

// outerValues returns, in capture order, the values the enclosing function
// passes into a closure.
func (c *funCtx) outerValues(captures []scope.Capture) []ir.Value {
	vals := make([]ir.Value, len(captures))
	for i, capt := range captures {
		vals[i] = c.value(capt.Outer)
	}
	return vals
}

func (c *funCtx) lambda(e hir.Fun) ir.Value {
	tr := c.l.tr
	env := tr.GenEnv()
	ident := ir.FunctionIdent{
		Module: c.l.module,
		Name:   c.base,
		Arity:  len(e.Params),
		Lambda: ir.Lambda{Env: env, Index: 0},
	}

	tr.PushTracking()
	lb := c.openLambda(ident, e.Params)
	lb.ctx.b.ReturnOk(lb.ctx.expr(e.Body))
	tr.PopBinding()
	captures := tr.PopTracking()

	lb.prologue(captures, nil)
	c.l.add(lb.ctx.fun)

	closure := c.b.BindClosure(ident, c.outerValues(captures)...)
	tr.RegisterEnv(env, scope.LambdaEnv{
		Captures:  captures,
		MetaBinds: []scope.MetaBind{{Ident: ident, Value: c.bind(closure)}},
	})
	return closure
}

func (c *funCtx) letRec(e hir.LetRec) ir.Value {
	tr := c.l.tr
	env := tr.GenEnv()

	binds := make([]scope.MetaBind, len(e.Defs))
	self := make(map[scope.Definition]scope.Variable, len(e.Defs))
	locals := make([]scope.Definition, len(e.Defs))
	for i, d := range e.Defs {
		arity := len(d.Params)
		locals[i] = scope.FunDef(ir.FunctionIdent{Module: c.l.module, Name: d.Name, Arity: arity})
		binds[i] = scope.MetaBind{
			Ident: ir.FunctionIdent{
				Module: c.l.module,
				Name:   d.Name,
				Arity:  arity,
				Lambda: ir.Lambda{Env: env, Index: i},
			},
			Recursive: tr.NewVariable(),
		}
		self[locals[i]] = binds[i].Recursive
	}

	tr.PushTracking()
	tr.PushBinding(self)
	bodies := make([]lambdaBody, len(e.Defs))
	for i, d := range e.Defs {
		lb := c.openLambda(binds[i].Ident, d.Params)
		lb.ctx.b.ReturnOk(lb.ctx.expr(d.Body))
		tr.PopBinding()
		bodies[i] = lb
	}
	tr.PopBinding()
	captures := tr.PopTracking()

	for _, lb := range bodies {
		lb.prologue(captures, binds)
		c.l.add(lb.ctx.fun)
	}

	outer := c.outerValues(captures)
	group := make(map[scope.Definition]scope.Variable, len(e.Defs))
	for i := range binds {
		binds[i].Value = c.bind(c.b.BindClosure(binds[i].Ident, outer...))
		group[locals[i]] = binds[i].Value
	}
	tr.RegisterEnv(env, scope.LambdaEnv{Captures: captures, MetaBinds: binds})

	tr.PushBinding(group)
	res := c.expr(e.Body)
	tr.PopBinding()
	return res
}
