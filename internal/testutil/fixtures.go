package testutil

import "github.com/roach88/eir/internal/ir"

// MaxFunction builds
//
//	max(a, b) -> if a < b then {ok, b} else {ok, a}
//
// in module, with the tuple built in a join block taking the selected value.
func MaxFunction(module ir.Atom) *ir.Function {
	fun := ir.NewFunction(ir.FunctionIdent{Module: module, Name: "max", Arity: 2})
	b := ir.NewFunctionBuilder(fun)

	entry, args := b.InsertEntryBlock(2)
	then := b.InsertBlock()
	els := b.InsertBlock()
	join := b.InsertBlock()
	res := b.AddBlockArg(join)

	b.PositionAtEnd(entry)
	cond := b.PrimOp("<", args[0], args[1])
	b.IfTruthy(cond, then, nil, els, nil)

	b.PositionAtEnd(then)
	b.Jump(join, args[1])

	b.PositionAtEnd(els)
	b.Jump(join, args[0])

	b.PositionAtEnd(join)
	ok := b.Constant(ir.NewAtom("ok"))
	b.ReturnOk(b.MakeTuple(ok, res))
	return fun
}

// SampleModule builds module "sample" with max/2 and
//
//	adder(n) -> fun(x) -> x + n
//
// whose lambda captures n through closure environment 1.
func SampleModule() *ir.Module {
	m := ir.NewModule("sample")
	envs := ir.NewModuleEnvs()
	env := envs.Add()
	m.Envs = envs

	lambda := ir.FunctionIdent{Module: m.Name, Name: "adder", Arity: 1, Lambda: ir.Lambda{Env: env}}
	envs.SetCapturesNum(env, 1)
	envs.AddMetaBind(env, lambda)

	adder := ir.NewFunction(ir.FunctionIdent{Module: m.Name, Name: "adder", Arity: 1})
	b := ir.NewFunctionBuilder(adder)
	entry, args := b.InsertEntryBlock(1)
	b.PositionAtEnd(entry)
	b.ReturnOk(b.BindClosure(lambda, args[0]))

	inner := ir.NewFunction(lambda)
	b = ir.NewFunctionBuilder(inner)
	entry, args = b.InsertEntryBlock(2)
	b.PositionAtEnd(entry)
	captured := b.UnpackEnv(args[0], 1)
	b.ReturnOk(b.PrimOp("+", args[1], captured[0]))

	for _, fun := range []*ir.Function{MaxFunction(m.Name), adder, inner} {
		if err := m.AddFunction(fun); err != nil {
			panic(err)
		}
	}
	return m
}
