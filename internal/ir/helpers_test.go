package ir

// fatalCode runs fn and returns the code of the internal error it raised, or
// "" when it returned normally.
func fatalCode(fn func()) InternalErrorCode {
	var err error
	func() {
		defer Recover(&err)
		fn()
	}()
	return InternalErrorCodeOf(err)
}

// buildMax builds:
//
//	max(a, b) -> if a < b then {ok, b} else {ok, a}
//
// with the tuple built in a join block taking the selected value.
func buildMax() *Function {
	fun := NewFunction(FunctionIdent{Module: "m", Name: "max", Arity: 2})
	b := NewFunctionBuilder(fun)

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
	ok := b.Constant(Atom("ok"))
	b.ReturnOk(b.MakeTuple(ok, res))
	return fun
}
