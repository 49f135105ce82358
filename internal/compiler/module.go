package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/eir/internal/hir"
	"github.com/roach88/eir/internal/ir"
)

// CompileModule decodes a CUE module fixture into HIR.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// A fixture names the module and its functions in declaration order:
//
//	module: "adder"
//	function: make: {
//		params: ["N"]
//		body: fun: {
//			params: ["X"]
//			body: prim: {name: "+", args: ["X", "N"]}
//		}
//	}
//
// Expressions are single-key structs named after the HIR node (int, float,
// atom, binary, nil, var, fname, bind, values, tuple, list, call, apply,
// prim, fun, letrec, branch, seq, raise). A bare integer is an Int literal
// and a bare string is a variable reference.
func CompileModule(v cue.Value) (*hir.Module, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	nameVal := v.LookupPath(cue.ParsePath("module"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "module",
			Message: "module name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	m := &hir.Module{Name: ir.NewAtom(name)}

	funcsVal := v.LookupPath(cue.ParsePath("function"))
	if !funcsVal.Exists() {
		return nil, &CompileError{
			Field:   "function",
			Message: "at least one function is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := funcsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		f, err := compileFunction(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		m.Functions = append(m.Functions, f)
	}
	if len(m.Functions) == 0 {
		return nil, &CompileError{
			Field:   "function",
			Message: "at least one function is required",
			Pos:     funcsVal.Pos(),
		}
	}
	return m, nil
}

func compileFunction(name string, v cue.Value) (hir.Function, error) {
	params, err := optionalAtoms(v, "params")
	if err != nil {
		return hir.Function{}, err
	}
	body, err := exprField(v, "body")
	if err != nil {
		return hir.Function{}, err
	}
	return hir.Function{Name: ir.NewAtom(name), Params: params, Body: body}, nil
}

// CompileExpr decodes a single expression.
func CompileExpr(v cue.Value) (hir.Expr, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	switch k := v.IncompleteKind(); k {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.Const{Value: ir.Int(n)}, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.Var{Name: ir.NewAtom(s)}, nil
	case cue.StructKind:
		return compileNode(v)
	default:
		return nil, errorAt(v, "unsupported expression kind: %v", k)
	}
}

func compileNode(v cue.Value) (hir.Expr, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var (
		key  string
		body cue.Value
		n    int
	)
	for iter.Next() {
		key, body = iter.Selector().Unquoted(), iter.Value()
		n++
	}
	if n != 1 {
		return nil, errorAt(v, "expression must have exactly one key, found %d", n)
	}

	switch key {
	case "int":
		i, err := body.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.Const{Value: ir.Int(i)}, nil

	case "float":
		f, err := body.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.Const{Value: ir.Float(f)}, nil

	case "atom":
		s, err := body.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.Const{Value: ir.NewAtom(s)}, nil

	case "binary":
		s, err := body.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.Const{Value: ir.Binary(s)}, nil

	case "nil":
		return hir.Const{Value: ir.Nil{}}, nil

	case "var":
		s, err := body.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.Var{Name: ir.NewAtom(s)}, nil

	case "fname":
		name, err := stringField(body, "name")
		if err != nil {
			return nil, err
		}
		arity, err := intField(body, "arity")
		if err != nil {
			return nil, err
		}
		return hir.FunName{Name: ir.NewAtom(name), Arity: arity}, nil

	case "bind":
		names, err := optionalAtoms(body, "names")
		if err != nil {
			return nil, err
		}
		value, err := exprField(body, "value")
		if err != nil {
			return nil, err
		}
		in, err := exprField(body, "body")
		if err != nil {
			return nil, err
		}
		return hir.Let{Names: names, Value: value, Body: in}, nil

	case "values":
		elems, err := exprList(body)
		if err != nil {
			return nil, err
		}
		return hir.Values{Elems: elems}, nil

	case "tuple":
		elems, err := exprList(body)
		if err != nil {
			return nil, err
		}
		return hir.Tuple{Elems: elems}, nil

	case "seq":
		exprs, err := exprList(body)
		if err != nil {
			return nil, err
		}
		return hir.Seq{Exprs: exprs}, nil

	case "list":
		elems, err := optionalExprs(body, "elems")
		if err != nil {
			return nil, err
		}
		var tail hir.Expr
		if tv := body.LookupPath(cue.ParsePath("tail")); tv.Exists() {
			if tail, err = CompileExpr(tv); err != nil {
				return nil, err
			}
		}
		return hir.List{Elems: elems, Tail: tail}, nil

	case "call":
		var module string
		if mv := body.LookupPath(cue.ParsePath("module")); mv.Exists() {
			if module, err = mv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		name, err := stringField(body, "name")
		if err != nil {
			return nil, err
		}
		args, err := optionalExprs(body, "args")
		if err != nil {
			return nil, err
		}
		return hir.Call{Module: ir.NewAtom(module), Name: ir.NewAtom(name), Args: args}, nil

	case "apply":
		fn, err := exprField(body, "fun")
		if err != nil {
			return nil, err
		}
		args, err := optionalExprs(body, "args")
		if err != nil {
			return nil, err
		}
		return hir.Apply{Fun: fn, Args: args}, nil

	case "prim":
		name, err := stringField(body, "name")
		if err != nil {
			return nil, err
		}
		args, err := optionalExprs(body, "args")
		if err != nil {
			return nil, err
		}
		return hir.PrimOp{Name: ir.NewAtom(name), Args: args}, nil

	case "fun":
		params, err := optionalAtoms(body, "params")
		if err != nil {
			return nil, err
		}
		in, err := exprField(body, "body")
		if err != nil {
			return nil, err
		}
		return hir.Fun{Params: params, Body: in}, nil

	case "letrec":
		return compileLetRec(body)

	case "branch":
		cond, err := exprField(body, "test")
		if err != nil {
			return nil, err
		}
		then, err := exprField(body, "then")
		if err != nil {
			return nil, err
		}
		els, err := exprField(body, "else")
		if err != nil {
			return nil, err
		}
		return hir.If{Cond: cond, Then: then, Else: els}, nil

	case "raise":
		class, err := exprField(body, "class")
		if err != nil {
			return nil, err
		}
		reason, err := exprField(body, "reason")
		if err != nil {
			return nil, err
		}
		return hir.Raise{Class: class, Reason: reason}, nil

	default:
		return nil, errorAt(v, "unknown expression %q", key)
	}
}

func compileLetRec(v cue.Value) (hir.Expr, error) {
	defsVal, err := required(v, "defs")
	if err != nil {
		return nil, err
	}
	iter, err := defsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []hir.FunDef
	for iter.Next() {
		dv := iter.Value()
		name, err := stringField(dv, "name")
		if err != nil {
			return nil, err
		}
		params, err := optionalAtoms(dv, "params")
		if err != nil {
			return nil, err
		}
		body, err := exprField(dv, "body")
		if err != nil {
			return nil, err
		}
		defs = append(defs, hir.FunDef{Name: ir.NewAtom(name), Params: params, Body: body})
	}
	if len(defs) == 0 {
		return nil, errorAt(defsVal, "letrec requires at least one definition")
	}

	body, err := exprField(v, "body")
	if err != nil {
		return nil, err
	}
	return hir.LetRec{Defs: defs, Body: body}, nil
}

func required(v cue.Value, field string) (cue.Value, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return cue.Value{}, errorAt(v, "%s is required", field)
	}
	return fv, nil
}

func exprField(v cue.Value, field string) (hir.Expr, error) {
	fv, err := required(v, field)
	if err != nil {
		return nil, err
	}
	return CompileExpr(fv)
}

func stringField(v cue.Value, field string) (string, error) {
	fv, err := required(v, field)
	if err != nil {
		return "", err
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func intField(v cue.Value, field string) (int, error) {
	fv, err := required(v, field)
	if err != nil {
		return 0, err
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func exprList(v cue.Value) ([]hir.Expr, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var exprs []hir.Expr
	for iter.Next() {
		e, err := CompileExpr(iter.Value())
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func optionalExprs(v cue.Value, field string) ([]hir.Expr, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	return exprList(fv)
}

func optionalAtoms(v cue.Value, field string) ([]ir.Atom, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var atoms []ir.Atom
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		atoms = append(atoms, ir.NewAtom(s))
	}
	return atoms, nil
}
