package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eir/internal/hir"
	"github.com/roach88/eir/internal/ir"
)

func codes(errs []CheckError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestCheckCleanModule(t *testing.T) {
	m := &hir.Module{
		Name: "m",
		Functions: []hir.Function{
			{
				Name:   "make",
				Params: []ir.Atom{"N"},
				Body: hir.Fun{
					Params: []ir.Atom{"X"},
					Body:   hir.PrimOp{Name: "+", Args: []hir.Expr{hir.Var{Name: "X"}, hir.Var{Name: "N"}}},
				},
			},
			{
				Name: "count",
				Body: hir.LetRec{
					Defs: []hir.FunDef{{
						Name:   "loop",
						Params: []ir.Atom{"I"},
						Body:   hir.Apply{Fun: hir.FunName{Name: "loop", Arity: 1}, Args: []hir.Expr{hir.Var{Name: "I"}}},
					}},
					Body: hir.Call{Name: "make", Args: []hir.Expr{hir.FunName{Name: "loop", Arity: 1}}},
				},
			},
		},
	}

	assert.Empty(t, Check(m))
}

func TestCheckUnboundVariable(t *testing.T) {
	m := &hir.Module{
		Name: "m",
		Functions: []hir.Function{{
			Name: "f",
			Body: hir.Let{
				Names: []ir.Atom{"A"},
				Value: hir.Var{Name: "B"},
				Body:  hir.Var{Name: "A"},
			},
		}},
	}

	errs := Check(m)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnboundVariable, errs[0].Code)
	assert.Equal(t, "function.f/0", errs[0].Field)
	assert.Equal(t, "[E103] function.f/0: variable B is unbound", errs[0].Error())
}

func TestCheckLetBindsOnlyInBody(t *testing.T) {
	m := &hir.Module{
		Name: "m",
		Functions: []hir.Function{{
			Name: "f",
			Body: hir.Seq{Exprs: []hir.Expr{
				hir.Let{Names: []ir.Atom{"A"}, Value: hir.Const{Value: ir.Int(1)}, Body: hir.Var{Name: "A"}},
				hir.Var{Name: "A"},
			}},
		}},
	}

	assert.Equal(t, []string{ErrUnboundVariable}, codes(Check(m)))
}

func TestCheckLetRecMembersVisibleOnlyInside(t *testing.T) {
	loop := hir.FunName{Name: "loop", Arity: 0}
	m := &hir.Module{
		Name: "m",
		Functions: []hir.Function{{
			Name: "f",
			Body: hir.Seq{Exprs: []hir.Expr{
				hir.LetRec{
					Defs: []hir.FunDef{{Name: "loop", Body: hir.Apply{Fun: loop}}},
					Body: loop,
				},
				loop,
			}},
		}},
	}

	assert.Equal(t, []string{ErrUnknownFunction}, codes(Check(m)))
}

func TestCheckDuplicates(t *testing.T) {
	m := &hir.Module{
		Name: "m",
		Functions: []hir.Function{
			{Name: "f", Params: []ir.Atom{"X", "X"}, Body: hir.Var{Name: "X"}},
			{Name: "f", Params: []ir.Atom{"A", "B"}, Body: hir.Const{Value: ir.Int(0)}},
			{
				Name: "g",
				Body: hir.LetRec{
					Defs: []hir.FunDef{
						{Name: "h", Body: hir.Const{Value: ir.Int(1)}},
						{Name: "h", Body: hir.Const{Value: ir.Int(2)}},
					},
					Body: hir.FunName{Name: "h", Arity: 0},
				},
			},
		},
	}

	assert.Equal(t,
		[]string{ErrDuplicateFunction, ErrDuplicateName, ErrDuplicateDef},
		codes(Check(m)))
}

func TestCheckLocalCallArity(t *testing.T) {
	m := &hir.Module{
		Name: "m",
		Functions: []hir.Function{
			{Name: "id", Params: []ir.Atom{"X"}, Body: hir.Var{Name: "X"}},
			{Name: "bad", Body: hir.Call{Name: "id"}},
			{Name: "remote", Body: hir.Call{Module: "lists", Name: "anything"}},
		},
	}

	errs := Check(m)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownFunction, errs[0].Code)
	assert.Equal(t, "function.bad/0", errs[0].Field)
}

func TestCheckEmptyModule(t *testing.T) {
	errs := Check(&hir.Module{})
	assert.Equal(t, []string{ErrEmptyName, ErrEmptyModule}, codes(errs))
}

func TestCheckEmptySeq(t *testing.T) {
	m := &hir.Module{
		Name:      "m",
		Functions: []hir.Function{{Name: "f", Body: hir.Seq{}}},
	}
	assert.Equal(t, []string{ErrEmptySeq}, codes(Check(m)))
}
