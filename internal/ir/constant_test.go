package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstantText(t *testing.T) {
	tests := []struct {
		name string
		c    ConstantTerm
		want string
	}{
		{"int", Int(-3), "-3"},
		{"float integral", Float(2), "2.0"},
		{"float", Float(0.5), "0.5"},
		{"float inf", Float(math.Inf(1)), "+inf"},
		{"bare atom", Atom("ok"), "ok"},
		{"quoted atom", Atom("Hello world"), "'Hello world'"},
		{"atom with quote", Atom("it's"), `'it\'s'`},
		{"binary", Binary("hi"), `<<"hi">>`},
		{"nil", Nil{}, "[]"},
		{"tuple", Tuple{Atom("error"), Atom("Bad")}, "{error, 'Bad'}"},
		{"proper list", List{Elems: []ConstantTerm{Int(1), Int(2)}}, "[1, 2]"},
		{"nil tail", List{Elems: []ConstantTerm{Int(1)}, Tail: Nil{}}, "[1]"},
		{"improper list", List{Elems: []ConstantTerm{Int(1)}, Tail: Atom("t")}, "[1 | t]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConstantText(tt.c))
		})
	}
}

func TestNewAtomNormalizes(t *testing.T) {
	assert.Equal(t, NewAtom("\u00e9"), NewAtom("e\u0301"))
}

func TestFunctionIdentString(t *testing.T) {
	assert.Equal(t, "m:f/2", FunctionIdent{Module: "m", Name: "f", Arity: 2}.String())

	lambda := FunctionIdent{Module: "m", Name: "f", Arity: 1, Lambda: Lambda{Env: 3, Index: 1}}
	assert.True(t, lambda.IsLambda())
	assert.Equal(t, "m:f@3.1/1", lambda.String())
}

func TestOpKindProperties(t *testing.T) {
	assert.Equal(t, "unpack_value_list", OpUnpackValueList.String())
	assert.True(t, OpIfTruthy.IsBlockTerminator())
	assert.False(t, OpCall.IsBlockTerminator())
	assert.True(t, OpMove.IsPure())
	assert.False(t, OpCall.IsPure())
}
