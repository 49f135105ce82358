package ir

import "fmt"

// FunctionIdent identifies a function: module, name and arity, plus the
// closure environment and index when the function is a lambda.
//
// FunctionIdent is comparable and used as a map key.
type FunctionIdent struct {
	Module Atom   `json:"module"`
	Name   Atom   `json:"name"`
	Arity  int    `json:"arity"`
	Lambda Lambda `json:"lambda,omitzero"`
}

// Lambda disambiguates lambdas that share a parent function name.
// The zero Lambda (Env == NoClosureEnv) means "not a lambda".
type Lambda struct {
	Env   ClosureEnv `json:"env"`
	Index int        `json:"index"`
}

// IsLambda reports whether the ident names a lambda.
func (id FunctionIdent) IsLambda() bool {
	return id.Lambda.Env != NoClosureEnv
}

// String formats the ident as module:name/arity, or
// module:name@env.index/arity for lambdas.
func (id FunctionIdent) String() string {
	if id.IsLambda() {
		return fmt.Sprintf("%s:%s@%d.%d/%d", id.Module, id.Name,
			uint32(id.Lambda.Env), id.Lambda.Index, id.Arity)
	}
	return fmt.Sprintf("%s:%s/%d", id.Module, id.Name, id.Arity)
}
