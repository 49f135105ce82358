package scope

import "github.com/roach88/eir/internal/ir"

// MetaBind associates a function bound by a closure environment with the
// variable denoting its value and, for members of a recursive group, the
// variable used for self references inside the body.
type MetaBind struct {
	Ident     ir.FunctionIdent
	Value     Variable
	Recursive Variable // NoVariable when the function is not recursive
}

// IsRecursive reports whether the bind carries a self-reference variable.
func (m MetaBind) IsRecursive() bool {
	return m.Recursive != NoVariable
}

// LambdaEnv is the finished data of one closure environment: its captures
// in first-use order and the functions it binds.
type LambdaEnv struct {
	Captures  []Capture
	MetaBinds []MetaBind
}
