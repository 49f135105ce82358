package hir

import "github.com/roach88/eir/internal/ir"

// Expr is a sealed interface over HIR expression nodes.
type Expr interface {
	hirExpr() // Sealed
}

// Const is a literal.
type Const struct {
	Value ir.ConstantTerm
}

// Var references a variable bound by a parameter list or a Let.
type Var struct {
	Name ir.Atom
}

// FunName references a named function: a member of an enclosing LetRec when
// one binds Name/Arity, a module function otherwise.
type FunName struct {
	Name  ir.Atom
	Arity int
}

// Let evaluates Value and binds its results to Names in Body. Value must
// produce exactly len(Names) results; zero names discard the value.
type Let struct {
	Names []ir.Atom
	Value Expr
	Body  Expr
}

// Values produces multiple results, consumed by a Let.
type Values struct {
	Elems []Expr
}

// Tuple builds a tuple.
type Tuple struct {
	Elems []Expr
}

// List builds a list. A nil Tail means the empty list.
type List struct {
	Elems []Expr
	Tail  Expr
}

// Call calls a module function directly. An empty Module means the module
// being compiled.
type Call struct {
	Module ir.Atom
	Name   ir.Atom
	Args   []Expr
}

// Apply calls a function value.
type Apply struct {
	Fun  Expr
	Args []Expr
}

// PrimOp applies a primitive.
type PrimOp struct {
	Name ir.Atom
	Args []Expr
}

// Fun is an anonymous function. Free variables of Body are captured.
type Fun struct {
	Params []ir.Atom
	Body   Expr
}

// FunDef is one member of a LetRec group.
type FunDef struct {
	Name   ir.Atom
	Params []ir.Atom
	Body   Expr
}

// LetRec binds a group of mutually recursive functions in Body. Inside each
// member's body every member is visible by FunName.
type LetRec struct {
	Defs []FunDef
	Body Expr
}

// If evaluates Then when Cond is truthy, Else otherwise.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Seq evaluates Exprs in order; the last one is the result.
type Seq struct {
	Exprs []Expr
}

// Raise throws an error with the given class and reason.
type Raise struct {
	Class  Expr
	Reason Expr
}

func (Const) hirExpr()   {}
func (Var) hirExpr()     {}
func (FunName) hirExpr() {}
func (Let) hirExpr()     {}
func (Values) hirExpr()  {}
func (Tuple) hirExpr()   {}
func (List) hirExpr()    {}
func (Call) hirExpr()    {}
func (Apply) hirExpr()   {}
func (PrimOp) hirExpr()  {}
func (Fun) hirExpr()     {}
func (LetRec) hirExpr()  {}
func (If) hirExpr()      {}
func (Seq) hirExpr()     {}
func (Raise) hirExpr()   {}

// Function is a top-level module function.
type Function struct {
	Name   ir.Atom
	Params []ir.Atom
	Body   Expr
}

// Arity returns the number of parameters.
func (f Function) Arity() int {
	return len(f.Params)
}

// Module is a compilation unit.
type Module struct {
	Name      ir.Atom
	Functions []Function
}
