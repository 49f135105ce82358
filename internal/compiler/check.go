package compiler

import (
	"fmt"

	"github.com/roach88/eir/internal/hir"
	"github.com/roach88/eir/internal/ir"
)

// Check error codes (E100-E199)
const (
	ErrEmptyModule       = "E100" // module has no functions
	ErrDuplicateFunction = "E101" // two functions share name and arity
	ErrDuplicateName     = "E102" // a parameter or let list repeats a name
	ErrUnboundVariable   = "E103" // variable not bound by any enclosing scope
	ErrUnknownFunction   = "E104" // fname names no letrec member or module function
	ErrDuplicateDef      = "E105" // letrec group repeats name and arity
	ErrEmptySeq          = "E106" // seq with no expressions
	ErrEmptyName         = "E107" // module or function name is empty
	ErrUnsupportedExpr   = "E108" // expression type unknown to the checker
)

// CheckError is a scoping error found in a decoded module.
type CheckError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e CheckError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

type funKey struct {
	name  ir.Atom
	arity int
}

// checkScope is one lexical level. Lookups walk the parent chain.
type checkScope struct {
	vars   map[ir.Atom]struct{}
	funs   map[funKey]struct{}
	parent *checkScope
}

func (s *checkScope) hasVar(name ir.Atom) bool {
	for ; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			return true
		}
	}
	return false
}

func (s *checkScope) hasFun(k funKey) bool {
	for ; s != nil; s = s.parent {
		if _, ok := s.funs[k]; ok {
			return true
		}
	}
	return false
}

type checker struct {
	module  ir.Atom
	globals map[funKey]struct{}
	errs    []CheckError
}

// Check verifies that every name in m resolves. The lowering relies on it:
// it treats an unbound name as an internal-consistency failure.
// Returns all errors found (does not fail-fast).
func Check(m *hir.Module) []CheckError {
	c := &checker{module: m.Name, globals: make(map[funKey]struct{})}

	if m.Name == "" {
		c.add("module", ErrEmptyName, "module name is empty")
	}
	if len(m.Functions) == 0 {
		c.add("function", ErrEmptyModule, "module has no functions")
	}
	for _, f := range m.Functions {
		k := funKey{f.Name, f.Arity()}
		if f.Name == "" {
			c.add("function", ErrEmptyName, "function name is empty")
		}
		if _, dup := c.globals[k]; dup {
			c.add(fmt.Sprintf("function.%s/%d", f.Name, k.arity), ErrDuplicateFunction, "function defined twice")
			continue
		}
		c.globals[k] = struct{}{}
	}

	for _, f := range m.Functions {
		field := fmt.Sprintf("function.%s/%d", f.Name, f.Arity())
		scope := c.bindNames(field, f.Params, nil)
		c.expr(field, f.Body, scope)
	}
	return c.errs
}

func (c *checker) add(field, code, format string, args ...any) {
	c.errs = append(c.errs, CheckError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

// bindNames opens a scope binding names, reporting repeats.
func (c *checker) bindNames(field string, names []ir.Atom, parent *checkScope) *checkScope {
	s := &checkScope{vars: make(map[ir.Atom]struct{}, len(names)), parent: parent}
	for _, n := range names {
		if _, dup := s.vars[n]; dup {
			c.add(field, ErrDuplicateName, "%s bound twice", n)
		}
		s.vars[n] = struct{}{}
	}
	return s
}

func (c *checker) exprs(field string, es []hir.Expr, s *checkScope) {
	for _, e := range es {
		c.expr(field, e, s)
	}
}

func (c *checker) expr(field string, e hir.Expr, s *checkScope) {
	switch e := e.(type) {
	case hir.Const:
	case hir.Var:
		if !s.hasVar(e.Name) {
			c.add(field, ErrUnboundVariable, "variable %s is unbound", e.Name)
		}
	case hir.FunName:
		k := funKey{e.Name, e.Arity}
		if !s.hasFun(k) {
			if _, ok := c.globals[k]; !ok {
				c.add(field, ErrUnknownFunction, "function %s/%d is undefined", e.Name, e.Arity)
			}
		}
	case hir.Let:
		c.expr(field, e.Value, s)
		c.expr(field, e.Body, c.bindNames(field, e.Names, s))
	case hir.Values:
		c.exprs(field, e.Elems, s)
	case hir.Tuple:
		c.exprs(field, e.Elems, s)
	case hir.List:
		c.exprs(field, e.Elems, s)
		if e.Tail != nil {
			c.expr(field, e.Tail, s)
		}
	case hir.Call:
		if e.Module == "" || e.Module == c.module {
			if _, ok := c.globals[funKey{e.Name, len(e.Args)}]; !ok {
				c.add(field, ErrUnknownFunction, "function %s/%d is undefined", e.Name, len(e.Args))
			}
		}
		c.exprs(field, e.Args, s)
	case hir.Apply:
		c.expr(field, e.Fun, s)
		c.exprs(field, e.Args, s)
	case hir.PrimOp:
		c.exprs(field, e.Args, s)
	case hir.Fun:
		c.expr(field, e.Body, c.bindNames(field, e.Params, s))
	case hir.LetRec:
		group := &checkScope{funs: make(map[funKey]struct{}, len(e.Defs)), parent: s}
		for _, d := range e.Defs {
			k := funKey{d.Name, len(d.Params)}
			if _, dup := group.funs[k]; dup {
				c.add(field, ErrDuplicateDef, "letrec defines %s/%d twice", d.Name, k.arity)
			}
			group.funs[k] = struct{}{}
		}
		for _, d := range e.Defs {
			c.expr(field, d.Body, c.bindNames(field, d.Params, group))
		}
		c.expr(field, e.Body, group)
	case hir.If:
		c.expr(field, e.Cond, s)
		c.expr(field, e.Then, s)
		c.expr(field, e.Else, s)
	case hir.Seq:
		if len(e.Exprs) == 0 {
			c.add(field, ErrEmptySeq, "seq has no expressions")
		}
		c.exprs(field, e.Exprs, s)
	case hir.Raise:
		c.expr(field, e.Class, s)
		c.expr(field, e.Reason, s)
	default:
		c.add(field, ErrUnsupportedExpr, "unsupported expression %T", e)
	}
}
