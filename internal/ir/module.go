package ir

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
)

// Module is a compiled module: its functions, lambdas included, and the
// finalized closure environment table.
type Module struct {
	Name Atom
	Envs *ModuleEnvs

	functions map[FunctionIdent]*Function
}

// NewModule creates an empty module.
func NewModule(name Atom) *Module {
	return &Module{
		Name:      name,
		Envs:      NewModuleEnvs(),
		functions: make(map[FunctionIdent]*Function),
	}
}

// AddFunction adds fun to the module. Idents are unique within a module.
func (m *Module) AddFunction(fun *Function) error {
	id := fun.Ident()
	if id.Module != m.Name {
		return fmt.Errorf("function %s does not belong to module %s", id, m.Name)
	}
	if _, dup := m.functions[id]; dup {
		return fmt.Errorf("duplicate function %s", id)
	}
	m.functions[id] = fun
	return nil
}

// Function returns the function named by id.
func (m *Module) Function(id FunctionIdent) (*Function, bool) {
	fun, ok := m.functions[id]
	return fun, ok
}

// Len returns the number of functions.
func (m *Module) Len() int {
	return len(m.functions)
}

// Functions iterates functions in CompareIdents order.
func (m *Module) Functions() iter.Seq[*Function] {
	ids := make([]FunctionIdent, 0, len(m.functions))
	for id := range m.functions {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, CompareIdents)
	return func(yield func(*Function) bool) {
		for _, id := range ids {
			if !yield(m.functions[id]) {
				return
			}
		}
	}
}

// CompareIdents orders idents by module, name, arity, lambda env, lambda
// index.
func CompareIdents(a, b FunctionIdent) int {
	return cmp.Or(
		cmp.Compare(a.Module, b.Module),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Arity, b.Arity),
		cmp.Compare(a.Lambda.Env, b.Lambda.Env),
		cmp.Compare(a.Lambda.Index, b.Lambda.Index),
	)
}
