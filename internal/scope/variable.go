package scope

import "fmt"

// Variable is an SSA variable id allocated by a Generator. Ids start at 1;
// NoVariable marks absence.
type Variable uint32

// NoVariable is the zero Variable, never allocated.
const NoVariable Variable = 0

func (v Variable) String() string {
	return fmt.Sprintf("v%d", uint32(v))
}

// Generator allocates variable ids for one function compilation.
//
// Ids are strictly increasing, so the same lowering always produces the
// same numbering. A Generator is owned by one compilation and is not safe
// for concurrent use.
type Generator struct {
	last Variable
}

// NewGenerator creates a generator whose first id is 1.
func NewGenerator() *Generator {
	return &Generator{}
}

// NewGeneratorAt creates a generator that resumes after start.
func NewGeneratorAt(start Variable) *Generator {
	return &Generator{last: start}
}

// Next allocates the next id.
func (g *Generator) Next() Variable {
	g.last++
	return g.last
}

// Current returns the last allocated id without allocating.
func (g *Generator) Current() Variable {
	return g.last
}
