package queryir

import "github.com/roach88/eir/internal/ir"

// Query is a read over one store table.
type Query interface {
	queryNode()
}

// Predicate is a row filter.
type Predicate interface {
	predicateNode()
}

// Select reads Columns from From, in order, keeping rows that pass Filter.
//
//	Select{
//	  From:    "functions",
//	  Columns: []string{"ident", "ops"},
//	  Filter:  And{Predicates: []Predicate{
//	    Equals{Field: "module", Value: ir.Atom("adder")},
//	    AtLeast{Field: "ops", Value: 4},
//	  }},
//	}
//
// reads
//
//	SELECT ident, ops FROM functions WHERE module = ? AND ops >= ? ORDER BY ...
//
// Rows always come back in the table's stable order; see OrderKey.
type Select struct {
	From    string
	Columns []string
	Filter  Predicate // nil keeps every row
}

func (Select) queryNode() {}

// Equals keeps rows whose Field equals Value.
type Equals struct {
	Field string
	Value ir.ConstantTerm
}

func (Equals) predicateNode() {}

// AtLeast keeps rows whose integer Field is >= Value.
type AtLeast struct {
	Field string
	Value ir.Int
}

func (AtLeast) predicateNode() {}

// AtMost keeps rows whose integer Field is <= Value.
type AtMost struct {
	Field string
	Value ir.Int
}

func (AtMost) predicateNode() {}

// And keeps rows that pass every predicate. An empty And keeps every row.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// ColumnKind is the SQLite storage class of a column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
)

// Tables lists the store tables a query may read, with their columns.
var Tables = map[string]map[string]ColumnKind{
	"builds": {
		"seq":              KindInteger,
		"id":               KindText,
		"module":           KindText,
		"passes":           KindText,
		"function_count":   KindInteger,
		"envs_hash":        KindText,
		"compiler_version": KindText,
		"ir_version":       KindText,
	},
	"functions": {
		"build_id":    KindText,
		"ident":       KindText,
		"module":      KindText,
		"name":        KindText,
		"arity":       KindInteger,
		"env":         KindInteger,
		"env_index":   KindInteger,
		"blocks":      KindInteger,
		"ops":         KindInteger,
		"fingerprint": KindText,
		"text":        KindText,
	},
	"closure_envs": {
		"build_id":     KindText,
		"env":          KindInteger,
		"captures_num": KindInteger,
		"meta_binds":   KindText,
	},
}

var orderKeys = map[string][]string{
	"builds":       {"seq"},
	"functions":    {"build_id", "ident"},
	"closure_envs": {"build_id", "env"},
}

// OrderKey returns the columns that totally order the rows of table. Build
// IDs are UUIDv7, so build_id order is build order.
func OrderKey(table string) []string {
	return orderKeys[table]
}
