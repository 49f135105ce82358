package queryir

import (
	"fmt"

	"github.com/roach88/eir/internal/ir"
)

// Validation error codes (E300-E305)
const (
	ErrUnknownTable  = "E300" // From names no store table
	ErrUnknownColumn = "E301" // column or field not in the table
	ErrNoColumns     = "E302" // Select reads no columns
	ErrValueType     = "E303" // literal has no column encoding
	ErrKindMismatch  = "E304" // literal does not match the column kind
	ErrNilQuery      = "E305" // nil query or predicate node
)

// ValidationError describes one problem in a query.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks q against Tables. Returns all errors found.
func Validate(q Query) []ValidationError {
	v := &validator{}
	switch query := q.(type) {
	case Select:
		v.selectQuery(query)
	case *Select:
		v.selectQuery(*query)
	case nil:
		v.add("query", ErrNilQuery, "nil query")
	default:
		v.add("query", ErrNilQuery, "unknown query type %T", q)
	}
	return v.errs
}

type validator struct {
	table   string
	columns map[string]ColumnKind
	errs    []ValidationError
}

func (v *validator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
}

func (v *validator) selectQuery(sel Select) {
	cols, ok := Tables[sel.From]
	if !ok {
		v.add("from", ErrUnknownTable, "unknown table %q", sel.From)
		return
	}
	v.table, v.columns = sel.From, cols

	if len(sel.Columns) == 0 {
		v.add("columns", ErrNoColumns, "select reads no columns")
	}
	for i, c := range sel.Columns {
		if _, ok := cols[c]; !ok {
			v.add(fmt.Sprintf("columns[%d]", i), ErrUnknownColumn, "%s has no column %q", sel.From, c)
		}
	}
	if sel.Filter != nil {
		v.predicate("filter", sel.Filter)
	}
}

func (v *validator) predicate(path string, p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.equals(path, pred)
	case *Equals:
		v.equals(path, *pred)
	case AtLeast:
		v.bound(path, pred.Field)
	case *AtLeast:
		v.bound(path, pred.Field)
	case AtMost:
		v.bound(path, pred.Field)
	case *AtMost:
		v.bound(path, pred.Field)
	case And:
		v.and(path, pred)
	case *And:
		v.and(path, *pred)
	case nil:
		v.add(path, ErrNilQuery, "nil predicate")
	default:
		v.add(path, ErrNilQuery, "unknown predicate type %T", p)
	}
}

func (v *validator) column(path, field string) (ColumnKind, bool) {
	kind, ok := v.columns[field]
	if !ok {
		v.add(path, ErrUnknownColumn, "%s has no column %q", v.table, field)
	}
	return kind, ok
}

func (v *validator) equals(path string, eq Equals) {
	kind, ok := v.column(path, eq.Field)
	if !ok {
		return
	}
	var want ColumnKind
	switch eq.Value.(type) {
	case ir.Int:
		want = KindInteger
	case ir.Atom, ir.Binary:
		want = KindText
	default:
		v.add(path, ErrValueType, "%s: %T has no column encoding", eq.Field, eq.Value)
		return
	}
	if want != kind {
		v.add(path, ErrKindMismatch, "%s: %T does not match the column", eq.Field, eq.Value)
	}
}

func (v *validator) bound(path, field string) {
	if kind, ok := v.column(path, field); ok && kind != KindInteger {
		v.add(path, ErrKindMismatch, "%s is not an integer column", field)
	}
}

func (v *validator) and(path string, and And) {
	for i, p := range and.Predicates {
		v.predicate(fmt.Sprintf("%s.and[%d]", path, i), p)
	}
}
