// Package querysql compiles queryir queries to parameterized SQLite.
package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/eir/internal/ir"
	"github.com/roach88/eir/internal/queryir"
)

// Compile validates q and converts it to SQL and its parameters.
//
// Literal values are always bound as parameters, never interpolated. Every
// query ends in ORDER BY over the table's stable order key, with text
// columns compared as COLLATE BINARY.
func Compile(q queryir.Query) (string, []any, error) {
	if errs := queryir.Validate(q); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return "", nil, fmt.Errorf("invalid query: %w", errors.Join(joined...))
	}

	switch query := q.(type) {
	case queryir.Select:
		return compileSelect(query)
	case *queryir.Select:
		return compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func compileSelect(q queryir.Select) (string, []any, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(q.Columns, ", "), q.From)

	var params []any
	if q.Filter != nil {
		where, filterParams, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		params = filterParams
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderBy(q.From))
	return sb.String(), params, nil
}

// orderBy renders the stable order key of table.
func orderBy(table string) string {
	cols := queryir.Tables[table]
	key := queryir.OrderKey(table)
	parts := make([]string, len(key))
	for i, c := range key {
		if cols[c] == queryir.KindText {
			parts[i] = c + " COLLATE BINARY ASC"
		} else {
			parts[i] = c + " ASC"
		}
	}
	return strings.Join(parts, ", ")
}

func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileEquals(pred)
	case *queryir.Equals:
		return compileEquals(*pred)
	case queryir.AtLeast:
		return pred.Field + " >= ?", []any{int64(pred.Value)}, nil
	case *queryir.AtLeast:
		return pred.Field + " >= ?", []any{int64(pred.Value)}, nil
	case queryir.AtMost:
		return pred.Field + " <= ?", []any{int64(pred.Value)}, nil
	case *queryir.AtMost:
		return pred.Field + " <= ?", []any{int64(pred.Value)}, nil
	case queryir.And:
		return compileAnd(pred)
	case *queryir.And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := toParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", eq.Field, err)
	}
	return eq.Field + " = ?", []any{param}, nil
}

func compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}
	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, p := range and.Predicates {
		sql, ps, err := compilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		if _, nested := p.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// toParam converts a constant term to its column encoding.
func toParam(c ir.ConstantTerm) (any, error) {
	switch v := c.(type) {
	case ir.Int:
		return int64(v), nil
	case ir.Atom:
		return string(v), nil
	case ir.Binary:
		return string(v), nil
	default:
		return nil, fmt.Errorf("%T cannot be used as a SQL parameter", c)
	}
}
