package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eir/internal/ir"
	"github.com/roach88/eir/internal/queryir"
)

func TestCompile_SimpleSelect(t *testing.T) {
	sql, params, err := Compile(queryir.Select{
		From:    "functions",
		Columns: []string{"ident", "ops"},
		Filter:  queryir.Equals{Field: "module", Value: ir.Atom("adder")},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT ident, ops FROM functions WHERE module = ? ORDER BY build_id COLLATE BINARY ASC, ident COLLATE BINARY ASC",
		sql)
	assert.Equal(t, []any{"adder"}, params)
}

func TestCompile_ValuesAreParameterized(t *testing.T) {
	sql, params, err := Compile(&queryir.Select{
		From:    "functions",
		Columns: []string{"ident"},
		Filter:  &queryir.Equals{Field: "name", Value: ir.Binary("x'; DROP TABLE builds; --")},
	})
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"x'; DROP TABLE builds; --"}, params)
}

func TestCompile_And(t *testing.T) {
	sql, params, err := Compile(queryir.Select{
		From:    "functions",
		Columns: []string{"ident"},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "module", Value: ir.Atom("adder")},
			queryir.AtLeast{Field: "ops", Value: 2},
			queryir.And{Predicates: []queryir.Predicate{
				&queryir.AtMost{Field: "blocks", Value: 4},
				queryir.Equals{Field: "arity", Value: ir.Int(1)},
			}},
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE module = ? AND ops >= ? AND (blocks <= ? AND arity = ?) ORDER BY")
	assert.Equal(t, []any{"adder", int64(2), int64(4), int64(1)}, params)
}

func TestCompile_EmptyAnd(t *testing.T) {
	sql, params, err := Compile(queryir.Select{
		From:    "builds",
		Columns: []string{"id"},
		Filter:  queryir.And{},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM builds WHERE 1 = 1 ORDER BY seq ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_OrderByAlwaysPresent(t *testing.T) {
	for table := range queryir.Tables {
		t.Run(table, func(t *testing.T) {
			sql, _, err := Compile(queryir.Select{From: table, Columns: []string{"build_id"}})
			if table == "builds" {
				require.Error(t, err, "builds has no build_id column")
				return
			}
			require.NoError(t, err)
			assert.Contains(t, sql, " ORDER BY build_id COLLATE BINARY ASC, ")
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	_, _, err := Compile(queryir.Select{
		From:    "functions",
		Columns: []string{"ident"},
		Filter:  queryir.Equals{Field: "ops", Value: ir.Float(2)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), queryir.ErrValueType)

	_, _, err = Compile(nil)
	require.Error(t, err)
}
