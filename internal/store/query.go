package store

import (
	"context"
	"log/slog"

	"github.com/roach88/eir/internal/queryir"
	"github.com/roach88/eir/internal/querysql"
)

// functionColumns is the column order queryFunctions scans.
var functionColumns = []string{
	"build_id", "module", "name", "arity", "env", "env_index",
	"blocks", "ops", "fingerprint", "text",
}

// SelectFunctions returns the stored functions passing filter, in build then
// ident order. A nil filter selects every function.
func (s *Store) SelectFunctions(ctx context.Context, filter queryir.Predicate) ([]FunctionRecord, error) {
	query, params, err := querysql.Compile(queryir.Select{
		From:    "functions",
		Columns: functionColumns,
		Filter:  filter,
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("select functions", "sql", query, "params", len(params))
	return s.queryFunctions(ctx, query, params...)
}
