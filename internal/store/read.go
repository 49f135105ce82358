package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/eir/internal/ir"
)

const buildColumns = `seq, id, module, passes, function_count, envs_hash, compiler_version, ir_version`

// ReadBuild returns the build with the given ID.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadBuild(ctx context.Context, id string) (Build, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+`
		FROM builds
		WHERE id = ?
	`, id)
	b, err := scanBuild(row)
	if err != nil {
		return Build{}, fmt.Errorf("read build %s: %w", id, err)
	}
	return b, nil
}

// LatestBuild returns the most recently written build of module.
// Returns an error wrapping sql.ErrNoRows if the module has no builds.
func (s *Store) LatestBuild(ctx context.Context, module string) (Build, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+`
		FROM builds
		WHERE module = ?
		ORDER BY seq DESC
		LIMIT 1
	`, module)
	b, err := scanBuild(row)
	if err != nil {
		return Build{}, fmt.Errorf("latest build of %s: %w", module, err)
	}
	return b, nil
}

// ListBuilds returns every build in write order.
// Returns an empty slice (not nil) if the store holds no builds.
func (s *Store) ListBuilds(ctx context.Context) ([]Build, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+buildColumns+`
		FROM builds
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	builds := []Build{}
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}

// ReadFunctions returns the functions of a build in ident order.
func (s *Store) ReadFunctions(ctx context.Context, buildID string) ([]FunctionRecord, error) {
	return s.queryFunctions(ctx, `
		SELECT build_id, module, name, arity, env, env_index, blocks, ops, fingerprint, text
		FROM functions
		WHERE build_id = ?
		ORDER BY ident COLLATE BINARY ASC
	`, buildID)
}

// FindFunctions returns every stored function with the given fingerprint,
// oldest build first.
func (s *Store) FindFunctions(ctx context.Context, fingerprint string) ([]FunctionRecord, error) {
	return s.queryFunctions(ctx, `
		SELECT f.build_id, f.module, f.name, f.arity, f.env, f.env_index, f.blocks, f.ops, f.fingerprint, f.text
		FROM functions f
		JOIN builds b ON b.id = f.build_id
		WHERE f.fingerprint = ?
		ORDER BY b.seq ASC, f.ident COLLATE BINARY ASC
	`, fingerprint)
}

func (s *Store) queryFunctions(ctx context.Context, query string, args ...any) ([]FunctionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query functions: %w", err)
	}
	defer rows.Close()

	records := []FunctionRecord{}
	for rows.Next() {
		var (
			r            FunctionRecord
			module, name string
			env          uint32
		)
		if err := rows.Scan(&r.BuildID, &module, &name, &r.Ident.Arity, &env, &r.Ident.Lambda.Index,
			&r.Blocks, &r.Ops, &r.Fingerprint, &r.Text); err != nil {
			return nil, fmt.Errorf("scan function: %w", err)
		}
		r.Ident.Module = ir.Atom(module)
		r.Ident.Name = ir.Atom(name)
		r.Ident.Lambda.Env = ir.ClosureEnv(env)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate functions: %w", err)
	}
	return records, nil
}

// ReadEnvs rebuilds the closure environment table of a build.
func (s *Store) ReadEnvs(ctx context.Context, buildID string) (*ir.ModuleEnvs, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT env, captures_num, meta_binds
		FROM closure_envs
		WHERE build_id = ?
		ORDER BY env ASC
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query closure envs: %w", err)
	}
	defer rows.Close()

	envs := ir.NewModuleEnvs()
	for rows.Next() {
		var (
			env      uint32
			captures int
			bindsRaw string
		)
		if err := rows.Scan(&env, &captures, &bindsRaw); err != nil {
			return nil, fmt.Errorf("scan closure env: %w", err)
		}
		binds, err := unmarshalMetaBinds(bindsRaw)
		if err != nil {
			return nil, fmt.Errorf("env%d: %w", env, err)
		}

		got := envs.Add()
		if got != ir.ClosureEnv(env) {
			return nil, fmt.Errorf("closure env table of %s has a gap before env%d", buildID, env)
		}
		envs.SetCapturesNum(got, captures)
		for _, id := range binds {
			envs.AddMetaBind(got, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closure envs: %w", err)
	}
	return envs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanBuild scans one build from a *sql.Row or *sql.Rows.
func scanBuild(row rowScanner) (Build, error) {
	var (
		b      Build
		passes string
	)
	err := row.Scan(&b.Seq, &b.ID, &b.Module, &passes, &b.FunctionCount,
		&b.EnvsHash, &b.CompilerVersion, &b.IRVersion)
	if err == sql.ErrNoRows {
		return Build{}, err
	}
	if err != nil {
		return Build{}, fmt.Errorf("scan build: %w", err)
	}
	if b.Passes, err = unmarshalPasses(passes); err != nil {
		return Build{}, err
	}
	return b, nil
}
