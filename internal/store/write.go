package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/eir/internal/ir"
)

// Build is one stored compile of a module.
type Build struct {
	Seq             int64
	ID              string
	Module          string
	Passes          []string
	FunctionCount   int
	EnvsHash        string
	CompilerVersion string
	IRVersion       string
}

// FunctionRecord is one function of a build.
type FunctionRecord struct {
	BuildID     string
	Ident       ir.FunctionIdent
	Blocks      int
	Ops         int
	Fingerprint string
	Text        string
}

// WriteBuild stores m, compiled with passes, as a new build and returns it.
// The build, its functions and its closure environment table are written in
// one transaction.
func (s *Store) WriteBuild(ctx context.Context, m *ir.Module, passes []string) (Build, error) {
	envs := m.Envs
	if envs == nil {
		envs = ir.NewModuleEnvs()
	}
	envsHash, err := ir.EnvsFingerprint(envs)
	if err != nil {
		return Build{}, fmt.Errorf("write build: %w", err)
	}
	passesJSON, err := marshalPasses(passes)
	if err != nil {
		return Build{}, fmt.Errorf("write build: %w", err)
	}

	b := Build{
		ID:              s.ids.Generate(),
		Module:          m.Name.String(),
		Passes:          append([]string{}, passes...),
		FunctionCount:   m.Len(),
		EnvsHash:        envsHash,
		CompilerVersion: ir.CompilerVersion,
		IRVersion:       ir.IRVersion,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Build{}, fmt.Errorf("write build: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO builds
		(id, module, passes, function_count, envs_hash, compiler_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Module, passesJSON, b.FunctionCount, b.EnvsHash, b.CompilerVersion, b.IRVersion)
	if err != nil {
		return Build{}, fmt.Errorf("write build: %w", err)
	}
	if b.Seq, err = res.LastInsertId(); err != nil {
		return Build{}, fmt.Errorf("write build: seq: %w", err)
	}

	for fun := range m.Functions() {
		id := fun.Ident()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO functions
			(build_id, ident, module, name, arity, env, env_index, blocks, ops, fingerprint, text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			b.ID,
			id.String(),
			id.Module.String(),
			id.Name.String(),
			id.Arity,
			uint32(id.Lambda.Env),
			id.Lambda.Index,
			fun.LinkedBlockCount(),
			fun.LinkedOpCount(),
			ir.Fingerprint(fun),
			fun.Text(),
		)
		if err != nil {
			return Build{}, fmt.Errorf("write function %s: %w", id, err)
		}
	}

	for env, entry := range envs.All() {
		binds, err := marshalMetaBinds(entry.MetaBinds)
		if err != nil {
			return Build{}, fmt.Errorf("write %s: %w", env, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO closure_envs (build_id, env, captures_num, meta_binds)
			VALUES (?, ?, ?, ?)
		`, b.ID, uint32(env), entry.CapturesNum, binds)
		if err != nil {
			return Build{}, fmt.Errorf("write %s: %w", env, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Build{}, fmt.Errorf("write build: commit: %w", err)
	}

	slog.Debug("build written",
		"build", b.ID,
		"module", b.Module,
		"functions", b.FunctionCount,
		"envs", envs.Len())
	return b, nil
}
