package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eir/internal/ir"
	"github.com/roach88/eir/internal/pass"
	"github.com/roach88/eir/internal/testutil"
)

func TestWriteBuild_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	m := testutil.SampleModule()

	b, err := s.WriteBuild(ctx, m, []string{"remove_unreachable", "propagate_atomics"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), b.Seq)
	assert.Equal(t, "00000000-0000-7000-8000-000000000001", b.ID)
	assert.Equal(t, "sample", b.Module)
	assert.Equal(t, 3, b.FunctionCount)
	assert.Equal(t, ir.MustEnvsFingerprint(m.Envs), b.EnvsHash)
	assert.Equal(t, ir.CompilerVersion, b.CompilerVersion)
	assert.Equal(t, ir.IRVersion, b.IRVersion)

	got, err := s.ReadBuild(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestReadFunctions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	m := testutil.SampleModule()

	b, err := s.WriteBuild(ctx, m, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, b.Passes)

	records, err := s.ReadFunctions(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)

	var idents []string
	for _, r := range records {
		idents = append(idents, r.Ident.String())

		fun, ok := m.Function(r.Ident)
		require.True(t, ok, r.Ident.String())
		assert.Equal(t, b.ID, r.BuildID)
		assert.Equal(t, fun.Text(), r.Text)
		assert.Equal(t, ir.Fingerprint(fun), r.Fingerprint)
		assert.Equal(t, fun.LinkedBlockCount(), r.Blocks)
		assert.Equal(t, fun.LinkedOpCount(), r.Ops)
	}
	assert.Equal(t, []string{"sample:adder/1", "sample:adder@1.0/1", "sample:max/2"}, idents)
	assert.True(t, records[1].Ident.IsLambda())
}

func TestWriteBuild_CountsOptimizedLayout(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := ir.NewModule("counts")
	fun := ir.NewFunction(ir.FunctionIdent{Module: "counts", Name: "chain", Arity: 1})
	b := ir.NewFunctionBuilder(fun)
	entry, args := b.InsertEntryBlock(1)
	dead := b.InsertBlock()
	b.PositionAtEnd(entry)
	a := b.Move(args[0])
	c := b.Move(a)
	b.ReturnOk(c)
	b.PositionAtEnd(dead)
	b.Unreachable()
	require.NoError(t, m.AddFunction(fun))

	pass.RemoveUnreachable(fun)
	pass.PropagateAtomics(fun)

	build, err := s.WriteBuild(ctx, m, []string{"remove_unreachable", "propagate_atomics"})
	require.NoError(t, err)
	records, err := s.ReadFunctions(ctx, build.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, 1, records[0].Blocks)
	assert.Equal(t, 1, records[0].Ops)
}

func TestReadEnvs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	m := testutil.SampleModule()

	b, err := s.WriteBuild(ctx, m, nil)
	require.NoError(t, err)

	envs, err := s.ReadEnvs(ctx, b.ID)
	require.NoError(t, err)

	want, err := ir.MarshalCanonical(m.Envs)
	require.NoError(t, err)
	got, err := ir.MarshalCanonical(envs)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
	assert.Equal(t, b.EnvsHash, ir.MustEnvsFingerprint(envs))
}

func TestWriteBuild_NoEnvs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := ir.NewModule("bare")
	require.NoError(t, m.AddFunction(testutil.MaxFunction("bare")))

	b, err := s.WriteBuild(ctx, m, []string{"propagate_atomics"})
	require.NoError(t, err)
	assert.Equal(t, ir.MustEnvsFingerprint(ir.NewModuleEnvs()), b.EnvsHash)

	envs, err := s.ReadEnvs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, envs.Len())
}

func TestListBuilds(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	builds, err := s.ListBuilds(ctx)
	require.NoError(t, err)
	assert.Empty(t, builds)
	assert.NotNil(t, builds)

	first, err := s.WriteBuild(ctx, testutil.SampleModule(), []string{"propagate_atomics"})
	require.NoError(t, err)
	second, err := s.WriteBuild(ctx, testutil.SampleModule(), nil)
	require.NoError(t, err)

	builds, err = s.ListBuilds(ctx)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, first, builds[0])
	assert.Equal(t, second, builds[1])
	assert.Less(t, builds[0].Seq, builds[1].Seq)

	latest, err := s.LatestBuild(ctx, "sample")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestFindFunctions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.WriteBuild(ctx, testutil.SampleModule(), nil)
	require.NoError(t, err)
	second, err := s.WriteBuild(ctx, testutil.SampleModule(), nil)
	require.NoError(t, err)

	fp := ir.Fingerprint(testutil.MaxFunction("sample"))
	records, err := s.FindFunctions(ctx, fp)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].BuildID)
	assert.Equal(t, second.ID, records[1].BuildID)

	records, err = s.FindFunctions(ctx, "no-such-fingerprint")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadBuild_NotFound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.ReadBuild(ctx, "absent")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = s.LatestBuild(ctx, "absent")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestWriteBuild_DuplicateID(t *testing.T) {
	path := t.TempDir() + "/dup.db"
	s, err := Open(path, WithIDGenerator(testutil.NewFixedIDGenerator("same", "same")))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.WriteBuild(ctx, testutil.SampleModule(), nil)
	require.NoError(t, err)
	_, err = s.WriteBuild(ctx, testutil.SampleModule(), nil)
	require.Error(t, err)

	// The failed build left nothing behind.
	builds, err := s.ListBuilds(ctx)
	require.NoError(t, err)
	assert.Len(t, builds, 1)
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM functions`).Scan(&n))
	assert.Equal(t, 3, n)
}
