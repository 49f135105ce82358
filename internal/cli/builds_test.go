package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eir/internal/ir"
	"github.com/roach88/eir/internal/queryir"
	"github.com/roach88/eir/internal/store"
	"github.com/roach88/eir/internal/testutil"
)

// seedStore writes two builds of the sample module and returns the path and
// the builds.
func seedStore(t *testing.T) (string, store.Build, store.Build) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "builds.db")
	st, err := store.Open(path, store.WithIDGenerator(testutil.NewSequentialIDGenerator()))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	first, err := st.WriteBuild(ctx, testutil.SampleModule(), []string{"propagate_atomics"})
	require.NoError(t, err)
	second, err := st.WriteBuild(ctx, testutil.SampleModule(), nil)
	require.NoError(t, err)
	return path, first, second
}

func TestBuildsList(t *testing.T) {
	path, first, second := seedStore(t)

	out, err := execute(t, NewBuildsCommand(testRootOptions("json")), "--db", path)
	require.NoError(t, err)

	var resp struct {
		Data []BuildSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, first.ID, resp.Data[0].ID)
	assert.Equal(t, []string{"propagate_atomics"}, resp.Data[0].Passes)
	assert.Equal(t, second.ID, resp.Data[1].ID)
	assert.Equal(t, 3, resp.Data[1].FunctionCount)
}

func TestBuildsListText(t *testing.T) {
	path, first, _ := seedStore(t)

	out, err := execute(t, NewBuildsCommand(testRootOptions("text")), "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, first.ID)
	assert.Contains(t, out, "sample")
	assert.Contains(t, out, "[propagate_atomics]")
}

func TestBuildsMissingStore(t *testing.T) {
	_, err := execute(t, NewBuildsCommand(testRootOptions("text")), "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "build store not found")
}

func TestBuildsShow(t *testing.T) {
	path, first, _ := seedStore(t)

	out, err := execute(t, NewBuildsCommand(testRootOptions("json")), "show", first.ID, "--db", path)
	require.NoError(t, err)

	var resp struct {
		Data BuildDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	d := resp.Data
	assert.Equal(t, first.ID, d.Build.ID)
	require.Len(t, d.Functions, 3)
	assert.Equal(t, "sample:adder/1", d.Functions[0].Ident)
	assert.Empty(t, d.Functions[0].Text)
	assert.Equal(t, []StoredEnv{{Env: "env1", CapturesNum: 1, MetaBinds: []string{"sample:adder@1.0/1"}}}, d.Envs)
}

func TestBuildsShowLatestText(t *testing.T) {
	path, _, second := seedStore(t)

	out, err := execute(t, NewBuildsCommand(testRootOptions("text")), "show", "--module", "sample", "--text", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Build "+second.ID+" (#2)")
	assert.Contains(t, out, "env1: captures=1 meta_binds=[sample:adder@1.0/1]")
	assert.Contains(t, out, testutil.MaxFunction("sample").Text())
}

func TestBuildsShowNotFound(t *testing.T) {
	path, _, _ := seedStore(t)

	out, err := execute(t, NewBuildsCommand(testRootOptions("text")), "show", "nope", "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "build not found")
}

func TestBuildsShowNeedsOneSelector(t *testing.T) {
	path, first, _ := seedStore(t)

	_, err := execute(t, NewBuildsCommand(testRootOptions("text")), "show", "--db", path)
	require.Error(t, err)
	_, err = execute(t, NewBuildsCommand(testRootOptions("text")), "show", first.ID, "--module", "sample", "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBuildsFind(t *testing.T) {
	path, first, second := seedStore(t)
	fp := ir.Fingerprint(testutil.MaxFunction("sample"))

	out, err := execute(t, NewBuildsCommand(testRootOptions("json")), "find", fp, "--db", path)
	require.NoError(t, err)

	var resp struct {
		Data []StoredFunction `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, first.ID, resp.Data[0].BuildID)
	assert.Equal(t, second.ID, resp.Data[1].BuildID)
	assert.Equal(t, "sample:max/2", resp.Data[0].Ident)

	out, err = execute(t, NewBuildsCommand(testRootOptions("text")), "find", "0000", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No functions with that fingerprint.")
}

func TestBuildsFunctions(t *testing.T) {
	path, _, second := seedStore(t)

	out, err := execute(t, NewBuildsCommand(testRootOptions("json")), "functions", "--build", second.ID, "--name", "adder", "--db", path)
	require.NoError(t, err)

	var resp struct {
		Data []StoredFunction `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "sample:adder/1", resp.Data[0].Ident)
	assert.Equal(t, "sample:adder@1.0/1", resp.Data[1].Ident)

	out, err = execute(t, NewBuildsCommand(testRootOptions("text")), "functions", "--module", "other", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No matching functions.")
}

func TestBuildsFunctionFilter(t *testing.T) {
	opts := &BuildsOptions{MinOps: -1, MaxOps: -1}
	assert.Nil(t, opts.functionFilter())

	opts = &BuildsOptions{Module: "adder", MinOps: 2, MaxOps: -1}
	f, ok := opts.functionFilter().(queryir.And)
	require.True(t, ok)
	assert.Equal(t, []queryir.Predicate{
		queryir.Equals{Field: "module", Value: ir.Atom("adder")},
		queryir.AtLeast{Field: "ops", Value: 2},
	}, f.Predicates)
}
