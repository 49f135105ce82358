package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eir/internal/testutil"
)

func TestDotFunction(t *testing.T) {
	out, err := execute(t, NewDotCommand(testRootOptions("text")), adderDir, "pick/3")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "digraph \"adder:pick/3\" {\n"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, "[shape=box, label=\"blk0(%0, %1, %2)\"]")
	assert.Contains(t, out, "style=dashed")
}

func TestDotLambdaByFullIdent(t *testing.T) {
	out, err := execute(t, NewDotCommand(testRootOptions("text")), adderDir, "adder:make@1.0/1")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph \"adder:make@1.0/1\"")
}

func TestDotRaw(t *testing.T) {
	dir := filepath.Join("testdata", "choose")
	optimized, err := execute(t, NewDotCommand(testRootOptions("text")), dir, "choose/1")
	require.NoError(t, err)
	raw, err := execute(t, NewDotCommand(testRootOptions("text")), dir, "choose/1", "--raw")
	require.NoError(t, err)

	// The branch reads the moved copy until propagation rewrites it.
	assert.Contains(t, raw, `label="if_truthy %1 -> `)
	assert.Contains(t, optimized, `label="if_truthy %0 -> `)
}

func TestDotOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pick.dot")
	out, err := execute(t, NewDotCommand(testRootOptions("text")), adderDir, "pick/3", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "digraph"))
}

func TestDotLiveAndLoops(t *testing.T) {
	out, err := execute(t, NewDotCommand(testRootOptions("text")), adderDir, "pick/3", "--live", "--loops")
	require.NoError(t, err)

	// Entry arguments are defined on entry, so nothing is live there.
	assert.Contains(t, out, `[shape=box, label="blk0(%0, %1, %2)\nlive: "];`)
	assert.NotContains(t, out, "style=bold", "pick has no loops")

	plain, err := execute(t, NewDotCommand(testRootOptions("text")), adderDir, "pick/3")
	require.NoError(t, err)
	assert.NotContains(t, plain, "live:")
}

func TestDotOutputFileWriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "pick.dot")
	out, err := execute(t, NewDotCommand(testRootOptions("text")), adderDir, "pick/3", "-o", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeWriteFailed)
}

func TestDotUnknownFunction(t *testing.T) {
	out, err := execute(t, NewDotCommand(testRootOptions("text")), adderDir, "nope/0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNoFunction)
	assert.Contains(t, out, "adder:nope/0")
}

func TestFindFunction(t *testing.T) {
	m := testutil.SampleModule()

	fun, ok := findFunction(m, "max/2")
	require.True(t, ok)
	assert.Equal(t, "sample:max/2", fun.Ident().String())

	fun, ok = findFunction(m, "sample:adder@1.0/1")
	require.True(t, ok)
	assert.True(t, fun.Ident().IsLambda())

	_, ok = findFunction(m, "other:max/2")
	assert.False(t, ok)
}
