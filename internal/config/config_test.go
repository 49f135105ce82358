package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"remove_unreachable", "propagate_atomics"}, cfg.Passes)
	assert.True(t, cfg.Validate)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, filepath.Join(".eir", "builds.db"), cfg.Store.Path)
	assert.NoError(t, cfg.Check())
}

func TestDefault_Independent(t *testing.T) {
	a := Default()
	a.Passes[0] = "changed"
	assert.Equal(t, "remove_unreachable", Default().Passes[0])
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]byte(`
passes: [propagate_atomics]
validate: false
output:
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"propagate_atomics"}, cfg.Passes)
	assert.False(t, cfg.Validate)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, Default().Store.Path, cfg.Store.Path, "absent fields keep defaults")
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_NoPasses(t *testing.T) {
	cfg, err := Parse([]byte("passes: []\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Passes)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "pases: [propagate_atomics]\n", "field pases not found"},
		{"unknown pass", "passes: [inline]\n", `passes[0]: unknown pass "inline"`},
		{"bad format", "output:\n  format: xml\n", `output.format "xml"`},
		{"empty store path", "store:\n  path: \"\"\n", "store.path must not be empty"},
		{"malformed", "passes: [\n", "failed to parse YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("validate: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Validate)

	found, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, found)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFind_Absent(t *testing.T) {
	cfg, err := Find(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFind_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("output: {format: xml}\n"), 0o644))

	_, err := Find(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileName)
}
