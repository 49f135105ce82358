package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Valid(t *testing.T) {
	data := []byte(`
name: ok
description: minimal
steps:
  - op: push_binding
    bind: {X: x}
  - op: resolve
    name: X
    expect: x
  - op: pop_binding
assertions:
  - type: final_depth
    count: 0
`)
	s, err := ParseScenario(data)
	require.NoError(t, err)
	assert.Equal(t, "ok", s.Name)
	assert.Equal(t, DefaultModule, s.Module)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, map[string]string{"X": "x"}, s.Steps[0].Bind)
	assert.Equal(t, AssertFinalDepth, s.Assertions[0].Type)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: push_tracking\n    capture: []\n",
			want: "field capture not found",
		},
		{
			name: "missing name",
			yaml: "description: b\nsteps:\n  - op: push_tracking\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: a\nsteps:\n  - op: push_tracking\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: a\ndescription: b\nsteps: []\n",
			want: "steps list is required",
		},
		{
			name: "unknown op",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: jump\n",
			want: `steps[0]: unknown op "jump"`,
		},
		{
			name: "missing op",
			yaml: "name: a\ndescription: b\nsteps:\n  - name: X\n",
			want: "steps[0]: op is required",
		},
		{
			name: "resolve without name",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: resolve\n",
			want: "name is required for resolve",
		},
		{
			name: "bad function name",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: resolve\n    name: f/x\n",
			want: "bad arity",
		},
		{
			name: "empty label",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: push_binding\n    bind: {X: \"\"}\n",
			want: "bind.X needs a variable label",
		},
		{
			name: "env required",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: gen_env\n",
			want: "env is required for gen_env",
		},
		{
			name: "bad meta bind",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: register_env\n    env: e\n    meta_binds: [f]\n",
			want: "must be name/arity",
		},
		{
			name: "unknown fatal",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: pop_binding\n    fatal: OOPS\n",
			want: `unknown internal error code "OOPS"`,
		},
		{
			name: "fatal with expect",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: resolve\n    name: X\n    expect: x\n    fatal: UNBOUND_NAME\n",
			want: "fatal and expect are exclusive",
		},
		{
			name: "unknown assertion",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: push_tracking\nassertions:\n  - type: sorted\n",
			want: `unknown assertion type "sorted"`,
		},
		{
			name: "trace_count without op",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: push_tracking\nassertions:\n  - type: trace_count\n    count: 1\n",
			want: "op is required for trace_count",
		},
		{
			name: "negative count",
			yaml: "name: a\ndescription: b\nsteps:\n  - op: push_tracking\nassertions:\n  - type: final_depth\n    count: -1\n",
			want: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
