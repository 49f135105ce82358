package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleEnvs(t *testing.T) {
	envs := NewModuleEnvs()
	a := envs.Add()
	b := envs.Add()
	assert.Equal(t, ClosureEnv(1), a, "handles start at 1")
	assert.Equal(t, 2, envs.Len())

	envs.SetCapturesNum(b, 3)
	id := FunctionIdent{Module: "m", Name: "f", Lambda: Lambda{Env: b}}
	envs.AddMetaBind(b, id)

	entry, ok := envs.Entry(b)
	require.True(t, ok)
	assert.Equal(t, EnvEntry{CapturesNum: 3, MetaBinds: []FunctionIdent{id}}, entry)

	_, ok = envs.Entry(NoClosureEnv)
	assert.False(t, ok)

	var order []ClosureEnv
	for env := range envs.All() {
		order = append(order, env)
	}
	assert.Equal(t, []ClosureEnv{a, b}, order)

	assert.Equal(t, ErrCodeUnknownEnv, fatalCode(func() { envs.SetCapturesNum(7, 1) }))
}

func TestRecoverConvertsInternalErrors(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		Fatalf(ErrCodeScopeMismatch, "popped %s", "binding")
		return nil
	}

	err := run()
	require.Error(t, err)
	assert.True(t, IsInternalError(err))
	assert.Equal(t, "internal error SCOPE_MISMATCH: popped binding", err.Error())

	wrapped := fmt.Errorf("compile m: %w", err)
	assert.True(t, IsInternalError(wrapped))
	assert.Equal(t, ErrCodeScopeMismatch, InternalErrorCodeOf(wrapped))
	assert.False(t, IsInternalError(errors.New("plain")))
}

func TestRecoverRepanicsOtherValues(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		var err error
		defer Recover(&err)
		panic("boom")
	})
}
