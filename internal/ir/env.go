package ir

import (
	"fmt"
	"iter"
)

// ClosureEnv is a handle to a closure environment of a module.
// Handles start at 1; NoClosureEnv marks absence.
type ClosureEnv uint32

// NoClosureEnv is the zero ClosureEnv, never allocated.
const NoClosureEnv ClosureEnv = 0

func (e ClosureEnv) String() string {
	return fmt.Sprintf("env%d", uint32(e))
}

// EnvEntry is the finalized, module-wide record for one closure environment.
type EnvEntry struct {
	// CapturesNum is the number of values captured by the environment.
	CapturesNum int `json:"captures_num"`

	// MetaBinds lists the functions bound by the environment, in binding
	// order. The backend uses it to wire recursive self-calls.
	MetaBinds []FunctionIdent `json:"meta_binds"`
}

// ModuleEnvs is the module-wide closure environment table consumed by code
// generation.
type ModuleEnvs struct {
	entries []EnvEntry
}

// NewModuleEnvs creates an empty environment table.
func NewModuleEnvs() *ModuleEnvs {
	return &ModuleEnvs{}
}

// Add allocates a new environment handle.
func (m *ModuleEnvs) Add() ClosureEnv {
	m.entries = append(m.entries, EnvEntry{})
	return ClosureEnv(len(m.entries))
}

// Len returns the number of allocated environments.
func (m *ModuleEnvs) Len() int {
	return len(m.entries)
}

// Entry returns the record for env.
func (m *ModuleEnvs) Entry(env ClosureEnv) (EnvEntry, bool) {
	if env == NoClosureEnv || int(env) > len(m.entries) {
		return EnvEntry{}, false
	}
	return m.entries[env-1], true
}

// SetCapturesNum records the capture count of env.
func (m *ModuleEnvs) SetCapturesNum(env ClosureEnv, n int) {
	m.entry(env).CapturesNum = n
}

// AddMetaBind appends a function bound by env.
func (m *ModuleEnvs) AddMetaBind(env ClosureEnv, ident FunctionIdent) {
	e := m.entry(env)
	e.MetaBinds = append(e.MetaBinds, ident)
}

// All iterates environments in handle order.
func (m *ModuleEnvs) All() iter.Seq2[ClosureEnv, EnvEntry] {
	return func(yield func(ClosureEnv, EnvEntry) bool) {
		for i, e := range m.entries {
			if !yield(ClosureEnv(i+1), e) {
				return
			}
		}
	}
}

func (m *ModuleEnvs) entry(env ClosureEnv) *EnvEntry {
	if env == NoClosureEnv || int(env) > len(m.entries) {
		Fatalf(ErrCodeUnknownEnv, "closure environment %s was never allocated", env)
	}
	return &m.entries[env-1]
}
