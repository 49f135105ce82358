package scope

import (
	"log/slog"

	"github.com/roach88/eir/internal/ir"
)

// Tracker is the scope stack of one function compilation together with the
// closure environments allocated while compiling it.
//
// A Tracker is owned by a single compilation and is not safe for concurrent
// use.
type Tracker struct {
	frames []Frame
	gen    *Generator

	envCount   int
	registered map[ir.ClosureEnv]LambdaEnv
}

// NewTracker creates a tracker with an empty stack and a fresh generator.
func NewTracker() *Tracker {
	return NewTrackerWithGenerator(NewGenerator())
}

// NewTrackerWithGenerator creates a tracker sharing gen, for lowerings that
// allocate variables outside the tracker as well.
func NewTrackerWithGenerator(gen *Generator) *Tracker {
	return &Tracker{
		gen:        gen,
		registered: make(map[ir.ClosureEnv]LambdaEnv),
	}
}

// Depth returns the number of frames on the stack.
func (t *Tracker) Depth() int {
	return len(t.frames)
}

// NewVariable allocates a fresh SSA variable.
func (t *Tracker) NewVariable() Variable {
	return t.gen.Next()
}

// Generator returns the tracker's variable generator.
func (t *Tracker) Generator() *Generator {
	return t.gen
}

// PushBinding pushes a binding frame with its complete name map.
func (t *Tracker) PushBinding(bindings map[Definition]Variable) {
	t.frames = append(t.frames, BindingFrame(bindings))
}

// PopBinding pops the top frame, which must be a binding frame.
func (t *Tracker) PopBinding() {
	t.pop(FrameBinding)
}

// PushTracking pushes a tracking frame at a closure-body boundary.
func (t *Tracker) PushTracking() {
	t.frames = append(t.frames, TrackingFrame())
}

// PopTracking pops the top frame, which must be a tracking frame, and
// returns the captures recorded across it in first-use order.
func (t *Tracker) PopTracking() []Capture {
	return t.pop(FrameTracking).captures.Captures()
}

func (t *Tracker) pop(want FrameKind) Frame {
	if len(t.frames) == 0 {
		ir.Fatalf(ir.ErrCodeScopeUnderflow, "pop %s frame from empty scope stack", want)
	}
	top := t.frames[len(t.frames)-1]
	if top.kind != want {
		ir.Fatalf(ir.ErrCodeScopeMismatch, "pop %s frame but top of %s is %s",
			want, describe(t.frames), top.kind)
	}
	t.frames = t.frames[:len(t.frames)-1]
	return top
}

// Resolve returns the variable def denotes at the current position,
// capturing it across every tracking frame between its binding and the top
// of the stack. Resolving the same name again inside the same closure body
// returns the same variable.
func (t *Tracker) Resolve(def Definition) Variable {
	v, err := resolve(t.frames, def, t.gen)
	if err != nil {
		ir.Raise(err)
	}
	return v
}

// IsBound reports whether some binding frame on the stack binds def. It
// records no captures.
func (t *Tracker) IsBound(def Definition) bool {
	for i := len(t.frames) - 1; i >= 0; i-- {
		f := t.frames[i]
		if f.kind != FrameBinding {
			continue
		}
		if _, ok := f.bindings[def]; ok {
			return true
		}
	}
	return false
}

// GenEnv allocates a closure environment handle.
func (t *Tracker) GenEnv() ir.ClosureEnv {
	t.envCount++
	return ir.ClosureEnv(t.envCount)
}

// RegisterEnv stores the finished data for env. Each environment is
// registered exactly once.
func (t *Tracker) RegisterEnv(env ir.ClosureEnv, data LambdaEnv) {
	if env == ir.NoClosureEnv || int(env) > t.envCount {
		ir.Fatalf(ir.ErrCodeUnknownEnv, "register %s which was never allocated", env)
	}
	if _, dup := t.registered[env]; dup {
		ir.Fatalf(ir.ErrCodeEnvRegistered, "%s registered twice", env)
	}
	t.registered[env] = data
	slog.Debug("closure env registered",
		"env", env.String(),
		"captures", len(data.Captures),
		"meta_binds", len(data.MetaBinds))
}

// Env returns the registered data of env.
func (t *Tracker) Env(env ir.ClosureEnv) (LambdaEnv, bool) {
	data, ok := t.registered[env]
	return data, ok
}

// Finish builds the module-wide environment table: for every allocated
// environment, in handle order, its capture count and its meta-bind idents.
// Environments never registered get an empty entry.
func (t *Tracker) Finish() *ir.ModuleEnvs {
	envs := ir.NewModuleEnvs()
	for range t.envCount {
		envs.Add()
	}
	for env, data := range t.registered {
		envs.SetCapturesNum(env, len(data.Captures))
		for _, mb := range data.MetaBinds {
			envs.AddMetaBind(env, mb.Ident)
		}
	}
	return envs
}
