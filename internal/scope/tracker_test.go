package scope

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eir/internal/ir"
)

func fatalCode(fn func()) ir.InternalErrorCode {
	var err error
	func() {
		defer ir.Recover(&err)
		fn()
	}()
	return ir.InternalErrorCodeOf(err)
}

func TestShadowing(t *testing.T) {
	tr := NewTracker()
	outer := tr.NewVariable()
	inner := tr.NewVariable()

	tr.PushBinding(map[Definition]Variable{x: outer})
	tr.PushBinding(map[Definition]Variable{x: inner})
	assert.Equal(t, inner, tr.Resolve(x))

	tr.PopBinding()
	assert.Equal(t, outer, tr.Resolve(x))
	tr.PopBinding()
	assert.Equal(t, 0, tr.Depth())
}

func TestMismatchedPop(t *testing.T) {
	tr := NewTracker()
	tr.PushBinding(nil)
	assert.Equal(t, ir.ErrCodeScopeMismatch, fatalCode(func() { tr.PopTracking() }))

	tr = NewTracker()
	tr.PushTracking()
	assert.Equal(t, ir.ErrCodeScopeMismatch, fatalCode(func() { tr.PopBinding() }))

	tr = NewTracker()
	assert.Equal(t, ir.ErrCodeScopeUnderflow, fatalCode(func() { tr.PopBinding() }))
}

func TestUnboundNameIsFatal(t *testing.T) {
	tr := NewTracker()
	tr.PushBinding(map[Definition]Variable{x: tr.NewVariable()})
	assert.Equal(t, ir.ErrCodeUnboundName, fatalCode(func() { tr.Resolve(y) }))
}

func TestCaptureIdempotence(t *testing.T) {
	tr := NewTracker()
	outer := tr.NewVariable()
	tr.PushBinding(map[Definition]Variable{x: outer})
	tr.PushTracking()

	first := tr.Resolve(x)
	second := tr.Resolve(x)
	assert.Equal(t, first, second)
	assert.NotEqual(t, outer, first, "captured name is renamed inside the closure")

	captures := tr.PopTracking()
	require.Len(t, captures, 1)
	assert.Equal(t, Capture{Def: x, Outer: outer, Inner: first}, captures[0])

	assert.Equal(t, outer, tr.Resolve(x), "outside the closure the outer variable is visible again")
}

func TestCapturesInFirstUseOrder(t *testing.T) {
	tr := NewTracker()
	vx, vy := tr.NewVariable(), tr.NewVariable()
	tr.PushBinding(map[Definition]Variable{x: vx, y: vy})
	tr.PushTracking()

	tr.Resolve(y)
	tr.Resolve(x)
	tr.Resolve(y)

	captures := tr.PopTracking()
	require.Len(t, captures, 2)
	assert.Equal(t, y, captures[0].Def)
	assert.Equal(t, x, captures[1].Def)
}

func TestLocalBindingInsideClosureIsNotCaptured(t *testing.T) {
	tr := NewTracker()
	tr.PushBinding(map[Definition]Variable{x: tr.NewVariable()})
	tr.PushTracking()
	local := tr.NewVariable()
	tr.PushBinding(map[Definition]Variable{x: local})

	assert.Equal(t, local, tr.Resolve(x))
	tr.PopBinding()
	assert.Empty(t, tr.PopTracking())
}

func TestIsBoundRecordsNoCapture(t *testing.T) {
	tr := NewTracker()
	tr.PushBinding(map[Definition]Variable{x: tr.NewVariable()})
	tr.PushTracking()

	assert.True(t, tr.IsBound(x))
	assert.False(t, tr.IsBound(y))
	assert.Empty(t, tr.PopTracking())
}

// For any sequence of lookups against fixed tracking frames, the outer
// variable recorded for a name never changes after first insertion.
func TestCaptureConsistency(t *testing.T) {
	names := []Definition{VarDef("A"), VarDef("B"), VarDef("C"), VarDef("D")}
	rng := rand.New(rand.NewPCG(1, 2))

	for round := range 20 {
		tr := NewTracker()
		outer := make(map[Definition]Variable)
		for _, n := range names {
			outer[n] = tr.NewVariable()
		}
		tr.PushBinding(outer)
		tr.PushTracking()
		tr.PushBinding(map[Definition]Variable{names[3]: tr.NewVariable()})
		tr.PushTracking()

		first := make(map[Definition]Variable)
		for range 50 {
			n := names[rng.IntN(len(names))]
			v := tr.Resolve(n)
			if prev, ok := first[n]; ok {
				assert.Equal(t, prev, v, "round %d: %s resolved differently", round, n)
			} else {
				first[n] = v
			}
		}

		innerCaps := tr.PopTracking()
		tr.PopBinding()
		outerCaps := tr.PopTracking()

		for _, c := range outerCaps {
			assert.Equal(t, outer[c.Def], c.Outer, "round %d", round)
		}
		for _, c := range innerCaps {
			assert.Equal(t, first[c.Def], c.Inner, "round %d", round)
		}
		for _, c := range outerCaps {
			assert.NotEqual(t, names[3], c.Def, "D is bound between the frames")
		}
	}
}

func TestRegisterEnvTwiceIsFatal(t *testing.T) {
	tr := NewTracker()
	env := tr.GenEnv()
	tr.RegisterEnv(env, LambdaEnv{})

	assert.Equal(t, ir.ErrCodeEnvRegistered, fatalCode(func() { tr.RegisterEnv(env, LambdaEnv{}) }))
	assert.Equal(t, ir.ErrCodeUnknownEnv, fatalCode(func() { tr.RegisterEnv(env+1, LambdaEnv{}) }))
}

func TestFinishBuildsModuleTable(t *testing.T) {
	tr := NewTracker()
	a := tr.GenEnv()
	b := tr.GenEnv()
	unused := tr.GenEnv()

	f := ir.FunctionIdent{Module: "m", Name: "f", Arity: 1, Lambda: ir.Lambda{Env: b}}
	g := ir.FunctionIdent{Module: "m", Name: "f", Arity: 0, Lambda: ir.Lambda{Env: b, Index: 1}}
	tr.RegisterEnv(b, LambdaEnv{
		Captures: []Capture{{Def: x, Outer: 1, Inner: 2}, {Def: y, Outer: 3, Inner: 4}},
		MetaBinds: []MetaBind{
			{Ident: f, Value: 5, Recursive: 6},
			{Ident: g, Value: 7, Recursive: 8},
		},
	})
	tr.RegisterEnv(a, LambdaEnv{
		MetaBinds: []MetaBind{{Ident: ir.FunctionIdent{Module: "m", Name: "h", Lambda: ir.Lambda{Env: a}}, Value: 9}},
	})

	data, ok := tr.Env(b)
	require.True(t, ok)
	assert.True(t, data.MetaBinds[0].IsRecursive())
	_, ok = tr.Env(unused)
	assert.False(t, ok)

	envs := tr.Finish()
	require.Equal(t, 3, envs.Len())

	eb, _ := envs.Entry(b)
	assert.Equal(t, ir.EnvEntry{CapturesNum: 2, MetaBinds: []ir.FunctionIdent{f, g}}, eb)
	ea, _ := envs.Entry(a)
	assert.Equal(t, 0, ea.CapturesNum)
	assert.Len(t, ea.MetaBinds, 1)
	eu, _ := envs.Entry(unused)
	assert.Equal(t, ir.EnvEntry{}, eu)
}
