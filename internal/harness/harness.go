package harness

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/eir/internal/ir"
	"github.com/roach88/eir/internal/scope"
	"github.com/roach88/eir/internal/testutil"
)

// Harness executes one scenario against a fresh tracker.
type Harness struct {
	scenario *Scenario
	module   string
	tracker  *scope.Tracker
	clock    *testutil.DeterministicClock

	vars map[string]scope.Variable
	envs map[string]ir.ClosureEnv

	// lastCaptures is what the most recent pop_tracking returned; the
	// next register_env records it.
	lastCaptures []scope.Capture
}

// Run executes a scenario and returns the result.
//
// The error is reserved for scenarios that cannot run at all. Failed
// expectations and unexpected internal errors are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	module := scenario.Module
	if module == "" {
		module = DefaultModule
	}
	h := &Harness{
		scenario: scenario,
		module:   module,
		tracker:  scope.NewTracker(),
		clock:    testutil.NewDeterministicClock(),
		vars:     make(map[string]scope.Variable),
		envs:     make(map[string]ir.ClosureEnv),
	}

	result := NewResult()
	aborted := false
	for i, step := range scenario.Steps {
		ev, err := h.execute(step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		result.Trace = append(result.Trace, ev)

		if ev.Fatal != step.Fatal {
			if step.Fatal == "" {
				result.AddError(fmt.Sprintf("steps[%d] %s: unexpected internal error %s", i, step.Op, ev.Fatal))
				aborted = true
				break
			}
			result.AddError(fmt.Sprintf("steps[%d] %s: expected internal error %s, got %q", i, step.Op, step.Fatal, ev.Fatal))
			continue
		}
		for _, msg := range h.check(step, ev) {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Op, msg))
		}
	}

	result.Depth = h.tracker.Depth()
	if !aborted {
		result.Envs = h.tracker.Finish()
	}
	for _, a := range scenario.Assertions {
		if err := h.assert(a, result); err != nil {
			result.AddError(err.Error())
		}
	}

	slog.Debug("scenario finished",
		"scenario", scenario.Name,
		"steps", len(result.Trace),
		"pass", result.Pass)
	return result, nil
}

// execute runs one step. Internal errors raised by the tracker are recorded
// in the event, not returned.
func (h *Harness) execute(step Step) (TraceEvent, error) {
	ev := TraceEvent{Seq: h.clock.Next(), Op: step.Op, Name: step.Name, Env: step.Env}

	var fatal error
	err := func() (err error) {
		defer ir.Recover(&fatal)
		return h.apply(step, &ev)
	}()
	if err != nil {
		return ev, err
	}
	if fatal != nil {
		ev.Fatal = string(ir.InternalErrorCodeOf(fatal))
	}
	ev.Depth = h.tracker.Depth()
	return ev, nil
}

func (h *Harness) apply(step Step, ev *TraceEvent) error {
	tr := h.tracker
	switch step.Op {
	case OpPushBinding:
		names := make([]string, 0, len(step.Bind))
		for name := range step.Bind {
			names = append(names, name)
		}
		slices.Sort(names)

		bindings := make(map[scope.Definition]scope.Variable, len(names))
		for _, name := range names {
			def, err := parseDefinition(h.module, name)
			if err != nil {
				return err
			}
			bindings[def] = h.label(step.Bind[name])
		}
		tr.PushBinding(bindings)

	case OpPushTracking:
		tr.PushTracking()

	case OpPopBinding:
		tr.PopBinding()

	case OpPopTracking:
		h.lastCaptures = tr.PopTracking()
		ev.Captures = make([]CaptureEvent, len(h.lastCaptures))
		for i, c := range h.lastCaptures {
			ev.Captures[i] = CaptureEvent{
				Name:  c.Def.String(),
				Outer: c.Outer.String(),
				Inner: c.Inner.String(),
			}
		}

	case OpResolve:
		def, err := parseDefinition(h.module, step.Name)
		if err != nil {
			return err
		}
		ev.Variable = tr.Resolve(def).String()

	case OpGenEnv:
		env := tr.GenEnv()
		h.envs[step.Env] = env
		ev.Env = env.String()

	case OpRegisterEnv:
		env, ok := h.envs[step.Env]
		if !ok {
			return fmt.Errorf("env %q was never generated", step.Env)
		}
		ev.Env = env.String()
		data := scope.LambdaEnv{Captures: h.lastCaptures}
		for i, name := range step.MetaBinds {
			fname, arity, err := parseFunName(name)
			if err != nil {
				return err
			}
			data.MetaBinds = append(data.MetaBinds, scope.MetaBind{
				Ident: ir.FunctionIdent{
					Module: ir.NewAtom(h.module),
					Name:   fname,
					Arity:  arity,
					Lambda: ir.Lambda{Env: env, Index: i},
				},
				Value: tr.NewVariable(),
			})
		}
		tr.RegisterEnv(env, data)

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

// label returns the variable bound to label, allocating one on first use.
func (h *Harness) label(label string) scope.Variable {
	if v, ok := h.vars[label]; ok {
		return v
	}
	v := h.tracker.NewVariable()
	h.vars[label] = v
	return v
}

// matchLabel binds label to v on first use and reports whether it denotes
// v afterwards.
func (h *Harness) matchLabel(label string, v scope.Variable) bool {
	if want, ok := h.vars[label]; ok {
		return want == v
	}
	h.vars[label] = v
	return true
}

func (h *Harness) check(step Step, ev TraceEvent) []string {
	var msgs []string
	switch step.Op {
	case OpResolve:
		if step.Expect == "" || ev.Fatal != "" {
			break
		}
		got, err := parseVariable(ev.Variable)
		if err != nil {
			msgs = append(msgs, err.Error())
			break
		}
		if !h.matchLabel(step.Expect, got) {
			msgs = append(msgs, fmt.Sprintf("%s resolved to %s, expected %s (%s)",
				step.Name, ev.Variable, step.Expect, h.vars[step.Expect]))
		}

	case OpPopTracking:
		if step.Captures == nil || ev.Fatal != "" {
			break
		}
		if len(step.Captures) != len(h.lastCaptures) {
			msgs = append(msgs, fmt.Sprintf("expected %d captures, got %d", len(step.Captures), len(h.lastCaptures)))
			break
		}
		for i, want := range step.Captures {
			got := h.lastCaptures[i]
			def, err := parseDefinition(h.module, want.Name)
			switch {
			case err != nil:
				msgs = append(msgs, err.Error())
			case def != got.Def:
				msgs = append(msgs, fmt.Sprintf("capture %d is %s, expected %s", i, got.Def, want.Name))
			case !h.matchLabel(want.Outer, got.Outer):
				msgs = append(msgs, fmt.Sprintf("capture %d outer is %s, expected %s", i, got.Outer, want.Outer))
			case !h.matchLabel(want.Inner, got.Inner):
				msgs = append(msgs, fmt.Sprintf("capture %d inner is %s, expected %s", i, got.Inner, want.Inner))
			}
		}
	}
	return msgs
}

// parseDefinition maps a scenario name to a definition: name/arity is a
// function of module, anything else a variable.
func parseDefinition(module, name string) (scope.Definition, error) {
	if !strings.Contains(name, "/") {
		return scope.VarDef(ir.NewAtom(name)), nil
	}
	fname, arity, err := parseFunName(name)
	if err != nil {
		return scope.Definition{}, err
	}
	return scope.FunDef(ir.FunctionIdent{Module: ir.NewAtom(module), Name: fname, Arity: arity}), nil
}

func parseFunName(s string) (ir.Atom, int, error) {
	name, arityText, ok := strings.Cut(s, "/")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("function name %q must be name/arity", s)
	}
	arity, err := strconv.Atoi(arityText)
	if err != nil || arity < 0 {
		return "", 0, fmt.Errorf("function name %q has a bad arity", s)
	}
	return ir.NewAtom(name), arity, nil
}

func parseVariable(s string) (scope.Variable, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "v"), 10, 32)
	if err != nil {
		return scope.NoVariable, fmt.Errorf("bad variable %q", s)
	}
	return scope.Variable(n), nil
}
