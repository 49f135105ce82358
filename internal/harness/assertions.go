package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s", ev.Seq, ev.Op)
		if ev.Name != "" {
			fmt.Fprintf(&buf, " %s", ev.Name)
		}
		if ev.Env != "" {
			fmt.Fprintf(&buf, " %s", ev.Env)
		}
		if ev.Fatal != "" {
			fmt.Fprintf(&buf, " !%s", ev.Fatal)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

func (h *Harness) assert(a Assertion, result *Result) error {
	switch a.Type {
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertFinalDepth:
		return assertFinalDepth(result, a)
	case AssertEnvCaptures:
		return h.assertEnvCaptures(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceCount checks how many executed steps had the given op.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Op == a.Op {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d %s steps", a.Count, a.Op),
		Actual:   fmt.Sprintf("%d %s steps", count, a.Op),
		Trace:    trace,
	}
}

func assertFinalDepth(result *Result, a Assertion) error {
	if result.Depth == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalDepth,
		Expected: fmt.Sprintf("depth %d", a.Count),
		Actual:   fmt.Sprintf("depth %d", result.Depth),
		Trace:    result.Trace,
	}
}

// assertEnvCaptures checks the capture count recorded in the finished
// environment table.
func (h *Harness) assertEnvCaptures(result *Result, a Assertion) error {
	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertEnvCaptures,
			Expected: fmt.Sprintf("%s with %d captures", a.Env, a.Count),
			Actual:   actual,
			Trace:    result.Trace,
		}
	}

	env, ok := h.envs[a.Env]
	if !ok {
		return fail(fmt.Sprintf("env %s was never generated", a.Env))
	}
	if result.Envs == nil {
		return fail("no environment table, the run aborted")
	}
	entry, ok := result.Envs.Entry(env)
	if !ok {
		return fail(fmt.Sprintf("%s missing from the environment table", env))
	}
	if entry.CapturesNum != a.Count {
		return fail(fmt.Sprintf("%s with %d captures", a.Env, entry.CapturesNum))
	}
	return nil
}
