package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/eir/internal/ir"
)

// TraceSnapshot is the golden form of a scenario run: its trace and the
// finished environment table.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Envs         *ir.ModuleEnvs
}

// toCanonicalMap converts the snapshot to the value shapes
// ir.MarshalCanonical accepts.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"seq":   ev.Seq,
			"op":    ev.Op,
			"depth": ev.Depth,
		}
		if ev.Name != "" {
			m["name"] = ev.Name
		}
		if ev.Variable != "" {
			m["variable"] = ev.Variable
		}
		if ev.Env != "" {
			m["env"] = ev.Env
		}
		if ev.Fatal != "" {
			m["fatal"] = ev.Fatal
		}
		if ev.Captures != nil {
			caps := make([]any, len(ev.Captures))
			for j, c := range ev.Captures {
				caps[j] = map[string]any{"name": c.Name, "outer": c.Outer, "inner": c.Inner}
			}
			m["captures"] = caps
		}
		traceList[i] = m
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.Envs != nil {
		out["envs"] = s.Envs
	}
	return out
}

// Snapshot renders result as the canonical JSON stored in golden files.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Envs:         result.Envs,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
