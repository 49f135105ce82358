package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eir/internal/ir"
)

// Scenario is a scripted sequence of scope tracker operations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Module qualifies function names. Defaults to "scenario".
	Module string `yaml:"module,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one tracker operation with its expectations.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Bind maps names to variable labels (push_binding).
	Bind map[string]string `yaml:"bind,omitempty"`

	// Name is the name to resolve (resolve).
	Name string `yaml:"name,omitempty"`

	// Expect is the label of the expected variable (resolve).
	Expect string `yaml:"expect,omitempty"`

	// Captures are the expected captures in first-use order (pop_tracking).
	// Nil skips the check.
	Captures []CaptureSpec `yaml:"captures,omitempty"`

	// Env labels an environment (gen_env, register_env).
	Env string `yaml:"env,omitempty"`

	// MetaBinds lists name/arity functions bound by the environment
	// (register_env).
	MetaBinds []string `yaml:"meta_binds,omitempty"`

	// Fatal is the internal error code the step must raise.
	Fatal string `yaml:"fatal,omitempty"`
}

// CaptureSpec is an expected capture.
type CaptureSpec struct {
	Name  string `yaml:"name"`
	Outer string `yaml:"outer"`
	Inner string `yaml:"inner"`
}

// Assertion validates the state after the last step.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op is the counted op (trace_count).
	Op string `yaml:"op,omitempty"`

	// Env is the environment label (env_captures).
	Env string `yaml:"env,omitempty"`

	// Count is the expected number.
	Count int `yaml:"count"`
}

// Step ops.
const (
	OpPushBinding  = "push_binding"
	OpPushTracking = "push_tracking"
	OpPopBinding   = "pop_binding"
	OpPopTracking  = "pop_tracking"
	OpResolve      = "resolve"
	OpGenEnv       = "gen_env"
	OpRegisterEnv  = "register_env"
)

// Assertion type constants.
const (
	AssertTraceCount  = "trace_count"
	AssertFinalDepth  = "final_depth"
	AssertEnvCaptures = "env_captures"
)

// DefaultModule qualifies function names when a scenario names no module.
const DefaultModule = "scenario"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "capture:" vs "captures:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Module == "" {
		scenario.Module = DefaultModule
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(s.Module, i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(module string, index int, s *Step) error {
	switch s.Op {
	case OpPushBinding:
		for name, label := range s.Bind {
			if label == "" {
				return fmt.Errorf("steps[%d]: bind.%s needs a variable label", index, name)
			}
			if _, err := parseDefinition(module, name); err != nil {
				return fmt.Errorf("steps[%d]: %w", index, err)
			}
		}
	case OpResolve:
		if s.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for resolve", index)
		}
		if _, err := parseDefinition(module, s.Name); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	case OpGenEnv, OpRegisterEnv:
		if s.Env == "" {
			return fmt.Errorf("steps[%d]: env is required for %s", index, s.Op)
		}
		for _, mb := range s.MetaBinds {
			if _, _, err := parseFunName(mb); err != nil {
				return fmt.Errorf("steps[%d]: %w", index, err)
			}
		}
	case OpPushTracking, OpPopBinding, OpPopTracking:
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	if s.Fatal != "" && s.Expect != "" {
		return fmt.Errorf("steps[%d]: fatal and expect are exclusive", index)
	}
	if s.Fatal != "" && !knownFatal(ir.InternalErrorCode(s.Fatal)) {
		return fmt.Errorf("steps[%d]: unknown internal error code %q", index, s.Fatal)
	}
	return nil
}

func knownFatal(code ir.InternalErrorCode) bool {
	switch code {
	case ir.ErrCodeScopeMismatch, ir.ErrCodeScopeUnderflow, ir.ErrCodeUnboundName,
		ir.ErrCodeCaptureMismatch, ir.ErrCodeEnvRegistered, ir.ErrCodeUnknownEnv:
		return true
	default:
		return false
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
	case AssertEnvCaptures:
		if a.Env == "" {
			return fmt.Errorf("assertions[%d]: env is required for env_captures", index)
		}
	case AssertFinalDepth:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	return nil
}
