package harness

import "github.com/roach88/eir/internal/ir"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq      int64          `json:"seq"`
	Op       string         `json:"op"`
	Name     string         `json:"name,omitempty"`
	Variable string         `json:"variable,omitempty"`
	Env      string         `json:"env,omitempty"`
	Captures []CaptureEvent `json:"captures,omitempty"`
	Fatal    string         `json:"fatal,omitempty"`
	Depth    int            `json:"depth"`
}

// CaptureEvent is one capture reported by a pop_tracking step.
type CaptureEvent struct {
	Name  string `json:"name"`
	Outer string `json:"outer"`
	Inner string `json:"inner"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Envs is the finished environment table. Nil when the run aborted.
	Envs *ir.ModuleEnvs `json:"-"`

	// Depth is the scope stack depth after the last step.
	Depth int `json:"depth"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
