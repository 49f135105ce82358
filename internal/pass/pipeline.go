package pass

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/eir/internal/ir"
)

// Pass is a named function rewrite.
type Pass struct {
	Name string
	Run  func(*ir.Function) Stats
}

var registry = map[string]Pass{
	"remove_unreachable": {Name: "remove_unreachable", Run: RemoveUnreachable},
	"propagate_atomics":  {Name: "propagate_atomics", Run: PropagateAtomics},
}

// DefaultPasses is the pipeline used when none is configured.
var DefaultPasses = []string{"remove_unreachable", "propagate_atomics"}

// Names returns the registered pass names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the pass registered under name.
func Lookup(name string) (Pass, error) {
	p, ok := registry[name]
	if !ok {
		return Pass{}, fmt.Errorf("unknown pass %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Result is the outcome of one pass on one function.
type Result struct {
	Pass     string           `json:"pass"`
	Function ir.FunctionIdent `json:"function"`
	Stats    Stats            `json:"stats"`
}

// Pipeline runs passes in order over functions.
type Pipeline struct {
	passes   []Pass
	validate bool
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithValidation checks ir.Validate after every pass and fails the function
// on the first pass that leaves it malformed.
func WithValidation(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.validate = enabled
	}
}

// NewPipeline builds a pipeline from pass names.
func NewPipeline(names []string, opts ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{}
	for _, n := range names {
		pass, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		p.passes = append(p.passes, pass)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// PassNames returns the names of the configured passes in order.
func (p *Pipeline) PassNames() []string {
	names := make([]string, len(p.passes))
	for i, pass := range p.passes {
		names[i] = pass.Name
	}
	return names
}

// Run applies every pass to fun. Internal-consistency failures raised by a
// pass are returned as errors.
func (p *Pipeline) Run(fun *ir.Function) (results []Result, err error) {
	defer ir.Recover(&err)

	for _, pass := range p.passes {
		stats := pass.Run(fun)
		slog.Debug("pass finished",
			"pass", pass.Name,
			"function", fun.Ident().String(),
			"removed_ops", stats.RemovedOps,
			"removed_blocks", stats.RemovedBlocks,
			"rewritten_reads", stats.RewrittenReads)
		results = append(results, Result{Pass: pass.Name, Function: fun.Ident(), Stats: stats})

		if p.validate {
			if errs := ir.Validate(fun); len(errs) > 0 {
				return results, fmt.Errorf("%s after %s: %w", fun.Ident(), pass.Name, errs[0])
			}
		}
	}
	return results, nil
}

// RunModule applies the pipeline to every function of m in ident order.
func (p *Pipeline) RunModule(m *ir.Module) ([]Result, error) {
	var all []Result
	for fun := range m.Functions() {
		results, err := p.Run(fun)
		all = append(all, results...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}
