package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/eir/internal/ir"
	"github.com/roach88/eir/internal/lower"
	"github.com/roach88/eir/internal/pass"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
}

// CheckResult is the JSON result of a passing check.
type CheckResult struct {
	Valid     bool   `json:"valid"`
	Module    string `json:"module"`
	Functions int    `json:"functions"`
	Envs      int    `json:"envs"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <module-dir>",
		Short: "Check a module fixture without printing IR",
		Long: `Check a CUE module fixture: decoding, scoping, and the SSA invariants of
every lowered function before and after each configured pass.

All errors are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}
	return cmd
}

func runCheck(opts *CheckOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loaded, loadErrs := LoadModule(dir)
	if loaded == nil {
		return failCheck(formatter, toCLIErrors(loadErrs), ExitCommandError)
	}
	if len(loadErrs) > 0 {
		return failCheck(formatter, toCLIErrors(loadErrs), ExitFailure)
	}

	m, err := lower.Module(loaded.Module)
	if err != nil {
		return failCheck(formatter, []CLIError{internalCLIError(ErrCodeLower, err)}, ExitFailure)
	}

	cliErrs := validateModule(m)
	if len(cliErrs) == 0 {
		pipeline, err := pass.NewPipeline(opts.Config.Passes, pass.WithValidation(true))
		if err != nil {
			return failCheck(formatter, []CLIError{{Code: ErrCodePass, Message: err.Error()}}, ExitCommandError)
		}
		for fun := range m.Functions() {
			if _, err := pipeline.Run(fun); err != nil {
				cliErrs = append(cliErrs, internalCLIError(ErrCodePass, err))
			}
		}
	}
	if len(cliErrs) > 0 {
		return failCheck(formatter, cliErrs, ExitFailure)
	}

	result := CheckResult{Valid: true, Module: m.Name.String(), Functions: m.Len(), Envs: m.Envs.Len()}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Module %s is valid: %d function(s), %d closure env(s)\n",
		result.Module, result.Functions, result.Envs)
	return nil
}

// validateModule runs ir.Validate over every function of m.
func validateModule(m *ir.Module) []CLIError {
	var out []CLIError
	for fun := range m.Functions() {
		for _, ve := range ir.Validate(fun) {
			out = append(out, CLIError{
				Code:    ve.Code,
				Message: fmt.Sprintf("%s: %s", ve.Field, ve.Message),
				Details: fun.Ident().String(),
			})
		}
	}
	return out
}

func failCheck(formatter *OutputFormatter, errs []CLIError, code int) error {
	if err := formatter.Errors("Check failed", errs); err != nil {
		return err
	}
	return NewExitError(code, fmt.Sprintf("check failed with %d error(s)", len(errs)))
}
