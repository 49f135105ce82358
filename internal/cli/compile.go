package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/eir/internal/ir"
	"github.com/roach88/eir/internal/lower"
	"github.com/roach88/eir/internal/pass"
	"github.com/roach88/eir/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string   // output file path
	Passes []string // overrides config passes when set
	NoPass bool     // skip the pipeline
	Save   bool     // record the build in the store
	DBPath string   // overrides config store.path
}

// CompiledFunction summarizes one compiled function.
type CompiledFunction struct {
	Ident       string `json:"ident"`
	Blocks      int    `json:"blocks"`
	Ops         int    `json:"ops"`
	Fingerprint string `json:"fingerprint"`
}

// CompilationResult is the JSON form of a compiled module.
type CompilationResult struct {
	Module    string             `json:"module"`
	Passes    []string           `json:"passes"`
	Functions []CompiledFunction `json:"functions"`
	Envs      int                `json:"envs"`
	EnvsHash  string             `json:"envs_hash"`
	Stats     pass.Stats         `json:"stats"`
	BuildID   string             `json:"build_id,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <module-dir>",
		Short: "Lower a CUE module fixture to SSA IR",
		Long: `Decode a CUE module fixture, check its scoping, lower it to SSA IR
and run the configured passes over every function.

Text output prints every function and the closure environment table.
JSON output prints a summary with content fingerprints.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(commandContext(cmd), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the IR text to a file")
	cmd.Flags().StringSliceVar(&opts.Passes, "passes", nil, "comma-separated passes to run (default from config)")
	cmd.Flags().BoolVar(&opts.NoPass, "no-passes", false, "print the IR as lowered")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "record the build in the store")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "build store path (default from config)")

	return cmd
}

// pipelineNames resolves the passes to run from flags and config.
func (o *CompileOptions) pipelineNames() []string {
	switch {
	case o.NoPass:
		return nil
	case len(o.Passes) > 0:
		return o.Passes
	default:
		return o.Config.Passes
	}
}

func runCompile(ctx context.Context, opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	m, results, cliErrs, code := buildModule(dir, opts.pipelineNames(), opts.Config.Validate, formatter)
	if len(cliErrs) > 0 {
		if err := formatter.Errors("Compilation failed", cliErrs); err != nil {
			return err
		}
		return NewExitError(code, fmt.Sprintf("compilation failed with %d error(s)", len(cliErrs)))
	}

	result := summarize(m, opts.pipelineNames(), results)

	if opts.Output != "" {
		if err := writeModuleFile(m, opts.Output); err != nil {
			formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	if opts.Save {
		path := opts.DBPath
		if path == "" {
			path = opts.Config.Store.Path
		}
		b, err := saveBuild(ctx, path, m, result.Passes)
		if err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "saving build", err)
		}
		result.BuildID = b.ID
		formatter.VerboseLog("Saved build %s to %s", b.ID, path)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return writeCompileText(formatter.Writer, m, result, opts.Output)
}

// buildModule loads, lowers and optimizes the module in dir. On failure it
// returns the errors to report and the exit code to fail with.
func buildModule(dir string, passes []string, validate bool, formatter *OutputFormatter) (*ir.Module, []pass.Result, []CLIError, int) {
	loaded, loadErrs := LoadModule(dir)
	if loaded == nil {
		return nil, nil, toCLIErrors(loadErrs), ExitCommandError
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)
	if len(loadErrs) > 0 {
		return nil, nil, toCLIErrors(loadErrs), ExitFailure
	}

	m, err := lower.Module(loaded.Module)
	if err != nil {
		return nil, nil, []CLIError{internalCLIError(ErrCodeLower, err)}, ExitFailure
	}
	formatter.VerboseLog("Lowered %d function(s), %d closure env(s)", m.Len(), m.Envs.Len())

	pipeline, err := pass.NewPipeline(passes, pass.WithValidation(validate))
	if err != nil {
		return nil, nil, []CLIError{{Code: ErrCodePass, Message: err.Error()}}, ExitCommandError
	}
	results, err := pipeline.RunModule(m)
	if err != nil {
		return nil, nil, []CLIError{internalCLIError(ErrCodePass, err)}, ExitFailure
	}
	return m, results, nil, ExitSuccess
}

// internalCLIError reports an internal-consistency failure with its code in
// the details.
func internalCLIError(code string, err error) CLIError {
	ce := CLIError{Code: code, Message: err.Error()}
	if ic := ir.InternalErrorCodeOf(err); ic != "" {
		ce.Details = map[string]string{"internal": string(ic)}
	}
	return ce
}

func summarize(m *ir.Module, passes []string, results []pass.Result) *CompilationResult {
	result := &CompilationResult{
		Module:    m.Name.String(),
		Passes:    slices.Clone(passes),
		Functions: []CompiledFunction{},
		Envs:      m.Envs.Len(),
		EnvsHash:  ir.MustEnvsFingerprint(m.Envs),
	}
	if result.Passes == nil {
		result.Passes = []string{}
	}
	for fun := range m.Functions() {
		result.Functions = append(result.Functions, CompiledFunction{
			Ident:       fun.Ident().String(),
			Blocks:      fun.LinkedBlockCount(),
			Ops:         fun.LinkedOpCount(),
			Fingerprint: ir.Fingerprint(fun),
		})
	}
	for _, r := range results {
		result.Stats.Add(r.Stats)
	}
	return result
}

// writeModuleText prints every function followed by the env table.
func writeModuleText(w io.Writer, m *ir.Module) error {
	for fun := range m.Functions() {
		if err := fun.WriteText(w); err != nil {
			return err
		}
	}
	for env, entry := range m.Envs.All() {
		binds := make([]string, len(entry.MetaBinds))
		for i, id := range entry.MetaBinds {
			binds[i] = id.String()
		}
		if _, err := fmt.Fprintf(w, "%s: captures=%d meta_binds=[%s]\n", env, entry.CapturesNum, strings.Join(binds, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func writeCompileText(w io.Writer, m *ir.Module, result *CompilationResult, outputFile string) error {
	fmt.Fprintf(w, "✓ Compiled module %s: %d function(s), %d closure env(s)\n", result.Module, len(result.Functions), result.Envs)
	if len(result.Passes) > 0 {
		fmt.Fprintf(w, "  passes: %s (removed %d op(s), %d block(s); rewrote %d read(s))\n",
			strings.Join(result.Passes, ", "),
			result.Stats.RemovedOps, result.Stats.RemovedBlocks, result.Stats.RewrittenReads)
	}
	if result.BuildID != "" {
		fmt.Fprintf(w, "  build: %s\n", result.BuildID)
	}
	fmt.Fprintln(w)

	if outputFile != "" {
		fmt.Fprintf(w, "Output written to: %s\n", outputFile)
		return nil
	}
	return writeModuleText(w, m)
}

func writeModuleFile(m *ir.Module, path string) error {
	var sb strings.Builder
	if err := writeModuleText(&sb, m); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func saveBuild(ctx context.Context, path string, m *ir.Module, passes []string) (store.Build, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return store.Build{}, fmt.Errorf("creating store directory: %w", err)
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return store.Build{}, err
	}
	defer st.Close()
	return st.WriteBuild(ctx, m, passes)
}
