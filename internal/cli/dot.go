package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/eir/internal/ir"
)

// DotOptions holds flags for the dot command.
type DotOptions struct {
	*RootOptions
	Output string
	Raw    bool // skip the pass pipeline
	Live   bool
	Loops  bool
}

// NewDotCommand creates the dot command.
func NewDotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dot <module-dir> <function>",
		Short: "Print the control-flow graph of a function as graphviz dot",
		Long: `Compile a module fixture and print the control-flow graph of one
function in graphviz dot syntax. The function is named by its ident, with
or without the module prefix: "max/2", "sample:adder@1.0/1".

The graph is the optimized one unless --raw is given. --live labels each
block with the variables live on entry; --loops draws loop blocks in bold.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDot(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the graph to a file")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "graph the function as lowered")
	cmd.Flags().BoolVar(&opts.Live, "live", false, "label blocks with their live-in variables")
	cmd.Flags().BoolVar(&opts.Loops, "loops", false, "draw loop blocks in bold")

	return cmd
}

func runDot(opts *DotOptions, dir, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	passes := opts.Config.Passes
	if opts.Raw {
		passes = nil
	}
	m, _, cliErrs, code := buildModule(dir, passes, opts.Config.Validate, formatter)
	if len(cliErrs) > 0 {
		if err := formatter.Errors("Compilation failed", cliErrs); err != nil {
			return err
		}
		return NewExitError(code, fmt.Sprintf("compilation failed with %d error(s)", len(cliErrs)))
	}

	fun, ok := findFunction(m, name)
	if !ok {
		formatter.Error(ErrCodeNoFunction, fmt.Sprintf("function %s not found in module %s", name, m.Name), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("function %s not found", name))
	}

	cfg := ir.BuildCFG(fun)
	ann := ir.DotAnnotations{Loops: opts.Loops}
	if opts.Live {
		ann.Live = ir.LiveValues(fun, cfg)
	}
	var buf bytes.Buffer
	if err := ir.WriteDotAnnotated(&buf, fun, cfg, ann); err != nil {
		return WrapExitError(ExitCommandError, "writing graph", err)
	}

	if opts.Output == "" {
		_, err := formatter.Writer.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
		formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		return WrapExitError(ExitCommandError, "writing output file", err)
	}
	formatter.VerboseLog("Graph written to %s", opts.Output)
	return nil
}

// findFunction looks a function up by its printed ident. The module prefix
// may be left out.
func findFunction(m *ir.Module, name string) (*ir.Function, bool) {
	if !strings.Contains(name, ":") {
		name = m.Name.String() + ":" + name
	}
	for fun := range m.Functions() {
		if fun.Ident().String() == name {
			return fun, true
		}
	}
	return nil, false
}
