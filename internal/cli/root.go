package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/eir/internal/config"
)

// RootOptions holds global flags and the loaded configuration.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded before any subcommand runs.
	Config config.Config
}

// NewRootCommand creates the root command for the eir CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "eir",
		Short: "eir - SSA IR toolkit",
		Long: `Compile CUE module fixtures to SSA IR, run local passes over it,
and inspect scope tracking and stored builds.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output and debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.FileName+" if present)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewDotCommand(opts))
	cmd.AddCommand(NewScopeCommand(opts))
	cmd.AddCommand(NewBuildsCommand(opts))

	return cmd
}

// setup installs the default logger and loads the configuration. A --format
// flag given on the command line wins over output.format.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	setupLogging(cmd.ErrOrStderr(), o.Verbose)

	var err error
	if o.ConfigPath != "" {
		o.Config, err = config.Load(o.ConfigPath)
	} else {
		o.Config, err = config.Find(".")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	if !cmd.Flags().Changed("format") {
		o.Format = o.Config.Output.Format
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, config.Formats))
	}
	return nil
}

// setupLogging routes slog to w as text. Verbose enables debug records.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func isValidFormat(format string) bool {
	for _, f := range config.Formats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
