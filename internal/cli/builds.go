package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/eir/internal/ir"
	"github.com/roach88/eir/internal/queryir"
	"github.com/roach88/eir/internal/store"
)

// BuildsOptions holds flags for the builds command and its subcommands.
type BuildsOptions struct {
	*RootOptions
	Database string
	Module   string // show: latest build of a module instead of an ID
	Text     bool   // show: print function IR text

	// functions filters
	Build  string
	Name   string
	MinOps int
	MaxOps int
}

// BuildSummary is the JSON form of a stored build.
type BuildSummary struct {
	Seq             int64    `json:"seq"`
	ID              string   `json:"id"`
	Module          string   `json:"module"`
	Passes          []string `json:"passes"`
	FunctionCount   int      `json:"function_count"`
	EnvsHash        string   `json:"envs_hash"`
	CompilerVersion string   `json:"compiler_version"`
	IRVersion       string   `json:"ir_version"`
}

// StoredFunction is the JSON form of a stored function.
type StoredFunction struct {
	BuildID     string `json:"build_id"`
	Ident       string `json:"ident"`
	Blocks      int    `json:"blocks"`
	Ops         int    `json:"ops"`
	Fingerprint string `json:"fingerprint"`
	Text        string `json:"text,omitempty"`
}

// StoredEnv is the JSON form of a stored closure environment.
type StoredEnv struct {
	Env         string   `json:"env"`
	CapturesNum int      `json:"captures_num"`
	MetaBinds   []string `json:"meta_binds"`
}

// BuildDetail is the JSON result of builds show.
type BuildDetail struct {
	Build     BuildSummary     `json:"build"`
	Functions []StoredFunction `json:"functions"`
	Envs      []StoredEnv      `json:"envs"`
}

// NewBuildsCommand creates the builds command.
func NewBuildsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "builds",
		Short: "Inspect stored builds",
		Long: `List the builds recorded by "eir compile --save", oldest first.

Examples:
  eir builds
  eir builds show 0190f1c2-...
  eir builds show --module adder --text
  eir builds find <fingerprint>
  eir builds functions --module adder --min-ops 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildsList(opts, cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "build store path (default from config)")

	show := &cobra.Command{
		Use:           "show [build-id]",
		Short:         "Show a build with its functions and closure environments",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runBuildsShow(opts, id, cmd)
		},
	}
	show.Flags().StringVar(&opts.Module, "module", "", "show the latest build of a module")
	show.Flags().BoolVar(&opts.Text, "text", false, "print the IR text of every function")

	find := &cobra.Command{
		Use:           "find <fingerprint>",
		Short:         "Find stored functions by content fingerprint",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildsFind(opts, args[0], cmd)
		},
	}

	functions := &cobra.Command{
		Use:   "functions",
		Short: "List stored functions matching filters",
		Long: `List stored functions across all builds, oldest build first.
Filters combine with AND; with none, every stored function is listed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildsFunctions(opts, cmd)
		},
	}
	functions.Flags().StringVar(&opts.Module, "module", "", "only functions of this module")
	functions.Flags().StringVar(&opts.Build, "build", "", "only functions of this build")
	functions.Flags().StringVar(&opts.Name, "name", "", "only functions with this name")
	functions.Flags().IntVar(&opts.MinOps, "min-ops", -1, "only functions with at least this many ops")
	functions.Flags().IntVar(&opts.MaxOps, "max-ops", -1, "only functions with at most this many ops")

	cmd.AddCommand(show, find, functions)
	return cmd
}

// openStore opens the configured build store. A missing database file is a
// command error rather than an empty store.
func (o *BuildsOptions) openStore() (*store.Store, error) {
	path := o.Database
	if path == "" {
		path = o.Config.Store.Path
	}
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("build store not found: %s", path), err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open build store", err)
	}
	return st, nil
}

func runBuildsList(opts *BuildsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	st, err := opts.openStore()
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer st.Close()

	builds, err := st.ListBuilds(commandContext(cmd))
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "listing builds", err)
	}

	summaries := make([]BuildSummary, len(builds))
	for i, b := range builds {
		summaries[i] = toBuildSummary(b)
	}
	if formatter.JSON() {
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No builds recorded.")
		return nil
	}
	for _, b := range summaries {
		fmt.Fprintf(w, "%4d  %s  %-16s %3d function(s)  [%s]\n",
			b.Seq, b.ID, b.Module, b.FunctionCount, strings.Join(b.Passes, ","))
	}
	return nil
}

func runBuildsShow(opts *BuildsOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if (id == "") == (opts.Module == "") {
		formatter.Error(ErrCodeGeneric, "give either a build ID or --module", nil)
		return NewExitError(ExitCommandError, "give either a build ID or --module")
	}

	st, err := opts.openStore()
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer st.Close()
	ctx := commandContext(cmd)

	var b store.Build
	if id != "" {
		b, err = st.ReadBuild(ctx, id)
	} else {
		b, err = st.LatestBuild(ctx, opts.Module)
	}
	if errors.Is(err, sql.ErrNoRows) {
		formatter.Error(ErrCodeStore, "build not found", nil)
		return WrapExitError(ExitFailure, "build not found", err)
	}
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading build", err)
	}

	records, err := st.ReadFunctions(ctx, b.ID)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading functions", err)
	}
	envs, err := st.ReadEnvs(ctx, b.ID)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading closure envs", err)
	}

	detail := BuildDetail{Build: toBuildSummary(b), Functions: toStoredFunctions(records, opts.Text), Envs: []StoredEnv{}}
	for env, entry := range envs.All() {
		binds := make([]string, len(entry.MetaBinds))
		for i, id := range entry.MetaBinds {
			binds[i] = id.String()
		}
		detail.Envs = append(detail.Envs, StoredEnv{Env: env.String(), CapturesNum: entry.CapturesNum, MetaBinds: binds})
	}

	if formatter.JSON() {
		return formatter.Success(detail)
	}
	writeBuildDetail(formatter.Writer, detail)
	return nil
}

func runBuildsFind(opts *BuildsOptions, fingerprint string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	st, err := opts.openStore()
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer st.Close()

	records, err := st.FindFunctions(commandContext(cmd), fingerprint)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "finding functions", err)
	}
	found := toStoredFunctions(records, false)
	if formatter.JSON() {
		return formatter.Success(found)
	}
	if len(found) == 0 {
		fmt.Fprintln(formatter.Writer, "No functions with that fingerprint.")
		return nil
	}
	for _, f := range found {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", f.BuildID, f.Ident)
	}
	return nil
}

// functionFilter builds the query predicate for the functions subcommand.
func (o *BuildsOptions) functionFilter() queryir.Predicate {
	var preds []queryir.Predicate
	if o.Module != "" {
		preds = append(preds, queryir.Equals{Field: "module", Value: ir.NewAtom(o.Module)})
	}
	if o.Build != "" {
		preds = append(preds, queryir.Equals{Field: "build_id", Value: ir.Binary(o.Build)})
	}
	if o.Name != "" {
		preds = append(preds, queryir.Equals{Field: "name", Value: ir.NewAtom(o.Name)})
	}
	if o.MinOps >= 0 {
		preds = append(preds, queryir.AtLeast{Field: "ops", Value: ir.Int(o.MinOps)})
	}
	if o.MaxOps >= 0 {
		preds = append(preds, queryir.AtMost{Field: "ops", Value: ir.Int(o.MaxOps)})
	}
	if len(preds) == 0 {
		return nil
	}
	return queryir.And{Predicates: preds}
}

func runBuildsFunctions(opts *BuildsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	st, err := opts.openStore()
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer st.Close()

	records, err := st.SelectFunctions(commandContext(cmd), opts.functionFilter())
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "selecting functions", err)
	}
	found := toStoredFunctions(records, false)
	if formatter.JSON() {
		return formatter.Success(found)
	}
	if len(found) == 0 {
		fmt.Fprintln(formatter.Writer, "No matching functions.")
		return nil
	}
	for _, f := range found {
		fmt.Fprintf(formatter.Writer, "%s  %-32s %3d block(s) %4d op(s)\n", f.BuildID, f.Ident, f.Blocks, f.Ops)
	}
	return nil
}

func toBuildSummary(b store.Build) BuildSummary {
	return BuildSummary{
		Seq:             b.Seq,
		ID:              b.ID,
		Module:          b.Module,
		Passes:          b.Passes,
		FunctionCount:   b.FunctionCount,
		EnvsHash:        b.EnvsHash,
		CompilerVersion: b.CompilerVersion,
		IRVersion:       b.IRVersion,
	}
}

func toStoredFunctions(records []store.FunctionRecord, withText bool) []StoredFunction {
	out := make([]StoredFunction, len(records))
	for i, r := range records {
		out[i] = StoredFunction{
			BuildID:     r.BuildID,
			Ident:       r.Ident.String(),
			Blocks:      r.Blocks,
			Ops:         r.Ops,
			Fingerprint: r.Fingerprint,
		}
		if withText {
			out[i].Text = r.Text
		}
	}
	return out
}

func writeBuildDetail(w io.Writer, d BuildDetail) {
	b := d.Build
	fmt.Fprintf(w, "Build %s (#%d)\n", b.ID, b.Seq)
	fmt.Fprintf(w, "  module:   %s\n", b.Module)
	fmt.Fprintf(w, "  passes:   %s\n", strings.Join(b.Passes, ", "))
	fmt.Fprintf(w, "  compiler: %s (IR v%s)\n", b.CompilerVersion, b.IRVersion)
	fmt.Fprintf(w, "  envs:     %s\n\n", b.EnvsHash)

	fmt.Fprintln(w, "Functions:")
	for _, f := range d.Functions {
		fmt.Fprintf(w, "  %s  %d block(s), %d op(s)  %s\n", f.Ident, f.Blocks, f.Ops, f.Fingerprint[:12])
	}
	if len(d.Envs) > 0 {
		fmt.Fprintln(w, "\nClosure environments:")
		for _, e := range d.Envs {
			fmt.Fprintf(w, "  %s: captures=%d meta_binds=[%s]\n", e.Env, e.CapturesNum, strings.Join(e.MetaBinds, ", "))
		}
	}
	for _, f := range d.Functions {
		if f.Text != "" {
			fmt.Fprintf(w, "\n%s", f.Text)
		}
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
