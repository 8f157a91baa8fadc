package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chazu/spiral/pkg/catalog"
	"github.com/chazu/spiral/pkg/config"
	"github.com/chazu/spiral/pkg/prompt"
	"github.com/chazu/spiral/pkg/repair"
	"github.com/chazu/spiral/pkg/stair"
	"github.com/chazu/spiral/pkg/watch"
)

var Version = "dev"

// runtime state shared by the commands, set up in PersistentPreRunE.
var (
	cfg    *config.Config
	logger *slog.Logger
	app    *App
)

var (
	configPath string
	verbose    bool

	poleFlag      float64
	heightFlag    float64
	outsideFlag   float64
	rotationFlag  float64
	directionFlag string
	snapPoleFlag  bool
	policyFlag    string
	tuiFlag       bool
	outFlag       string
	noExportFlag  bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "spiral",
	Version: Version,
	Short:   "Design code-compliant spiral staircases",
	Long: `spiral derives treads and risers for a helical staircase, checks them
against code limits, walks you through repairs and exports the result as
STL and plan-view DXF.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return NewCLIError("invalid configuration", "Fix spiral.yaml or pass --config", err)
		}
		if cmd.Flags().Changed("snap-pole") {
			cfg.Defaults.SnapPole = snapPoleFlag
		}
		level := cfg.LogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		app = NewApp(cfg, logger)
		return nil
	},
}

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Check, repair and export a staircase",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, name, warnings, err := loadSpec(cmd, args)
		if err != nil {
			return MapError(err)
		}
		provider, err := chooseProvider(cmd)
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		res := app.Build(spec, provider)
		res.Name = name
		res.Warnings = append(warnings, res.Warnings...)
		printWarnings(out, res.Warnings)
		if !res.OK() {
			for _, v := range res.Fatal {
				fmt.Fprintln(out, prompt.RenderViolation(v))
			}
			return MapError(res.Err)
		}

		fmt.Fprintln(out, prompt.RenderSummary(*res.Summary))
		if noExportFlag {
			return nil
		}
		dir := cfg.Output.Dir
		if outFlag != "" {
			dir = outFlag
		}
		files, err := app.Export(&res, dir, BaseName(sourcePath(args), res.Name))
		for _, f := range files {
			fmt.Fprintf(out, "wrote %s\n", f)
		}
		return MapError(err)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Report every code violation without repairing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, _, warnings, err := loadSpec(cmd, args)
		if err != nil {
			return MapError(err)
		}
		out := cmd.OutOrStdout()
		printWarnings(out, warnings)

		report := app.Check(spec)
		fmt.Fprintln(out, prompt.RenderReport(report))
		if report.Clean() {
			return nil
		}
		e := NewCLIError(fmt.Sprintf("%d violation(s) found", len(report.All())), "Run 'spiral build' to repair them", nil)
		e.ExitCode = ExitViolations
		return e
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [diameter]",
	Short: "List stock center pole sizes, or look one up",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, d := range catalog.Entries() {
				fmt.Fprintln(out, d.Label)
			}
			return nil
		}

		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return NewCLIError("invalid diameter", "Pass the pole diameter in inches, e.g. 5.56", err)
		}
		d, err := catalog.Lookup(v)
		if err != nil {
			return NewCLIError("not a stock size", "Nearest stock size is "+catalog.Nearest(v).Label, err)
		}
		fmt.Fprintln(out, d.Label)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch file",
	Short: "Rebuild a staircase source whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := watchPolicy(cmd)
		if err != nil {
			return MapError(err)
		}
		out := cmd.OutOrStdout()
		rebuild := func(source string) {
			res := app.Evaluate(source, policy)
			printWarnings(out, res.Warnings)
			if !res.OK() {
				for _, e := range res.Errors {
					fmt.Fprintln(out, formatEvalError(e))
				}
				for _, v := range res.Fatal {
					fmt.Fprintln(out, prompt.RenderViolation(v))
				}
				if len(res.Errors) == 0 && len(res.Fatal) == 0 {
					fmt.Fprintln(out, MapError(res.Err))
				}
				return
			}
			fmt.Fprintln(out, prompt.RenderSummary(*res.Summary))
		}

		w, err := watch.New(args[0], cfg.Watch.Debounce, rebuild, logger)
		if err != nil {
			return MapError(err)
		}
		defer w.Close()
		data, err := os.ReadFile(w.Path())
		if err != nil {
			return MapError(err)
		}
		rebuild(string(data))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(out, "Watching %s for changes... (policy: %s)\n", w.Path(), policy)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			return MapError(err)
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default spiral.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.FileName
		}
		if err := config.Init(path); err != nil {
			return NewCLIError("could not write config", "Remove the existing file or pass --config", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

// Execute runs the root command and prints mapped errors with hints.
func Execute() error {
	return ExecuteContext(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// ExecuteContext runs the CLI with explicit arguments and streams.
func ExecuteContext(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	resetFlags()
	RootCmd.SetArgs(args)
	RootCmd.SetIn(in)
	RootCmd.SetOut(out)
	RootCmd.SetErr(errOut)

	err := RootCmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	err = MapError(err)
	fmt.Fprintf(errOut, "Error: %v\n", err)
	if cliErr, ok := err.(*CLIError); ok && cliErr.Hint != "" {
		fmt.Fprintf(errOut, "Hint: %s\n", cliErr.Hint)
	}
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./spiral.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	for _, c := range []*cobra.Command{buildCmd, checkCmd} {
		c.Flags().Float64Var(&poleFlag, "pole", 0, "center pole diameter in inches")
		c.Flags().Float64Var(&heightFlag, "height", 0, "overall height in inches")
		c.Flags().Float64Var(&outsideFlag, "outside", 0, "outside diameter in inches")
		c.Flags().Float64Var(&rotationFlag, "rotation", 0, "total rotation in degrees")
		c.Flags().StringVar(&directionFlag, "direction", "", "clockwise or counter-clockwise")
		c.Flags().BoolVar(&snapPoleFlag, "snap-pole", false, "snap the pole to the nearest stock size")
	}
	for _, c := range []*cobra.Command{buildCmd, watchCmd} {
		c.Flags().StringVar(&policyFlag, "policy", "", "answer every checkpoint with accept, ignore or abort")
	}
	buildCmd.Flags().BoolVar(&tuiFlag, "tui", false, "pick repairs in a full-screen prompt")
	buildCmd.Flags().StringVarP(&outFlag, "out", "o", "", "output directory (default from config)")
	buildCmd.Flags().BoolVar(&noExportFlag, "no-export", false, "print the summary only")

	RootCmd.AddCommand(buildCmd, checkCmd, catalogCmd, watchCmd, initCmd)
}

// resetFlags clears flag values between in-process runs.
func resetFlags() {
	configPath, verbose = "", false
	poleFlag, heightFlag, outsideFlag, rotationFlag = 0, 0, 0, 0
	directionFlag, policyFlag, outFlag = "", "", ""
	snapPoleFlag, tuiFlag, noExportFlag = false, false, false
	unset := func(f *pflag.Flag) { f.Changed = false }
	RootCmd.PersistentFlags().VisitAll(unset)
	for _, c := range append([]*cobra.Command{RootCmd}, RootCmd.Commands()...) {
		c.Flags().VisitAll(unset)
	}
}

func sourcePath(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// loadSpec reads the spec from a source file, the flags, or both; flags
// override values from the file.
func loadSpec(cmd *cobra.Command, args []string) (stair.Spec, string, []EvalErrorData, error) {
	var (
		spec     stair.Spec
		name     string
		warnings []EvalErrorData
	)
	spec.Direction = cfg.Defaults.Direction

	if path := sourcePath(args); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return spec, "", nil, NewCLIError("cannot read source", "Check the file path", err)
		}
		res, err := app.Parse(string(data))
		if err != nil {
			return spec, "", nil, err
		}
		if !res.OK() {
			for _, e := range res.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), formatEvalError(EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message}))
			}
			return spec, "", nil, fmt.Errorf("%w: %s", ErrSourceInvalid, path)
		}
		spec, name = res.Spec, res.Name
		for _, w := range res.Warnings {
			warnings = append(warnings, EvalErrorData{Message: w.Message})
		}
	}

	flags := cmd.Flags()
	set := func(flag string, field stair.Field, v float64) {
		if flags.Changed(flag) {
			spec = spec.With(field, v)
		}
	}
	set("pole", stair.FieldCenterPoleDiameter, poleFlag)
	set("height", stair.FieldOverallHeight, heightFlag)
	set("outside", stair.FieldOutsideDiameter, outsideFlag)
	set("rotation", stair.FieldTotalRotation, rotationFlag)
	if flags.Changed("direction") {
		d, err := stair.ParseDirection(directionFlag)
		if err != nil {
			return spec, "", nil, NewCLIError("invalid --direction", "Use clockwise or counter-clockwise", err)
		}
		spec.Direction = d
	}

	if sourcePath(args) == "" {
		for _, f := range []string{"pole", "height", "outside", "rotation"} {
			if !flags.Changed(f) {
				return spec, "", nil, NewCLIError("missing --"+f, "Pass a source file or all of --pole --height --outside --rotation", nil)
			}
		}
	}
	return spec, name, warnings, nil
}

// chooseProvider picks how repair checkpoints are answered.
func chooseProvider(cmd *cobra.Command) (repair.DecisionProvider, error) {
	if policyFlag != "" {
		p, err := prompt.ParsePolicy(policyFlag)
		if err != nil {
			return nil, NewCLIError("invalid --policy", "Use accept, ignore or abort", err)
		}
		return p, nil
	}
	if tuiFlag {
		return prompt.NewTUI(), nil
	}
	return prompt.NewLine(cmd.InOrStdin(), cmd.OutOrStdout()), nil
}

// watchPolicy is the flag value or the configured default; watch never
// prompts.
func watchPolicy(cmd *cobra.Command) (prompt.Policy, error) {
	name := cfg.Defaults.Policy
	if policyFlag != "" {
		name = policyFlag
	}
	p, err := prompt.ParsePolicy(name)
	if err != nil {
		return "", NewCLIError("invalid --policy", "Use accept, ignore or abort", err)
	}
	return p, nil
}

func printWarnings(w io.Writer, warnings []EvalErrorData) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "note: %s\n", warning.Message)
	}
}

func formatEvalError(e EvalErrorData) string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}
