// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the gluepipe command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"mvdan.cc/sh/v3/syntax"

	"github.com/gluepipe/gluepipe/internal/app/execute"
	"github.com/gluepipe/gluepipe/internal/config"
	"github.com/gluepipe/gluepipe/internal/issue"
	"github.com/gluepipe/gluepipe/internal/logging"
	"github.com/gluepipe/gluepipe/internal/metrics"
	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/internal/report"
	"github.com/gluepipe/gluepipe/internal/telemetry"
	"github.com/gluepipe/gluepipe/modules"
	"github.com/gluepipe/gluepipe/pkg/glue"
	"github.com/gluepipe/gluepipe/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// retryDelay is the pause between two attempts of a retried pipeline.
	retryDelay = time.Second
)

// listFlags holds the listing flags of the root command.
type listFlags struct {
	modules     string
	shared      bool
	evalContext bool
}

// newRootCmd returns the gluepipe command. The flags that precede the first
// module are the global options; everything after belongs to the pipeline.
func newRootCmd() *cobra.Command {
	var lists listFlags
	rootCmd := &cobra.Command{
		Use:   "gluepipe [global options] [alias:]module [module options] ...",
		Short: "Run modules one after another as a pipeline",
		Long: TitleStyle.Render("gluepipe") + SubtitleStyle.Render(" - Run modules one after another as a pipeline") + `

Every module named on the command line is checked first, then executed in
order, and finally destroyed in reverse order. Modules share functions and
evaluation context with the modules that follow them.

` + SubtitleStyle.Render("Examples:") + `
  gluepipe --list-modules              List every known module
  gluepipe dotenv shell -c 'env'       Load .env, then run a command
  gluepipe a:shell -c 'make' b:shell -c 'make test'
                                       Run the same module twice`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args, lists)
		},
	}

	flags := rootCmd.Flags()
	flags.SetInterspersed(false)
	flags.AddFlagSet(registry.FlagSet(runtimeDescriptor()))
	flags.StringVarP(&lists.modules, "list-modules", "l", "", "list the known modules, of one `GROUP` only when given as --list-modules=GROUP")
	flags.Lookup("list-modules").NoOptDefVal = allGroups
	flags.BoolVarP(&lists.shared, "list-shared", "L", false, "list the shared functions and the modules declaring them")
	flags.BoolVarP(&lists.evalContext, "list-eval-context", "E", false, "list the evaluation context variables")

	return rootCmd
}

// runtimeDescriptor describes the global options as a module would.
func runtimeDescriptor() *glue.Descriptor {
	return &glue.Descriptor{Names: []string{config.AppName}, Options: config.RuntimeOptions()}
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the gluepipe command and exits the process with its status.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitFailure))
	}
}

// runtimeFlags returns the command-line layer of the runtime namespace: the
// global options given on the command line.
func runtimeFlags(flags *pflag.FlagSet) map[string]any {
	cli := make(map[string]any)
	for _, opt := range config.RuntimeOptions() {
		f := flags.Lookup(opt.Name)
		if f == nil || !f.Changed {
			continue
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			cli[opt.Name] = sv.GetSlice()
			continue
		}
		cli[opt.Name] = f.Value.String()
	}
	return cli
}

func runPipeline(cmd *cobra.Command, args []string, lists listFlags) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	rt, err := execute.LoadRuntime(ctx, runtimeFlags(cmd.Flags()))
	if err != nil {
		return renderFailure(cmd, err, false)
	}

	opts := logging.FromRuntime(rt)
	opts.Output = stderr
	logger, err := logging.New(opts)
	if err != nil {
		return renderFailure(cmd, err, rt.Verbose)
	}
	defer logger.Close()
	log.SetDefault(logger.Logger)

	if rt.Info {
		logger.Info("reproduce this run with", "command", commandLine(os.Args))
	}

	reg, _, err := execute.Discover(ctx, modules.Catalog(), rt, logger.Logger)
	if err != nil {
		return renderFailure(cmd, err, rt.Verbose)
	}

	out := cmd.OutOrStdout()
	switch {
	case lists.modules != "":
		if err := listModules(out, reg.Descriptors(), lists.modules); err != nil {
			return renderFailure(cmd, err, rt.Verbose)
		}
		return nil
	case lists.shared:
		listShared(out, reg.Descriptors())
		return nil
	case lists.evalContext:
		listEvalContext(out, reg.Descriptors())
		return nil
	}

	steps, err := ParsePipeline(args, reg.Has)
	if err != nil {
		return renderFailure(cmd, err, rt.Verbose)
	}
	if len(steps) == 0 {
		fmt.Fprintln(stderr, ErrorStyle.Render("Error:")+" no modules specified")
		renderIssue(cmd, issue.NoModulesId)
		return &ExitError{Code: types.ExitNoModules}
	}
	for _, step := range steps {
		if !wantsHelp(step.Argv) {
			continue
		}
		d, ok := reg.Lookup(step.Module)
		if !ok {
			return renderFailure(cmd, &registry.UnknownModuleError{Name: step.Module}, rt.Verbose)
		}
		moduleHelp(out, &d)
		return nil
	}

	store, err := execute.ModuleStore(rt)
	if err != nil {
		return renderFailure(cmd, err, rt.Verbose)
	}
	hook, err := report.FromEnv(os.Getenv, logger.Logger, Version)
	if err != nil {
		return renderFailure(cmd, err, rt.Verbose)
	}
	recorder := metrics.New(nil)

	req := execute.Request{
		Steps:      steps,
		Modules:    reg,
		Config:     store,
		Logger:     logger.Logger,
		DryRun:     rt.DryRunLevel(),
		Retries:    rt.Retries,
		RetryDelay: retryDelay,
		Hook:       hook,
		Metrics:    recorder,
		Environ:    os.Environ(),
	}

	tp, err := telemetry.NewProvider(ctx, os.Getenv, Version)
	if err != nil {
		logger.Warn("tracing disabled", "err", err)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("failed to flush traces", "err", err)
			}
		}()
		req.Tracer = telemetry.NewTracer(tp)
	}

	res := execute.Run(ctx, req)

	if rt.MetricsFile != "" {
		if err := recorder.WriteTextfile(rt.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", "path", rt.MetricsFile, "err", err)
		}
	}

	if res.ExitCode.IsSuccess() {
		return nil
	}
	// The run has already logged its primary failure; only the issues that
	// are not module failures get a card.
	if id, _ := classifyError(res.Err, rt.Verbose); id != issue.ModuleFailedId {
		renderIssue(cmd, id)
	}
	return &ExitError{Code: res.ExitCode, Err: res.Err}
}

// renderFailure prints a failure that ended the session before the pipeline
// ran, with its issue card.
func renderFailure(cmd *cobra.Command, err error, verbose bool) error {
	id, msg := classifyError(err, verbose)
	fmt.Fprintln(cmd.ErrOrStderr(), msg)
	if id != issue.ModuleFailedId {
		renderIssue(cmd, id)
	}
	return &ExitError{Code: types.ExitFailure, Err: err}
}

func renderIssue(cmd *cobra.Command, id issue.Id) {
	rendered, err := issue.Get(id).Render("dark")
	if err != nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), rendered)
}

// commandLine quotes args so that pasting the result into a shell runs the
// same session again.
func commandLine(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			q = arg
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}
