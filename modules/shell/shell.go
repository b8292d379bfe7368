// SPDX-License-Identifier: MPL-2.0

// Package shell runs POSIX shell commands in an embedded interpreter.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/pkg/glue"
)

// Name is the implementation key.
const Name = "shell"

// RunFunc is the shared function running a script and returning its output.
const RunFunc = "run_shell"

// Evaluation context variables.
const (
	ExitCodeKey = "SHELL_EXIT_CODE"
	OutputKey   = "SHELL_OUTPUT"
)

// Module registers the shell implementation.
type Module struct{}

type shell struct {
	env     *glue.Env
	command string
	dir     string
	prog    *syntax.File

	ran      bool
	exitCode int
	output   string
}

var (
	_ glue.SharedProvider  = (*shell)(nil)
	_ glue.ContextProvider = (*shell)(nil)
)

// Register adds the implementation to c.
func (Module) Register(c *registry.Catalog) {
	c.Register(glue.Descriptor{
		Names:       []string{Name},
		Description: "Run a shell command in the embedded POSIX interpreter.",
		Group:       "execution",
		Options: []glue.Option{
			{Name: "command", Short: "c", Metavar: "SCRIPT", Help: "command to run"},
			{Name: "dir", Type: glue.TypePath, Metavar: "DIR", Help: "working directory of the command"},
		},
		Required: []string{"command"},
		Shared:   []string{RunFunc},
		EvalContext: map[string]string{
			ExitCodeKey: "exit status of the command",
			OutputKey:   "standard output of the command",
		},
		DryRun:  glue.DryRunDry,
		Factory: newShell,
	})
}

func newShell(env *glue.Env) (glue.Module, error) {
	return &shell{
		env:     env,
		command: env.Options.String("command"),
		dir:     env.Options.String("dir"),
	}, nil
}

func (s *shell) Sanity(context.Context) error {
	prog, err := parse(s.command, s.env.Name)
	if err != nil {
		return glue.Soft(err)
	}
	s.prog = prog
	if s.dir != "" {
		if info, err := os.Stat(s.dir); err != nil || !info.IsDir() {
			return glue.Soft(fmt.Errorf("working directory %q does not exist", s.dir))
		}
	}
	return nil
}

func (s *shell) Execute(ctx context.Context) error {
	if s.env.Pipeline != nil && s.env.Pipeline.DryRun().Dry() {
		s.env.Log.Info("dry run, not running command", "command", s.command)
		return nil
	}

	s.env.Log.Debug("running command", "command", s.command)
	out, code, err := s.run(ctx, s.prog)
	s.ran, s.exitCode, s.output = true, code, out
	if err != nil {
		return err
	}
	s.env.Log.Info("command finished", "exit-code", code, "output", strings.TrimSpace(out))
	if code != 0 {
		return fmt.Errorf("command exited with status %d", code)
	}
	return nil
}

func (s *shell) Destroy(context.Context, *glue.Failure) error { return nil }

func (s *shell) SharedFunctions() map[string]glue.SharedFunc {
	return map[string]glue.SharedFunc{
		RunFunc: func(ctx context.Context, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%s takes one argument, got %d", RunFunc, len(args))
			}
			script, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("%s: script must be a string, got %T", RunFunc, args[0])
			}
			prog, err := parse(script, RunFunc)
			if err != nil {
				return nil, err
			}
			out, code, err := s.run(ctx, prog)
			if err != nil {
				return nil, err
			}
			if code != 0 {
				return out, fmt.Errorf("script exited with status %d", code)
			}
			return out, nil
		},
	}
}

func (s *shell) EvalContext() map[string]any {
	if !s.ran {
		return nil
	}
	return map[string]any{
		ExitCodeKey: s.exitCode,
		OutputKey:   s.output,
	}
}

// run interprets prog and returns its standard output and exit status. err
// is set only when the interpreter itself failed.
func (s *shell) run(ctx context.Context, prog *syntax.File) (string, int, error) {
	var stdout, stderr bytes.Buffer
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(s.environ()...)),
		interp.StdIO(nil, &stdout, &stderr),
	}
	if s.dir != "" {
		opts = append(opts, interp.Dir(s.dir))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create interpreter: %w", err)
	}

	err = runner.Run(ctx, prog)
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		s.env.Log.Warn("command wrote to stderr", "stderr", msg)
	}
	var status interp.ExitStatus
	switch {
	case err == nil:
		return stdout.String(), 0, nil
	case errors.As(err, &status):
		return stdout.String(), int(status), nil
	default:
		return stdout.String(), 0, err
	}
}

// environ is the process environment followed by the string and number
// variables of the evaluation context, so commands see what earlier modules
// contributed.
func (s *shell) environ() []string {
	env := os.Environ()
	if s.env.Pipeline == nil {
		return env
	}
	ctx := s.env.Pipeline.EvalContext()
	for _, k := range slices.Sorted(maps.Keys(ctx)) {
		switch v := ctx[k].(type) {
		case string:
			env = append(env, k+"="+v)
		case int:
			env = append(env, k+"="+strconv.Itoa(v))
		}
	}
	return env
}

func parse(script, name string) (*syntax.File, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), name)
	if err != nil {
		return nil, fmt.Errorf("invalid shell script: %w", err)
	}
	return prog, nil
}
