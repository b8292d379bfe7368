// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gluepipe/gluepipe/internal/config"
	"github.com/gluepipe/gluepipe/internal/issue"
	"github.com/gluepipe/gluepipe/internal/pipeline"
	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/modules"
	"github.com/gluepipe/gluepipe/pkg/glue"
)

func TestRuntimeFlags(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	args := []string{"-d", "--retries", "2", "--module-path", "a", "--module-path", "b", "-l", "shell", "-c", "true"}
	if err := root.Flags().Parse(args); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	want := map[string]any{
		config.OptDebug:      "true",
		config.OptRetries:    "2",
		config.OptModulePath: []string{"a", "b"},
	}
	if diff := cmp.Diff(want, runtimeFlags(root.Flags())); diff != "" {
		t.Errorf("runtimeFlags() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"shell", "-c", "true"}, root.Flags().Args()); diff != "" {
		t.Errorf("pipeline arguments mismatch (-want +got):\n%s", diff)
	}
	if got, _ := root.Flags().GetString("list-modules"); got != allGroups {
		t.Errorf("--list-modules without a value = %q, want %q", got, allGroups)
	}
}

func TestCommandLine(t *testing.T) {
	t.Parallel()

	got := commandLine([]string{"gluepipe", "shell", "-c", "echo $HOME"})
	if !strings.HasPrefix(got, "gluepipe shell") || !strings.HasSuffix(got, `'echo $HOME'`) {
		t.Errorf("commandLine() = %q", got)
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{name: "unknown module", err: &registry.UnknownModuleError{Name: "x"}, want: issue.UnknownModuleId},
		{name: "duplicate alias", err: &registry.DuplicateAliasError{Alias: "x"}, want: issue.DuplicateAliasId},
		{name: "required option", err: &registry.RequiredOptionMissingError{Module: "x", Options: []string{"o"}}, want: issue.RequiredOptionMissingId},
		{name: "dry run", err: &pipeline.DryRunNotSupportedError{Module: "x", Requested: glue.DryRunDry}, want: issue.DryRunNotSupportedId},
		{name: "invalid runtime", err: &config.InvalidRuntimeError{FieldErrors: []error{errors.New("bad")}}, want: issue.InvalidRuntimeId},
		{name: "config", err: &config.Error{Source: "a.toml", Err: errors.New("bad")}, want: issue.ConfigLoadFailedId},
		{name: "module failure", err: errors.New("boom"), want: issue.ModuleFailedId},
		{
			name: "primary of a run",
			err: &pipeline.RunError{
				Primary:   &pipeline.PhaseError{Phase: pipeline.PhaseExecuting, Module: "x", Err: errors.New("boom")},
				Secondary: []error{&registry.UnknownModuleError{Name: "y"}},
			},
			want: issue.ModuleFailedId,
		},
		{
			name: "wrapped",
			err:  issue.WrapWithContext(fmt.Errorf("load: %w", &registry.DuplicateModuleNameError{Name: "x"}), "discover modules", ""),
			want: issue.DuplicateModuleNameId,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, msg := classifyError(tt.err, false)
			if got != tt.want {
				t.Errorf("classifyError() = %d, want %d", got, tt.want)
			}
			if !strings.Contains(msg, "Error:") {
				t.Errorf("classifyError() message = %q", msg)
			}
		})
	}
}

func TestListModules(t *testing.T) {
	t.Parallel()

	descs := modules.Catalog().Descriptors()

	var all bytes.Buffer
	if err := listModules(&all, descs, allGroups); err != nil {
		t.Fatalf("listModules() error: %v", err)
	}
	for _, name := range []string{"dotenv", "shell", "yaml-pipeline", "bash-completion"} {
		if !strings.Contains(all.String(), name) {
			t.Errorf("listing misses %q:\n%s", name, all.String())
		}
	}

	var one bytes.Buffer
	if err := listModules(&one, descs, "environment"); err != nil {
		t.Fatalf("listModules(environment) error: %v", err)
	}
	if !strings.Contains(one.String(), "dotenv") || strings.Contains(one.String(), "yaml-pipeline") {
		t.Errorf("group listing:\n%s", one.String())
	}

	if err := listModules(&bytes.Buffer{}, descs, "nosuch"); err == nil {
		t.Error("listModules() of an unknown group succeeded")
	}
}

func TestListSharedAndEvalContext(t *testing.T) {
	t.Parallel()

	descs := modules.Catalog().Descriptors()

	var shared bytes.Buffer
	listShared(&shared, descs)
	for _, name := range []string{pipeline.EvalContextFunc, "run_shell", "dotenv_get"} {
		if !strings.Contains(shared.String(), name) {
			t.Errorf("shared listing misses %q:\n%s", name, shared.String())
		}
	}

	var evalCtx bytes.Buffer
	listEvalContext(&evalCtx, descs)
	for _, key := range []string{"ENV", "MODULE", "SHELL_EXIT_CODE"} {
		if !strings.Contains(evalCtx.String(), key) {
			t.Errorf("eval context listing misses %q:\n%s", key, evalCtx.String())
		}
	}
}

func TestModuleHelp(t *testing.T) {
	t.Parallel()

	d, ok := modules.Catalog().Lookup("shell")
	if !ok {
		t.Fatal("shell is not in the catalog")
	}
	var out bytes.Buffer
	moduleHelp(&out, &d)
	for _, want := range []string{"Module:", "--command", "run_shell", "SHELL_OUTPUT", "dry"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help misses %q:\n%s", want, out.String())
		}
	}
}
