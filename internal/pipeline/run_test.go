// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/internal/shared"
	"github.com/gluepipe/gluepipe/pkg/glue"
)

var errBoom = errors.New("boom")

func asRunError(t *testing.T, err error) *RunError {
	t.Helper()
	var re *RunError
	if !errors.As(err, &re) {
		t.Fatalf("Execute() error = %v, want *RunError", err)
	}
	return re
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	h := newHarness()
	run := h.run(t, glue.DryRunDefault, stepsOf("a", "x:b")...)
	if err := run.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	want := []string{
		"create:a", "create:x",
		"sanity:a", "sanity:x",
		"execute:a", "execute:x",
		"destroy:x", "destroy:a",
	}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	wantPhases := []Phase{PhaseCreated, PhaseSanity, PhaseExecuting, PhaseDestroying, PhaseDone}
	if diff := cmp.Diff(wantPhases, run.Transitions()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
	if h.failures["a"] != nil || h.failures["x"] != nil {
		t.Error("destroy received a failure for a successful run")
	}
	if diff := cmp.Diff([]string{"a", "x"}, run.Aliases()); diff != "" {
		t.Errorf("Aliases() mismatch (-want +got):\n%s", diff)
	}
	if run.ID() != "test-run" {
		t.Errorf("ID() = %q", run.ID())
	}
}

func TestRun_ExecuteFailure(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("b").executeErr = errBoom
	run := h.run(t, glue.DryRunDefault, stepsOf("a", "b", "c")...)

	re := asRunError(t, run.Execute(context.Background()))
	want := []string{
		"create:a", "create:b", "create:c",
		"sanity:a", "sanity:b", "sanity:c",
		"execute:a", "execute:b",
		"destroy:c", "destroy:b", "destroy:a",
	}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(re, errBoom) || re.Module() != "b" {
		t.Errorf("primary = %v (module %q), want b's execute error", re.Primary, re.Module())
	}
	if phase, ok := re.Phase(); !ok || phase != PhaseExecuting {
		t.Errorf("Phase() = %v, %v", phase, ok)
	}
	for _, alias := range []string{"a", "b", "c"} {
		f := h.failures[alias]
		if f == nil || f.Module != "b" || !errors.Is(f, errBoom) {
			t.Errorf("destroy of %s received failure %v", alias, f)
		}
	}
	wantPhases := []Phase{PhaseCreated, PhaseSanity, PhaseExecuting, PhaseFailed, PhaseDestroying, PhaseDone}
	if diff := cmp.Diff(wantPhases, run.Transitions()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_SanityFailure(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("a").sanityErr = errBoom
	run := h.run(t, glue.DryRunDefault, stepsOf("a", "b")...)

	re := asRunError(t, run.Execute(context.Background()))
	want := []string{"create:a", "create:b", "sanity:a", "destroy:b", "destroy:a"}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if phase, _ := re.Phase(); phase != PhaseSanity || re.Module() != "a" {
		t.Errorf("primary = %v", re.Primary)
	}
	wantPhases := []Phase{PhaseCreated, PhaseSanity, PhaseFailed, PhaseDestroying, PhaseDone}
	if diff := cmp.Diff(wantPhases, run.Transitions()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_DestroyOnlyFailure(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("a").destroyErr = errBoom
	run := h.run(t, glue.DryRunDefault, stepsOf("a")...)

	re := asRunError(t, run.Execute(context.Background()))
	if phase, _ := re.Phase(); phase != PhaseDestroying || !errors.Is(re, errBoom) {
		t.Errorf("primary = %v, want a's destroy error", re.Primary)
	}
	if len(re.Secondary) != 0 {
		t.Errorf("secondary = %v, want none", re.Secondary)
	}
	if run.Phase() != PhaseDone {
		t.Errorf("Phase() = %s, want done", run.Phase())
	}
}

func TestRun_DestroyFailuresAreCollected(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("a").destroyErr = errors.New("a leaked")
	h.script("b").destroyErr = errors.New("b leaked")
	h.script("c").executeErr = errBoom
	run := h.run(t, glue.DryRunDefault, stepsOf("a", "b", "c")...)

	re := asRunError(t, run.Execute(context.Background()))
	if re.Module() != "c" {
		t.Errorf("primary module = %q, want c", re.Module())
	}
	if len(re.Secondary) != 2 {
		t.Fatalf("secondary = %v, want two destroy failures", re.Secondary)
	}
	msg := re.Error()
	if !strings.Contains(msg, "boom") || strings.Index(msg, "b leaked") > strings.Index(msg, "a leaked") {
		t.Errorf("Error() =\n%s", msg)
	}
	if !strings.HasSuffix(strings.Join(h.events, " "), "destroy:c destroy:b destroy:a") {
		t.Errorf("events = %v", h.events)
	}
}

func TestRun_FailsBeforeAnyPhase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dry     glue.DryRunLevel
		steps   []glue.Step
		wantErr error
	}{
		{name: "duplicate alias", steps: stepsOf("a", "a:b"), wantErr: registry.ErrDuplicateAlias},
		{name: "runtime alias", steps: stepsOf("gluepipe:a"), wantErr: registry.ErrDuplicateAlias},
		{name: "unknown module", steps: stepsOf("a", "nope"), wantErr: registry.ErrUnknownModule},
		{name: "missing required option", steps: stepsOf("a", "needs"), wantErr: registry.ErrRequiredOptionMissing},
		{name: "dry run not supported", dry: glue.DryRunDry, steps: stepsOf("dry", "a"), wantErr: ErrDryRunNotSupported},
		{name: "isolated run not supported", dry: glue.DryRunIsolated, steps: stepsOf("dry"), wantErr: ErrDryRunNotSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness()
			run := h.run(t, tt.dry, tt.steps...)
			err := run.Execute(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			if len(h.events) != 0 {
				t.Errorf("modules were touched: %v", h.events)
			}
			if diff := cmp.Diff([]Phase{PhaseCreated, PhaseFailed}, run.Transitions()); diff != "" {
				t.Errorf("transitions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_RequiredOptionProvided(t *testing.T) {
	t.Parallel()

	h := newHarness()
	run := h.run(t, glue.DryRunDefault, glue.MustParseInvocation("needs", "--target", "prod"))
	if err := run.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
}

func TestRun_DryRunSupported(t *testing.T) {
	t.Parallel()

	h := newHarness()
	var level glue.DryRunLevel
	h.script("dry").execute = func(_ context.Context, env *glue.Env) error {
		level = env.Pipeline.DryRun()
		return nil
	}
	if err := h.run(t, glue.DryRunDry, stepsOf("dry")...).Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if level != glue.DryRunDry {
		t.Errorf("DryRun() = %s, want dry", level)
	}
}

func TestRun_FactoryFailure(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("b").factoryErr = errBoom
	run := h.run(t, glue.DryRunDefault, stepsOf("a", "b", "c")...)

	re := asRunError(t, run.Execute(context.Background()))
	if diff := cmp.Diff([]string{"create:a", "destroy:a"}, h.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if phase, _ := re.Phase(); phase != PhaseCreated || re.Module() != "b" {
		t.Errorf("primary = %v", re.Primary)
	}
	wantPhases := []Phase{PhaseCreated, PhaseFailed, PhaseDestroying, PhaseDone}
	if diff := cmp.Diff(wantPhases, run.Transitions()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_SharedFunctionChain(t *testing.T) {
	t.Parallel()

	h := newHarness()
	named := func(name string) func(env *glue.Env) map[string]glue.SharedFunc {
		return func(env *glue.Env) map[string]glue.SharedFunc {
			return map[string]glue.SharedFunc{
				"f": func(ctx context.Context, _ ...any) (any, error) {
					prev, err := env.Pipeline.OverloadedShared(ctx, "f")
					if errors.Is(err, shared.ErrNoOverloadedFunction) {
						return name, nil
					}
					if err != nil {
						return nil, err
					}
					return fmt.Sprintf("%s>%v", name, prev), nil
				},
			}
		}
	}
	h.script("a").shared = named("a")
	h.script("b").shared = named("b")

	var got any
	var ownErr, unknownErr error
	h.script("c").execute = func(ctx context.Context, env *glue.Env) error {
		var err error
		if got, err = env.Pipeline.Shared(ctx, "f"); err != nil {
			return err
		}
		_, ownErr = env.Pipeline.OverloadedShared(ctx, "f")
		_, unknownErr = env.Pipeline.Shared(ctx, "nope")
		return env.Pipeline.RequireShared("f", EvalContextFunc)
	}

	run := h.run(t, glue.DryRunDefault, stepsOf("a", "b", "c")...)
	if err := run.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got != "b>a" {
		t.Errorf("Shared(f) = %v, want b>a", got)
	}
	if !errors.Is(ownErr, shared.ErrNoOverloadedFunction) {
		t.Errorf("OverloadedShared from a non-owner = %v", ownErr)
	}
	if !errors.Is(unknownErr, shared.ErrUnknownFunction) {
		t.Errorf("Shared(nope) = %v", unknownErr)
	}
	if diff := cmp.Diff([]string{EvalContextFunc, "f"}, run.SharedFunctions()); diff != "" {
		t.Errorf("SharedFunctions() mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_SharedVisibleOnlyAfterExecute(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("b").shared = func(*glue.Env) map[string]glue.SharedFunc {
		return map[string]glue.SharedFunc{"late": func(context.Context, ...any) (any, error) { return nil, nil }}
	}
	var seenByA, seenByB, seenByC bool
	h.script("a").execute = func(_ context.Context, env *glue.Env) error {
		seenByA = env.Pipeline.HasShared("late")
		return nil
	}
	h.script("b").execute = func(_ context.Context, env *glue.Env) error {
		seenByB = env.Pipeline.HasShared("late")
		return nil
	}
	h.script("c").execute = func(_ context.Context, env *glue.Env) error {
		seenByC = env.Pipeline.HasShared("late")
		return nil
	}

	if err := h.run(t, glue.DryRunDefault, stepsOf("a", "b", "c")...).Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if seenByA || seenByB || !seenByC {
		t.Errorf("visibility a=%v b=%v c=%v, want only c", seenByA, seenByB, seenByC)
	}
}

func TestRun_RegisterSharedDuringExecute(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("provider").execute = func(_ context.Context, env *glue.Env) error {
		hello := func(context.Context, ...any) (any, error) { return "hello", nil }
		env.Pipeline.RegisterShared("greet", hello)
		env.Pipeline.RegisterShared("greet", hello)
		return nil
	}
	var got any
	h.script("a").execute = func(ctx context.Context, env *glue.Env) error {
		var err error
		got, err = env.Pipeline.Shared(ctx, "greet")
		return err
	}

	if err := h.run(t, glue.DryRunDefault, stepsOf("provider", "a")...).Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got != "hello" {
		t.Errorf("Shared(greet) = %v", got)
	}
}

func TestRun_DeclaredSharedMissing(t *testing.T) {
	t.Parallel()

	h := newHarness()
	err := h.run(t, glue.DryRunDefault, stepsOf("provider", "a")...).Execute(context.Background())
	var missing *SharedNotRegisteredError
	if !errors.As(err, &missing) || missing.Module != "provider" || missing.Names[0] != "greet" {
		t.Fatalf("Execute() error = %v, want SharedNotRegisteredError", err)
	}
	if strings.Contains(strings.Join(h.events, " "), "execute:a") {
		t.Error("execution continued after the failure")
	}
}

func TestRun_EvalContext(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("a").context = map[string]any{"X": 1, "A": "a"}
	h.script("b").context = map[string]any{"X": 2}
	h.script("c").context = map[string]any{"X": 3}

	var seen, viaShared map[string]any
	h.script("c").execute = func(ctx context.Context, env *glue.Env) error {
		seen = env.Pipeline.EvalContext()
		v, err := env.Pipeline.Shared(ctx, EvalContextFunc)
		if err != nil {
			return err
		}
		viaShared = v.(map[string]any)
		return nil
	}

	run := h.run(t, glue.DryRunDefault, stepsOf("a", "b", "c")...)
	if err := run.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	env := map[string]string{"HOME": "/home/test"}
	wantSeen := map[string]any{"ENV": env, "X": 2, "A": "a", ModuleKey: "c"}
	if diff := cmp.Diff(wantSeen, seen); diff != "" {
		t.Errorf("context seen by c mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"ENV": env, "X": 2, "A": "a"}, viaShared); diff != "" {
		t.Errorf("eval_context mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"ENV": env, "X": 3, "A": "a"}, run.EvalContext()); diff != "" {
		t.Errorf("final context mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_EvalContextSkipsFailedModule(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("a").context = map[string]any{"X": 1}
	h.script("b").context = map[string]any{"X": 2}
	h.script("b").executeErr = errBoom

	run := h.run(t, glue.DryRunDefault, stepsOf("a", "b")...)
	_ = run.Execute(context.Background())
	if got := run.EvalContext()["X"]; got != 1 {
		t.Errorf("X = %v, want the value of the module that succeeded", got)
	}
}

func TestRun_NestedModules(t *testing.T) {
	t.Parallel()

	h := newHarness()
	var dupErr error
	h.script("a").execute = func(ctx context.Context, env *glue.Env) error {
		if err := env.Pipeline.RunModules(ctx, stepsOf("b", "x:c")...); err != nil {
			return err
		}
		dupErr = env.Pipeline.RunModules(ctx, stepsOf("d")...)
		return nil
	}
	h.script("x").context = map[string]any{"NESTED": true}
	var nestedSeen bool
	h.script("d").execute = func(_ context.Context, env *glue.Env) error {
		nestedSeen = env.Pipeline.EvalContext()["NESTED"] == true
		return nil
	}

	run := h.run(t, glue.DryRunDefault, stepsOf("a", "d")...)
	if err := run.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	want := []string{
		"create:a", "create:d",
		"sanity:a", "sanity:d",
		"execute:a",
		"create:b", "create:x",
		"sanity:b", "sanity:x",
		"execute:b", "execute:x",
		"execute:d",
		"destroy:x", "destroy:b", "destroy:d", "destroy:a",
	}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "d", "b", "x"}, run.Aliases()); diff != "" {
		t.Errorf("Aliases() mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(dupErr, registry.ErrDuplicateAlias) {
		t.Errorf("RunModules(d) error = %v, want ErrDuplicateAlias", dupErr)
	}
	if !nestedSeen {
		t.Error("context of nested module not visible to a later module")
	}
}

func TestRun_NestedModulesDestroyedFirst(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("a").execute = func(ctx context.Context, env *glue.Env) error {
		return env.Pipeline.RunModules(ctx, stepsOf("b")...)
	}

	run := h.run(t, glue.DryRunDefault, stepsOf("a", "d")...)
	if err := run.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	var destroyed []string
	for _, ev := range h.events {
		if alias, ok := strings.CutPrefix(ev, "destroy:"); ok {
			destroyed = append(destroyed, alias)
		}
	}
	if diff := cmp.Diff([]string{"b", "d", "a"}, destroyed); diff != "" {
		t.Errorf("destroy order mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_OrdinalsCountNestedModules(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("a").execute = func(ctx context.Context, env *glue.Env) error {
		return env.Pipeline.RunModules(ctx, stepsOf("b")...)
	}
	h.script("d").execute = func(ctx context.Context, env *glue.Env) error {
		return env.Pipeline.RunModules(ctx, stepsOf("x:c", "y:c")...)
	}

	run := h.run(t, glue.DryRunDefault, stepsOf("a", "d")...)
	if err := run.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	got := make(map[string]int, len(run.units))
	for _, u := range run.units {
		got[u.inst.Alias] = u.inst.Ordinal
	}
	want := map[string]int{"a": 0, "d": 1, "b": 2, "x": 3, "y": 4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ordinals mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_NestedFailureReachesCaller(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("b").executeErr = errBoom
	h.script("a").execute = func(ctx context.Context, env *glue.Env) error {
		return env.Pipeline.RunModules(ctx, stepsOf("b", "c")...)
	}

	re := asRunError(t, h.run(t, glue.DryRunDefault, stepsOf("a")...).Execute(context.Background()))
	if re.Module() != "a" || !errors.Is(re, errBoom) {
		t.Errorf("primary = %v", re.Primary)
	}
	want := []string{
		"create:a", "sanity:a", "execute:a",
		"create:b", "create:c", "sanity:b", "sanity:c", "execute:b",
		"destroy:c", "destroy:b", "destroy:a",
	}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Interrupted(t *testing.T) {
	t.Parallel()

	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	h.script("a").execute = func(context.Context, *glue.Env) error {
		cancel()
		return nil
	}

	re := asRunError(t, h.run(t, glue.DryRunDefault, stepsOf("a", "b")...).Execute(ctx))
	if !errors.Is(re, ErrInterrupted) || !errors.Is(re, context.Canceled) {
		t.Errorf("primary = %v, want interruption", re.Primary)
	}
	want := []string{"create:a", "create:b", "sanity:a", "sanity:b", "execute:a", "destroy:b", "destroy:a"}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ExecuteTwice(t *testing.T) {
	t.Parallel()

	h := newHarness()
	run := h.run(t, glue.DryRunDefault, stepsOf("a")...)
	if err := run.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if err := run.Execute(context.Background()); !errors.Is(err, errAlreadyExecuted) {
		t.Errorf("second Execute() error = %v", err)
	}
}

// Destroy runs exactly once for every constructed module, in reverse order,
// whichever module fails and in whichever phase.
func TestRun_DestroyReversesConstructionProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		names := []string{"a", "b", "c", "d"}
		n := rapid.IntRange(1, len(names)).Draw(t, "n")
		aliases := slices.Clone(names[:n])

		// Each top-level module may start a few "c" modules of its own.
		h := newHarness()
		for _, caller := range names[:n] {
			k := rapid.IntRange(0, 2).Draw(t, "nested-"+caller)
			if k == 0 {
				continue
			}
			nested := make([]string, k)
			for i := range nested {
				nested[i] = fmt.Sprintf("%s%d:c", caller, i)
				aliases = append(aliases, fmt.Sprintf("%s%d", caller, i))
			}
			h.script(caller).execute = func(ctx context.Context, env *glue.Env) error {
				return env.Pipeline.RunModules(ctx, stepsOf(nested...)...)
			}
		}

		failAt := rapid.IntRange(-1, len(aliases)-1).Draw(t, "failAt")
		phase := rapid.SampledFrom([]string{"factory", "sanity", "execute", "destroy"}).Draw(t, "phase")
		if failAt >= 0 {
			s := h.script(aliases[failAt])
			switch phase {
			case "factory":
				s.factoryErr = errBoom
			case "sanity":
				s.sanityErr = errBoom
			case "execute":
				s.executeErr = errBoom
			case "destroy":
				s.destroyErr = errBoom
			}
		}

		run := newRapidRun(t, h, names[:n])
		err := run.Execute(context.Background())
		if (failAt >= 0) != (err != nil) {
			t.Fatalf("Execute() error = %v with failAt=%d", err, failAt)
		}

		var created, destroyed []string
		for _, ev := range h.events {
			if alias, ok := strings.CutPrefix(ev, "create:"); ok {
				created = append(created, alias)
			}
			if alias, ok := strings.CutPrefix(ev, "destroy:"); ok {
				destroyed = append(destroyed, alias)
			}
		}
		for i, u := range run.units {
			if u.inst.Ordinal != i {
				t.Fatalf("ordinal of %q = %d, want %d", u.inst.Alias, u.inst.Ordinal, i)
			}
		}
		slices.Reverse(created)
		if diff := cmp.Diff(created, destroyed); diff != "" {
			t.Fatalf("destroy order mismatch (-reversed creation +destroy):\n%s", diff)
		}
	})
}

func newRapidRun(t *rapid.T, h *harness, tokens []string) *Run {
	reg, err := registry.New(h.descriptors()...)
	if err != nil {
		t.Fatalf("registry.New() error: %v", err)
	}
	return New(stepsOf(tokens...), Options{
		Modules: reg,
		Config:  configStore(),
		Logger:  quietLogger(),
		Environ: []string{},
	})
}

type ctxKey struct{}

// recordingObserver records "phase:module[:failed]" on finish and tags the
// phase context.
type recordingObserver struct {
	name   string
	events *[]string
}

func (o recordingObserver) ObservePhase(ctx context.Context, module string, phase Phase) (context.Context, func(error)) {
	*o.events = append(*o.events, o.name+" start "+phase.String()+":"+module)
	return context.WithValue(ctx, ctxKey{}, o.name), func(err error) {
		ev := o.name + " end " + phase.String() + ":" + module
		if err != nil {
			ev += ":failed"
		}
		*o.events = append(*o.events, ev)
	}
}

func TestRun_Observers(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.script("a").executeErr = errBoom
	var seen any
	h.script("a").execute = func(ctx context.Context, _ *glue.Env) error {
		seen = ctx.Value(ctxKey{})
		return nil
	}

	var events []string
	reg, err := registry.New(h.descriptors()...)
	if err != nil {
		t.Fatal(err)
	}
	run := New(stepsOf("a"), Options{
		Modules:   reg,
		Config:    configStore(),
		Logger:    quietLogger(),
		Observers: []Observer{recordingObserver{"outer", &events}, recordingObserver{"inner", &events}},
	})
	_ = run.Execute(context.Background())

	want := []string{
		"outer start sanity:a", "inner start sanity:a", "inner end sanity:a", "outer end sanity:a",
		"outer start execute:a", "inner start execute:a", "inner end execute:a:failed", "outer end execute:a:failed",
		"outer start destroy:a", "inner start destroy:a", "inner end destroy:a", "outer end destroy:a",
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("observer events mismatch (-want +got):\n%s", diff)
	}
	if seen != "inner" {
		t.Errorf("phase context value = %v, want the innermost observer's", seen)
	}
}
