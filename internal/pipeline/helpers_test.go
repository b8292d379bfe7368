// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/gluepipe/gluepipe/internal/config"
	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/pkg/glue"
)

type (
	// script scripts the behavior of the module running under one alias.
	script struct {
		factoryErr error
		sanityErr  error
		executeErr error
		destroyErr error
		context    map[string]any
		shared     func(env *glue.Env) map[string]glue.SharedFunc
		execute    func(ctx context.Context, env *glue.Env) error
	}

	// harness records the lifecycle calls of every fake module it creates.
	harness struct {
		scripts  map[string]*script
		events   []string
		failures map[string]*glue.Failure
	}

	fake struct {
		h   *harness
		env *glue.Env
		s   *script
	}
)

func newHarness() *harness {
	return &harness{scripts: make(map[string]*script), failures: make(map[string]*glue.Failure)}
}

func (h *harness) script(alias string) *script {
	s, ok := h.scripts[alias]
	if !ok {
		s = &script{}
		h.scripts[alias] = s
	}
	return s
}

func (h *harness) factory(env *glue.Env) (glue.Module, error) {
	s := h.script(env.Name)
	if s.factoryErr != nil {
		return nil, s.factoryErr
	}
	h.events = append(h.events, "create:"+env.Name)
	return &fake{h: h, env: env, s: s}, nil
}

func (f *fake) Sanity(context.Context) error {
	f.h.events = append(f.h.events, "sanity:"+f.env.Name)
	return f.s.sanityErr
}

func (f *fake) Execute(ctx context.Context) error {
	f.h.events = append(f.h.events, "execute:"+f.env.Name)
	if f.s.execute != nil {
		if err := f.s.execute(ctx, f.env); err != nil {
			return err
		}
	}
	return f.s.executeErr
}

func (f *fake) Destroy(_ context.Context, failure *glue.Failure) error {
	f.h.events = append(f.h.events, "destroy:"+f.env.Name)
	f.h.failures[f.env.Name] = failure
	return f.s.destroyErr
}

func (f *fake) SharedFunctions() map[string]glue.SharedFunc {
	if f.s.shared == nil {
		return nil
	}
	return f.s.shared(f.env)
}

func (f *fake) EvalContext() map[string]any { return f.s.context }

// descriptors returns modules a, b, c and d plus the module "needs" with a
// required option, "dry" supporting dry runs, and "provider" declaring a
// shared function.
func (h *harness) descriptors() []glue.Descriptor {
	var descs []glue.Descriptor
	for _, name := range []string{"a", "b", "c", "d"} {
		descs = append(descs, glue.Descriptor{Names: []string{name}, Factory: h.factory})
	}
	return append(descs,
		glue.Descriptor{
			Names:    []string{"needs"},
			Options:  []glue.Option{{Name: "target"}},
			Required: []string{"target"},
			Factory:  h.factory,
		},
		glue.Descriptor{Names: []string{"dry"}, DryRun: glue.DryRunDry, Factory: h.factory},
		glue.Descriptor{Names: []string{"provider"}, Shared: []string{"greet"}, Factory: h.factory},
	)
}

func stepsOf(tokens ...string) []glue.Step {
	steps := make([]glue.Step, len(tokens))
	for i, token := range tokens {
		steps[i] = glue.MustParseInvocation(token)
	}
	return steps
}

func (h *harness) run(t *testing.T, dry glue.DryRunLevel, steps ...glue.Step) *Run {
	t.Helper()
	reg, err := registry.New(h.descriptors()...)
	if err != nil {
		t.Fatalf("registry.New() error: %v", err)
	}
	return New(steps, Options{
		Modules: reg,
		Config:  configStore(),
		Logger:  quietLogger(),
		DryRun:  dry,
		Clock:   clockwork.NewFakeClock(),
		Environ: []string{"HOME=/home/test"},
		RunID:   "test-run",
	})
}

func configStore() *config.Store { return config.NewStore(nil) }

func quietLogger() *log.Logger { return log.New(io.Discard) }
