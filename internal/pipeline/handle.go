// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"

	"github.com/gluepipe/gluepipe/pkg/glue"
)

// ModuleKey is the evaluation-context variable naming the querying module.
const ModuleKey = "MODULE"

// handle is the glue.Pipeline given to one unit.
type handle struct {
	run  *Run
	unit *unit
}

var _ glue.Pipeline = (*handle)(nil)

func (h *handle) Shared(ctx context.Context, name string, args ...any) (any, error) {
	return h.run.table.Call(ctx, name, args...)
}

func (h *handle) OverloadedShared(ctx context.Context, name string, args ...any) (any, error) {
	return h.run.table.CallOverloaded(ctx, name, h.unit.inst.Alias, args...)
}

func (h *handle) HasShared(name string) bool {
	return h.run.table.Has(name)
}

func (h *handle) RequireShared(names ...string) error {
	return h.run.table.Require(names...)
}

func (h *handle) RegisterShared(name string, fn glue.SharedFunc) {
	h.run.register(h.unit, name, fn)
}

func (h *handle) EvalContext() map[string]any {
	ctx := h.run.EvalContext()
	ctx[ModuleKey] = h.unit.inst.Alias
	return ctx
}

func (h *handle) DryRun() glue.DryRunLevel {
	return h.run.opts.DryRun
}

func (h *handle) Modules() []glue.Descriptor {
	return h.run.opts.Modules.Descriptors()
}

func (h *handle) RunModules(ctx context.Context, steps ...glue.Step) error {
	return h.run.runNested(ctx, h.unit, steps)
}
