// SPDX-License-Identifier: MPL-2.0

package glue

import (
	"context"

	"github.com/charmbracelet/log"
)

type (
	// Module is a running pipeline step. The executor calls Sanity for every
	// module in pipeline order, then Execute for every module in pipeline order,
	// and finally Destroy for every constructed module in reverse order.
	Module interface {
		// Sanity checks the module can run with its resolved options.
		Sanity(ctx context.Context) error
		// Execute performs the module's work.
		Execute(ctx context.Context) error
		// Destroy releases whatever the module acquired. failure describes the
		// run's primary failure and is nil when the run has not failed.
		Destroy(ctx context.Context, failure *Failure) error
	}

	// SharedFunc is a callable a module exposes to later modules of the run.
	SharedFunc func(ctx context.Context, args ...any) (any, error)

	// SharedProvider is implemented by modules exposing shared functions.
	// The executor registers the returned functions once the module's execute
	// phase has returned.
	SharedProvider interface {
		SharedFunctions() map[string]SharedFunc
	}

	// ContextProvider is implemented by modules contributing evaluation-context
	// variables.
	ContextProvider interface {
		EvalContext() map[string]any
	}

	// Factory constructs a module for one pipeline step.
	Factory func(env *Env) (Module, error)

	// Env is everything a module instance receives at construction.
	Env struct {
		// Name is the invocation alias. It is the module's configuration
		// namespace and its identity as a shared-function owner.
		Name string
		// Module is the declared name the instance was created from.
		Module string
		// Options holds the resolved option values.
		Options Values
		// Log is the module's logger, prefixed with Name.
		Log *log.Logger
		// Pipeline is the handle to the running pipeline, bound to this module.
		Pipeline Pipeline
	}

	// Pipeline is the view of the running pipeline given to each module.
	// Calls that need an owner identity use the module the handle is bound to.
	Pipeline interface {
		// Shared calls the most recently registered function called name.
		Shared(ctx context.Context, name string, args ...any) (any, error)
		// OverloadedShared calls the function registered for name just below
		// the bound module's own registration.
		OverloadedShared(ctx context.Context, name string, args ...any) (any, error)
		// HasShared reports whether any module registered name.
		HasShared(name string) bool
		// RequireShared fails when any of names has not been registered.
		RequireShared(names ...string) error
		// RegisterShared registers fn under name, owned by the bound module.
		RegisterShared(name string, fn SharedFunc)
		// EvalContext returns a fresh copy of the aggregated evaluation context.
		EvalContext() map[string]any
		// DryRun returns the dry-run level of the run.
		DryRun() DryRunLevel
		// Modules returns the descriptors of every discovered module.
		Modules() []Descriptor
		// RunModules instantiates steps and runs their sanity and execute phases
		// immediately. They are destroyed together with the rest of the run.
		RunModules(ctx context.Context, steps ...Step) error
	}

	// Base provides no-op Sanity and Destroy phases for embedding.
	Base struct{}
)

// Sanity does nothing.
func (Base) Sanity(context.Context) error { return nil }

// Destroy does nothing.
func (Base) Destroy(context.Context, *Failure) error { return nil }
