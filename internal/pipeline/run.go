// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/gluepipe/gluepipe/internal/evalctx"
	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/internal/shared"
	"github.com/gluepipe/gluepipe/pkg/glue"
)

const (
	// DefaultRuntimeName is the alias of the runtime itself: the owner of the
	// functions it registers and a name no step may use.
	DefaultRuntimeName = "gluepipe"

	// EvalContextFunc is the shared function returning the aggregated
	// evaluation context. The runtime registers it before any module.
	EvalContextFunc = "eval_context"
)

const (
	unitConstructed unitState = iota
	unitSane
	unitExecuting
	unitExecuted
	unitFailed
)

// errAlreadyExecuted is returned when Execute is called a second time.
var errAlreadyExecuted = errors.New("pipeline run already executed")

type (
	// Modules instantiates pipeline steps. *registry.Registry implements it.
	Modules interface {
		InstantiateAll(ctx context.Context, res registry.Resolver, taken []string, steps ...glue.Step) ([]*registry.Instance, error)
		Descriptors() []glue.Descriptor
	}

	// Options configures a Run.
	Options struct {
		Modules Modules
		Config  registry.Resolver
		Logger  *log.Logger
		DryRun  glue.DryRunLevel
		// Clock times the phases. Defaults to the real clock.
		Clock clockwork.Clock
		// Environ is exposed as ENV in the evaluation context. Nil means
		// os.Environ().
		Environ []string
		// RuntimeName defaults to DefaultRuntimeName.
		RuntimeName string
		// RunID defaults to a random UUID.
		RunID string
		// Observers are notified around every sanity, execute and destroy
		// call.
		Observers []Observer
	}

	// Run is one pass of a pipeline through its lifecycle. It owns the
	// shared-function table and the instances of the run. A Run is driven
	// from a single goroutine and executes once.
	Run struct {
		opts    Options
		log     *log.Logger
		clock   clockwork.Clock
		steps   []glue.Step
		table   *shared.Table
		units   []*unit
		created int
		phase   Phase
		history []Phase
		started bool

		primary   error
		secondary []error
	}

	unitState int

	// unit is a constructed module instance. Units created by RunModules
	// record the unit that created them and are driven by it.
	unit struct {
		inst   *registry.Instance
		parent *unit
		module glue.Module
		log    *log.Logger
		state  unitState
	}
)

// New prepares a run of steps.
func New(steps []glue.Step, opts Options) *Run {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ()
	}
	if opts.RuntimeName == "" {
		opts.RuntimeName = DefaultRuntimeName
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Run{
		opts:    opts,
		log:     opts.Logger,
		clock:   opts.Clock,
		steps:   slices.Clone(steps),
		table:   shared.NewTable(),
		phase:   PhaseCreated,
		history: []Phase{PhaseCreated},
	}
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.opts.RunID }

// Phase returns the current phase.
func (r *Run) Phase() Phase { return r.phase }

// Transitions returns every phase the run went through, in order.
func (r *Run) Transitions() []Phase { return slices.Clone(r.history) }

// Aliases returns the aliases of the constructed instances in creation order.
func (r *Run) Aliases() []string {
	aliases := make([]string, len(r.units))
	for i, u := range r.units {
		aliases[i] = u.inst.Alias
	}
	return aliases
}

// SharedFunctions returns the names of the registered shared functions.
func (r *Run) SharedFunctions() []string { return r.table.Names() }

// EvalContext returns the current aggregated evaluation context.
func (r *Run) EvalContext() map[string]any {
	contributors := []evalctx.Contributor{evalctx.Environ(r.opts.Environ)}
	for _, u := range r.units {
		if u.state != unitExecuted {
			continue
		}
		if cp, ok := u.module.(glue.ContextProvider); ok {
			contributors = append(contributors, cp)
		}
	}
	return evalctx.Collect(contributors...)
}

// Execute drives the run: every step is instantiated and constructed, then
// sanity and execute run in pipeline order, and finally every constructed
// module is destroyed in reverse order. The returned error is nil or a
// *RunError.
func (r *Run) Execute(ctx context.Context) error {
	if r.started {
		return errAlreadyExecuted
	}
	r.started = true

	r.log.Debug("Starting pipeline.", "run", r.opts.RunID, "steps", len(r.steps), "dry-run", r.opts.DryRun)
	r.table.Register(EvalContextFunc, r.opts.RuntimeName, func(context.Context, ...any) (any, error) {
		return r.EvalContext(), nil
	})

	units, err := r.instantiate(ctx, nil, r.steps)
	r.units = units
	if err != nil {
		r.fail(err)
		if len(units) == 0 {
			return r.result()
		}
	}

	if r.primary == nil {
		r.enter(PhaseSanity)
		for _, u := range r.units {
			if err := r.sanity(ctx, u); err != nil {
				r.fail(err)
				break
			}
		}
	}

	if r.primary == nil {
		r.enter(PhaseExecuting)
		// RunModules may append units while this loop runs; those are
		// driven by their caller.
		for i := 0; i < len(r.units); i++ {
			u := r.units[i]
			if u.parent != nil {
				continue
			}
			if err := r.execute(ctx, u); err != nil {
				r.fail(err)
				break
			}
		}
	}

	r.destroy(ctx)
	return r.result()
}

// instantiate resolves steps and constructs their modules. Every step is
// resolved and checked before the first module is constructed. Each
// constructed instance takes the next ordinal of the run. On a construction
// failure the units constructed so far are returned with the error.
func (r *Run) instantiate(ctx context.Context, parent *unit, steps []glue.Step) ([]*unit, error) {
	insts, err := r.opts.Modules.InstantiateAll(ctx, r.opts.Config, r.takenAliases(), steps...)
	if err != nil {
		return nil, err
	}

	for _, inst := range insts {
		if !inst.Descriptor.DryRun.Supports(r.opts.DryRun) {
			return nil, &DryRunNotSupportedError{
				Module:    inst.Alias,
				Supported: inst.Descriptor.DryRun,
				Requested: r.opts.DryRun,
			}
		}
		if err := inst.CheckRequired(); err != nil {
			return nil, err
		}
	}

	units := make([]*unit, 0, len(insts))
	for _, inst := range insts {
		u := &unit{inst: inst, parent: parent, log: r.log.WithPrefix(inst.Alias)}
		mod, err := inst.Descriptor.Factory(&glue.Env{
			Name:     inst.Alias,
			Module:   inst.Module,
			Options:  inst.Options.Clone(),
			Log:      u.log,
			Pipeline: &handle{run: r, unit: u},
		})
		if err == nil && mod == nil {
			err = fmt.Errorf("factory of %q returned no module", inst.Module)
		}
		if err != nil {
			return units, &PhaseError{Phase: PhaseCreated, Module: inst.Alias, Err: err}
		}
		inst.Ordinal = r.created
		r.created++
		u.module = mod
		u.state = unitConstructed
		u.log.Debug("Module constructed.", "module", inst.Module, "ordinal", inst.Ordinal)
		units = append(units, u)
	}
	return units, nil
}

func (r *Run) takenAliases() []string {
	return append([]string{r.opts.RuntimeName}, r.Aliases()...)
}

func (r *Run) sanity(ctx context.Context, u *unit) error {
	if err := interrupted(ctx); err != nil {
		return err
	}
	start := r.clock.Now()
	phaseCtx, done := r.observe(ctx, u, PhaseSanity)
	err := u.module.Sanity(phaseCtx)
	done(err)
	if err != nil {
		u.state = unitFailed
		return &PhaseError{Phase: PhaseSanity, Module: u.inst.Alias, Err: err}
	}
	u.state = unitSane
	u.log.Debug("Sanity check passed.", "duration", r.clock.Since(start))
	return nil
}

func (r *Run) execute(ctx context.Context, u *unit) error {
	if err := interrupted(ctx); err != nil {
		return err
	}
	start := r.clock.Now()
	u.state = unitExecuting
	u.log.Info("Executing module.")

	phaseCtx, done := r.observe(ctx, u, PhaseExecuting)
	err := u.module.Execute(phaseCtx)
	if sp, ok := u.module.(glue.SharedProvider); ok {
		fns := sp.SharedFunctions()
		for _, name := range slices.Sorted(maps.Keys(fns)) {
			r.register(u, name, fns[name])
		}
	}
	if err == nil {
		if missing := r.missingShared(u); len(missing) > 0 {
			err = &SharedNotRegisteredError{Module: u.inst.Alias, Names: missing}
		}
	}
	done(err)
	if err != nil {
		u.state = unitFailed
		return &PhaseError{Phase: PhaseExecuting, Module: u.inst.Alias, Err: err}
	}

	u.state = unitExecuted
	u.log.Debug("Module finished.", "duration", r.clock.Since(start))
	return nil
}

// runNested instantiates steps on behalf of caller and runs their sanity and
// execute phases. The new units are appended after every unit created so far,
// so they are destroyed before any of them.
func (r *Run) runNested(ctx context.Context, caller *unit, steps []glue.Step) error {
	units, err := r.instantiate(ctx, caller, steps)
	r.units = append(r.units, units...)
	if err != nil {
		return err
	}
	for _, u := range units {
		if err := r.sanity(ctx, u); err != nil {
			return err
		}
	}
	for _, u := range units {
		if err := r.execute(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (r *Run) register(u *unit, name string, fn glue.SharedFunc) {
	r.table.Register(name, u.inst.Alias, fn)
	u.log.Debug("Registered shared function.", "name", name)
}

func (r *Run) missingShared(u *unit) []string {
	var missing []string
	for _, name := range u.inst.Descriptor.Shared {
		if !slices.Contains(r.table.Owners(name), u.inst.Alias) {
			missing = append(missing, name)
		}
	}
	return missing
}

// destroy calls Destroy on every constructed unit from the highest ordinal
// down. Failures are collected and never stop the pass.
func (r *Run) destroy(ctx context.Context) {
	if len(r.units) == 0 {
		return
	}
	r.enter(PhaseDestroying)

	// Modules release their resources even when the run was interrupted.
	ctx = context.WithoutCancel(ctx)
	failure := r.failure()
	for i := len(r.units) - 1; i >= 0; i-- {
		u := r.units[i]
		start := r.clock.Now()
		phaseCtx, done := r.observe(ctx, u, PhaseDestroying)
		err := u.module.Destroy(phaseCtx, failure)
		done(err)
		if err != nil {
			perr := &PhaseError{Phase: PhaseDestroying, Module: u.inst.Alias, Err: err}
			r.log.Warn("Destroy failed.", "module", u.inst.Alias, "ordinal", u.inst.Ordinal, "err", err)
			r.secondary = append(r.secondary, perr)
			continue
		}
		u.log.Debug("Module destroyed.", "duration", r.clock.Since(start))
	}
	r.enter(PhaseDone)
}

func (r *Run) observe(ctx context.Context, u *unit, p Phase) (context.Context, func(error)) {
	return observers(r.opts.Observers).ObservePhase(ctx, u.inst.Alias, p)
}

func (r *Run) enter(p Phase) {
	r.phase = p
	r.history = append(r.history, p)
	r.log.Debug("Entering phase.", "phase", p)
}

// fail captures err as the primary failure unless one was already captured.
func (r *Run) fail(err error) {
	if r.primary != nil {
		return
	}
	r.primary = err
	r.log.Error("Pipeline failed.", "err", err)
	r.enter(PhaseFailed)
}

func (r *Run) failure() *glue.Failure {
	if r.primary == nil {
		return nil
	}
	return (&RunError{Primary: r.primary}).Failure()
}

func (r *Run) result() error {
	switch {
	case r.primary != nil:
		return &RunError{Primary: r.primary, Secondary: slices.Clone(r.secondary)}
	case len(r.secondary) > 0:
		return &RunError{Primary: r.secondary[0], Secondary: slices.Clone(r.secondary[1:])}
	default:
		return nil
	}
}

func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return nil
}
