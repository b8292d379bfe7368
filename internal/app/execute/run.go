// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/gluepipe/gluepipe/internal/metrics"
	"github.com/gluepipe/gluepipe/internal/pipeline"
	"github.com/gluepipe/gluepipe/internal/registry"
	"github.com/gluepipe/gluepipe/internal/report"
	"github.com/gluepipe/gluepipe/internal/telemetry"
	"github.com/gluepipe/gluepipe/pkg/glue"
	"github.com/gluepipe/gluepipe/pkg/types"
)

// Failure-report tags set by the driver.
const (
	TagModule    = "module"
	TagPhase     = "phase"
	TagRunID     = "run-id"
	TagAttempt   = "attempt"
	TagSoftError = "soft-error"
)

type (
	// Request describes one pipeline session.
	Request struct {
		Steps   []glue.Step
		Modules pipeline.Modules
		Config  registry.Resolver
		Logger  *log.Logger
		DryRun  glue.DryRunLevel
		// Retries is how many times the whole pipeline runs again when its
		// primary failure asks for a retry.
		Retries int
		// RetryDelay is the pause between attempts.
		RetryDelay time.Duration
		// Hook receives every captured failure. Nil means report.Nop.
		Hook report.Hook
		// Metrics and Tracer are optional.
		Metrics *metrics.Recorder
		Tracer  *telemetry.Tracer
		Clock   clockwork.Clock
		Environ []string
	}

	// Result is the outcome of a session.
	Result struct {
		// Err is the failure of the last attempt, nil on success.
		Err      error
		ExitCode types.ExitCode
		// RunIDs lists the identifier of every attempt in order.
		RunIDs []string
	}
)

// Run runs the pipeline of req, retrying it while the primary failure is a
// glue.RetryError, no module failed to clean up and retries are left.
func Run(ctx context.Context, req Request) Result {
	if req.Logger == nil {
		req.Logger = log.Default()
	}
	if req.Hook == nil {
		req.Hook = report.Nop{}
	}
	if req.Clock == nil {
		req.Clock = clockwork.NewRealClock()
	}

	var res Result
	attempt := func() error {
		res.Err = runOnce(ctx, req, len(res.RunIDs)+1, &res.RunIDs)
		if res.Err == nil {
			return nil
		}
		if !retryable(res.Err) {
			return backoff.Permanent(res.Err)
		}
		return res.Err
	}
	notify := func(_ error, delay time.Duration) {
		req.Logger.Warn("retrying pipeline", "attempt", len(res.RunIDs)+1, "of", req.Retries+1, "delay", delay)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(req.RetryDelay), uint64(max(req.Retries, 0))),
		ctx,
	)
	// The outcome is taken from res: Retry replaces the last failure with
	// the context error when ctx ends.
	_ = backoff.RetryNotify(attempt, policy, notify)

	res.ExitCode = ExitCodeOf(res.Err)
	outcome := outcomeOf(res.Err)
	if req.Metrics != nil {
		req.Metrics.RunFinished(outcome)
	}
	switch outcome {
	case metrics.OutcomeSuccess:
		req.Logger.Info("pipeline finished", "attempts", len(res.RunIDs))
	case metrics.OutcomeSoft:
		req.Logger.Warn("pipeline finished with a soft failure", "attempts", len(res.RunIDs))
	}
	return res
}

// runOnce runs one attempt and reports what it captured.
func runOnce(ctx context.Context, req Request, attempt int, runIDs *[]string) (err error) {
	var observers []pipeline.Observer
	if req.Metrics != nil {
		req.Metrics.AttemptStarted()
		observers = append(observers, req.Metrics)
	}
	if req.Tracer != nil {
		observers = append(observers, req.Tracer)
	}

	run := pipeline.New(req.Steps, pipeline.Options{
		Modules:   req.Modules,
		Config:    req.Config,
		Logger:    req.Logger,
		DryRun:    req.DryRun,
		Clock:     req.Clock,
		Environ:   req.Environ,
		Observers: observers,
	})
	*runIDs = append(*runIDs, run.ID())

	if req.Tracer != nil {
		var end func(error)
		ctx, end = req.Tracer.StartRun(ctx, run.ID(), attempt)
		defer func() { end(err) }()
	}

	req.Logger.Debug("starting pipeline", "run-id", run.ID(), "attempt", attempt, "modules", len(req.Steps))
	err = run.Execute(ctx)
	if err != nil {
		reportFailures(context.WithoutCancel(ctx), req, run.ID(), attempt, err)
	}
	return err
}

// reportFailures sends the primary failure and every destroy failure to the
// hook, each once.
func reportFailures(ctx context.Context, req Request, runID string, attempt int, err error) {
	var runErr *pipeline.RunError
	failures := []error{err}
	if errors.As(err, &runErr) {
		failures = append([]error{runErr.Primary}, runErr.Secondary...)
	}

	for _, failure := range failures {
		tags := glue.Tags(failure)
		tags[TagRunID] = runID
		tags[TagAttempt] = strconv.Itoa(attempt)
		tags[TagSoftError] = strconv.FormatBool(glue.IsSoft(failure))
		var pe *pipeline.PhaseError
		if errors.As(failure, &pe) {
			tags[TagModule] = pe.Module
			tags[TagPhase] = pe.Phase.String()
		}
		if hookErr := req.Hook.Report(ctx, failure, tags); hookErr != nil {
			req.Logger.Warn("failed to report failure", "err", hookErr)
		}
	}
}

// retryable reports whether a failed attempt may run again: its primary
// failure asks for it and every module was destroyed cleanly.
func retryable(err error) bool {
	var runErr *pipeline.RunError
	if !errors.As(err, &runErr) {
		return glue.IsRetry(err)
	}
	return len(runErr.Secondary) == 0 && glue.IsRetry(runErr.Primary)
}

// ExitCodeOf maps the outcome of a session to the process exit status. A
// soft primary failure still exits successfully.
func ExitCodeOf(err error) types.ExitCode {
	if outcomeOf(err) == metrics.OutcomeFailure {
		return types.ExitFailure
	}
	return types.ExitSuccess
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	primary := err
	var runErr *pipeline.RunError
	if errors.As(err, &runErr) {
		primary = runErr.Primary
	}
	if glue.IsSoft(primary) {
		return metrics.OutcomeSoft
	}
	return metrics.OutcomeFailure
}
