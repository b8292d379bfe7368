// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gluepipe/gluepipe/pkg/glue"
)

var (
	// ErrDryRunNotSupported is the sentinel error wrapped by DryRunNotSupportedError.
	ErrDryRunNotSupported = errors.New("dry-run level not supported")
	// ErrSharedNotRegistered is the sentinel error wrapped by SharedNotRegisteredError.
	ErrSharedNotRegistered = errors.New("declared shared function not registered")
	// ErrInterrupted is returned when the run's context is done between phases.
	ErrInterrupted = errors.New("pipeline interrupted")
)

type (
	// PhaseError is a failure raised by a module during one of its phases.
	PhaseError struct {
		Phase  Phase
		Module string
		Err    error
	}

	// RunError is the terminal failure of a run: the primary failure of the
	// sanity or execute phases plus the failures collected while destroying.
	RunError struct {
		// Primary is the first failure. When only destroy failed, it is the
		// first destroy failure.
		Primary error
		// Secondary holds the remaining destroy failures, in destroy order.
		Secondary []error
	}

	// DryRunNotSupportedError is returned when a module cannot run at the
	// requested dry-run level.
	DryRunNotSupportedError struct {
		Module    string
		Supported glue.DryRunLevel
		Requested glue.DryRunLevel
	}

	// SharedNotRegisteredError is returned when a module finished executing
	// without registering the shared functions its descriptor declares.
	SharedNotRegisteredError struct {
		Module string
		Names  []string
	}
)

// Error implements the error interface.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s of %q failed: %v", e.Phase, e.Module, e.Err)
}

// Unwrap returns the module's error.
func (e *PhaseError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *RunError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Primary.Error())
	if len(e.Secondary) > 0 {
		fmt.Fprintf(&sb, "\nadditionally, %d failure(s) while destroying modules:", len(e.Secondary))
		for _, err := range e.Secondary {
			sb.WriteString("\n  - ")
			sb.WriteString(err.Error())
		}
	}
	return sb.String()
}

// Unwrap returns the primary failure followed by the secondary ones.
func (e *RunError) Unwrap() []error {
	return append([]error{e.Primary}, e.Secondary...)
}

// Module returns the alias of the module that raised the primary failure,
// or "" when the failure did not come from a module phase.
func (e *RunError) Module() string {
	var pe *PhaseError
	if errors.As(e.Primary, &pe) {
		return pe.Module
	}
	return ""
}

// Phase returns the phase of the primary failure and whether it is known.
func (e *RunError) Phase() (Phase, bool) {
	var pe *PhaseError
	if errors.As(e.Primary, &pe) {
		return pe.Phase, true
	}
	return PhaseCreated, false
}

// Failure returns the primary failure in the form given to Destroy.
func (e *RunError) Failure() *glue.Failure {
	return &glue.Failure{Module: e.Module(), Err: e.Primary}
}

// Error implements the error interface.
func (e *DryRunNotSupportedError) Error() string {
	return fmt.Sprintf("module %q does not support dry-run level %s (supports up to %s)", e.Module, e.Requested, e.Supported)
}

// Unwrap returns ErrDryRunNotSupported for errors.Is() compatibility.
func (e *DryRunNotSupportedError) Unwrap() error { return ErrDryRunNotSupported }

// Error implements the error interface.
func (e *SharedNotRegisteredError) Error() string {
	return fmt.Sprintf("module %q did not register declared shared function(s): %s", e.Module, strings.Join(e.Names, ", "))
}

// Unwrap returns ErrSharedNotRegistered for errors.Is() compatibility.
func (e *SharedNotRegisteredError) Unwrap() error { return ErrSharedNotRegistered }
