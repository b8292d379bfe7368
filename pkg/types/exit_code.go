// SPDX-License-Identifier: MPL-2.0

// Package types defines value types shared by the CLI and the packages it
// drives. It imports only the standard library.
package types

import (
	"errors"
	"fmt"
	"strconv"
)

// Exit statuses of the gluepipe command.
const (
	// ExitSuccess also covers runs that ended in a soft failure.
	ExitSuccess ExitCode = 0
	// ExitFailure reports any captured failure.
	ExitFailure ExitCode = 1
	// ExitNoModules reports a command line without a single module.
	ExitNoModules ExitCode = 2
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is a process exit status in the POSIX range 0-255.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside 0-255.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode for errors.Is() compatibility.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// IsValid returns whether the ExitCode is in the range 0-255.
func (c ExitCode) IsValid() (bool, []error) {
	if c < 0 || c > 255 {
		return false, []error{&InvalidExitCodeError{Value: c}}
	}
	return true, nil
}

// IsSuccess returns true if the exit code indicates success.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// String returns the decimal representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
