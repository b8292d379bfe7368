// SPDX-License-Identifier: MPL-2.0

package glue

import (
	"errors"
	"maps"
)

type (
	// Failure describes the primary failure of a run, as given to Destroy.
	Failure struct {
		// Module is the alias of the failing module; empty when the failure
		// did not come from a module phase.
		Module string
		Err    error
	}

	// SoftError marks a failure the user can fix on their own, such as bad
	// input. A run whose primary failure is soft still exits successfully.
	SoftError struct {
		Err error
	}

	// RetryError asks the driver to run the whole pipeline again.
	RetryError struct {
		Err error
	}

	taggedError struct {
		err  error
		tags map[string]string
	}
)

// Soft reports whether the failure is a soft error.
func (f *Failure) Soft() bool {
	return f != nil && IsSoft(f.Err)
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Module == "" {
		return f.Err.Error()
	}
	return f.Module + ": " + f.Err.Error()
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error { return f.Err }

// Soft wraps err as a SoftError.
func Soft(err error) error {
	if err == nil {
		return nil
	}
	return &SoftError{Err: err}
}

// IsSoft reports whether err's chain contains a SoftError.
func IsSoft(err error) bool {
	var se *SoftError
	return errors.As(err, &se)
}

// Error implements the error interface.
func (e *SoftError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *SoftError) Unwrap() error { return e.Err }

// Retry wraps err as a RetryError.
func Retry(err error) error {
	if err == nil {
		return nil
	}
	return &RetryError{Err: err}
}

// IsRetry reports whether err's chain contains a RetryError.
func IsRetry(err error) bool {
	var re *RetryError
	return errors.As(err, &re)
}

// Error implements the error interface.
func (e *RetryError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *RetryError) Unwrap() error { return e.Err }

// WithTags attaches failure-report tags to err.
func WithTags(err error, tags map[string]string) error {
	if err == nil {
		return nil
	}
	return &taggedError{err: err, tags: maps.Clone(tags)}
}

func (e *taggedError) Error() string { return e.err.Error() }

func (e *taggedError) Unwrap() error { return e.err }

// Tags collects the tags attached anywhere in err's chain, joined errors
// included. Tags closer to the top of the chain win.
func Tags(err error) map[string]string {
	tags := make(map[string]string)
	collectTags(err, tags)
	return tags
}

func collectTags(err error, into map[string]string) {
	if err == nil {
		return
	}
	if te, ok := err.(*taggedError); ok {
		for k, v := range te.tags {
			if _, seen := into[k]; !seen {
				into[k] = v
			}
		}
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		collectTags(u.Unwrap(), into)
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			collectTags(e, into)
		}
	}
}
