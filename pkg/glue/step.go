// SPDX-License-Identifier: MPL-2.0

package glue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidInvocation is the sentinel error wrapped by InvalidInvocationError.
var ErrInvalidInvocation = errors.New("invalid module invocation")

type (
	// Step is one requested module invocation of a pipeline.
	Step struct {
		// Alias is the configuration namespace and owner identity of the step.
		Alias string
		// Module is the declared name of the module to instantiate.
		Module string
		// Argv holds the module's command-line option tokens.
		Argv []string
	}

	// InvalidInvocationError is returned for malformed "alias:module" tokens.
	InvalidInvocationError struct {
		Token string
	}
)

// ParseInvocation parses "module" or "alias:module".
// Without a colon the alias is the module name itself.
func ParseInvocation(token string) (Step, error) {
	alias, module, found := strings.Cut(token, ":")
	if !found {
		module = alias
	}
	if alias == "" || module == "" || strings.Contains(module, ":") {
		return Step{}, &InvalidInvocationError{Token: token}
	}
	return Step{Alias: alias, Module: module}, nil
}

// MustParseInvocation is like ParseInvocation but panics on error.
func MustParseInvocation(token string, argv ...string) Step {
	s, err := ParseInvocation(token)
	if err != nil {
		panic(err)
	}
	s.Argv = argv
	return s
}

// Aliased reports whether the step runs under a name other than its module's.
func (s Step) Aliased() bool { return s.Alias != s.Module }

// Invocation returns the token that produces s.
func (s Step) Invocation() string {
	if s.Aliased() {
		return s.Alias + ":" + s.Module
	}
	return s.Module
}

// Tokens returns the invocation token followed by the step's argv.
func (s Step) Tokens() []string {
	return append([]string{s.Invocation()}, slices.Clone(s.Argv)...)
}

// Error implements the error interface.
func (e *InvalidInvocationError) Error() string {
	return fmt.Sprintf("invalid module invocation %q (expected 'module' or 'alias:module')", e.Token)
}

// Unwrap returns ErrInvalidInvocation for errors.Is() compatibility.
func (e *InvalidInvocationError) Unwrap() error { return ErrInvalidInvocation }
