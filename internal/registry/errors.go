// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownModule is the sentinel error wrapped by UnknownModuleError.
	ErrUnknownModule = errors.New("unknown module")
	// ErrDuplicateAlias is the sentinel error wrapped by DuplicateAliasError.
	ErrDuplicateAlias = errors.New("duplicate module alias")
	// ErrDuplicateModuleName is the sentinel error wrapped by DuplicateModuleNameError.
	ErrDuplicateModuleName = errors.New("duplicate module name")
	// ErrRequiredOptionMissing is the sentinel error wrapped by RequiredOptionMissingError.
	ErrRequiredOptionMissing = errors.New("required option missing")
	// ErrInvalidArguments is the sentinel error wrapped by ArgumentError.
	ErrInvalidArguments = errors.New("invalid module arguments")
)

type (
	// UnknownModuleError is returned when a step names no discovered module.
	UnknownModuleError struct {
		Name string
	}

	// DuplicateAliasError is returned when two steps of one run share an alias.
	DuplicateAliasError struct {
		Alias string
	}

	// DuplicateModuleNameError is returned when two descriptors claim one name.
	DuplicateModuleNameError struct {
		Name   string
		First  string
		Second string
	}

	// RequiredOptionMissingError lists required options resolving to Unset.
	RequiredOptionMissingError struct {
		Module  string
		Options []string
	}

	// ArgumentError is returned when a step's argv does not parse.
	ArgumentError struct {
		Module string
		Err    error
	}
)

// Error implements the error interface.
func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("no such module %q", e.Name)
}

// Unwrap returns ErrUnknownModule for errors.Is() compatibility.
func (e *UnknownModuleError) Unwrap() error { return ErrUnknownModule }

// Error implements the error interface.
func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("module alias %q is used more than once in the pipeline", e.Alias)
}

// Unwrap returns ErrDuplicateAlias for errors.Is() compatibility.
func (e *DuplicateAliasError) Unwrap() error { return ErrDuplicateAlias }

// Error implements the error interface.
func (e *DuplicateModuleNameError) Error() string {
	return fmt.Sprintf("module name %q is declared by both %s and %s", e.Name, e.First, e.Second)
}

// Unwrap returns ErrDuplicateModuleName for errors.Is() compatibility.
func (e *DuplicateModuleNameError) Unwrap() error { return ErrDuplicateModuleName }

// Error implements the error interface.
func (e *RequiredOptionMissingError) Error() string {
	return fmt.Sprintf("module %q: required options not set: %s", e.Module, strings.Join(e.Options, ", "))
}

// Unwrap returns ErrRequiredOptionMissing for errors.Is() compatibility.
func (e *RequiredOptionMissingError) Unwrap() error { return ErrRequiredOptionMissing }

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Err)
}

// Unwrap returns ErrInvalidArguments together with the cause.
func (e *ArgumentError) Unwrap() []error { return []error{ErrInvalidArguments, e.Err} }
