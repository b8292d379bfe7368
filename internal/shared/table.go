// SPDX-License-Identifier: MPL-2.0

// Package shared implements the per-run table of shared functions.
//
// Every function name maps to a stack of registrations. A plain call invokes
// the top of the stack; an overloaded call made on behalf of an owner invokes
// the registration just below that owner's own, which lets a module chain to
// the implementation it shadows.
package shared

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/gluepipe/gluepipe/pkg/glue"
)

var (
	// ErrUnknownFunction is the sentinel error wrapped by UnknownFunctionError.
	ErrUnknownFunction = errors.New("unknown shared function")
	// ErrNoOverloadedFunction is the sentinel error wrapped by NoOverloadedFunctionError.
	ErrNoOverloadedFunction = errors.New("no overloaded shared function")
)

type (
	// Entry is one registration of a shared function.
	Entry struct {
		Owner string
		Fn    glue.SharedFunc
	}

	// Table maps function names to their registration stacks. A Table
	// belongs to a single run and is not safe for concurrent use.
	Table struct {
		stacks map[string][]Entry
	}

	// UnknownFunctionError is returned when no module registered Name.
	UnknownFunctionError struct {
		Name string
	}

	// NoOverloadedFunctionError is returned when Owner has no registration
	// for Name, or when its registration is the bottom of the stack.
	NoOverloadedFunctionError struct {
		Name  string
		Owner string
	}
)

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{stacks: make(map[string][]Entry)}
}

// Register pushes fn on the stack of name. Registering the same name twice
// for one owner pushes a second entry owned by it.
func (t *Table) Register(name, owner string, fn glue.SharedFunc) {
	t.stacks[name] = append(t.stacks[name], Entry{Owner: owner, Fn: fn})
}

// Has reports whether name has at least one registration.
func (t *Table) Has(name string) bool {
	return len(t.stacks[name]) > 0
}

// Require fails with UnknownFunctionError for the first unregistered name.
func (t *Table) Require(names ...string) error {
	for _, name := range names {
		if !t.Has(name) {
			return &UnknownFunctionError{Name: name}
		}
	}
	return nil
}

// Names returns the registered function names, sorted.
func (t *Table) Names() []string {
	return slices.Sorted(maps.Keys(t.stacks))
}

// Owners returns the owners of name's registrations, bottom first.
func (t *Table) Owners(name string) []string {
	stack := t.stacks[name]
	owners := make([]string, len(stack))
	for i, e := range stack {
		owners[i] = e.Owner
	}
	return owners
}

// Stack returns a copy of name's registrations, bottom first.
func (t *Table) Stack(name string) []Entry {
	return slices.Clone(t.stacks[name])
}

// Call invokes the most recent registration of name. Errors returned by the
// function itself are passed through untouched.
func (t *Table) Call(ctx context.Context, name string, args ...any) (any, error) {
	stack := t.stacks[name]
	if len(stack) == 0 {
		return nil, &UnknownFunctionError{Name: name}
	}
	return stack[len(stack)-1].Fn(ctx, args...)
}

// CallOverloaded invokes the registration of name immediately below the
// topmost registration made by owner.
func (t *Table) CallOverloaded(ctx context.Context, name, owner string, args ...any) (any, error) {
	stack := t.stacks[name]
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Owner != owner {
			continue
		}
		if i == 0 {
			break
		}
		return stack[i-1].Fn(ctx, args...)
	}
	return nil, &NoOverloadedFunctionError{Name: name, Owner: owner}
}

// Error implements the error interface.
func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("no such shared function %q", e.Name)
}

// Unwrap returns ErrUnknownFunction for errors.Is() compatibility.
func (e *UnknownFunctionError) Unwrap() error { return ErrUnknownFunction }

// Error implements the error interface.
func (e *NoOverloadedFunctionError) Error() string {
	return fmt.Sprintf("shared function %q has no registration below the one of %q", e.Name, e.Owner)
}

// Unwrap returns ErrNoOverloadedFunction for errors.Is() compatibility.
func (e *NoOverloadedFunctionError) Unwrap() error { return ErrNoOverloadedFunction }
