// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"maps"
	"slices"

	"github.com/gluepipe/gluepipe/pkg/glue"
)

type (
	// Resolver resolves the option values of a namespace. *config.Store
	// implements it.
	Resolver interface {
		Resolve(ctx context.Context, namespace string, schema []glue.Option, cli map[string]any) (glue.Values, error)
	}

	// Registry holds the discovered modules of a session, addressable by any
	// of their declared names.
	Registry struct {
		descs  []glue.Descriptor
		byName map[string]int
	}

	// Instance is a module instantiated for one step of a run: bound to its
	// invocation alias, with its options resolved.
	Instance struct {
		// Alias is the invocation name: configuration namespace, shared
		// function owner and log prefix.
		Alias string
		// Module is the declared name the step asked for.
		Module string
		// Ordinal is the position of the instance among those constructed by
		// the run, counting nested runs. The run assigns it at construction.
		Ordinal    int
		Descriptor glue.Descriptor
		Options    glue.Values
	}
)

// New creates a registry. Two descriptors declaring the same name is an error.
func New(descs ...glue.Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]int)}
	for _, d := range descs {
		idx := len(r.descs)
		for _, name := range d.Names {
			if other, exists := r.byName[name]; exists {
				return nil, &DuplicateModuleNameError{Name: name, First: r.descs[other].Name(), Second: d.Name()}
			}
			r.byName[name] = idx
		}
		r.descs = append(r.descs, d.Clone())
	}
	return r, nil
}

// Lookup returns a copy of the descriptor declaring name.
func (r *Registry) Lookup(name string) (glue.Descriptor, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return glue.Descriptor{}, false
	}
	return r.descs[idx].Clone(), true
}

// Has reports whether a module declares name.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns every declared name, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.byName))
}

// Descriptors returns copies of all descriptors sorted by primary name.
func (r *Registry) Descriptors() []glue.Descriptor {
	out := make([]glue.Descriptor, len(r.descs))
	for i := range r.descs {
		out[i] = r.descs[i].Clone()
	}
	slices.SortFunc(out, func(a, b glue.Descriptor) int {
		switch {
		case a.Name() < b.Name():
			return -1
		case a.Name() > b.Name():
			return 1
		default:
			return 0
		}
	})
	return out
}

// Instantiate resolves a single step. See InstantiateAll.
func (r *Registry) Instantiate(ctx context.Context, res Resolver, step glue.Step) (*Instance, error) {
	insts, err := r.InstantiateAll(ctx, res, nil, step)
	if err != nil {
		return nil, err
	}
	return insts[0], nil
}

// InstantiateAll resolves steps into instances. Every step is checked for an
// unknown module or an alias already in use (by an earlier step or by taken)
// before any configuration is read; then each step's argv is parsed and its
// options are resolved under its alias.
func (r *Registry) InstantiateAll(ctx context.Context, res Resolver, taken []string, steps ...glue.Step) ([]*Instance, error) {
	seen := make(map[string]bool, len(taken)+len(steps))
	for _, alias := range taken {
		seen[alias] = true
	}

	descs := make([]glue.Descriptor, len(steps))
	for i, step := range steps {
		d, ok := r.Lookup(step.Module)
		if !ok {
			return nil, &UnknownModuleError{Name: step.Module}
		}
		if seen[step.Alias] {
			return nil, &DuplicateAliasError{Alias: step.Alias}
		}
		seen[step.Alias] = true
		descs[i] = d
	}

	insts := make([]*Instance, len(steps))
	for i, step := range steps {
		cli, err := ParseArgs(&descs[i], step.Alias, step.Argv)
		if err != nil {
			return nil, err
		}
		values, err := res.Resolve(ctx, step.Alias, descs[i].Options, cli)
		if err != nil {
			return nil, err
		}
		insts[i] = &Instance{
			Alias:      step.Alias,
			Module:     step.Module,
			Descriptor: descs[i],
			Options:    values,
		}
	}
	return insts, nil
}

// MissingRequired returns the required options resolving to Unset.
func (i *Instance) MissingRequired() []string {
	var missing []string
	for _, key := range i.Descriptor.Required {
		if !i.Options.IsSet(key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// CheckRequired fails when a required option resolved to Unset.
func (i *Instance) CheckRequired() error {
	if missing := i.MissingRequired(); len(missing) > 0 {
		return &RequiredOptionMissingError{Module: i.Alias, Options: missing}
	}
	return nil
}
