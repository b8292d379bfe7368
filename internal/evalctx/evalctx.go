// SPDX-License-Identifier: MPL-2.0

// Package evalctx merges the evaluation-context mappings contributed by the
// modules of a run into one flat mapping.
package evalctx

import (
	"maps"
	"slices"
	"strings"
)

// EnvKey is the variable holding the process environment.
const EnvKey = "ENV"

type (
	// Contributor provides one evaluation-context mapping.
	Contributor interface {
		EvalContext() map[string]any
	}

	// ContributorFunc adapts a function to the Contributor interface.
	ContributorFunc func() map[string]any
)

// EvalContext calls f.
func (f ContributorFunc) EvalContext() map[string]any { return f() }

// Collect merges the contributions in order into a fresh map. A key
// contributed more than once takes the value of the last contributor.
// Nil contributors and nil mappings contribute nothing.
func Collect(contributors ...Contributor) map[string]any {
	merged := make(map[string]any)
	for _, c := range contributors {
		if c == nil {
			continue
		}
		maps.Copy(merged, c.EvalContext())
	}
	return merged
}

// Environ returns a contributor exposing environ ("KEY=value" entries, as
// returned by os.Environ) under EnvKey.
func Environ(environ []string) Contributor {
	return ContributorFunc(func() map[string]any {
		env := make(map[string]string, len(environ))
		for _, kv := range environ {
			if k, v, ok := strings.Cut(kv, "="); ok {
				env[k] = v
			}
		}
		return map[string]any{EnvKey: env}
	})
}

// Keys returns the sorted keys of ctx.
func Keys(ctx map[string]any) []string {
	return slices.Sorted(maps.Keys(ctx))
}
