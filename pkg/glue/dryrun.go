// SPDX-License-Identifier: MPL-2.0

package glue

import "fmt"

const (
	// DryRunDefault is a regular run; every action is performed.
	DryRunDefault DryRunLevel = iota
	// DryRunDry performs read-only actions and skips the rest.
	DryRunDry
	// DryRunIsolated does not even perform actions reaching outside the host.
	DryRunIsolated
)

// DryRunLevel orders how much a run is allowed to do.
type DryRunLevel int

// IsValid reports whether l is a known level.
func (l DryRunLevel) IsValid() bool {
	return l >= DryRunDefault && l <= DryRunIsolated
}

// Supports reports whether a module whose highest supported level is l can
// run at the requested level.
func (l DryRunLevel) Supports(requested DryRunLevel) bool {
	return requested <= l
}

// Dry reports whether l skips actions with side effects.
func (l DryRunLevel) Dry() bool { return l >= DryRunDry }

// String implements fmt.Stringer.
func (l DryRunLevel) String() string {
	switch l {
	case DryRunDefault:
		return "default"
	case DryRunDry:
		return "dry"
	case DryRunIsolated:
		return "isolated"
	default:
		return fmt.Sprintf("DryRunLevel(%d)", int(l))
	}
}

// ParseDryRunLevel parses the String form of a level.
func ParseDryRunLevel(s string) (DryRunLevel, error) {
	switch s {
	case "", "default":
		return DryRunDefault, nil
	case "dry":
		return DryRunDry, nil
	case "isolated":
		return DryRunIsolated, nil
	default:
		return DryRunDefault, fmt.Errorf("unknown dry-run level %q (expected default, dry or isolated)", s)
	}
}
