// SPDX-License-Identifier: MPL-2.0

package pipeline

import "fmt"

const (
	// PhaseCreated covers instantiation and construction of the modules.
	PhaseCreated Phase = iota
	// PhaseSanity runs every module's sanity check in pipeline order.
	PhaseSanity
	// PhaseExecuting runs every module's execute phase in pipeline order.
	PhaseExecuting
	// PhaseDestroying destroys every constructed module in reverse order.
	PhaseDestroying
	// PhaseDone is reached once the destroy pass has completed.
	PhaseDone
	// PhaseFailed is entered when a failure has been captured.
	PhaseFailed
)

// Phase is a state of a pipeline run.
type Phase int

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "create"
	case PhaseSanity:
		return "sanity"
	case PhaseExecuting:
		return "execute"
	case PhaseDestroying:
		return "destroy"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

