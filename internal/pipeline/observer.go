// SPDX-License-Identifier: MPL-2.0

package pipeline

import "context"

type (
	// Observer is notified around every module phase. ObservePhase returns
	// the context the phase runs with and a function called with the
	// phase's outcome once it returns.
	Observer interface {
		ObservePhase(ctx context.Context, module string, phase Phase) (context.Context, func(err error))
	}

	observers []Observer
)

// ObservePhase notifies every observer in order and finishes them in
// reverse order.
func (o observers) ObservePhase(ctx context.Context, module string, phase Phase) (context.Context, func(error)) {
	finish := make([]func(error), 0, len(o))
	for _, obs := range o {
		var done func(error)
		ctx, done = obs.ObservePhase(ctx, module, phase)
		finish = append(finish, done)
	}
	return ctx, func(err error) {
		for i := len(finish) - 1; i >= 0; i-- {
			finish[i](err)
		}
	}
}
