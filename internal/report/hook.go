// SPDX-License-Identifier: MPL-2.0

package report

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
)

type (
	// Hook reports a failure. Implementations must not retain tags.
	Hook interface {
		Report(ctx context.Context, err error, tags map[string]string) error
	}

	// Nop discards every failure.
	Nop struct{}

	// LogHook logs every failure at debug level with its tags.
	LogHook struct {
		Logger *log.Logger
	}

	// Multi reports to every hook in order.
	Multi []Hook
)

// Report does nothing.
func (Nop) Report(context.Context, error, map[string]string) error { return nil }

// Report logs err and tags.
func (h LogHook) Report(_ context.Context, err error, tags map[string]string) error {
	logger := h.Logger
	if logger == nil {
		logger = log.Default()
	}
	kv := make([]any, 0, 2*len(tags)+2)
	kv = append(kv, "err", err)
	for _, key := range slices.Sorted(maps.Keys(tags)) {
		kv = append(kv, key, tags[key])
	}
	logger.Debug("Reporting failure.", kv...)
	return nil
}

// Report calls every hook, even after one of them failed, and joins their
// errors.
func (m Multi) Report(ctx context.Context, err error, tags map[string]string) error {
	var errs []error
	for _, h := range m {
		if rerr := h.Report(ctx, err, maps.Clone(tags)); rerr != nil {
			errs = append(errs, rerr)
		}
	}
	return errors.Join(errs...)
}
