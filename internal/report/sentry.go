// SPDX-License-Identifier: MPL-2.0

package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/getsentry/sentry-go"
)

// DefaultFlushTimeout bounds how long Report waits for an event to be sent.
const DefaultFlushTimeout = 5 * time.Second

// ErrInvalidTagMap is returned when a tag map cannot be parsed.
var ErrInvalidTagMap = errors.New("invalid tag map")

type (
	// SentryOptions configures a SentryHook.
	SentryOptions struct {
		// BaseURL of the project on the Sentry server; when set, the URL of
		// every submitted event is logged.
		BaseURL string
		// TagMap maps tag names to environment variables whose values are
		// attached to every event. Unset variables are skipped.
		TagMap map[string]string
		// Getenv looks up TagMap variables. Defaults to os.Getenv.
		Getenv       func(string) string
		FlushTimeout time.Duration
		Logger       *log.Logger
	}

	// SentryHook submits failures to Sentry through its own hub, so that
	// concurrent runs never share a scope.
	SentryHook struct {
		hub  *sentry.Hub
		opts SentryOptions
	}
)

// NewSentryHook reports through client.
func NewSentryHook(client *sentry.Client, opts SentryOptions) *SentryHook {
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = DefaultFlushTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &SentryHook{hub: sentry.NewHub(client, sentry.NewScope()), opts: opts}
}

// Report captures err with the environment tags and tags. Tags given by the
// caller win over environment tags of the same name.
func (h *SentryHook) Report(_ context.Context, err error, tags map[string]string) error {
	var eventID *sentry.EventID
	h.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(h.environmentTags())
		scope.SetTags(tags)
		eventID = h.hub.CaptureException(err)
	})
	if !h.hub.Flush(h.opts.FlushTimeout) {
		return fmt.Errorf("sentry: event not delivered within %s", h.opts.FlushTimeout)
	}

	if eventID != nil {
		h.opts.Logger.Error("Submitted as Sentry issue.", "event", string(*eventID))
		if url := h.EventURL(string(*eventID)); url != "" {
			h.opts.Logger.Error("See " + url + " for details.")
		}
	}
	return nil
}

// EventURL returns the URL showing event on the Sentry server, or "" when no
// base URL is configured.
func (h *SentryHook) EventURL(event string) string {
	if h.opts.BaseURL == "" || event == "" {
		return ""
	}
	return strings.TrimSuffix(h.opts.BaseURL, "/") + "/?query=" + event
}

func (h *SentryHook) environmentTags() map[string]string {
	getenv := h.opts.Getenv
	if getenv == nil {
		getenv = lookupEnv
	}
	tags := make(map[string]string, len(h.opts.TagMap))
	for tag, envVar := range h.opts.TagMap {
		if value := getenv(envVar); value != "" {
			tags[tag] = value
		}
	}
	return tags
}

// ParseTagMap parses "tag=ENV_VAR" pairs separated by commas.
func ParseTagMap(s string) (map[string]string, error) {
	tags := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return tags, nil
	}
	for pair := range strings.SplitSeq(s, ",") {
		tag, envVar, ok := strings.Cut(pair, "=")
		tag, envVar = strings.TrimSpace(tag), strings.TrimSpace(envVar)
		if !ok || tag == "" || envVar == "" || strings.Contains(envVar, "=") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTagMap, pair)
		}
		tags[tag] = envVar
	}
	return tags, nil
}
