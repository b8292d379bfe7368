// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/getsentry/sentry-go"
)

// Environment variables enabling the hooks.
const (
	EnvSentryDSN         = "SENTRY_DSN"
	EnvSentryBaseURL     = "SENTRY_BASE_URL"
	EnvSentryTagMap      = "SENTRY_TAG_MAP"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSlackWebhookURL   = "SLACK_WEBHOOK_URL"
	EnvSlackChannel      = "SLACK_CHANNEL"
)

var lookupEnv = os.Getenv

// FromEnv assembles the hooks enabled by the environment. Failures are always
// logged; Sentry and Slack are added when their variables are set. A nil
// getenv means os.Getenv.
func FromEnv(getenv func(string) string, logger *log.Logger, release string) (Hook, error) {
	if getenv == nil {
		getenv = lookupEnv
	}
	hooks := Multi{LogHook{Logger: logger}}

	if dsn := getenv(EnvSentryDSN); dsn != "" {
		tagMap, err := ParseTagMap(getenv(EnvSentryTagMap))
		if err != nil {
			return nil, fmt.Errorf("cannot parse %s: %w", EnvSentryTagMap, err)
		}
		client, err := sentry.NewClient(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: getenv(EnvSentryEnvironment),
			Release:     release,
		})
		if err != nil {
			return nil, fmt.Errorf("cannot create Sentry client: %w", err)
		}
		hooks = append(hooks, NewSentryHook(client, SentryOptions{
			BaseURL: getenv(EnvSentryBaseURL),
			TagMap:  tagMap,
			Getenv:  getenv,
			Logger:  logger,
		}))
	}

	if url := getenv(EnvSlackWebhookURL); url != "" {
		hooks = append(hooks, NewSlackHook(url, getenv(EnvSlackChannel)))
	}

	return hooks, nil
}
