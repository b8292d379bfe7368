// SPDX-License-Identifier: MPL-2.0

// Package report delivers captured pipeline failures to external services.
//
// A Hook receives every captured failure once, at the end of a run, together
// with free-form string tags. Which hooks are active is decided by the
// environment: SENTRY_DSN enables Sentry and SLACK_WEBHOOK_URL enables Slack
// notifications. With neither set, failures are only logged.
package report
