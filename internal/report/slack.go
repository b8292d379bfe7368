// SPDX-License-Identifier: MPL-2.0

package report

import (
	"context"
	"maps"
	"slices"

	"github.com/slack-go/slack"
)

// SlackHook posts failures to a Slack incoming webhook.
type SlackHook struct {
	url     string
	channel string
}

// NewSlackHook posts to the webhook at url. An empty channel uses the
// webhook's default channel.
func NewSlackHook(url, channel string) *SlackHook {
	return &SlackHook{url: url, channel: channel}
}

// Report posts err with one attachment field per tag.
func (h *SlackHook) Report(ctx context.Context, err error, tags map[string]string) error {
	fields := make([]slack.AttachmentField, 0, len(tags))
	for _, key := range slices.Sorted(maps.Keys(tags)) {
		fields = append(fields, slack.AttachmentField{Title: key, Value: tags[key], Short: true})
	}
	msg := &slack.WebhookMessage{
		Channel: h.channel,
		Text:    "Pipeline failed: " + err.Error(),
		Attachments: []slack.Attachment{{
			Color:  "danger",
			Fields: fields,
		}},
	}
	return slack.PostWebhookContext(ctx, h.url, msg)
}
