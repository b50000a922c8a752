// Package slack implements the notify courier Adapter for Slack.
package slack

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/pitstop/internal/notify"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter implements notify.Adapter for Slack.
type Adapter struct {
	client    slackClient
	channelID string
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post alerts to
}

// NewAdapter creates a Slack courier adapter.
func NewAdapter(opts AdapterOpts) (*Adapter, error) {
	if opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel ID is required")
	}
	return &Adapter{
		client:    slackapi.New(opts.BotToken),
		channelID: opts.ChannelID,
	}, nil
}

// Send posts the alert as an attachment to the configured channel.
func (a *Adapter) Send(ctx context.Context, alert notify.Alert) error {
	att := slackapi.Attachment{
		Title: alert.Title,
		Text:  alert.Body,
		Color: severityColor(alert.Severity),
	}
	if alert.TaskID != "" {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: "Task",
			Value: alert.TaskID,
			Short: true,
		})
	}
	if _, _, err := a.client.PostMessage(a.channelID, slackapi.MsgOptionAttachments(att)); err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// Close is a no-op; the Slack web API client holds no connection.
func (a *Adapter) Close() error { return nil }

// severityColor maps alert severity to a Slack sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return "#36a64f"
	case "warning":
		return "#e8a317"
	default:
		return "#439fe0"
	}
}
