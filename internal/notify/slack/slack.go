// Package slack implements a notify.Channel posting staff alerts to a
// Slack channel.
package slack

import (
	"context"
	"fmt"

	"github.com/rhavy/Softrha-2.0-sub002/internal/notify"
	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Channel posts notifications to a single Slack channel.
type Channel struct {
	client  slackClient
	channel string
}

// New creates a Slack channel from a bot token and target channel.
func New(token, channel string) *Channel {
	return &Channel{client: slackapi.New(token), channel: channel}
}

func (c *Channel) Name() string { return "slack" }

// Send posts the message as a single attachment.
func (c *Channel) Send(ctx context.Context, msg notify.Message) error {
	attachment := slackapi.Attachment{
		Title: msg.Title,
		Text:  msg.Body,
		Color: colorFor(msg.Category),
	}
	_, _, err := c.client.PostMessageContext(ctx, c.channel,
		slackapi.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("post to %s: %w", c.channel, err)
	}
	return nil
}

// colorFor picks the attachment sidebar color by category.
func colorFor(category string) string {
	switch category {
	case "payment":
		return "#36a64f"
	case "delivery":
		return "#439fe0"
	case "reconcile":
		return "#e0a800"
	default:
		return "#cccccc"
	}
}
