// Package discord implements a notify.Channel posting staff alerts to a
// Discord channel.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rhavy/Softrha-2.0-sub002/internal/notify"
)

// session abstracts the discordgo methods we use, enabling test mocks.
type session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Channel posts notifications to a single Discord channel.
type Channel struct {
	session   session
	channelID string
}

// New creates a Discord channel from a bot token and target channel ID.
func New(token, channelID string) (*Channel, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return &Channel{session: s, channelID: channelID}, nil
}

func (c *Channel) Name() string { return "discord" }

// Send posts the message as an embed.
func (c *Channel) Send(ctx context.Context, msg notify.Message) error {
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Body,
	}
	if _, err := c.session.ChannelMessageSendEmbed(c.channelID, embed); err != nil {
		return fmt.Errorf("post to %s: %w", c.channelID, err)
	}
	return nil
}
