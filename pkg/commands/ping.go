// Package commands holds the built-in command handlers.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tinyland-inc/picolog/pkg/bot"
)

// Ping measures the round trip of a message send and reports it.
type Ping struct{}

func (Ping) Help() []bot.CommandHelp {
	return []bot.CommandHelp{{
		Name:        "ping",
		Section:     bot.SectionGeneral,
		Description: "Measure the bot's response time",
	}}
}

func (Ping) Receive(_ context.Context, b *bot.Bot, msg *discordgo.Message) (string, error) {
	if _, err := b.Match(msg, "ping"); err != nil {
		return "", err
	}

	start := time.Now()
	sent, err := b.Rest.ChannelMessageSend(msg.ChannelID, "Pong!")
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	latency := time.Since(start).Milliseconds()
	if _, err := b.Rest.ChannelMessageEdit(sent.ChannelID, sent.ID, fmt.Sprintf("Pong! - `%dms`", latency)); err != nil {
		return "", fmt.Errorf("update message: %w", err)
	}

	return "", nil
}
