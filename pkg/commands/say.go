package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/tinyland-inc/picolog/pkg/bot"
)

// Say echoes its argument text back to the channel.
type Say struct{}

func (Say) Help() []bot.CommandHelp {
	return []bot.CommandHelp{{
		Name:        "say",
		Section:     bot.SectionGeneral,
		Description: "Repeat the given text",
		Usage:       "say <text>",
	}}
}

func (Say) Receive(_ context.Context, b *bot.Bot, msg *discordgo.Message) (string, error) {
	args, err := b.Match(msg, "say")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("you said \"%s\"", args), nil
}
