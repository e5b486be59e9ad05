package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/tinyland-inc/picolog/pkg/bot"
)

// Help renders an embed listing every registered command grouped by section.
type Help struct{}

func (Help) Help() []bot.CommandHelp {
	return []bot.CommandHelp{{
		Name:        "help",
		Section:     bot.SectionGeneral,
		Description: "Show this command overview",
	}}
}

func (Help) Receive(_ context.Context, b *bot.Bot, msg *discordgo.Message) (string, error) {
	if _, err := b.Match(msg, "help"); err != nil {
		return "", err
	}

	if _, err := b.Rest.ChannelMessageSendEmbed(msg.ChannelID, HelpEmbed(b)); err != nil {
		return "", fmt.Errorf("send help: %w", err)
	}
	return "", nil
}

// HelpEmbed builds the command overview from the registry. Sections with no
// commands are omitted.
func HelpEmbed(b *bot.Bot) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "picolog command help",
		Description: fmt.Sprintf("Type `%shelp [command]` for detailed usage information", b.Prefix()),
	}

	for _, section := range bot.Sections() {
		var names []string
		for _, cmd := range b.Commands() {
			for _, help := range cmd.Help() {
				if help.Section == section {
					names = append(names, fmt.Sprintf("`%s`", help.Name))
				}
			}
		}
		if len(names) == 0 {
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  section.String(),
			Value: strings.Join(names, ", "),
		})
	}

	return embed
}
