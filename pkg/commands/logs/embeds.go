package logs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tinyland-inc/picolog/pkg/auditlog"
	"github.com/tinyland-inc/picolog/pkg/bot"
)

func (l *Logs) updateEmbed(b *bot.Bot, snap *auditlog.Snapshot, newContent string, logChannel uint64) (*discordgo.MessageEmbed, error) {
	ch, guild, err := channelAndGuild(b, logChannel)
	if err != nil {
		return nil, err
	}

	return &discordgo.MessageEmbed{
		Title:     "Message Update",
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: avatarURL(snap.Author)},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text:    guild.Name,
			IconURL: guildIconURL(guild),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: userField(snap.Author)},
			{Name: "Channel", Value: channelField(ch)},
			{Name: "Old content", Value: orPlaceholder(snap.Content)},
			{Name: "New content", Value: orPlaceholder(newContent)},
		},
	}, nil
}

func (l *Logs) deleteEmbed(b *bot.Bot, snap *auditlog.Snapshot, logChannel uint64) (*discordgo.MessageEmbed, error) {
	ch, guild, err := channelAndGuild(b, logChannel)
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title:     "Message Deleted",
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: avatarURL(snap.Author)},
		Timestamp: auditlog.SnowflakeTime(snap.ID).Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text:    guild.Name,
			IconURL: guildIconURL(guild),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: userField(snap.Author)},
			{Name: "Channel", Value: channelField(ch)},
		},
	}

	if snap.Content != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Deleted content",
			Value: snap.Content,
		})
	}

	return embed, nil
}

// channelAndGuild resolves the log channel and its guild from the cache.
func channelAndGuild(b *bot.Bot, channelID uint64) (*discordgo.Channel, *discordgo.Guild, error) {
	id := strconv.FormatUint(channelID, 10)
	ch, ok := b.Cache.GuildChannel(id)
	if !ok {
		return nil, nil, fmt.Errorf("channel not found in cache: %s", id)
	}
	if ch.GuildID == "" {
		return nil, nil, fmt.Errorf("channel doesn't contain guild id: %s", id)
	}
	guild, ok := b.Cache.Guild(ch.GuildID)
	if !ok {
		return nil, nil, fmt.Errorf("guild not found in cache: %s", ch.GuildID)
	}
	return ch, guild, nil
}

func userField(a auditlog.Author) string {
	return fmt.Sprintf("<@%d> %s#%s %d", a.ID, a.Username, a.Discriminator, a.ID)
}

func channelField(ch *discordgo.Channel) string {
	return fmt.Sprintf("<#%s> %s", ch.ID, ch.Name)
}

func avatarURL(a auditlog.Author) string {
	if a.Avatar != "" {
		ext := "png"
		if strings.HasPrefix(a.Avatar, "a_") {
			ext = "gif"
		}
		return fmt.Sprintf("https://cdn.discordapp.com/avatars/%d/%s.%s", a.ID, a.Avatar, ext)
	}

	n := 0
	if d, err := strconv.Atoi(a.Discriminator); err == nil {
		n = d % 5
	}
	return fmt.Sprintf("https://cdn.discordapp.com/embed/avatars/%d.png", n)
}

func guildIconURL(g *discordgo.Guild) string {
	ext := "png"
	if strings.HasPrefix(g.Icon, "a_") {
		ext = "gif"
	}
	return fmt.Sprintf("https://cdn.discordapp.com/icons/%s/%s.%s", g.ID, g.Icon, ext)
}

func orPlaceholder(s string) string {
	if s == "" {
		return "*(no content)*"
	}
	return s
}
