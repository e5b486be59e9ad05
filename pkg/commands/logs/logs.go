// Package logs implements the audit-log command: per-guild enablement plus
// the raw-event pipeline that snapshots messages on create and posts
// notifications on update and delete.
package logs

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/tinyland-inc/picolog/pkg/auditlog"
	"github.com/tinyland-inc/picolog/pkg/bot"
	"github.com/tinyland-inc/picolog/pkg/objstore"
)

var logsAliases = []string{"log", "logs"}

type Logs struct {
	store        *auditlog.Store
	keys         *auditlog.Keyring
	objects      objstore.Putter
	http         *http.Client
	ownerID      string
	filesBaseURL string
	log          zerolog.Logger
}

func New(
	store *auditlog.Store,
	keys *auditlog.Keyring,
	objects objstore.Putter,
	ownerID string,
	filesBaseURL string,
	log zerolog.Logger,
) *Logs {
	return &Logs{
		store:        store,
		keys:         keys,
		objects:      objects,
		http:         http.DefaultClient,
		ownerID:      ownerID,
		filesBaseURL: strings.TrimSuffix(filesBaseURL, "/"),
		log:          log.With().Str("component", "logs").Logger(),
	}
}

func (l *Logs) Help() []bot.CommandHelp {
	return []bot.CommandHelp{{
		Name:        "log",
		Aliases:     []string{"logs"},
		Section:     bot.SectionModeration,
		Description: "Configure message audit logging",
		Usage:       "logs message enable [#channel]",
	}}
}

func (l *Logs) Receive(ctx context.Context, b *bot.Bot, msg *discordgo.Message) (string, error) {
	args, err := b.Match(msg, logsAliases...)
	if err != nil {
		return "", err
	}

	fields := strings.Fields(args)
	switch first(fields) {
	case "message", "messages":
		return l.handleMessages(ctx, b, msg, fields[1:])
	case "help", "":
		return "help coming soon", nil
	default:
		return `Unknown option. Expected one of ["message", "help"]`, nil
	}
}

func (l *Logs) handleMessages(ctx context.Context, b *bot.Bot, msg *discordgo.Message, fields []string) (string, error) {
	if msg.Author.ID != l.ownerID {
		return "Only owners may use this command for now :)", nil
	}

	switch first(fields) {
	case "enable":
		return l.handleEnable(ctx, b, msg, fields[1:])
	case "disable":
		return "", nil
	default:
		return `Unknown option. Expected one of ["enable", "disable"]`, nil
	}
}

func (l *Logs) handleEnable(ctx context.Context, b *bot.Bot, msg *discordgo.Message, fields []string) (string, error) {
	channelID := msg.ChannelID
	if len(fields) > 0 {
		channelID = parseChannelRef(fields[0])
	}

	ch, ok := b.Cache.GuildChannel(channelID)
	if !ok {
		return "", fmt.Errorf("channel not found in cache: %s", channelID)
	}
	if msg.GuildID == "" {
		return "", fmt.Errorf("message didn't have guild id")
	}

	gid, err := auditlog.ParseSnowflake(msg.GuildID)
	if err != nil {
		return "", err
	}
	cid, err := auditlog.ParseSnowflake(channelID)
	if err != nil {
		return "", err
	}

	if err := l.store.Enable(ctx, gid, cid); err != nil {
		return "", fmt.Errorf("enable message logs: %w", err)
	}

	return fmt.Sprintf("Enabled message logs in %s", ch.Name), nil
}

// ReceiveRaw drives the audit pipeline off every gateway event.
func (l *Logs) ReceiveRaw(ctx context.Context, b *bot.Bot, ev any) error {
	switch e := ev.(type) {
	case *discordgo.MessageCreate:
		return l.storeMessage(ctx, e.Message)
	case *discordgo.MessageUpdate:
		return l.logUpdate(ctx, b, e)
	case *discordgo.MessageDelete:
		return l.logDelete(ctx, b, e)
	default:
		return nil
	}
}

// parseChannelRef accepts either a raw channel id or a <#id> mention.
func parseChannelRef(s string) string {
	s = strings.TrimPrefix(s, "<#")
	return strings.TrimSuffix(s, ">")
}

func first(fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
