package logs

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/tinyland-inc/picolog/pkg/auditlog"
	"github.com/tinyland-inc/picolog/pkg/bot"
)

// storeMessage snapshots a freshly created message when logging is enabled
// for its guild. Attachments are copied to the object store first; a failed
// copy aborts the whole event, since a snapshot claiming attachments that
// were never stored is worse than a dropped log entry.
func (l *Logs) storeMessage(ctx context.Context, msg *discordgo.Message) error {
	if msg.GuildID == "" {
		return nil
	}
	gid, err := auditlog.ParseSnowflake(msg.GuildID)
	if err != nil {
		return err
	}

	if _, enabled, err := l.store.Enabled(ctx, gid); err != nil || !enabled {
		return err
	}

	snap, err := auditlog.SnapshotFromMessage(msg)
	if err != nil {
		return err
	}

	for _, att := range snap.Attachments {
		if err := l.copyAttachment(ctx, snap.ID, att); err != nil {
			return fmt.Errorf("copy attachment %d of message %d: %w", att.ID, snap.ID, err)
		}
	}

	return l.store.StoreSnapshot(ctx, snap)
}

// copyAttachment fetches one attachment from its source and uploads it under
// its derived key, preserving the content type and length of the fetch
// response.
func (l *Logs) copyAttachment(ctx context.Context, messageID uint64, att auditlog.Attachment) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, att.ProxyURL, nil)
	if err != nil {
		return err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", att.ProxyURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", att.ProxyURL, resp.StatusCode)
	}

	key := l.keys.AttachmentKey(messageID, att.ID)
	return l.objects.Put(ctx, key, resp.Header.Get("Content-Type"), resp.ContentLength, resp.Body)
}

// logUpdate posts an update notification when a logged message's content
// changed. The stored snapshot is left untouched, so every edit diffs
// against the creation-time content.
func (l *Logs) logUpdate(ctx context.Context, b *bot.Bot, ev *discordgo.MessageUpdate) error {
	if ev.GuildID == "" {
		return nil
	}
	gid, err := auditlog.ParseSnowflake(ev.GuildID)
	if err != nil {
		return err
	}

	logChannel, enabled, err := l.store.Enabled(ctx, gid)
	if err != nil || !enabled {
		return err
	}

	mid, err := auditlog.ParseSnowflake(ev.ID)
	if err != nil {
		return err
	}
	snap, ok, err := l.store.Snapshot(ctx, mid)
	if err != nil || !ok {
		return err
	}

	// Upstream delivery is at-least-once; an unchanged body means a replayed
	// or cosmetic update and produces no notification.
	if snap.Content == ev.Content {
		return nil
	}

	embed, err := l.updateEmbed(b, snap, ev.Content, logChannel)
	if err != nil {
		return err
	}
	if _, err := b.Rest.ChannelMessageSendEmbed(formatID(logChannel), embed); err != nil {
		return fmt.Errorf("post update notification: %w", err)
	}
	return nil
}

// logDelete posts a deletion notification for a logged message, re-posting
// its attachments through their derived public keys.
func (l *Logs) logDelete(ctx context.Context, b *bot.Bot, ev *discordgo.MessageDelete) error {
	guildID := ev.GuildID
	if guildID == "" {
		// Some delete payloads omit the guild; recover it from the cached
		// channel when possible, otherwise skip the event.
		ch, ok := b.Cache.GuildChannel(ev.ChannelID)
		if !ok || ch.GuildID == "" {
			return nil
		}
		guildID = ch.GuildID
	}
	gid, err := auditlog.ParseSnowflake(guildID)
	if err != nil {
		return err
	}

	logChannel, enabled, err := l.store.Enabled(ctx, gid)
	if err != nil || !enabled {
		return err
	}

	mid, err := auditlog.ParseSnowflake(ev.ID)
	if err != nil {
		return err
	}
	snap, ok, err := l.store.Snapshot(ctx, mid)
	if err != nil || !ok {
		return err
	}

	for _, att := range snap.Attachments {
		url := l.attachmentURL(snap.ID, att.ID)
		if _, err := b.Rest.ChannelMessageSend(formatID(logChannel), url); err != nil {
			return fmt.Errorf("repost attachment: %w", err)
		}
	}

	embed, err := l.deleteEmbed(b, snap, logChannel)
	if err != nil {
		return err
	}
	if _, err := b.Rest.ChannelMessageSendEmbed(formatID(logChannel), embed); err != nil {
		return fmt.Errorf("post delete notification: %w", err)
	}
	return nil
}

// attachmentURL is the public location a stored attachment is served from.
func (l *Logs) attachmentURL(messageID, attachmentID uint64) string {
	return l.filesBaseURL + "/" + l.keys.AttachmentKey(messageID, attachmentID)
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
