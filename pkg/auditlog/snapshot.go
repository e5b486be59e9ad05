package auditlog

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fxamacker/cbor/v2"
)

// Snapshot is the point-in-time record of a message at creation, serialized
// with CBOR and encrypted before it reaches the message-log range. It is
// written once and never updated: an edit always diffs against this record.
type Snapshot struct {
	ID          uint64       `cbor:"id"`
	ChannelID   uint64       `cbor:"channel_id"`
	GuildID     uint64       `cbor:"guild_id"`
	Author      Author       `cbor:"author"`
	Content     string       `cbor:"content"`
	Attachments []Attachment `cbor:"attachments,omitempty"`
}

type Author struct {
	ID            uint64 `cbor:"id"`
	Username      string `cbor:"username"`
	Discriminator string `cbor:"discriminator"`
	Avatar        string `cbor:"avatar,omitempty"`
	Bot           bool   `cbor:"bot,omitempty"`
}

type Attachment struct {
	ID       uint64 `cbor:"id"`
	Filename string `cbor:"filename"`
	URL      string `cbor:"url"`
	ProxyURL string `cbor:"proxy_url"`
}

// SnapshotFromMessage converts a gateway message into its stored form.
// Discord transports snowflakes as decimal strings; the snapshot keeps them
// as integers since keys and derivations need their fixed-width encoding.
func SnapshotFromMessage(msg *discordgo.Message) (*Snapshot, error) {
	id, err := ParseSnowflake(msg.ID)
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	channelID, err := ParseSnowflake(msg.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("channel id: %w", err)
	}

	var guildID uint64
	if msg.GuildID != "" {
		if guildID, err = ParseSnowflake(msg.GuildID); err != nil {
			return nil, fmt.Errorf("guild id: %w", err)
		}
	}

	snap := &Snapshot{
		ID:        id,
		ChannelID: channelID,
		GuildID:   guildID,
		Content:   msg.Content,
	}

	if msg.Author != nil {
		authorID, err := ParseSnowflake(msg.Author.ID)
		if err != nil {
			return nil, fmt.Errorf("author id: %w", err)
		}
		snap.Author = Author{
			ID:            authorID,
			Username:      msg.Author.Username,
			Discriminator: msg.Author.Discriminator,
			Avatar:        msg.Author.Avatar,
			Bot:           msg.Author.Bot,
		}
	}

	for _, att := range msg.Attachments {
		attID, err := ParseSnowflake(att.ID)
		if err != nil {
			return nil, fmt.Errorf("attachment id: %w", err)
		}
		snap.Attachments = append(snap.Attachments, Attachment{
			ID:       attID,
			Filename: att.Filename,
			URL:      att.URL,
			ProxyURL: att.ProxyURL,
		})
	}

	return snap, nil
}

func (s *Snapshot) marshal() ([]byte, error) {
	return cbor.Marshal(s)
}

func unmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ParseSnowflake decodes a Discord snowflake id from its decimal string form.
func ParseSnowflake(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse snowflake %q: %w", s, err)
	}
	return id, nil
}

// discordEpochMS is the Discord epoch, milliseconds since the Unix epoch.
const discordEpochMS = 1420070400000

// SnowflakeTime extracts the creation timestamp embedded in a snowflake id.
func SnowflakeTime(id uint64) time.Time {
	ms := int64(id>>22) + discordEpochMS
	return time.UnixMilli(ms).UTC()
}
