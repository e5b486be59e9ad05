package commands

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/tinyland-inc/picolog/pkg/bot"
	"github.com/tinyland-inc/picolog/pkg/parse"
)

type fakeRest struct {
	mu     sync.Mutex
	sent   []string
	edits  []string
	embeds []*discordgo.MessageEmbed
}

func (f *fakeRest) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, channelID+"|"+content)
	return &discordgo.Message{ID: "900", ChannelID: channelID, Content: content}, nil
}

func (f *fakeRest) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{ID: "901", ChannelID: channelID}, nil
}

func (f *fakeRest) ChannelMessageEdit(channelID, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, channelID+"|"+messageID+"|"+content)
	return &discordgo.Message{ID: messageID, ChannelID: channelID, Content: content}, nil
}

func newTestBot(t *testing.T, cmds ...bot.Command) (*bot.Bot, *fakeRest) {
	t.Helper()
	rest := &fakeRest{}
	b := bot.NewDetached(rest, "rt.", zerolog.Nop())
	for _, cmd := range cmds {
		if err := b.RegisterCommand(cmd); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	return b, rest
}

func message(content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "100",
		ChannelID: "10",
		Content:   content,
		Author:    &discordgo.User{ID: "7", Username: "alice"},
	}
}

func TestPing(t *testing.T) {
	b, rest := newTestBot(t, Ping{})

	reply, err := Ping{}.Receive(context.Background(), b, message("rt.ping"))
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if reply != "" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(rest.sent) != 1 || rest.sent[0] != "10|Pong!" {
		t.Fatalf("unexpected sends %v", rest.sent)
	}
	if len(rest.edits) != 1 || !strings.HasPrefix(rest.edits[0], "10|900|Pong! - `") {
		t.Fatalf("unexpected edits %v", rest.edits)
	}
}

func TestPing_NoMatch(t *testing.T) {
	b, _ := newTestBot(t, Ping{})

	if _, err := (Ping{}).Receive(context.Background(), b, message("rt.pong")); !errors.Is(err, parse.ErrNoMatch) {
		t.Fatalf("expected no match, got %v", err)
	}
}

func TestSay(t *testing.T) {
	b, _ := newTestBot(t, Say{})

	reply, err := Say{}.Receive(context.Background(), b, message("rt.say hello there"))
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if want := `you said "hello there"`; reply != want {
		t.Fatalf("reply = %q, want %q", reply, want)
	}
}

func TestHelp(t *testing.T) {
	b, rest := newTestBot(t, Ping{}, Say{}, Help{})

	if _, err := (Help{}).Receive(context.Background(), b, message("rt.help")); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(rest.embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(rest.embeds))
	}

	embed := rest.embeds[0]
	if !strings.Contains(embed.Description, "`rt.help [command]`") {
		t.Fatalf("description missing prefix: %q", embed.Description)
	}
	if len(embed.Fields) != 1 {
		t.Fatalf("expected one section field, got %d", len(embed.Fields))
	}
	field := embed.Fields[0]
	if field.Name != bot.SectionGeneral.String() {
		t.Fatalf("field name = %q", field.Name)
	}
	for _, name := range []string{"`ping`", "`say`", "`help`"} {
		if !strings.Contains(field.Value, name) {
			t.Fatalf("field %q missing %s", field.Value, name)
		}
	}
}
