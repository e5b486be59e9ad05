package cache

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestCache_GuildCreatePopulatesChannels(t *testing.T) {
	c := New()

	c.Update(&discordgo.GuildCreate{
		Guild: &discordgo.Guild{
			ID:   "1",
			Name: "testers",
			Channels: []*discordgo.Channel{
				{ID: "10", Name: "general"},
				{ID: "11", Name: "mod-log", GuildID: "1"},
			},
		},
	})

	g, ok := c.Guild("1")
	if !ok || g.Name != "testers" {
		t.Fatalf("guild lookup = (%v, %v)", g, ok)
	}

	ch, ok := c.GuildChannel("10")
	if !ok {
		t.Fatal("channel 10 not cached")
	}
	if ch.GuildID != "1" {
		t.Errorf("channel guild id = %q, want %q", ch.GuildID, "1")
	}

	if _, ok := c.Guild("2"); ok {
		t.Error("unknown guild should be absent")
	}
}

func TestCache_UpdateIdempotent(t *testing.T) {
	c := New()
	ev := &discordgo.ChannelCreate{Channel: &discordgo.Channel{ID: "10", GuildID: "1"}}

	c.Update(ev)
	c.Update(ev)

	ch, ok := c.GuildChannel("10")
	if !ok || ch.ID != "10" {
		t.Fatalf("channel lookup = (%v, %v)", ch, ok)
	}

	c.Update(&discordgo.ChannelDelete{Channel: &discordgo.Channel{ID: "10"}})
	if _, ok := c.GuildChannel("10"); ok {
		t.Error("deleted channel should be absent")
	}
}

func TestCache_MessageCreateCachesAuthor(t *testing.T) {
	c := New()

	c.Update(&discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:     "100",
			Author: &discordgo.User{ID: "5", Username: "colin"},
		},
	})

	u, ok := c.User("5")
	if !ok || u.Username != "colin" {
		t.Fatalf("user lookup = (%v, %v)", u, ok)
	}
}
