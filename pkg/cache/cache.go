// Package cache keeps point-in-time snapshots of guilds, channels and users
// derived from the gateway event stream.
//
// The dispatcher applies every event to the cache before any handler runs, so
// handlers observe a consistent post-event view. Handlers only ever read;
// mutation happens exclusively on the dispatch goroutine.
package cache

import (
	"github.com/bwmarrin/discordgo"
	"github.com/puzpuzpuz/xsync/v3"
)

type Cache struct {
	guilds   *xsync.MapOf[string, *discordgo.Guild]
	channels *xsync.MapOf[string, *discordgo.Channel]
	users    *xsync.MapOf[string, *discordgo.User]
}

func New() *Cache {
	return &Cache{
		guilds:   xsync.NewMapOf[string, *discordgo.Guild](),
		channels: xsync.NewMapOf[string, *discordgo.Channel](),
		users:    xsync.NewMapOf[string, *discordgo.User](),
	}
}

// Update applies a single gateway event. It is idempotent: replaying the same
// event leaves the cache in the same state.
func (c *Cache) Update(ev any) {
	switch e := ev.(type) {
	case *discordgo.GuildCreate:
		c.guilds.Store(e.ID, e.Guild)
		for _, ch := range e.Channels {
			if ch.GuildID == "" {
				ch.GuildID = e.ID
			}
			c.channels.Store(ch.ID, ch)
		}
	case *discordgo.GuildUpdate:
		c.guilds.Store(e.ID, e.Guild)
	case *discordgo.GuildDelete:
		c.guilds.Delete(e.ID)
	case *discordgo.ChannelCreate:
		c.channels.Store(e.ID, e.Channel)
	case *discordgo.ChannelUpdate:
		c.channels.Store(e.ID, e.Channel)
	case *discordgo.ChannelDelete:
		c.channels.Delete(e.ID)
	case *discordgo.MessageCreate:
		if e.Author != nil {
			c.users.Store(e.Author.ID, e.Author)
		}
	}
}

// Guild returns the cached guild snapshot, or false when absent.
func (c *Cache) Guild(id string) (*discordgo.Guild, bool) {
	return c.guilds.Load(id)
}

// GuildChannel returns the cached channel snapshot, or false when absent.
func (c *Cache) GuildChannel(id string) (*discordgo.Channel, bool) {
	return c.channels.Load(id)
}

// User returns the cached user snapshot, or false when absent.
func (c *Cache) User(id string) (*discordgo.User, bool) {
	return c.users.Load(id)
}
