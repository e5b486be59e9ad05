// Package bot is the picolog runtime: it owns the gateway connection, the
// command registry, the entity snapshot cache, and the dispatch loop that
// fans events out to command handlers.
package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tinyland-inc/picolog/pkg/cache"
	"github.com/tinyland-inc/picolog/pkg/parse"
)

// Rest is the subset of outbound API calls the runtime and its commands use.
// *discordgo.Session satisfies it; tests substitute a fake.
type Rest interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot wires the gateway event stream to registered commands. Commands are
// registered before Start and the registry is immutable afterwards, so
// handler tasks may read it without locking.
type Bot struct {
	Rest  Rest
	Cache *cache.Cache

	session *discordgo.Session
	parser  *parse.Parser
	cmds    []Command
	stream  *EventStream
	log     zerolog.Logger
	wg      sync.WaitGroup
	running atomic.Bool
}

// New creates a bot backed by a real Discord gateway connection.
func New(token, prefix string, log zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent
	// The runtime maintains its own snapshot cache.
	session.StateEnabled = false

	b := newBot(session, prefix, log)
	b.session = session
	return b, nil
}

// NewDetached creates a bot without a gateway connection. Events are fed in
// through Publish; outbound calls go through rest. Used by tests and local
// replay runs.
func NewDetached(rest Rest, prefix string, log zerolog.Logger) *Bot {
	return newBot(rest, prefix, log)
}

func newBot(rest Rest, prefix string, log zerolog.Logger) *Bot {
	return &Bot{
		Rest:   rest,
		Cache:  cache.New(),
		parser: parse.New(prefix),
		stream: NewEventStream(),
		log:    log.With().Str("component", "bot").Logger(),
	}
}

// RegisterCommand adds a command to the registry. A duplicate name or alias
// is a configuration error; callers must treat it as fatal. Must not be
// called after Start.
func (b *Bot) RegisterCommand(cmd Command) error {
	for _, help := range cmd.Help() {
		if err := b.parser.Register(help.Name, help.Aliases...); err != nil {
			return err
		}
	}
	b.cmds = append(b.cmds, cmd)
	return nil
}

// Commands returns the registered command set. The returned slice is shared
// and must not be mutated.
func (b *Bot) Commands() []Command {
	return b.cmds
}

func (b *Bot) Prefix() string {
	return b.parser.Prefix()
}

// Match checks msg against the alias set of a single command. See
// parse.Parser.Match.
func (b *Bot) Match(msg *discordgo.Message, names ...string) (string, error) {
	return b.parser.Match(msg, names...)
}

// Publish feeds one event into the dispatch stream, preserving call order.
// The gateway callback uses it internally; detached bots use it directly.
func (b *Bot) Publish(ctx context.Context, ev any) error {
	return b.stream.Publish(ctx, ev)
}

// Start opens the gateway connection (when one is configured) and begins the
// dispatch loop. It returns once the loop is running.
func (b *Bot) Start(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return errors.New("bot already started")
	}

	if b.session != nil {
		b.session.AddHandler(func(_ *discordgo.Session, ev any) {
			if err := b.stream.Publish(ctx, ev); err != nil && !errors.Is(err, ErrStreamClosed) {
				b.log.Error().Err(err).Msg("publish gateway event")
			}
		})
		if err := b.session.Open(); err != nil {
			b.running.Store(false)
			return fmt.Errorf("open gateway: %w", err)
		}
	}

	go b.run(ctx)
	return nil
}

// Stop closes the gateway connection, stops accepting events, and waits for
// in-flight handler tasks to drain. The context bounds the drain; expiring it
// abandons whatever is still running.
func (b *Bot) Stop(ctx context.Context) error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}

	var closeErr error
	if b.session != nil {
		closeErr = b.session.Close()
	}
	b.stream.Close()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) run(ctx context.Context) {
	for {
		ev, ok := b.stream.Next(ctx)
		if !ok {
			return
		}
		b.Dispatch(ctx, ev)
	}
}

// Dispatch processes one event: the cache is updated synchronously so every
// handler in this cycle observes the post-event snapshot, then each command
// capability is invoked on its own goroutine. Dispatch never waits on
// handler completion, and completion order across tasks is unspecified.
func (b *Bot) Dispatch(ctx context.Context, ev any) {
	b.Cache.Update(ev)

	if mc, ok := ev.(*discordgo.MessageCreate); ok && mc.Message != nil {
		for _, cmd := range b.cmds {
			recv, ok := cmd.(Receiver)
			if !ok {
				continue
			}
			b.spawn(func() { b.invokeReceive(ctx, recv, mc.Message) })
		}
	}

	for _, cmd := range b.cmds {
		raw, ok := cmd.(RawReceiver)
		if !ok {
			continue
		}
		b.spawn(func() { b.invokeRaw(ctx, raw, ev) })
	}
}

// spawn runs fn on its own goroutine with panic isolation: a fault in one
// handler task must never take down the dispatch loop or sibling tasks.
func (b *Bot) spawn(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.log.Error().
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("handler task panicked")
			}
		}()
		fn()
	}()
}

func (b *Bot) invokeReceive(ctx context.Context, cmd Receiver, msg *discordgo.Message) {
	log := b.log.With().
		Str("invocation", uuid.NewString()).
		Str("channel_id", msg.ChannelID).
		Logger()

	reply, err := cmd.Receive(ctx, b, msg)
	switch {
	case errors.Is(err, parse.ErrNoMatch):
		// The normal case for every command the message wasn't addressed to.
	case err != nil:
		log.Error().Err(err).Msg("command errored")
		if _, serr := b.Rest.ChannelMessageSend(msg.ChannelID, fmt.Sprintf("command failed: %v", err)); serr != nil {
			log.Error().Err(serr).Msg("report command error")
		}
	case reply != "":
		if _, err := b.Rest.ChannelMessageSend(msg.ChannelID, reply); err != nil {
			log.Error().Err(err).Msg("respond to command")
		}
	}
}

func (b *Bot) invokeRaw(ctx context.Context, cmd RawReceiver, ev any) {
	if err := cmd.ReceiveRaw(ctx, b, ev); err != nil {
		b.log.Error().
			Str("invocation", uuid.NewString()).
			Err(err).
			Msg("raw event errored")
	}
}
