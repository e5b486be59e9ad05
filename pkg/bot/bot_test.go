package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/tinyland-inc/picolog/pkg/parse"
)

type fakeRest struct {
	mu     sync.Mutex
	sent   []string
	embeds []*discordgo.MessageEmbed
}

func (f *fakeRest) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, channelID+"|"+content)
	return &discordgo.Message{ID: "999", ChannelID: channelID, Content: content}, nil
}

func (f *fakeRest) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{ID: "999", ChannelID: channelID}, nil
}

func (f *fakeRest) ChannelMessageEdit(channelID, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, channelID+"|edit:"+content)
	return &discordgo.Message{ID: messageID, ChannelID: channelID, Content: content}, nil
}

func (f *fakeRest) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type echoCommand struct{}

func (echoCommand) Help() []CommandHelp {
	return []CommandHelp{{Name: "echo"}}
}

func (echoCommand) Receive(_ context.Context, b *Bot, msg *discordgo.Message) (string, error) {
	args, err := b.Match(msg, "echo")
	if err != nil {
		return "", err
	}
	return "echo: " + args, nil
}

type rawCounter struct {
	mu    sync.Mutex
	count int
}

func (r *rawCounter) Help() []CommandHelp {
	return []CommandHelp{{Name: "counter"}}
}

func (r *rawCounter) ReceiveRaw(_ context.Context, _ *Bot, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	return nil
}

func (r *rawCounter) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

type panicCommand struct{}

func (panicCommand) Help() []CommandHelp {
	return []CommandHelp{{Name: "boom"}}
}

func (panicCommand) Receive(_ context.Context, _ *Bot, _ *discordgo.Message) (string, error) {
	panic("kaboom")
}

func newTestBot(t *testing.T, rest Rest, cmds ...Command) *Bot {
	t.Helper()
	b := NewDetached(rest, "rt.", zerolog.Nop())
	for _, cmd := range cmds {
		if err := b.RegisterCommand(cmd); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	return b
}

func messageCreate(author, channel, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "100",
		ChannelID: channel,
		Content:   content,
		Author:    &discordgo.User{ID: author},
	}}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestBot_DispatchRepliesToMatchedCommand(t *testing.T) {
	rest := &fakeRest{}
	b := newTestBot(t, rest, echoCommand{})

	b.Dispatch(context.Background(), messageCreate("1", "10", "rt.echo hello"))

	waitFor(t, func() bool { return len(rest.sentMessages()) == 1 })
	if got := rest.sentMessages()[0]; got != "10|echo: hello" {
		t.Errorf("sent = %q", got)
	}
}

func TestBot_DispatchDropsUnmatched(t *testing.T) {
	rest := &fakeRest{}
	b := newTestBot(t, rest, echoCommand{})

	b.Dispatch(context.Background(), messageCreate("1", "10", "hello there"))
	b.Dispatch(context.Background(), messageCreate("1", "10", "rt.other hi"))

	b.wg.Wait()
	if got := rest.sentMessages(); len(got) != 0 {
		t.Errorf("unexpected sends: %v", got)
	}
}

func TestBot_RawReceiverSeesEveryEvent(t *testing.T) {
	rest := &fakeRest{}
	counter := &rawCounter{}
	b := newTestBot(t, rest, counter)

	b.Dispatch(context.Background(), messageCreate("1", "10", "not a command"))
	b.Dispatch(context.Background(), &discordgo.GuildCreate{Guild: &discordgo.Guild{ID: "1"}})
	b.Dispatch(context.Background(), &discordgo.MessageDelete{Message: &discordgo.Message{ID: "100"}})

	waitFor(t, func() bool { return counter.total() == 3 })
}

func TestBot_PanicInOneHandlerDoesNotStopSiblings(t *testing.T) {
	rest := &fakeRest{}
	counter := &rawCounter{}
	b := newTestBot(t, rest, panicCommand{}, counter, echoCommand{})

	b.Dispatch(context.Background(), messageCreate("1", "10", "rt.echo still alive"))

	waitFor(t, func() bool { return counter.total() == 1 })
	waitFor(t, func() bool { return len(rest.sentMessages()) == 1 })
}

type failingCommand struct{}

func (failingCommand) Help() []CommandHelp {
	return []CommandHelp{{Name: "fail"}}
}

func (failingCommand) Receive(_ context.Context, b *Bot, msg *discordgo.Message) (string, error) {
	if _, err := b.Match(msg, "fail"); err != nil {
		return "", err
	}
	return "", errors.New("backend unavailable")
}

func TestBot_HandlerErrorSurfacedToChannel(t *testing.T) {
	rest := &fakeRest{}
	b := newTestBot(t, rest, failingCommand{})

	b.Dispatch(context.Background(), messageCreate("1", "10", "rt.fail"))

	waitFor(t, func() bool { return len(rest.sentMessages()) == 1 })
	if got := rest.sentMessages()[0]; got != "10|command failed: backend unavailable" {
		t.Errorf("sent = %q", got)
	}
}

func TestBot_RegisterDuplicateAliasFails(t *testing.T) {
	b := NewDetached(&fakeRest{}, "rt.", zerolog.Nop())
	if err := b.RegisterCommand(echoCommand{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := b.RegisterCommand(echoCommand{}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestBot_StartConsumesPublishedEvents(t *testing.T) {
	rest := &fakeRest{}
	b := newTestBot(t, rest, echoCommand{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := b.Publish(ctx, messageCreate("1", "10", "rt.echo queued")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitFor(t, func() bool { return len(rest.sentMessages()) == 1 })

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := b.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !errors.Is(b.Publish(ctx, messageCreate("1", "10", "rt.echo late")), ErrStreamClosed) {
		t.Error("publish after stop should report a closed stream")
	}
}

func TestBot_BotAuthoredMessagesNeverMatch(t *testing.T) {
	rest := &fakeRest{}
	b := newTestBot(t, rest, echoCommand{})

	ev := messageCreate("1", "10", "rt.echo hi")
	ev.Author.Bot = true
	b.Dispatch(context.Background(), ev)

	if _, err := b.Match(ev.Message, "echo"); !errors.Is(err, parse.ErrNoMatch) {
		t.Errorf("match err = %v, want ErrNoMatch", err)
	}
}
