package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// HelpSection groups commands in the generated help output.
type HelpSection int

const (
	SectionGeneral HelpSection = iota
	SectionInfo
	SectionModeration
	SectionOwner
)

func (s HelpSection) String() string {
	switch s {
	case SectionGeneral:
		return "General"
	case SectionInfo:
		return "Info"
	case SectionModeration:
		return "Moderation"
	case SectionOwner:
		return "Owner"
	default:
		return "Unknown"
	}
}

// Sections lists all help sections in display order.
func Sections() []HelpSection {
	return []HelpSection{SectionGeneral, SectionInfo, SectionModeration, SectionOwner}
}

// CommandHelp is the static metadata a command publishes at registration
// time. Name and Aliases feed the parser's alias table; the rest feeds help
// output.
type CommandHelp struct {
	Name        string
	Aliases     []string
	Section     HelpSection
	Description string
	Usage       string
	Detailed    string
	Examples    []string
}

// Command is the minimal contract every registered command implements.
// Commands opt into additional capabilities by implementing Receiver and/or
// RawReceiver; the dispatcher discovers them via type assertion.
type Command interface {
	Help() []CommandHelp
}

// Receiver handles matched text commands. The returned string, when
// non-empty, is sent as a reply in the originating channel. Returning
// parse.ErrNoMatch is the normal outcome for messages addressed to other
// commands.
type Receiver interface {
	Receive(ctx context.Context, b *Bot, msg *discordgo.Message) (string, error)
}

// RawReceiver observes every gateway event regardless of command matching.
// Errors are logged and never surfaced to a channel.
type RawReceiver interface {
	ReceiveRaw(ctx context.Context, b *Bot, ev any) error
}
