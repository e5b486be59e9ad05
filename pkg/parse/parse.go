// Package parse matches raw message text against the configured command
// prefix and the set of registered command names and aliases.
package parse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
)

// ErrNoMatch reports that a message is not an invocation of the command being
// checked. It is the expected outcome for almost every message and is never
// treated as a failure.
var ErrNoMatch = errors.New("command doesn't match")

// Parser holds the prefix and the alias table. It is populated once during
// command registration and read-only afterwards, so concurrent handler tasks
// may share it freely.
type Parser struct {
	prefix string
	names  map[string]string // alias -> canonical name
}

func New(prefix string) *Parser {
	return &Parser{
		prefix: prefix,
		names:  make(map[string]string),
	}
}

func (p *Parser) Prefix() string {
	return p.prefix
}

// Register adds a command name and its aliases to the table. Names and
// aliases share one namespace; a collision is a configuration error and must
// abort startup.
func (p *Parser) Register(name string, aliases ...string) error {
	for _, alias := range append([]string{name}, aliases...) {
		if existing, ok := p.names[alias]; ok {
			return fmt.Errorf("command alias %q already registered for %q", alias, existing)
		}
		p.names[alias] = name
	}
	return nil
}

// Parse splits content into a canonical command name and the remaining
// argument text. Matching is case-sensitive and considers only the first
// whitespace-delimited token after the prefix; the argument text is handed to
// the command as-is.
func (p *Parser) Parse(content string) (name, args string, ok bool) {
	rest, found := strings.CutPrefix(content, p.prefix)
	if !found {
		return "", "", false
	}

	token := rest
	if idx := strings.IndexFunc(rest, unicode.IsSpace); idx >= 0 {
		token = rest[:idx]
		args = strings.TrimLeftFunc(rest[idx:], unicode.IsSpace)
	}

	canonical, ok := p.names[token]
	if !ok {
		return "", "", false
	}
	return canonical, args, true
}

// Match checks one message against the alias set of a single command and
// returns the argument text. Messages from bot-flagged authors never match.
func (p *Parser) Match(msg *discordgo.Message, names ...string) (string, error) {
	if msg.Author == nil || msg.Author.Bot {
		return "", ErrNoMatch
	}

	name, args, ok := p.Parse(msg.Content)
	if !ok {
		return "", ErrNoMatch
	}

	for _, n := range names {
		if n == name {
			return args, nil
		}
	}
	return "", ErrNoMatch
}
