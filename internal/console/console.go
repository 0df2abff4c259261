// Package console runs a conversation with the bot on a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matsen/litbot/internal/agent"
)

// ConversationID is the conversation every console session shares, so
// notes and lists persist across runs.
const ConversationID = "console"

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	replyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	interimStyle = lipgloss.NewStyle().Faint(true)
	bannerStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1)
)

// Responder produces the reply chunks for a message.
type Responder interface {
	Reply(ctx context.Context, msg agent.Message, notify agent.Notifier) []string
}

// Session reads messages line by line and writes replies.
type Session struct {
	in        io.Reader
	out       io.Writer
	responder Responder
	conv      string
	plain     bool
}

// Option configures a Session.
type Option func(*Session)

// WithConversation overrides the conversation ID.
func WithConversation(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.conv = id
		}
	}
}

// WithPlain disables styling, for pipes and tests.
func WithPlain() Option {
	return func(s *Session) {
		s.plain = true
	}
}

// New creates a Session.
func New(in io.Reader, out io.Writer, responder Responder, opts ...Option) *Session {
	s := &Session{in: in, out: out, responder: responder, conv: ConversationID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run loops until EOF, "exit", "quit" or ctx cancellation.
func (s *Session) Run(ctx context.Context) error {
	s.print(bannerStyle, "litbot: ask a research question, or type !help. Ctrl-D to quit.")

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		s.prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}

		notify := func(_ context.Context, text string) error {
			s.print(interimStyle, text)
			return nil
		}
		for _, chunk := range s.responder.Reply(ctx, agent.Message{ConversationID: s.conv, Text: line}, notify) {
			s.print(replyStyle, chunk)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

func (s *Session) prompt() {
	if s.plain {
		fmt.Fprint(s.out, "> ")
		return
	}
	fmt.Fprint(s.out, promptStyle.Render("> "))
}

func (s *Session) print(style lipgloss.Style, text string) {
	if s.plain {
		fmt.Fprintln(s.out, text)
		return
	}
	fmt.Fprintln(s.out, style.Render(text))
}
