// Package bot routes one inbound chat message to the command surface or
// the agent and splits the reply for delivery. Transports (Slack, the
// local console) only move text in and out.
package bot

import (
	"context"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/matsen/litbot/internal/agent"
	"github.com/matsen/litbot/internal/chunk"
	"github.com/matsen/litbot/internal/commands"
)

// Bot is safe for concurrent use.
type Bot struct {
	agent    *agent.Agent
	commands *commands.Runner
	limit    int
	logger   *zap.Logger
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bot) {
		b.logger = l
	}
}

// WithChunkLimit sets the maximum reply size in runes.
func WithChunkLimit(n int) Option {
	return func(b *Bot) {
		if n > 0 {
			b.limit = n
		}
	}
}

// New creates a Bot over a.
func New(a *agent.Agent, opts ...Option) *Bot {
	b := &Bot{
		agent:    a,
		commands: commands.New(a),
		limit:    chunk.DefaultLimit,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Reply returns the chunks to send for msg, or nil when msg must be
// ignored (bot authors and empty text).
func (b *Bot) Reply(ctx context.Context, msg agent.Message, notify agent.Notifier) []string {
	if msg.AuthorIsBot || strings.TrimSpace(msg.Text) == "" {
		return nil
	}

	var text string
	if commands.IsCommand(msg.Text) {
		text = b.command(ctx, msg)
	} else {
		text = b.agent.Handle(ctx, msg, notify)
	}
	return chunk.Split(text, b.limit)
}

func (b *Bot) command(ctx context.Context, msg agent.Message) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while running command",
				zap.String("conversation", msg.ConversationID),
				zap.String("text", msg.Text),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			reply = agent.InternalMessage
		}
	}()
	b.logger.Info("running command",
		zap.String("conversation", msg.ConversationID),
		zap.String("text", msg.Text))
	return b.commands.Execute(ctx, msg.ConversationID, msg.Text)
}
