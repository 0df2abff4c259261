package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/litbot/internal/agent"
)

type scripted struct {
	seen []agent.Message
}

func (s *scripted) Reply(ctx context.Context, msg agent.Message, notify agent.Notifier) []string {
	s.seen = append(s.seen, msg)
	if msg.Text == "search" {
		_ = notify(ctx, "Searching for: 'x'...")
	}
	return []string{"reply to " + msg.Text, "more"}
}

func TestRun_Plain(t *testing.T) {
	responder := &scripted{}
	var out bytes.Buffer
	s := New(strings.NewReader("hello\n\n  search  \nquit\nnever\n"), &out, responder, WithPlain())

	require.NoError(t, s.Run(context.Background()))

	require.Len(t, responder.seen, 2)
	assert.Equal(t, agent.Message{ConversationID: ConversationID, Text: "hello"}, responder.seen[0])
	assert.Equal(t, "search", responder.seen[1].Text)

	got := out.String()
	assert.Contains(t, got, "> reply to hello\nmore\n")
	assert.Contains(t, got, "Searching for: 'x'...\nreply to search\nmore\n")
	assert.NotContains(t, got, "never")
}

func TestRun_EOF(t *testing.T) {
	responder := &scripted{}
	var out bytes.Buffer
	s := New(strings.NewReader("!ping"), &out, responder, WithPlain(), WithConversation("C9"))

	require.NoError(t, s.Run(context.Background()))
	require.Len(t, responder.seen, 1)
	assert.Equal(t, "C9", responder.seen[0].ConversationID)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	s := New(strings.NewReader("one\ntwo\n"), &out, &scripted{}, WithPlain())

	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
}
