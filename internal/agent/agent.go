// Package agent turns an inbound chat message into a reply.
//
// Each message is classified by the intent rule table. Recognized commands
// run against the conversation's bibliography, notes and reading lists;
// everything else goes through the research workflow, which may search
// for papers and asks the LLM for the answer.
package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matsen/litbot/internal/bibliography"
	"github.com/matsen/litbot/internal/intent"
	"github.com/matsen/litbot/internal/llm"
	"github.com/matsen/litbot/internal/metrics"
	"github.com/matsen/litbot/internal/notes"
	"github.com/matsen/litbot/internal/readinglist"
	"github.com/matsen/litbot/internal/scholar"
	"github.com/matsen/litbot/internal/storage"
)

// Message is one inbound chat message.
type Message struct {
	ConversationID string
	Text           string
	AuthorIsBot    bool
	// RequestID correlates log lines; generated when empty.
	RequestID string
}

// Notifier delivers an interim message (such as "Searching for ...")
// before the final reply is ready.
type Notifier func(ctx context.Context, text string) error

// Stores groups the per-conversation state.
type Stores struct {
	Bibliography *bibliography.Store
	Notes        *notes.Store
	ReadingLists *readinglist.Store
}

// NewStores opens the three conversation stores on b.
func NewStores(b storage.Backend, opts ...bibliography.Option) (Stores, error) {
	bibKV, err := b.Bucket(storage.BucketBibliography)
	if err != nil {
		return Stores{}, err
	}
	notesKV, err := b.Bucket(storage.BucketNotes)
	if err != nil {
		return Stores{}, err
	}
	listsKV, err := b.Bucket(storage.BucketReadingLists)
	if err != nil {
		return Stores{}, err
	}
	return Stores{
		Bibliography: bibliography.New(bibKV, opts...),
		Notes:        notes.New(notesKV),
		ReadingLists: readinglist.New(listsKV),
	}, nil
}

// Agent handles messages for every conversation. It holds no
// per-conversation state itself and is safe for concurrent use.
type Agent struct {
	bib   *bibliography.Store
	notes *notes.Store
	lists *readinglist.Store

	llm        llm.Client
	search     scholar.Searcher
	retrier    *llm.Retrier
	maxResults int

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) {
		a.logger = l
	}
}

// WithMetrics records intents, retries and latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

// WithRetrier replaces the rate-limit retry policy.
func WithRetrier(r *llm.Retrier) Option {
	return func(a *Agent) {
		a.retrier = r
	}
}

// WithMaxResults sets how many papers a research query fetches.
func WithMaxResults(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxResults = n
		}
	}
}

// New creates an Agent.
func New(stores Stores, client llm.Client, search scholar.Searcher, opts ...Option) *Agent {
	a := &Agent{
		bib:        stores.Bibliography,
		notes:      stores.Notes,
		lists:      stores.ReadingLists,
		llm:        client,
		search:     search,
		retrier:    llm.DefaultRetrier(),
		maxResults: scholar.DefaultMaxResults,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	// Chain retry accounting onto whatever hook the retrier already has.
	r := *a.retrier
	prev := r.OnRetry
	r.OnRetry = func(attempt int, wait time.Duration, err error) {
		a.metrics.LLMRetry()
		a.logger.Warn("llm rate limited, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
		if prev != nil {
			prev(attempt, wait, err)
		}
	}
	a.retrier = &r
	return a
}

// Handle produces the reply for msg. It never panics: a failure in one
// message is logged and answered with an apology.
func (a *Agent) Handle(ctx context.Context, msg Message, notify Notifier) (reply string) {
	if msg.RequestID == "" {
		msg.RequestID = uuid.NewString()
	}
	logger := a.logger.With(
		zap.String("request_id", msg.RequestID),
		zap.String("conversation", msg.ConversationID))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			a.metrics.Panic()
			logger.Error("panic while handling message",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			reply = InternalMessage
		}
		a.metrics.MessageHandled(time.Since(start))
	}()

	if notify == nil {
		notify = func(context.Context, string) error { return nil }
	}

	m := intent.Classify(strings.TrimSpace(msg.Text))
	a.metrics.Intent(m.Kind.Group())
	logger.Info("handling message", zap.String("intent", string(m.Kind)))

	out, err := a.dispatch(ctx, msg.ConversationID, m, notify)
	if err != nil {
		return a.render(logger, err)
	}
	return out
}

// dispatch runs the operation for a classified message.
func (a *Agent) dispatch(ctx context.Context, conv string, m intent.Match, notify Notifier) (string, error) {
	switch m.Kind {
	case intent.NoteAdd:
		return a.AddNote(ctx, conv, m.Paper, m.Text)
	case intent.NoteView:
		return a.ViewNotes(ctx, conv, m.Paper)
	case intent.NoteViewAll:
		return a.ViewNotes(ctx, conv, "")
	case intent.NoteDelete:
		return a.DeleteNote(ctx, conv, m.Paper, m.Note)
	case intent.NoteClear:
		return a.ClearNotes(ctx, conv, m.Paper)
	case intent.NoteClearAll:
		return a.ClearNotes(ctx, conv, "")

	case intent.ListCreate:
		return a.CreateList(ctx, conv, m.List)
	case intent.ListAdd:
		return a.AddToList(ctx, conv, m.List, m.Paper)
	case intent.ListRemove:
		return a.RemoveFromList(ctx, conv, m.List, m.Paper)
	case intent.ListView:
		return a.ViewLists(ctx, conv, m.List)
	case intent.ListViewAll:
		return a.ViewLists(ctx, conv, "")
	case intent.ListDelete:
		return a.DeleteList(ctx, conv, m.List)
	case intent.ListUsage:
		return ReadingListUsage, nil

	case intent.Related:
		return a.Related(ctx, conv, m.Paper, bibliography.DefaultRelated)
	case intent.Cite:
		return a.Cite(ctx, conv, m.Paper, m.Style)
	case intent.Bibliography:
		return a.Bibliography(ctx, conv, m.Style)
	case intent.Papers:
		return a.Papers(ctx, conv)
	case intent.Styles:
		return a.Styles(), nil

	case intent.Fallback:
		return a.Research(ctx, conv, m.Text, notify)
	}
	return "", fmt.Errorf("no handler for intent %q", m.Kind)
}
