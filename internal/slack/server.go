package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matsen/litbot/internal/agent"
)

// DefaultReplyTimeout bounds the processing of one message, including
// LLM retries and search.
const DefaultReplyTimeout = 3 * time.Minute

// Responder produces the reply chunks for a message.
type Responder interface {
	Reply(ctx context.Context, msg agent.Message, notify agent.Notifier) []string
}

// Server receives Events API callbacks and answers messages.
type Server struct {
	secret    string
	poster    Poster
	responder Responder
	botUserID string
	timeout   time.Duration
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
	now       func() time.Time

	// base is the parent context of in-flight replies; cancelled on Close.
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithGatherer exposes g on /metrics.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithReplyTimeout bounds each message's processing.
func WithReplyTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBotUserID strips mentions of the bot from message text.
func WithBotUserID(id string) ServerOption {
	return func(s *Server) {
		s.botUserID = id
	}
}

// WithClock replaces the clock used for signature freshness (tests).
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a Server. signingSecret authenticates Slack requests.
func NewServer(signingSecret string, poster Poster, responder Responder, opts ...ServerOption) *Server {
	s := &Server{
		secret:    signingSecret,
		poster:    poster,
		responder: responder,
		timeout:   DefaultReplyTimeout,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.base, s.cancel = context.WithCancel(context.Background())
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	r.POST("/slack/events", s.handleEvents)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight replies.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("slack events server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close cancels in-flight replies and waits for them to finish.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until in-flight replies finish (tests).
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// envelope is the outer Events API payload.
type envelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge,omitempty"`
	EventID   string          `json:"event_id,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// messageEvent is a "message" event.
type messageEvent struct {
	Type     string `json:"type"`
	SubType  string `json:"subtype,omitempty"`
	Channel  string `json:"channel"`
	User     string `json:"user"`
	BotID    string `json:"bot_id,omitempty"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

func (s *Server) handleEvents(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if err := Verify(s.secret,
		c.GetHeader("X-Slack-Request-Timestamp"),
		c.GetHeader("X-Slack-Signature"),
		body, s.now()); err != nil {
		s.logger.Warn("rejected Slack request", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	switch env.Type {
	case "url_verification":
		c.JSON(http.StatusOK, gin.H{"challenge": env.Challenge})
		return
	case "event_callback":
	default:
		c.Status(http.StatusOK)
		return
	}

	// Slack redelivers when the ack is slow; the first delivery is
	// already being answered.
	if retry := c.GetHeader("X-Slack-Retry-Num"); retry != "" {
		s.logger.Info("dropping Slack retry delivery",
			zap.String("event_id", env.EventID),
			zap.String("retry", retry),
			zap.String("reason", c.GetHeader("X-Slack-Retry-Reason")))
		c.Status(http.StatusOK)
		return
	}

	var ev messageEvent
	if err := json.Unmarshal(env.Event, &ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
		return
	}
	c.Status(http.StatusOK)

	if ev.Type != "message" || ev.SubType != "" || ev.Channel == "" {
		return
	}
	msg := agent.Message{
		ConversationID: ev.Channel,
		Text:           s.stripMention(ev.Text),
		AuthorIsBot:    ev.BotID != "" || (s.botUserID != "" && ev.User == s.botUserID),
		RequestID:      env.EventID,
	}
	if msg.AuthorIsBot {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.respond(msg, ev)
	}()
}

// respond runs in the background after the event is acknowledged.
func (s *Server) respond(msg agent.Message, ev messageEvent) {
	ctx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	logger := s.logger.With(
		zap.String("request_id", msg.RequestID),
		zap.String("channel", ev.Channel))

	notify := func(ctx context.Context, text string) error {
		return s.poster.PostMessage(ctx, ev.Channel, text, "")
	}

	chunks := s.responder.Reply(ctx, msg, notify)
	if ctx.Err() != nil {
		logger.Warn("reply abandoned", zap.Error(ctx.Err()))
		return
	}

	// The first chunk replies to the message; the rest follow in the channel.
	replyTS := ev.TS
	if ev.ThreadTS != "" {
		replyTS = ev.ThreadTS
	}
	for i, text := range chunks {
		thread := ""
		if i == 0 || ev.ThreadTS != "" {
			thread = replyTS
		}
		if err := s.poster.PostMessage(ctx, ev.Channel, text, thread); err != nil {
			logger.Error("failed to post reply", zap.Int("chunk", i), zap.Error(err))
			return
		}
	}
}

var mentionPattern = regexp.MustCompile(`<@([A-Z0-9]+)>`)

// stripMention removes mentions of the bot so "@litbot cite paper 1"
// classifies like "cite paper 1".
func (s *Server) stripMention(text string) string {
	if s.botUserID == "" {
		return strings.TrimSpace(text)
	}
	text = mentionPattern.ReplaceAllStringFunc(text, func(m string) string {
		if mentionPattern.FindStringSubmatch(m)[1] == s.botUserID {
			return ""
		}
		return m
	})
	return strings.TrimSpace(text)
}
