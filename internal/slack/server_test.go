package slack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/matsen/litbot/internal/agent"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"))
}

const secret = "8f742231b10e8888abcd99yyyzzz85a5"

var fixedNow = time.Unix(1700000000, 0)

type post struct {
	Channel, Text, Thread string
}

type fakePoster struct {
	mu    sync.Mutex
	posts []post
}

func (f *fakePoster) PostMessage(_ context.Context, channel, text, threadTS string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, post{channel, text, threadTS})
	return nil
}

func (f *fakePoster) all() []post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]post(nil), f.posts...)
}

type fakeResponder struct {
	mu       sync.Mutex
	messages []agent.Message
	reply    []string
	interim  string
}

func (f *fakeResponder) Reply(ctx context.Context, msg agent.Message, notify agent.Notifier) []string {
	f.mu.Lock()
	f.messages = append(f.messages, msg)
	f.mu.Unlock()
	if f.interim != "" {
		_ = notify(ctx, f.interim)
	}
	return f.reply
}

func newTestServer(responder Responder, poster Poster, opts ...ServerOption) *Server {
	opts = append([]ServerOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewServer(secret, poster, responder, opts...)
}

func signedRequest(t *testing.T, body string, headers ...string) *http.Request {
	t.Helper()
	ts := strconv.FormatInt(fixedNow.Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", Sign(secret, ts, []byte(body)))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestEvents_URLVerification(t *testing.T) {
	s := newTestServer(&fakeResponder{}, &fakePoster{})
	defer s.Close()

	w := serve(s, signedRequest(t, `{"type":"url_verification","challenge":"abc123"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"challenge":"abc123"}`, w.Body.String())
}

func TestEvents_RejectsBadSignature(t *testing.T) {
	s := newTestServer(&fakeResponder{}, &fakePoster{})
	defer s.Close()

	req := signedRequest(t, `{"type":"url_verification","challenge":"abc"}`)
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")
	assert.Equal(t, http.StatusUnauthorized, serve(s, req).Code)

	req = signedRequest(t, `{"type":"url_verification","challenge":"abc"}`)
	req.Header.Del("X-Slack-Request-Timestamp")
	assert.Equal(t, http.StatusUnauthorized, serve(s, req).Code)
}

func TestEvents_MessageRepliesInThreadThenChannel(t *testing.T) {
	responder := &fakeResponder{reply: []string{"first", "second"}, interim: "Searching for: 'x'..."}
	poster := &fakePoster{}
	s := newTestServer(responder, poster, WithBotUserID("UBOT"))
	defer s.Close()

	body := `{"type":"event_callback","event_id":"Ev1","event":{"type":"message","channel":"C1","user":"U1","text":"<@UBOT> cite paper 1","ts":"1700000000.000100"}}`
	w := serve(s, signedRequest(t, body))
	require.Equal(t, http.StatusOK, w.Code)
	s.Wait()

	require.Len(t, responder.messages, 1)
	assert.Equal(t, agent.Message{ConversationID: "C1", Text: "cite paper 1", RequestID: "Ev1"}, responder.messages[0])
	assert.Equal(t, []post{
		{"C1", "Searching for: 'x'...", ""},
		{"C1", "first", "1700000000.000100"},
		{"C1", "second", ""},
	}, poster.all())
}

func TestEvents_ThreadedMessageStaysInThread(t *testing.T) {
	responder := &fakeResponder{reply: []string{"a", "b"}}
	poster := &fakePoster{}
	s := newTestServer(responder, poster)
	defer s.Close()

	body := `{"type":"event_callback","event":{"type":"message","channel":"C1","user":"U1","text":"hi","ts":"2.0","thread_ts":"1.0"}}`
	serve(s, signedRequest(t, body))
	s.Wait()

	assert.Equal(t, []post{{"C1", "a", "1.0"}, {"C1", "b", "1.0"}}, poster.all())
}

func TestEvents_Ignored(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		headers []string
	}{
		{"bot message", `{"type":"event_callback","event":{"type":"message","channel":"C1","bot_id":"B1","text":"hi","ts":"1.0"}}`, nil},
		{"own user", `{"type":"event_callback","event":{"type":"message","channel":"C1","user":"UBOT","text":"hi","ts":"1.0"}}`, nil},
		{"subtype", `{"type":"event_callback","event":{"type":"message","subtype":"channel_join","channel":"C1","user":"U1","text":"joined","ts":"1.0"}}`, nil},
		{"other event", `{"type":"event_callback","event":{"type":"reaction_added","user":"U1"}}`, nil},
		{"retry", `{"type":"event_callback","event":{"type":"message","channel":"C1","user":"U1","text":"hi","ts":"1.0"}}`,
			[]string{"X-Slack-Retry-Num", "1", "X-Slack-Retry-Reason", "http_timeout"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responder := &fakeResponder{reply: []string{"nope"}}
			poster := &fakePoster{}
			s := newTestServer(responder, poster, WithBotUserID("UBOT"))
			defer s.Close()

			w := serve(s, signedRequest(t, tt.body, tt.headers...))
			assert.Equal(t, http.StatusOK, w.Code)
			s.Wait()
			assert.Empty(t, responder.messages)
			assert.Empty(t, poster.all())
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "litbot_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	s := newTestServer(&fakeResponder{}, &fakePoster{}, WithGatherer(reg))
	defer s.Close()

	w := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "litbot_test_total 1")
}

func TestVerify(t *testing.T) {
	body := []byte(`{"a":1}`)
	ts := strconv.FormatInt(fixedNow.Unix(), 10)
	sig := Sign(secret, ts, body)

	assert.NoError(t, Verify(secret, ts, sig, body, fixedNow))
	assert.ErrorIs(t, Verify(secret, ts, sig, body, fixedNow.Add(10*time.Minute)), ErrStaleRequest)
	assert.ErrorIs(t, Verify("other", ts, sig, body, fixedNow), ErrBadSignature)
	assert.ErrorIs(t, Verify(secret, ts, sig, []byte(`{"a":2}`), fixedNow), ErrBadSignature)
	assert.ErrorIs(t, Verify(secret, "", sig, body, fixedNow), ErrMissingSignature)
	assert.ErrorIs(t, Verify(secret, "soon", sig, body, fixedNow), ErrMissingSignature)
}
