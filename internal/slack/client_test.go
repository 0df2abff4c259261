package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_MissingToken(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestPostMessage(t *testing.T) {
	var got postMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := NewClient("xoxb-test", WithBaseURL(srv.URL))
	require.NoError(t, err)
	require.NoError(t, c.PostMessage(context.Background(), "C1", "hello", "1.0"))
	assert.Equal(t, postMessageRequest{Channel: "C1", Text: "hello", ThreadTS: "1.0"}, got)
}

func TestPostMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"not_in_channel"}`))
	}))
	defer srv.Close()

	c, err := NewClient("xoxb-test", WithBaseURL(srv.URL))
	require.NoError(t, err)
	err = c.PostMessage(context.Background(), "C1", "hello", "")
	assert.ErrorContains(t, err, "not_in_channel")
}

func TestPostMessage_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient("xoxb-test", WithBaseURL(srv.URL))
	require.NoError(t, err)
	assert.ErrorContains(t, c.PostMessage(context.Background(), "C1", "hello", ""), "502")
}

func TestAuthTest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth.test", r.URL.Path)
		w.Write([]byte(`{"ok":true,"user_id":"UBOT","bot_id":"B1"}`))
	}))
	defer srv.Close()

	c, err := NewClient("xoxb-test", WithBaseURL(srv.URL))
	require.NoError(t, err)
	id, err := c.AuthTest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "UBOT", id)
}
