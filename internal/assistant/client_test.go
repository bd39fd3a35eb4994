package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"gpt-test","choices":[{"message":{"role":"assistant","content":"Take Friday off."}}],"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/v1/", "sk-test", "gpt-default")
	reply, err := c.Chat(context.Background(), []Message{
		{Role: "system", Content: "You are an HR helper."},
		{Content: "  When should I take leave?  "},
		{Role: "user", Content: "   "},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "gpt-default", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, Message{Role: "user", Content: "When should I take leave?"}, got.Messages[1])

	assert.Equal(t, "Take Friday off.", reply.Reply)
	assert.Equal(t, "gpt-test", reply.Model)
	assert.Equal(t, 7, reply.Usage.TotalTokens)
}

func TestChatErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", "m").Chat(context.Background(), []Message{{Content: "hi"}}, "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	c := New(srv.URL, "key", "m")
	_, err = c.Chat(context.Background(), []Message{{Content: "hi"}}, "")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "rate limited")

	_, err = c.Chat(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = c.Chat(context.Background(), []Message{{Role: "tool", Content: "x"}}, "")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestSanitizeKeepsMostRecent(t *testing.T) {
	msgs := make([]Message, maxMessages+5)
	for i := range msgs {
		msgs[i] = Message{Role: "user", Content: "m"}
	}
	msgs[len(msgs)-1].Content = "last"
	out, err := sanitize(msgs)
	require.NoError(t, err)
	assert.Len(t, out, maxMessages)
	assert.Equal(t, "last", out[len(out)-1].Content)
}
