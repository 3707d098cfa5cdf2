package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/session"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/prompt"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type fakeOpenAI struct {
	mu       sync.Mutex
	requests []capturedRequest
	reply    string
	status   int
}

func (f *fakeOpenAI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req capturedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.requests = append(f.requests, req)
		status, reply := f.status, f.reply
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != 0 && status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}, "finish_reason": "stop"},
			},
		})
	}
}

type observedCall struct {
	op, status string
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []observedCall
}

func (o *recordingObserver) ObserveLLMCall(op, status string, _ time.Duration) {
	o.mu.Lock()
	o.calls = append(o.calls, observedCall{op, status})
	o.mu.Unlock()
}

func newTestClient(t *testing.T, fake *fakeOpenAI, obs CallObserver) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	prompts, err := prompt.NewRegistry("", nil)
	require.NoError(t, err)

	c, err := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1/",
		Timeout: 5 * time.Second,
	}, prompts, nil, WithObserver(obs))
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{}, nil, nil)
	assert.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(Config{APIKey: "k"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())
}

func TestClient_Complete(t *testing.T) {
	fake := &fakeOpenAI{reply: "hello"}
	obs := &recordingObserver{}
	c := newTestClient(t, fake, obs)

	assert.Equal(t, "hello", c.Complete(context.Background(), "say hello"))

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, DefaultModel, req.Model)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "say hello", req.Messages[0].Content)
	assert.Equal(t, []observedCall{{OpComplete, "ok"}}, obs.calls)
}

func TestClient_CompleteReturnsEmptyOnServerError(t *testing.T) {
	fake := &fakeOpenAI{status: http.StatusInternalServerError}
	obs := &recordingObserver{}
	c := newTestClient(t, fake, obs)

	assert.Equal(t, "", c.Complete(context.Background(), "x"))
	require.Len(t, obs.calls, 1)
	assert.Equal(t, "error", obs.calls[0].status)
}

func TestClient_CompleteBlankReplyIsEmpty(t *testing.T) {
	fake := &fakeOpenAI{reply: "   "}
	obs := &recordingObserver{}
	c := newTestClient(t, fake, obs)

	assert.Equal(t, "", c.Complete(context.Background(), "x"))
	assert.Equal(t, "empty", obs.calls[0].status)
}

func TestClient_RespondSendsSystemHistoryAndMessage(t *testing.T) {
	fake := &fakeOpenAI{reply: "Aspirin inhibits COX."}
	c := newTestClient(t, fake, &recordingObserver{})

	history := []session.Turn{
		{Role: session.RoleUser, Content: "hi"},
		{Role: session.RoleAssistant, Content: "hello"},
	}
	out := c.Respond(context.Background(), history, "what does aspirin do?")
	assert.Equal(t, "Aspirin inhibits COX.", out)

	require.Len(t, fake.requests, 1)
	msgs := fake.requests[0].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "drug discovery")
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "user", msgs[3].Role)
	assert.Equal(t, "what does aspirin do?", msgs[3].Content)
}

//Personal.AI order the ending
