package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	narcoserrors "github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

func TestChats_Create(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chats", r.URL.Path)
		var body CreateChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana", body.Username)
		writeJSON(w, http.StatusCreated, map[string]string{
			"chat_id":    "c1",
			"title":      "New Chat",
			"created_at": "2025-03-01T12:00:00Z",
		})
	})

	resp, err := c.Chats().Create(context.Background(), &CreateChatRequest{Username: "ana"})
	require.NoError(t, err)
	assert.Equal(t, "c1", resp.ChatID)
	assert.Equal(t, "New Chat", resp.Title)
	assert.Equal(t, 2025, resp.CreatedAt.Year())
}

func TestChats_Create_RequiresUsername(t *testing.T) {
	c, _ := NewClient("http://localhost:8000")
	_, err := c.Chats().Create(context.Background(), &CreateChatRequest{Username: "  "})
	assert.ErrorIs(t, err, narcoserrors.ErrInvalidConfig)
}

func TestChats_List(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/ana/chats", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"chats": []map[string]string{{"chat_id": "c1", "username": "ana", "title": "T", "created_at": "2025-03-01T12:00:00Z"}},
		})
	})

	chats, err := c.Chats().List(context.Background(), "ana")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "c1", chats[0].ChatID)
	assert.Nil(t, chats[0].LastMessageAt)
}

func TestChats_Send(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		var body SendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.MLActivated)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"response":     "ADMET Prediction Results:",
			"session_id":   body.ChatID,
			"chat_id":      body.ChatID,
			"parameters":   map[string]interface{}{"A": 1.5, "B": nil},
			"ml_activated": true,
		})
	})

	resp, err := c.Chats().Send(context.Background(), &SendMessageRequest{Message: "@admet_prediction CCO", MLActivated: true, ChatID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "c1", resp.SessionID)
	assert.Equal(t, 1.5, resp.Parameters["A"])
	assert.Nil(t, resp.Parameters["B"])
}

func TestChats_Send_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "CHAT_001", "message": "Chat not found"})
	})

	_, err := c.Chats().Send(context.Background(), &SendMessageRequest{Message: "x", ChatID: "gone"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}

func TestChats_MessagesAndSummary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chats/c1/messages":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"messages": []map[string]interface{}{{"message_id": "m1", "chat_id": "c1", "role": "user", "content": "hi"}},
			})
		case "/chats/c1/summary":
			writeJSON(w, http.StatusOK, Summary{Title: "T", Content: "C"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	msgs, err := c.Chats().Messages(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Role)

	s, err := c.Chats().Summary(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, &Summary{Title: "T", Content: "C"}, s)
}

func TestChats_Reset(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reset", r.URL.Path)
		assert.Equal(t, "c 1", r.URL.Query().Get("chat_id"))
		writeJSON(w, http.StatusOK, ResetResponse{Status: "success", Message: "Session reset successfully."})
	})

	resp, err := c.Chats().Reset(context.Background(), "c 1")
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
}

//Personal.AI order the ending
