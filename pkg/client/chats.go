package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// ChatsClient covers the chat endpoints.
type ChatsClient struct {
	client *Client
}

type Chat struct {
	ChatID             string     `json:"chat_id"`
	Username           string     `json:"username"`
	Title              string     `json:"title"`
	CreatedAt          time.Time  `json:"created_at"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	LastMessagePreview *string    `json:"last_message_preview,omitempty"`
}

type CreateChatRequest struct {
	Username string `json:"username"`
	Title    string `json:"title,omitempty"`
}

type CreateChatResponse struct {
	ChatID    string    `json:"chat_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Message     string `json:"message"`
	MLActivated bool   `json:"ml_activated"`
	ChatID      string `json:"chat_id"`
}

// SendMessageResponse is the assistant reply. Parameter values are JSON
// scalars: string, float64, bool or nil.
type SendMessageResponse struct {
	Response    string                 `json:"response"`
	SessionID   string                 `json:"session_id"`
	ChatID      string                 `json:"chat_id"`
	Parameters  map[string]interface{} `json:"parameters"`
	MLActivated bool                   `json:"ml_activated"`
}

type Message struct {
	MessageID   string                 `json:"message_id"`
	ChatID      string                 `json:"chat_id"`
	Role        string                 `json:"role"`
	Content     string                 `json:"content"`
	Timestamp   time.Time              `json:"timestamp"`
	MLActivated bool                   `json:"ml_activated"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type Summary struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ResetResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Create starts a new chat for req.Username.
func (cc *ChatsClient) Create(ctx context.Context, req *CreateChatRequest) (*CreateChatResponse, error) {
	if req == nil || strings.TrimSpace(req.Username) == "" {
		return nil, fmt.Errorf("%w: username is required", errors.ErrInvalidConfig)
	}
	var resp CreateChatResponse
	if err := cc.client.post(ctx, "/chats", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns the user's chats, most recently active first.
func (cc *ChatsClient) List(ctx context.Context, username string) ([]Chat, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", errors.ErrInvalidConfig)
	}
	var resp struct {
		Chats []Chat `json:"chats"`
	}
	if err := cc.client.get(ctx, "/users/"+url.PathEscape(username)+"/chats", &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// Send posts a message and returns the assistant's reply.
func (cc *ChatsClient) Send(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	if req == nil || req.ChatID == "" {
		return nil, fmt.Errorf("%w: chat id is required", errors.ErrInvalidConfig)
	}
	var resp SendMessageResponse
	if err := cc.client.post(ctx, "/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Messages returns the stored transcript, oldest first.
func (cc *ChatsClient) Messages(ctx context.Context, chatID string) ([]Message, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chat id is required", errors.ErrInvalidConfig)
	}
	var resp struct {
		Messages []Message `json:"messages"`
	}
	if err := cc.client.get(ctx, "/chats/"+url.PathEscape(chatID)+"/messages", &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Summary returns an article generated from the chat.
func (cc *ChatsClient) Summary(ctx context.Context, chatID string) (*Summary, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chat id is required", errors.ErrInvalidConfig)
	}
	var resp Summary
	if err := cc.client.get(ctx, "/chats/"+url.PathEscape(chatID)+"/summary", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reset discards the chat's in-memory session. Stored messages are kept.
func (cc *ChatsClient) Reset(ctx context.Context, chatID string) (*ResetResponse, error) {
	var resp ResetResponse
	path := "/reset?chat_id=" + url.QueryEscape(chatID)
	if err := cc.client.post(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

//Personal.AI order the ending
