// Package chat defines the durable conversation model: chats owned by a
// username and the ordered messages exchanged inside them.
package chat

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/session"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// DefaultTitle is used when a chat is created without one.
const DefaultTitle = "New Chat"

// PreviewLength is the number of characters kept in a chat's last message preview.
const PreviewLength = 50

// Role of a stored message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Chat is a conversation owned by a username.
type Chat struct {
	ID                 string     `json:"chat_id"`
	Username           string     `json:"username"`
	Title              string     `json:"title"`
	CreatedAt          time.Time  `json:"created_at"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	LastMessagePreview *string    `json:"last_message_preview,omitempty"`
}

// NewChat validates the input and returns a chat with a fresh id.
func NewChat(username, title string, now time.Time) (*Chat, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.InvalidParam("username is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	return &Chat{
		ID:        uuid.NewString(),
		Username:  username,
		Title:     title,
		CreatedAt: now.UTC(),
	}, nil
}

// Touch records m as the latest message of the chat.
func (c *Chat) Touch(m *Message) {
	at := m.CreatedAt
	preview := Preview(m.Content)
	c.LastMessageAt = &at
	c.LastMessagePreview = &preview
}

// Message is one stored turn of a chat.
type Message struct {
	ID          string                   `json:"message_id"`
	ChatID      string                   `json:"chat_id"`
	Role        Role                     `json:"role"`
	Content     string                   `json:"content"`
	CreatedAt   time.Time                `json:"timestamp"`
	MLActivated bool                     `json:"ml_activated"`
	Parameters  map[string]session.Value `json:"parameters,omitempty"`
}

// NewMessage builds a message with a fresh id. Parameters are copied.
func NewMessage(chatID string, role Role, content string, now time.Time) (*Message, error) {
	if chatID == "" {
		return nil, errors.InvalidParam("chat id is required")
	}
	if !role.IsValid() {
		return nil, errors.InvalidParam("unknown message role").WithDetail(string(role))
	}
	return &Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: now.UTC(),
	}, nil
}

// WithPrediction attaches the ml flag and parameter snapshot to an assistant message.
func (m *Message) WithPrediction(mlActivated bool, params map[string]session.Value) *Message {
	m.MLActivated = mlActivated
	if len(params) > 0 {
		m.Parameters = make(map[string]session.Value, len(params))
		for k, v := range params {
			m.Parameters[k] = v
		}
	}
	return m
}

// Preview truncates content to PreviewLength characters, adding "..." when cut.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:PreviewLength]) + "..."
}

//Personal.AI order the ending
