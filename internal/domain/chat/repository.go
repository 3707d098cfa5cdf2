package chat

import "context"

// Repository persists chats and their messages.
type Repository interface {
	// CreateChat inserts a new chat. Returns a conflict error when the id exists.
	CreateChat(ctx context.Context, c *Chat) error

	// GetChat returns errors.CodeChatNotFound when no chat has the id.
	GetChat(ctx context.Context, id string) (*Chat, error)

	ChatExists(ctx context.Context, id string) (bool, error)

	// ListChatsByUser orders by last activity, most recent first; chats without
	// messages come last, newest first.
	ListChatsByUser(ctx context.Context, username string) ([]*Chat, error)

	// AppendMessage stores m and updates the chat's last message time and
	// preview in one transaction.
	AppendMessage(ctx context.Context, m *Message) error

	// ListMessages returns the chat's messages oldest first.
	ListMessages(ctx context.Context, chatID string) ([]*Message, error)
}

//Personal.AI order the ending
