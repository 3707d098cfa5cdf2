package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/application/conversation"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/chat"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
)

// SessionCookie carries the chat id between requests.
const SessionCookie = "session_id"

const resetMessage = "Session reset successfully."

// ChatHandler serves the chat endpoints.
type ChatHandler struct {
	svc    conversation.Service
	logger logging.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(svc conversation.Service, logger logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ChatHandler{svc: svc, logger: logger.Named("http.chat")}
}

type CreateChatResponse struct {
	ChatID    string    `json:"chat_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type UserChatsResponse struct {
	Chats []*chat.Chat `json:"chats"`
}

type MessagesResponse struct {
	Messages []*chat.Message `json:"messages"`
}

type ResetResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateChat handles POST /chats.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req conversation.CreateChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	c, err := h.svc.CreateChat(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create chat", logging.String("username", req.Username), logging.Err(err))
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateChatResponse{
		ChatID:    c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
	})
}

// ListUserChats handles GET /users/{username}/chats.
func (h *ChatHandler) ListUserChats(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	chats, err := h.svc.ListChats(r.Context(), username)
	if err != nil {
		h.logger.Error("failed to list chats", logging.String("username", username), logging.Err(err))
		writeAppError(w, err)
		return
	}
	if chats == nil {
		chats = []*chat.Chat{}
	}
	writeJSON(w, http.StatusOK, UserChatsResponse{Chats: chats})
}

// SendMessage handles POST /chat.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req conversation.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	resp, err := h.svc.SendMessage(r.Context(), &req)
	if err != nil {
		h.logger.Warn("chat message failed", logging.ChatID(req.ChatID), logging.Err(err))
		writeAppError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    resp.SessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, resp)
}

// Messages handles GET /chats/{chatID}/messages.
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	msgs, err := h.svc.Messages(r.Context(), chatID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if msgs == nil {
		msgs = []*chat.Message{}
	}
	writeJSON(w, http.StatusOK, MessagesResponse{Messages: msgs})
}

// Summary handles GET /chats/{chatID}/summary.
func (h *ChatHandler) Summary(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	summary, err := h.svc.Summary(r.Context(), chatID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Reset handles POST /reset. The chat id comes from the session cookie, or
// the chat_id query parameter when no cookie is sent. It always succeeds.
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chat_id")
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		chatID = c.Value
	}

	h.svc.Reset(r.Context(), chatID)
	writeJSON(w, http.StatusOK, ResetResponse{Status: "success", Message: resetMessage})
}

//Personal.AI order the ending
