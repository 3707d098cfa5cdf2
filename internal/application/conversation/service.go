package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/application/prediction"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/chat"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/session"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/messaging/kafka"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// Service is the chat application API used by the transports.
type Service interface {
	CreateChat(ctx context.Context, req *CreateChatRequest) (*chat.Chat, error)
	ListChats(ctx context.Context, username string) ([]*chat.Chat, error)
	SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error)
	Messages(ctx context.Context, chatID string) ([]*chat.Message, error)
	Summary(ctx context.Context, chatID string) (*Summary, error)
	// Reset replaces the chat's session when one is live and reports whether it did.
	Reset(ctx context.Context, chatID string) bool
}

type CreateChatRequest struct {
	Username string `json:"username"`
	Title    string `json:"title,omitempty"`
}

type SendMessageRequest struct {
	Message     string `json:"message"`
	MLActivated bool   `json:"ml_activated"`
	ChatID      string `json:"chat_id"`
}

type SendMessageResponse struct {
	Response    string                   `json:"response"`
	SessionID   string                   `json:"session_id"`
	ChatID      string                   `json:"chat_id"`
	Parameters  map[string]session.Value `json:"parameters"`
	MLActivated bool                     `json:"ml_activated"`
}

// ServiceRecorder receives conversation metrics.
type ServiceRecorder interface {
	RecordMessage(role string)
	SetActiveSessions(n int)
}

// ServiceDeps wires the Service. Events, Metrics, Clock and Logger are optional.
type ServiceDeps struct {
	Repo       chat.Repository
	Store      *session.Store
	Router     *Router
	Summarizer *Summarizer
	Events     kafka.EventPublisher
	Metrics    ServiceRecorder
	Clock      session.Clock
	Logger     logging.Logger
}

type serviceImpl struct {
	repo       chat.Repository
	store      *session.Store
	router     *Router
	summarizer *Summarizer
	events     kafka.EventPublisher
	metrics    ServiceRecorder
	now        session.Clock
	logger     logging.Logger
}

// NewService validates deps and fills the optional ones.
func NewService(d ServiceDeps) (Service, error) {
	if d.Repo == nil || d.Store == nil || d.Router == nil || d.Summarizer == nil {
		return nil, errors.New(errors.ErrCodeInternal, "conversation service requires Repo, Store, Router and Summarizer")
	}
	s := &serviceImpl{
		repo:       d.Repo,
		store:      d.Store,
		router:     d.Router,
		summarizer: d.Summarizer,
		events:     d.Events,
		metrics:    d.Metrics,
		now:        d.Clock,
		logger:     d.Logger,
	}
	if s.events == nil {
		s.events = kafka.NoopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.Named("conversation")
	return s, nil
}

func (s *serviceImpl) CreateChat(ctx context.Context, req *CreateChatRequest) (*chat.Chat, error) {
	if req == nil {
		return nil, errors.InvalidParam("request is required")
	}
	c, err := chat.NewChat(req.Username, req.Title, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateChat(ctx, c); err != nil {
		return nil, err
	}

	s.store.Replace(c.ID)
	s.reportSessions()

	s.publish(ctx, kafka.EventChatCreated, c.ID, kafka.ChatCreatedPayload{
		ChatID:    c.ID,
		Username:  c.Username,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
	})
	s.logger.Info("chat created", logging.ChatID(c.ID), logging.String("username", c.Username))
	return c, nil
}

func (s *serviceImpl) ListChats(ctx context.Context, username string) ([]*chat.Chat, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.InvalidParam("username is required")
	}
	return s.repo.ListChatsByUser(ctx, username)
}

func (s *serviceImpl) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	if req == nil {
		return nil, errors.InvalidParam("request is required")
	}
	if strings.TrimSpace(req.ChatID) == "" {
		return nil, errors.InvalidParam("chat_id is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.InvalidParam("message is required")
	}
	if err := s.ensureChat(ctx, req.ChatID); err != nil {
		return nil, err
	}

	sess := s.store.GetOrCreate(req.ChatID)
	s.reportSessions()

	userMsg, err := chat.NewMessage(req.ChatID, chat.RoleUser, req.Message, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, userMsg); err != nil {
		return nil, err
	}

	reply, delta := s.router.Handle(prediction.WithChatID(ctx, req.ChatID), req.Message, sess, req.MLActivated)

	params := sess.Parameters()
	for k, v := range delta {
		params[k] = v
	}

	assistantMsg, err := chat.NewMessage(req.ChatID, chat.RoleAssistant, reply, s.now())
	if err != nil {
		return nil, err
	}
	assistantMsg.WithPrediction(sess.MLActivated(), params)
	if err := s.persist(ctx, assistantMsg); err != nil {
		return nil, err
	}

	return &SendMessageResponse{
		Response:    reply,
		SessionID:   req.ChatID,
		ChatID:      req.ChatID,
		Parameters:  params,
		MLActivated: sess.MLActivated(),
	}, nil
}

func (s *serviceImpl) Messages(ctx context.Context, chatID string) ([]*chat.Message, error) {
	if err := s.ensureChat(ctx, chatID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, chatID)
}

func (s *serviceImpl) Summary(ctx context.Context, chatID string) (*Summary, error) {
	if err := s.ensureChat(ctx, chatID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return s.summarizer.Summarize(ctx, chatID, messages), nil
}

func (s *serviceImpl) Reset(_ context.Context, chatID string) bool {
	if chatID == "" {
		return false
	}
	if _, ok := s.store.Get(chatID); !ok {
		return false
	}
	s.store.Replace(chatID)
	s.logger.Info("session reset", logging.ChatID(chatID))
	return true
}

func (s *serviceImpl) ensureChat(ctx context.Context, chatID string) error {
	exists, err := s.repo.ChatExists(ctx, chatID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.New(errors.ErrCodeChatNotFound, "Chat not found").WithDetail(chatID)
	}
	return nil
}

// persist stores m and announces it.
func (s *serviceImpl) persist(ctx context.Context, m *chat.Message) error {
	if err := s.repo.AppendMessage(ctx, m); err != nil {
		s.logger.Error("message store failed", logging.ChatID(m.ChatID), logging.String("role", string(m.Role)), logging.Err(err))
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordMessage(string(m.Role))
	}
	s.publish(ctx, kafka.EventChatMessageStored, m.ChatID, kafka.MessageStoredPayload{
		ChatID:      m.ChatID,
		MessageID:   m.ID,
		Role:        string(m.Role),
		MLActivated: m.MLActivated,
		StoredAt:    m.CreatedAt,
	})
	return nil
}

func (s *serviceImpl) publish(ctx context.Context, eventType, key string, payload interface{}) {
	if err := s.events.PublishEvent(ctx, eventType, key, payload); err != nil {
		s.logger.Debug("event dropped", logging.String("event_type", eventType), logging.Err(err))
	}
}

func (s *serviceImpl) reportSessions() {
	if s.metrics != nil {
		s.metrics.SetActiveSessions(s.store.Len())
	}
}

//Personal.AI order the ending
