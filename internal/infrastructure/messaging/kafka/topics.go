package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// Default topic names.
const (
	TopicChatEvents       = "narcos.chat.events"
	TopicPredictionEvents = "narcos.prediction.events"
	TopicSessionEvents    = "narcos.session.events"
)

// Event types.
const (
	EventChatCreated         = "chat.created"
	EventChatMessageStored   = "chat.message.stored"
	EventPredictionCompleted = "prediction.completed"
	EventPredictionFailed    = "prediction.failed"
	EventSessionEvicted      = "session.evicted"
)

const (
	EventSource   = "narcos-apiserver"
	SchemaVersion = "v1"
)

// Topics maps event families onto topic names.
type Topics struct {
	Chat       string
	Prediction string
	Session    string
}

func DefaultTopics() Topics {
	return Topics{
		Chat:       TopicChatEvents,
		Prediction: TopicPredictionEvents,
		Session:    TopicSessionEvents,
	}
}

// For returns the topic an event type is published on, or "" for unknown types.
func (t Topics) For(eventType string) string {
	switch eventType {
	case EventChatCreated, EventChatMessageStored:
		return t.Chat
	case EventPredictionCompleted, EventPredictionFailed:
		return t.Prediction
	case EventSessionEvicted:
		return t.Session
	default:
		return ""
	}
}

func (t Topics) All() []string {
	return []string{t.Chat, t.Prediction, t.Session}
}

// EventEnvelope wraps every published payload.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type ChatCreatedPayload struct {
	ChatID    string    `json:"chat_id"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageStoredPayload struct {
	ChatID      string    `json:"chat_id"`
	MessageID   string    `json:"message_id"`
	Role        string    `json:"role"`
	MLActivated bool      `json:"ml_activated"`
	StoredAt    time.Time `json:"stored_at"`
}

type PredictionPayload struct {
	ChatID     string   `json:"chat_id,omitempty"`
	Task       string   `json:"task"`
	SMILES     []string `json:"smiles"`
	Cached     bool     `json:"cached"`
	ReportKey  string   `json:"report_key,omitempty"`
	DurationMs int64    `json:"duration_ms"`
	Error      string   `json:"error,omitempty"`
}

type SessionEvictedPayload struct {
	ChatIDs   []string  `json:"chat_ids"`
	EvictedAt time.Time `json:"evicted_at"`
}

func NewEventEnvelope(eventType string, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "empty event payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode payload")
	}
	return nil
}

func (e *EventEnvelope) ToMessage(topic string, key string) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
	}
	msg := &ProducerMessage{
		Topic:     topic,
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}
	if key != "" {
		msg.Key = []byte(key)
	}
	return msg, nil
}

func MessageToEventEnvelope(msg *Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

//Personal.AI order the ending
