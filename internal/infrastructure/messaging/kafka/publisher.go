package kafka

import (
	"context"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// EventPublisher publishes domain events. Implementations are best-effort: callers log
// failures and carry on.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType, key string, payload interface{}) error
}

// EventRecorder counts publish attempts.
type EventRecorder interface {
	RecordEvent(eventType, status string)
}

type messagePublisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
}

// Publisher routes events onto their topics through a Producer.
type Publisher struct {
	producer messagePublisher
	topics   Topics
	source   string
	logger   logging.Logger
	recorder EventRecorder
}

type PublisherOption func(*Publisher)

func WithSource(source string) PublisherOption {
	return func(p *Publisher) { p.source = source }
}

func WithEventRecorder(r EventRecorder) PublisherOption {
	return func(p *Publisher) { p.recorder = r }
}

func NewPublisher(producer messagePublisher, topics Topics, logger logging.Logger, opts ...PublisherOption) *Publisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	p := &Publisher{
		producer: producer,
		topics:   topics,
		source:   EventSource,
		logger:   logger.Named("event_publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) PublishEvent(ctx context.Context, eventType, key string, payload interface{}) error {
	topic := p.topics.For(eventType)
	if topic == "" {
		p.record(eventType, "rejected")
		return errors.Newf(errors.ErrCodeValidation, "no topic for event type %q", eventType)
	}

	env, err := NewEventEnvelope(eventType, p.source, payload)
	if err != nil {
		p.record(eventType, "error")
		return err
	}
	msg, err := env.ToMessage(topic, key)
	if err != nil {
		p.record(eventType, "error")
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		p.record(eventType, "error")
		p.logger.Warn("event publish failed",
			logging.String("event_type", eventType),
			logging.String("topic", topic),
			logging.Err(err))
		return err
	}
	p.record(eventType, "ok")
	return nil
}

func (p *Publisher) record(eventType, status string) {
	if p.recorder != nil {
		p.recorder.RecordEvent(eventType, status)
	}
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(context.Context, string, string, interface{}) error { return nil }

//Personal.AI order the ending
