package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
)

type capturePublisher struct {
	msgs []*ProducerMessage
	err  error
}

func (c *capturePublisher) Publish(_ context.Context, msg *ProducerMessage) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

type eventCounts map[string]int

func (e eventCounts) RecordEvent(eventType, status string) {
	e[eventType+"/"+status]++
}

func TestTopics_For(t *testing.T) {
	topics := DefaultTopics()
	assert.Equal(t, TopicChatEvents, topics.For(EventChatCreated))
	assert.Equal(t, TopicChatEvents, topics.For(EventChatMessageStored))
	assert.Equal(t, TopicPredictionEvents, topics.For(EventPredictionCompleted))
	assert.Equal(t, TopicPredictionEvents, topics.For(EventPredictionFailed))
	assert.Equal(t, TopicSessionEvents, topics.For(EventSessionEvicted))
	assert.Empty(t, topics.For("report.archived"))
	assert.Len(t, topics.All(), 3)
}

func TestPublisher_RoutesAndWraps(t *testing.T) {
	sink := &capturePublisher{}
	counts := eventCounts{}
	pub := NewPublisher(sink, DefaultTopics(), logging.NewNopLogger(), WithEventRecorder(counts))

	payload := ChatCreatedPayload{ChatID: "c1", Username: "ana", Title: "New Chat", CreatedAt: time.Unix(0, 0).UTC()}
	require.NoError(t, pub.PublishEvent(context.Background(), EventChatCreated, "c1", payload))

	require.Len(t, sink.msgs, 1)
	msg := sink.msgs[0]
	assert.Equal(t, TopicChatEvents, msg.Topic)
	assert.Equal(t, []byte("c1"), msg.Key)
	assert.Equal(t, EventChatCreated, msg.Headers["event_type"])
	assert.Equal(t, EventSource, msg.Headers["source_service"])

	env, err := MessageToEventEnvelope(&Message{Value: msg.Value})
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, env.SchemaVersion)
	assert.NotEmpty(t, env.EventID)

	var got ChatCreatedPayload
	require.NoError(t, env.DecodePayload(&got))
	assert.Equal(t, payload, got)
	assert.Equal(t, 1, counts[EventChatCreated+"/ok"])
}

func TestPublisher_UnknownEvent(t *testing.T) {
	sink := &capturePublisher{}
	counts := eventCounts{}
	pub := NewPublisher(sink, DefaultTopics(), nil, WithEventRecorder(counts))

	err := pub.PublishEvent(context.Background(), "nope", "", struct{}{})
	assert.Error(t, err)
	assert.Empty(t, sink.msgs)
	assert.Equal(t, 1, counts["nope/rejected"])
}

func TestPublisher_ProducerError(t *testing.T) {
	counts := eventCounts{}
	pub := NewPublisher(&capturePublisher{err: errors.New("down")}, DefaultTopics(), nil, WithEventRecorder(counts))

	err := pub.PublishEvent(context.Background(), EventSessionEvicted, "", SessionEvictedPayload{ChatIDs: []string{"a"}})
	assert.Error(t, err)
	assert.Equal(t, 1, counts[EventSessionEvicted+"/error"])
}

func TestPublisher_UnmarshalablePayload(t *testing.T) {
	pub := NewPublisher(&capturePublisher{}, DefaultTopics(), nil)
	err := pub.PublishEvent(context.Background(), EventChatCreated, "", map[string]interface{}{"f": func() {}})
	assert.Error(t, err)
}

func TestEnvelope_DecodeEmpty(t *testing.T) {
	env := &EventEnvelope{Payload: json.RawMessage("null")}
	assert.Error(t, env.DecodePayload(&struct{}{}))

	_, err := MessageToEventEnvelope(&Message{})
	assert.Error(t, err)
	_, err = MessageToEventEnvelope(&Message{Value: []byte("{")})
	assert.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	var p EventPublisher = NoopPublisher{}
	assert.NoError(t, p.PublishEvent(context.Background(), EventChatCreated, "k", nil))
}

//Personal.AI order the ending
