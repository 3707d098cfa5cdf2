package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/testutil"
)

var _ logging.Logger = (*testutil.MockLogger)(nil)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, logging.LevelInfo, messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)
	v, ok := messages[0].Field("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	logger.Clear()
	assert.Empty(t, logger.GetMessages())

	logger.Error("test error")
	assert.True(t, logger.HasMessage(logging.LevelError, "test error"))
	assert.False(t, logger.HasMessage(logging.LevelInfo, "test info"))
}

func TestMockLogger_ChildrenShareRecord(t *testing.T) {
	root := testutil.NewMockLogger()
	child := root.Named("session").Named("sweeper").With(logging.ChatID("c1"))

	child.Warn("evicted", logging.Int("count", 2))

	warns := root.Filter(logging.LevelWarn)
	require.Len(t, warns, 1)
	assert.Equal(t, "session.sweeper", warns[0].Logger)
	id, ok := warns[0].Field("chat_id")
	assert.True(t, ok)
	assert.Equal(t, "c1", id)
	_, ok = warns[0].Field("count")
	assert.True(t, ok)

	root.Info("root only")
	assert.Len(t, root.GetMessages(), 2)
}

//Personal.AI order the ending
