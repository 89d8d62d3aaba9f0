package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)
	v, ok := messages[0].Field("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_ChildrenShareStore(t *testing.T) {
	logger := testutil.NewMockLogger()
	ctx := logging.WithRequestID(context.Background(), "req-9")

	logger.With(logging.String("pair", "DE-FR")).WithContext(ctx).WithError(errors.New("boom")).Warn("child")

	msg, ok := logger.Find("warn", "child")
	require.True(t, ok)
	pair, _ := msg.Field("pair")
	id, _ := msg.Field(logging.FieldRequestID)
	e, _ := msg.Field(logging.FieldError)
	assert.Equal(t, "DE-FR", pair)
	assert.Equal(t, "req-9", id)
	assert.Equal(t, "boom", e)
}
