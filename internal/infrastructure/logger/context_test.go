package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Run("returns the attached logger", func(t *testing.T) {
		l := zap.NewExample()
		ctx := WithContext(context.Background(), l)
		assert.Same(t, l, FromContext(ctx))
	})

	t.Run("falls back to a no-op logger", func(t *testing.T) {
		l := FromContext(context.Background())
		assert.NotNil(t, l)
		l.Info("dropped")
	})
}

func TestWithOperationID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, l := WithOperationID(context.Background(), zap.New(core), "op-1")
	assert.Equal(t, "op-1", GetOperationID(ctx))
	assert.Same(t, l, FromContext(ctx))

	FromContext(ctx).Info("committed")
	logs := recorded.All()
	assert.Len(t, logs, 1)
	assert.Equal(t, "op-1", logs[0].ContextMap()["operation_id"])

	assert.Empty(t, GetOperationID(context.Background()))
}
