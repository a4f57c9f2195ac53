package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

// setupRecorder installs a recording tracer provider as the global provider
func setupRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return tp, recorder
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	assert.Equal(t, 200*time.Millisecond, plugin.config.SlowQueryThresh)

	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestDBTracingPlugin_Register(t *testing.T) {
	t.Run("disabled records nothing", func(t *testing.T) {
		_, recorder := setupRecorder(t)
		db := setupTestDB(t)

		require.NoError(t, NewDBTracingPlugin(DBTracingConfig{}, zap.NewNop()).Register(db))
		require.NoError(t, db.WithContext(context.Background()).Create(&tracedRow{Name: "a"}).Error)

		assert.Empty(t, recorder.Ended())
	})

	t.Run("enabled traces statements", func(t *testing.T) {
		tp, recorder := setupRecorder(t)
		db := setupTestDB(t)

		cfg := DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Hour}
		require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))

		ctx, parent := tp.Tracer("test").Start(context.Background(), "catalog.commit")
		require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
		var rows []tracedRow
		require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
		parent.End()

		ended := recorder.Ended()
		require.Greater(t, len(ended), 1)
		for _, span := range ended {
			if span.Name() == "catalog.commit" {
				continue
			}
			assert.Equal(t, parent.SpanContext().TraceID(), span.SpanContext().TraceID())
			_, slow := attrMap(span.Attributes())["db.slow_query"]
			assert.False(t, slow)
		}
	})
}

func TestDBTracingPlugin_AfterQuery(t *testing.T) {
	tp, recorder := setupRecorder(t)
	db := setupTestDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: 50 * time.Millisecond}, zap.NewNop())

	t.Run("slow statement", func(t *testing.T) {
		ctx, span := tp.Tracer("test").Start(context.Background(), "slow")
		ctx = context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second))

		tx := db.WithContext(ctx)
		tx.Statement.Table = "items"
		tx.Statement.RowsAffected = 3
		plugin.afterQuery(tx)
		span.End()

		recorded := recorder.Ended()[len(recorder.Ended())-1]
		attrs := attrMap(recorded.Attributes())
		assert.True(t, attrs["db.slow_query"].AsBool())
		assert.Equal(t, "items", attrs["db.sql.table"].AsString())
		assert.EqualValues(t, 3, attrs["db.rows_affected"].AsInt64())
		require.Len(t, recorded.Events(), 1)
		assert.Equal(t, "slow_query_warning", recorded.Events()[0].Name)
	})

	t.Run("not found is not an error", func(t *testing.T) {
		ctx, span := tp.Tracer("test").Start(context.Background(), "lookup")
		tx := db.WithContext(ctx)
		tx.Error = gorm.ErrRecordNotFound
		plugin.afterQuery(tx)
		span.End()

		recorded := recorder.Ended()[len(recorder.Ended())-1]
		assert.Equal(t, codes.Unset, recorded.Status().Code)
	})

	t.Run("failure marks the span", func(t *testing.T) {
		ctx, span := tp.Tracer("test").Start(context.Background(), "insert")
		tx := db.WithContext(ctx)
		tx.Error = errors.New("duplicate key value violates unique constraint")
		plugin.afterQuery(tx)
		span.End()

		recorded := recorder.Ended()[len(recorder.Ended())-1]
		assert.Equal(t, codes.Error, recorded.Status().Code)
	})
}
