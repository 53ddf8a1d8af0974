package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func countPlans() (string, int64) {
	return "SELECT count(*) FROM plan_configs", 1
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		begin     time.Time
		err       error
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{"normal query logs at debug", gormlogger.Info, time.Now(), nil, MsgSQLStatement, zapcore.DebugLevel},
		{"error logs at error", gormlogger.Error, time.Now(), errors.New("conn refused"), MsgSQLFailed, zapcore.ErrorLevel},
		{"slow query warns", gormlogger.Warn, time.Now().Add(-time.Second), nil, MsgSQLSlow, zapcore.WarnLevel},
		{"slow query hidden at error level", gormlogger.Error, time.Now().Add(-time.Second), nil, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			l := NewGormLogger(zap.New(core), tt.level)

			l.Trace(context.Background(), tt.begin, countPlans, tt.err)

			entries := recorded.All()
			if tt.wantMsg == "" {
				assert.Empty(t, entries)
				return
			}
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantMsg, entries[0].Message)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			assert.Equal(t, "SELECT count(*) FROM plan_configs", entries[0].ContextMap()["sql"])
		})
	}
}

func TestGormLogger_Trace_Suppressed(t *testing.T) {
	t.Run("silent level", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		NewGormLogger(zap.New(core), gormlogger.Silent).Trace(context.Background(), time.Now(), countPlans, nil)
		assert.Empty(t, recorded.All())
	})

	t.Run("record not found ignored by default", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		NewGormLogger(zap.New(core), gormlogger.Error).
			Trace(context.Background(), time.Now(), countPlans, gormlogger.ErrRecordNotFound)
		assert.Empty(t, recorded.All())
	})

	t.Run("record not found logged when configured", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		NewGormLogger(zap.New(core), gormlogger.Error, WithIgnoreRecordNotFoundError(false)).
			Trace(context.Background(), time.Now(), countPlans, gormlogger.ErrRecordNotFound)
		assert.Len(t, recorded.All(), 1)
	})

	t.Run("custom slow threshold", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(5*time.Second)).
			Trace(context.Background(), time.Now().Add(-time.Second), countPlans, nil)
		assert.Empty(t, recorded.All())
	})
}

func TestGormLogger_Trace_CarriesRequestFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Info)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-42")
	ctx = context.WithValue(ctx, ScopeKey, "DOCTOR:abc")
	ctx = context.WithValue(ctx, UserIDKey, "user-7")
	l.Trace(ctx, time.Now(), countPlans, nil)

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "DOCTOR:abc", fields["scope"])
	assert.Equal(t, "user-7", fields["user_id"])
}

func TestGormLogger_Trace_TruncatesLongStatements(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Info, WithMaxSQLLength(10))

	l.Trace(context.Background(), time.Now(), countPlans, nil)

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "SELECT cou...(truncated)", recorded.All()[0].ContextMap()["sql"])
}

func TestGormLogger_Trace_SlowCarriesThreshold(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(50*time.Millisecond))

	l.Trace(context.Background(), time.Now().Add(-time.Second), countPlans, nil)

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, 50*time.Millisecond, recorded.All()[0].ContextMap()["threshold"])
}

func TestGormLogger_LogMode(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	base := NewGormLogger(zap.New(core), gormlogger.Silent)

	loud := base.LogMode(gormlogger.Info)
	loud.Info(context.Background(), "seeded %d plans", 3)
	base.Info(context.Background(), "hidden")

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "seeded 3 plans", entries[0].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Info,
		"debug":   gormlogger.Info,
		" INFO ":  gormlogger.Info,
		"unknown": gormlogger.Warn,
		"":        gormlogger.Warn,
	}
	for level, want := range tests {
		assert.Equal(t, want, MapGormLogLevel(level), "level %q", level)
	}
}
