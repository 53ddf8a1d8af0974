package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// Statement log messages.
const (
	MsgSQLStatement = "sql statement"
	MsgSQLFailed    = "sql statement failed"
	MsgSQLSlow      = "slow sql statement"
)

const defaultMaxSQLLength = 2048

// GormLogger routes GORM output through zap, tagging each statement with
// the request and billing scope it ran for.
type GormLogger struct {
	log           *zap.Logger
	level         gormlogger.LogLevel
	slow          time.Duration
	quietNotFound bool
	maxSQLLength  int
}

// GormLoggerOption configures a GormLogger.
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which statements are logged as slow.
// Zero disables slow statement logging.
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slow = threshold }
}

// WithIgnoreRecordNotFoundError controls whether gorm.ErrRecordNotFound is logged.
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) { l.quietNotFound = ignore }
}

// WithMaxSQLLength truncates logged statements to n bytes. n <= 0 keeps them whole.
func WithMaxSQLLength(n int) GormLoggerOption {
	return func(l *GormLogger) { l.maxSQLLength = n }
}

// NewGormLogger creates a GORM logger backed by zap.
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		log:           zapLogger.Named("gorm"),
		level:         level,
		slow:          200 * time.Millisecond,
		quietNotFound: true,
		maxSQLLength:  defaultMaxSQLLength,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface.
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface.
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

// Warn implements gormlogger.Interface.
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

// Error implements gormlogger.Interface.
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, min gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if l.level < min {
		return
	}
	if ce := l.log.Check(lvl, fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write(requestFields(ctx)...)
	}
}

// Trace implements gormlogger.Interface. Failed statements log at error,
// slow ones at warn and the rest at debug.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	lvl, msg, ok := l.classify(elapsed, err)
	if !ok {
		return
	}
	ce := l.log.Check(lvl, msg)
	if ce == nil {
		return
	}

	sql, rows := fc()
	fields := append(requestFields(ctx),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", l.truncate(sql)),
	)
	switch msg {
	case MsgSQLFailed:
		fields = append(fields, zap.Error(err))
	case MsgSQLSlow:
		fields = append(fields, zap.Duration("threshold", l.slow))
	}
	ce.Write(fields...)
}

func (l *GormLogger) classify(elapsed time.Duration, err error) (zapcore.Level, string, bool) {
	switch {
	case err != nil:
		if l.level < gormlogger.Error || (l.quietNotFound && errors.Is(err, gormlogger.ErrRecordNotFound)) {
			return 0, "", false
		}
		return zapcore.ErrorLevel, MsgSQLFailed, true
	case l.slow > 0 && elapsed > l.slow:
		if l.level < gormlogger.Warn {
			return 0, "", false
		}
		return zapcore.WarnLevel, MsgSQLSlow, true
	case l.level >= gormlogger.Info:
		return zapcore.DebugLevel, MsgSQLStatement, true
	}
	return 0, "", false
}

func (l *GormLogger) truncate(sql string) string {
	if l.maxSQLLength <= 0 || len(sql) <= l.maxSQLLength {
		return sql
	}
	return sql[:l.maxSQLLength] + "...(truncated)"
}

func requestFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field
	for _, kv := range [...]struct {
		key, val string
	}{
		{"request_id", GetRequestID(ctx)},
		{"user_id", GetUserID(ctx)},
		{"scope", GetScope(ctx)},
		{"trace_id", GetTraceID(ctx)},
	} {
		if kv.val != "" {
			fields = append(fields, zap.String(kv.key, kv.val))
		}
	}
	return fields
}

var gormLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
	"debug":  gormlogger.Info,
}

// MapGormLogLevel maps an application log level name to a GORM log level.
// Unknown names map to Warn.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	if l, ok := gormLevels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return gormlogger.Warn
}
