package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var gormLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"info":   gormlogger.Info,
	"debug":  gormlogger.Info,
}

// MapGormLogLevel converts the service log level. Anything unrecognised,
// including "warn", only surfaces slow queries and errors.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	if l, ok := gormLevels[level]; ok {
		return l
	}
	return gormlogger.Warn
}

// GormLogger sends GORM statements to zap with the request and trace IDs
// of the calling context attached.
type GormLogger struct {
	log   *zap.Logger
	sugar *zap.SugaredLogger
	level gormlogger.LogLevel
	slow  time.Duration
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger logs statements over slow at warn; slow <= 0 turns that off.
func NewGormLogger(base *zap.Logger, level gormlogger.LogLevel, slow time.Duration) *GormLogger {
	named := base.Named("gorm")
	return &GormLogger{log: named, sugar: named.Sugar(), level: level, slow: slow}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.sugar.Infof(msg, args...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.sugar.Warnf(msg, args...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.sugar.Errorf(msg, args...)
	}
}

// Trace never reports gorm.ErrRecordNotFound; repositories turn it into a
// domain not-found error themselves.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	took := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := l.slow > 0 && took > l.slow

	switch {
	case failed && l.level >= gormlogger.Error:
		l.log.Error("SQL Error", append(statementFields(ctx, fc, took), zap.Error(err))...)
	case slow && l.level >= gormlogger.Warn:
		l.log.Warn("Slow SQL", append(statementFields(ctx, fc, took), zap.Duration("threshold", l.slow))...)
	case l.level >= gormlogger.Info:
		l.log.Debug("SQL Query", statementFields(ctx, fc, took)...)
	}
}

func statementFields(ctx context.Context, fc func() (string, int64), took time.Duration) []zap.Field {
	stmt, rows := fc()
	fields := []zap.Field{zap.String("sql", stmt), zap.Int64("rows", rows), zap.Duration("elapsed", took)}
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetTraceID(ctx); id != "" {
		fields = append(fields, zap.String("trace_id", id))
	}
	return fields
}
