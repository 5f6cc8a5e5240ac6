package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// LogLevel is the verbosity of a Logger. Higher values log more.
type LogLevel int

const (
	LogError LogLevel = iota
	LogWarn
	LogInfo
	LogDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "ERROR"
	case LogWarn:
		return "WARN"
	case LogInfo:
		return "INFO"
	case LogDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps "debug", "info", "warn" or "error" to a LogLevel. Anything
// else is info.
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogDebug
	case "warn", "warning":
		return LogWarn
	case "error":
		return LogError
	default:
		return LogInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger is the leveled logger used across the module.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// SlogLogger writes through log/slog with a JSON or text handler.
type SlogLogger struct {
	mu      sync.Mutex
	level   LogLevel
	leveler *slog.LevelVar
	logger  *slog.Logger
}

// NewSlogLogger creates a logger writing to w. format is "json" (default)
// or "text". A nil w writes to stdout.
func NewSlogLogger(level LogLevel, format string, w io.Writer) *SlogLogger {
	if w == nil {
		w = os.Stdout
	}
	leveler := new(slog.LevelVar)
	leveler.Set(level.slogLevel())
	opts := &slog.HandlerOptions{Level: leveler}

	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &SlogLogger{level: level, leveler: leveler, logger: slog.New(handler)}
}

// Slog returns the underlying slog logger.
func (l *SlogLogger) Slog() *slog.Logger {
	return l.logger
}

func (l *SlogLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.leveler.Set(level.slogLevel())
}

func (l *SlogLogger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *SlogLogger) Debug(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Info(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Warn(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Error(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(format string, args ...interface{}) {}
func (l *NoOpLogger) Info(format string, args ...interface{})  {}
func (l *NoOpLogger) Warn(format string, args ...interface{})  {}
func (l *NoOpLogger) Error(format string, args ...interface{}) {}
func (l *NoOpLogger) SetLevel(level LogLevel)                  {}
func (l *NoOpLogger) GetLevel() LogLevel                       { return LogInfo }

// ==================== gorm adapter ====================

// GormLogger adapts a Logger to gorm's logger.Interface.
type GormLogger struct {
	Logger        Logger
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
}

// NewGormLogger maps the logger's level onto gorm's levels.
func NewGormLogger(l Logger) *GormLogger {
	level := gormlogger.Warn
	switch l.GetLevel() {
	case LogDebug, LogInfo:
		level = gormlogger.Info
	case LogError:
		level = gormlogger.Error
	}
	return &GormLogger{Logger: l, Level: level, SlowThreshold: 200 * time.Millisecond}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *g
	cp.Level = level
	return &cp
}

func (g *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.Level >= gormlogger.Info {
		g.Logger.Info(msg, args...)
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.Level >= gormlogger.Warn {
		g.Logger.Warn(msg, args...)
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.Level >= gormlogger.Error {
		g.Logger.Error(msg, args...)
	}
}

// Trace logs each statement: failures at error level, slow statements at
// warn level and everything else at debug level.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.Level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && g.Level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		g.Logger.Error("%s [%s rows:%d] %s", err, elapsed, rows, sql)
	case g.SlowThreshold > 0 && elapsed > g.SlowThreshold && g.Level >= gormlogger.Warn:
		sql, rows := fc()
		g.Logger.Warn("slow sql >= %s [%s rows:%d] %s", g.SlowThreshold, elapsed, rows, sql)
	case g.Level >= gormlogger.Info:
		sql, rows := fc()
		g.Logger.Debug("[%s rows:%d] %s", elapsed, rows, sql)
	}
}
