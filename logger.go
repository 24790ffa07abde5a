package jsonrpc

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

const (
	// ErrorLogField is the key used for error fields in logs
	ErrorLogField string = "error"
)

// Logger is the logging contract used by the dispatcher, the client and the transports.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	WithFields(fields map[string]interface{}) Logger
	WithContext(ctx context.Context) Logger
	WithErr(err error) Logger
}

// DefaultLogger writes through the standard library log package.
type DefaultLogger struct {
	*log.Logger
	fields map[string]interface{}
	err    error
}

// NewDefaultLogger creates a DefaultLogger writing to standard output.
func NewDefaultLogger() Logger {
	return &DefaultLogger{
		Logger: log.New(os.Stdout, "", log.LstdFlags),
		fields: map[string]interface{}{},
	}
}

func (l *DefaultLogger) Debug(args ...interface{}) { l.print("DEBUG", args) }
func (l *DefaultLogger) Info(args ...interface{})  { l.print("INFO", args) }
func (l *DefaultLogger) Warn(args ...interface{})  { l.print("WARN", args) }
func (l *DefaultLogger) Error(args ...interface{}) { l.print("ERROR", args) }

func (l *DefaultLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &DefaultLogger{Logger: l.Logger, fields: merged, err: l.err}
}

// WithContext returns the logger unchanged.
func (l *DefaultLogger) WithContext(ctx context.Context) Logger {
	return l
}

func (l *DefaultLogger) WithErr(err error) Logger {
	return &DefaultLogger{Logger: l.Logger, fields: l.fields, err: err}
}

func (l *DefaultLogger) print(level string, args []interface{}) {
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, l.fields[k]))
	}
	if l.err != nil {
		parts = append(parts, fmt.Sprintf("%s=%v", ErrorLogField, l.err))
	}

	prefix := ""
	if len(parts) > 0 {
		prefix = "[" + strings.Join(parts, " ") + "] "
	}
	l.Logger.Printf("%s[%s] %s", prefix, level, fmt.Sprint(args...))
}

// NullLogger discards everything.
type NullLogger struct{}

// NewNullLogger creates a NullLogger
func NewNullLogger() Logger {
	return &NullLogger{}
}

func (l *NullLogger) Debug(args ...interface{})                        {}
func (l *NullLogger) Info(args ...interface{})                         {}
func (l *NullLogger) Warn(args ...interface{})                         {}
func (l *NullLogger) Error(args ...interface{})                        {}
func (l *NullLogger) WithFields(fields map[string]interface{}) Logger { return l }
func (l *NullLogger) WithContext(ctx context.Context) Logger           { return l }
func (l *NullLogger) WithErr(err error) Logger                         { return l }

// SlogLogger adapts a *slog.Logger.
type SlogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

// NewSlogLogger wraps logger, falling back to slog.Default when nil.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger, ctx: context.Background()}
}

func (l *SlogLogger) Debug(args ...interface{}) {
	l.logger.DebugContext(l.ctx, fmt.Sprint(args...))
}

func (l *SlogLogger) Info(args ...interface{}) {
	l.logger.InfoContext(l.ctx, fmt.Sprint(args...))
}

func (l *SlogLogger) Warn(args ...interface{}) {
	l.logger.WarnContext(l.ctx, fmt.Sprint(args...))
}

func (l *SlogLogger) Error(args ...interface{}) {
	l.logger.ErrorContext(l.ctx, fmt.Sprint(args...))
}

func (l *SlogLogger) WithFields(fields map[string]interface{}) Logger {
	attrs := make([]any, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return &SlogLogger{logger: l.logger.With(attrs...), ctx: l.ctx}
}

func (l *SlogLogger) WithContext(ctx context.Context) Logger {
	return &SlogLogger{logger: l.logger, ctx: ctx}
}

func (l *SlogLogger) WithErr(err error) Logger {
	return &SlogLogger{logger: l.logger.With(slog.Any(ErrorLogField, err)), ctx: l.ctx}
}

// LogrusLogger adapts a logrus logger.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps logger, falling back to the logrus standard logger when nil.
func NewLogrusLogger(logger *logrus.Logger) Logger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusLogger{entry: logrus.NewEntry(logger)}
}

func (l *LogrusLogger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *LogrusLogger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *LogrusLogger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *LogrusLogger) Error(args ...interface{}) { l.entry.Error(args...) }

func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *LogrusLogger) WithContext(ctx context.Context) Logger {
	return &LogrusLogger{entry: l.entry.WithContext(ctx)}
}

func (l *LogrusLogger) WithErr(err error) Logger {
	return &LogrusLogger{entry: l.entry.WithError(err)}
}

// ZapLogger adapts a zap logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps logger, falling back to a production logger when nil.
func NewZapLogger(logger *zap.Logger) Logger {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &ZapLogger{sugar: logger.Sugar()}
}

func (l *ZapLogger) Debug(args ...interface{}) { l.sugar.Debug(args...) }
func (l *ZapLogger) Info(args ...interface{})  { l.sugar.Info(args...) }
func (l *ZapLogger) Warn(args ...interface{})  { l.sugar.Warn(args...) }
func (l *ZapLogger) Error(args ...interface{}) { l.sugar.Error(args...) }

func (l *ZapLogger) WithFields(fields map[string]interface{}) Logger {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &ZapLogger{sugar: l.sugar.With(kv...)}
}

// WithContext returns the logger unchanged.
func (l *ZapLogger) WithContext(ctx context.Context) Logger {
	return l
}

func (l *ZapLogger) WithErr(err error) Logger {
	return &ZapLogger{sugar: l.sugar.With(zap.Error(err))}
}

// ZerologLogger adapts a zerolog logger.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps logger.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return &ZerologLogger{logger: logger}
}

func (l *ZerologLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l *ZerologLogger) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l *ZerologLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l *ZerologLogger) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }

func (l *ZerologLogger) WithFields(fields map[string]interface{}) Logger {
	return &ZerologLogger{logger: l.logger.With().Fields(fields).Logger()}
}

func (l *ZerologLogger) WithContext(ctx context.Context) Logger {
	return &ZerologLogger{logger: l.logger.With().Ctx(ctx).Logger()}
}

func (l *ZerologLogger) WithErr(err error) Logger {
	return &ZerologLogger{logger: l.logger.With().Err(err).Logger()}
}
