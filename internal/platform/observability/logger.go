package observability

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cre-mailflow/api/internal/platform/requestctx"
)

const defaultLogLevel = "info"

// EventLogger is the logging contract services accept as a dependency.
type EventLogger func(ctx context.Context, event string, fields map[string]any)

// NewLogger constructs a zap logger emitting structured JSON. An empty level falls back to LOG_LEVEL.
func NewLogger(level string) (*zap.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	atomic := zap.NewAtomicLevel()
	if err := atomic.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		_ = atomic.UnmarshalText([]byte(defaultLogLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		NameKey:    "logger",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		EncodeDuration: zapcore.MillisDurationEncoder,
		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		StacktraceKey:  "stacktrace",
	}

	cfg := zap.Config{
		Level:             atomic,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	return cfg.Build()
}

// WithLogger injects the logger into the provided context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return requestctx.WithLogger(ctx, logger)
}

// NewEventLogger adapts zap to the EventLogger contract. Events are written at debug level with
// the request-scoped logger when one is present on the context.
func NewEventLogger(fallback *zap.Logger, message string) EventLogger {
	if fallback == nil {
		fallback = zap.NewNop()
	}
	return func(ctx context.Context, event string, fields map[string]any) {
		logger := requestctx.Logger(ctx)
		if logger == requestctx.NoopLogger() {
			logger = fallback
		}
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, eventField(k, v))
		}
		if _, failed := fields["error"]; failed {
			logger.Warn(message, zFields...)
			return
		}
		logger.Debug(message, zFields...)
	}
}

// eventField bounds string values since services log caller-supplied criteria and plan ids.
func eventField(key string, value any) zap.Field {
	switch v := value.(type) {
	case error:
		return zap.String(key, sanitizeString(v.Error(), errorLimit))
	case string:
		if key == "error" {
			return zap.String(key, sanitizeString(v, errorLimit))
		}
		return zap.String(key, SanitizeEvent(v))
	default:
		return zap.Any(key, v)
	}
}

// WithRequestFields augments the logger with standard request-scoped fields.
func WithRequestFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(fields...)
}
