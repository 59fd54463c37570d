package requestctx

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerContextKey   contextKey = "github.com/cre-mailflow/api/internal/platform/requestctx/logger"
	traceContextKey    contextKey = "github.com/cre-mailflow/api/internal/platform/requestctx/trace"
	clientIPContextKey contextKey = "github.com/cre-mailflow/api/internal/platform/requestctx/client_ip"
	annotationsKey     contextKey = "github.com/cre-mailflow/api/internal/platform/requestctx/annotations"
)

var noopLogger = zap.NewNop()

// TraceInfo captures trace metadata propagated through request context.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

// WithLogger stores the logger in context for downstream consumers.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// Logger retrieves the zap logger from context or returns a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// NoopLogger exposes the shared noop logger instance.
func NoopLogger() *zap.Logger { return noopLogger }

// WithTrace stores the trace metadata on the context.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceContextKey, info)
}

// Trace retrieves the trace metadata from context when available.
func Trace(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(traceContextKey).(TraceInfo)
	return info, ok
}

// TraceID extracts the trace identifier from context when present.
func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

// WithClientIP records the caller address used for throttling and logging.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, clientIPContextKey, ip)
}

// ClientIP returns the recorded caller address or an empty string.
func ClientIP(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey).(string)
	return ip
}

// Annotations collects request-scoped log fields such as the plan being purchased. The request
// logger attaches them to its completion entry.
type Annotations struct {
	mu     sync.Mutex
	keys   []string
	values map[string]string
}

// WithAnnotations installs an empty collector on the context.
func WithAnnotations(ctx context.Context) (context.Context, *Annotations) {
	if ctx == nil {
		ctx = context.Background()
	}
	a := &Annotations{values: make(map[string]string)}
	return context.WithValue(ctx, annotationsKey, a), a
}

// Annotate records key=value on the request collector. Later values replace earlier ones; without a
// collector the call does nothing.
func Annotate(ctx context.Context, key, value string) {
	if ctx == nil || key == "" {
		return
	}
	a, ok := ctx.Value(annotationsKey).(*Annotations)
	if !ok || a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Each visits annotations in first-recorded order.
func (a *Annotations) Each(fn func(key, value string)) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, key := range a.keys {
		fn(key, a.values[key])
	}
}
