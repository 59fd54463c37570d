package observability

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cre-mailflow/api/internal/platform/httpx"
	"github.com/cre-mailflow/api/internal/platform/requestctx"
)

// InjectLoggerMiddleware stores the provided logger on the request context to make it accessible downstream.
func InjectLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestctx.WithLogger(r.Context(), logger)))
		})
	}
}

// RequestLoggerMiddleware resolves the caller key used by rate limiting, scopes a logger to the
// request and writes one completion entry carrying the status and any annotations handlers and
// services recorded (plan id, design outcome, draft result).
func RequestLoggerMiddleware(resolver ClientIPResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey, forwarded := resolver.Resolve(r)
			ctx = requestctx.WithClientIP(ctx, clientKey)
			ctx, annotations := requestctx.WithAnnotations(ctx)

			traceInfo, _ := requestctx.Trace(ctx)
			fields := []zap.Field{
				zap.String("request_id", middleware.GetReqID(ctx)),
				zap.String("method", SanitizeMethod(r.Method)),
				zap.String("path", SanitizeRoute(r.URL.Path)),
				zap.String("client_key", SanitizeEvent(clientKey)),
			}
			if forwarded {
				fields = append(fields, zap.Bool("forwarded", true))
			}
			if traceInfo.TraceID != "" {
				fields = append(fields, zap.String("trace_id", traceInfo.TraceID))
			}
			if traceInfo.ProjectID != "" && traceInfo.TraceID != "" {
				fields = append(fields, zap.String("logging.googleapis.com/trace",
					fmt.Sprintf("projects/%s/traces/%s", traceInfo.ProjectID, traceInfo.TraceID)))
			}
			logger := WithRequestFields(requestctx.Logger(ctx), fields...)
			r = r.WithContext(requestctx.WithLogger(ctx, logger))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			status := 0
			defer func() {
				if rec := recover(); rec != nil {
					status = http.StatusInternalServerError
					logCompletion(logger, r, status, ww.BytesWritten(), time.Since(start), annotations)
					panic(rec)
				}
				logCompletion(logger, r, status, ww.BytesWritten(), time.Since(start), annotations)
			}()

			next.ServeHTTP(ww, r)
			if status = ww.Status(); status == 0 {
				status = http.StatusOK
			}
		})
	}
}

func logCompletion(logger *zap.Logger, r *http.Request, status, bytes int, latency time.Duration, annotations *requestctx.Annotations) {
	route := matchedRoute(r)
	if span := trace.SpanFromContext(r.Context()); span.IsRecording() {
		span.SetAttributes(semconv.HTTPResponseStatusCode(status), semconv.HTTPRoute(route))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}

	fields := []zap.Field{
		zap.String("route", route),
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.Int("bytes", bytes),
	}
	annotations.Each(func(key, value string) {
		fields = append(fields, zap.String(key, SanitizeEvent(value)))
	})

	level := zapcore.InfoLevel
	switch {
	case status >= http.StatusInternalServerError:
		level = zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		level = zapcore.WarnLevel
	}
	logger.Log(level, "request completed", fields...)
}

// matchedRoute prefers the chi pattern so path parameters do not explode log cardinality.
func matchedRoute(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return SanitizeRoute(pattern)
		}
	}
	return SanitizeRoute(r.URL.Path)
}

// RecoveryMiddleware turns a panic into the JSON 500 envelope after logging the stack.
func RecoveryMiddleware(fallback *zap.Logger) func(http.Handler) http.Handler {
	if fallback == nil {
		fallback = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger := requestctx.Logger(r.Context())
				if logger == requestctx.NoopLogger() {
					logger = fallback
				}
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				httpx.WriteError(r.Context(), w, httpx.NewError("internal_server_error", "Internal server error", http.StatusInternalServerError))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
