package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cre-mailflow/api/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	basePath    string
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers

	checkout    http.HandlerFunc
	designs     RouteRegistrar
	campaigns   RouteRegistrar
	catalog     RouteRegistrar
	metricsPath string
	metrics     http.Handler
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultAPIPrefix  = "/api/v1"
	checkoutPath      = "/api/create-checkout-session"
	defaultTimeout    = 60 * time.Second
	errorNotFoundCode = "route_not_found"
)

// NewRouter constructs the chi router with shared middleware and the API route groups.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.Timeout(defaultTimeout),
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()

	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", "Method not allowed", http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	if cfg.metrics != nil && cfg.metricsPath != "" {
		r.Method(http.MethodGet, cfg.metricsPath, cfg.metrics)
	}

	// Registered for every method so the handler owns the 405 body.
	if cfg.checkout != nil {
		r.HandleFunc(checkoutPath, cfg.checkout)
	} else {
		registerNotImplementedRoute(r, checkoutPath, "checkout")
	}

	r.Route(cfg.basePath, func(api chi.Router) {
		mount := func(path string, registrar RouteRegistrar, name string) {
			api.Route(path, func(group chi.Router) {
				if registrar != nil {
					registrar(group)
					return
				}
				registerNotImplemented(group, name)
			})
		}

		mount("/designs", cfg.designs, "designs")
		mount("/campaigns", cfg.campaigns, "campaigns")
		if cfg.catalog != nil {
			cfg.catalog(api)
		} else {
			registerNotImplementedRoute(api, "/plans", "catalog")
			registerNotImplementedRoute(api, "/criteria/options", "catalog")
		}
	})

	return r
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handlers used for /healthz and /readyz endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithCheckoutHandler configures the hosted checkout session endpoint.
func WithCheckoutHandler(h http.HandlerFunc) Option {
	return func(cfg *routerConfig) {
		cfg.checkout = h
	}
}

// WithDesignRoutes configures the registrar responsible for design generation endpoints.
func WithDesignRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.designs = reg
	}
}

// WithCampaignRoutes configures the registrar responsible for campaign draft endpoints.
func WithCampaignRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.campaigns = reg
	}
}

// WithCatalogRoutes configures the registrar for plan and criteria option endpoints.
func WithCatalogRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.catalog = reg
	}
}

// WithMetricsHandler exposes the scrape endpoint at path.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.metricsPath = path
		cfg.metrics = h
	}
}

func registerNotImplemented(r chi.Router, name string) {
	handler := func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", fmt.Sprintf("%s routes not implemented", name), http.StatusNotImplemented))
	}
	r.HandleFunc("/*", handler)
	r.HandleFunc("/", handler)
	r.NotFound(handler)
	r.MethodNotAllowed(handler)
}

func registerNotImplementedRoute(r chi.Router, path string, name string) {
	handler := func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", fmt.Sprintf("%s routes not implemented", name), http.StatusNotImplemented))
	}
	r.HandleFunc(path, handler)
}
