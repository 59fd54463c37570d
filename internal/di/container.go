package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/cre-mailflow/api/internal/genai"
	"github.com/cre-mailflow/api/internal/handlers"
	"github.com/cre-mailflow/api/internal/payments"
	"github.com/cre-mailflow/api/internal/platform/config"
	pfirestore "github.com/cre-mailflow/api/internal/platform/firestore"
	"github.com/cre-mailflow/api/internal/platform/jobs"
	"github.com/cre-mailflow/api/internal/platform/metrics"
	"github.com/cre-mailflow/api/internal/platform/observability"
	"github.com/cre-mailflow/api/internal/platform/postgres"
	"github.com/cre-mailflow/api/internal/repositories"
	boltrepo "github.com/cre-mailflow/api/internal/repositories/bolt"
	firestorerepo "github.com/cre-mailflow/api/internal/repositories/firestore"
	postgresrepo "github.com/cre-mailflow/api/internal/repositories/postgres"
	"github.com/cre-mailflow/api/internal/services"
)

const (
	storeCheckTimeout = 2 * time.Second
	closeTimeout      = 5 * time.Second
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Designs   services.DesignGenerationService
	Checkout  services.CheckoutService
	Campaigns services.CampaignService
	System    services.SystemService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config   config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Drafts   repositories.CampaignDraftRepository
	Services Services

	build     services.BuildInfo
	clientIPs observability.ClientIPResolver
	closers   []func(context.Context) error
}

// Option customises container construction.
type Option func(*containerOptions)

type containerOptions struct {
	drafts    repositories.CampaignDraftRepository
	provider  payments.Provider
	generator services.DesignGenerator
	publisher services.CampaignEventPublisher
}

// WithDraftRepository bypasses the configured store backend.
func WithDraftRepository(repo repositories.CampaignDraftRepository) Option {
	return func(o *containerOptions) { o.drafts = repo }
}

// WithPaymentProvider bypasses Stripe client construction.
func WithPaymentProvider(p payments.Provider) Option {
	return func(o *containerOptions) { o.provider = p }
}

// WithDesignGenerator bypasses the Gemini client.
func WithDesignGenerator(g services.DesignGenerator) Option {
	return func(o *containerOptions) { o.generator = g }
}

// WithCampaignPublisher bypasses the Pub/Sub publisher.
func WithCampaignPublisher(p services.CampaignEventPublisher) Option {
	return func(o *containerOptions) { o.publisher = p }
}

// NewContainer constructs the runtime dependencies. Optional collaborators are only built when the
// configuration enables them; a missing AI key, Stripe key or store leaves the matching feature in
// its degraded mode rather than failing startup.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger, build services.BuildInfo, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var options containerOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	clientIPs, err := observability.NewClientIPResolver(cfg.Security.TrustedProxies)
	if err != nil {
		return nil, err
	}
	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics.New(),
		build:     build,
		clientIPs: clientIPs,
	}

	drafts := options.drafts
	if drafts == nil {
		repo, closer, err := openDraftStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		drafts = repo
		c.addCloser(closer)
	}
	c.Drafts = drafts

	provider := options.provider
	if provider == nil && strings.TrimSpace(cfg.PSP.StripeAPIKey) != "" {
		stripeProvider, err := payments.NewStripeProvider(payments.StripeProviderConfig{
			APIKey: cfg.PSP.StripeAPIKey,
			Logger: payments.StripeLogger(observability.NewEventLogger(logger.Named("stripe"), "stripe log")),
		})
		if err != nil {
			_ = c.Close(ctx)
			return nil, fmt.Errorf("build stripe provider: %w", err)
		}
		provider = stripeProvider
	}

	generator := options.generator
	if generator == nil && cfg.AI.Enabled() {
		client, err := genai.NewClient(ctx, genai.Options{
			APIKey:   cfg.AI.GeminiAPIKey,
			Endpoint: cfg.AI.Endpoint,
			Timeout:  cfg.AI.Timeout,
		})
		if err != nil {
			_ = c.Close(ctx)
			return nil, fmt.Errorf("build gemini client: %w", err)
		}
		generator = client
	}

	publisher := options.publisher
	if publisher == nil && drafts != nil {
		pub, closer, err := openCampaignPublisher(ctx, cfg)
		if err != nil {
			// Events are best effort; drafts still save without them.
			logger.Warn("campaign events disabled", zap.Error(err))
		} else if pub != nil {
			publisher = pub
			c.addCloser(closer)
		}
	}

	svc, err := buildServices(cfg, c.Metrics, logger, build, drafts, provider, generator, publisher)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.Services = svc
	return c, nil
}

func buildServices(
	cfg config.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
	build services.BuildInfo,
	drafts repositories.CampaignDraftRepository,
	provider payments.Provider,
	generator services.DesignGenerator,
	publisher services.CampaignEventPublisher,
) (Services, error) {
	var svc Services

	svc.Designs = services.NewDesignGenerationService(services.DesignGenerationServiceDeps{
		Generator: generator,
		Model:     cfg.AI.Model,
		Metrics:   m,
		Clock:     time.Now,
		Logger:    observability.NewEventLogger(logger.Named("designs"), "design generation log"),
	})

	svc.Checkout = services.NewCheckoutService(services.CheckoutServiceDeps{
		Payments:        provider,
		Prices:          cfg.PSP.StripePrices,
		BaseURL:         cfg.Public.BaseURL,
		FallbackBaseURL: cfg.Public.FallbackBaseURL,
		Metrics:         m,
		Clock:           time.Now,
		Logger:          observability.NewEventLogger(logger.Named("checkout"), "checkout log"),
	})

	svc.Campaigns = services.NewCampaignService(services.CampaignServiceDeps{
		Drafts:    drafts,
		Publisher: publisher,
		Metrics:   m,
		Clock:     time.Now,
		Logger:    observability.NewEventLogger(logger.Named("campaigns"), "campaign log"),
	})

	healthRepo, err := repositories.NewDependencyHealthRepository(dependencyChecks(drafts, provider))
	if err != nil {
		return Services{}, fmt.Errorf("build health repository: %w", err)
	}
	systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: healthRepo,
		Clock:            time.Now,
		Build:            build,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build system service: %w", err)
	}
	svc.System = systemSvc

	return svc, nil
}

func dependencyChecks(drafts repositories.CampaignDraftRepository, provider payments.Provider) []repositories.DependencyCheck {
	checks := []repositories.DependencyCheck{
		{
			Name: "payments",
			Check: func(context.Context) error {
				if provider == nil {
					return errors.New("stripe api key not configured")
				}
				return nil
			},
		},
	}
	if drafts != nil {
		checks = append(checks, repositories.DependencyCheck{
			Name:    "store",
			Timeout: storeCheckTimeout,
			Check:   drafts.Ping,
		})
	}
	return checks
}

// Router assembles the HTTP handler tree for the container's services.
func (c *Container) Router() http.Handler {
	logger := c.Logger.Named("http")
	projectID := strings.TrimSpace(c.Config.Firestore.ProjectID)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger),
		observability.RequestLoggerMiddleware(c.clientIPs),
	}
	if c.Config.Metrics.Enabled {
		middlewares = append(middlewares, c.Metrics.Middleware)
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(c.build),
		handlers.WithHealthSystemService(c.Services.System),
	)
	designHandlers := handlers.NewDesignHandlers(c.Services.Designs,
		handlers.WithDesignRateLimit(c.Config.RateLimits.DesignsPerMinute, time.Now),
		handlers.WithDesignRateLimitMetrics(c.Metrics),
	)

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCheckoutHandler(handlers.NewCheckoutHandlers(c.Services.Checkout).CreateSession),
		handlers.WithDesignRoutes(designHandlers.Routes),
		handlers.WithCampaignRoutes(handlers.NewCampaignHandlers(c.Services.Campaigns).Routes),
		handlers.WithCatalogRoutes(handlers.NewCatalogHandlers().Routes),
	}
	if c.Config.Metrics.Enabled {
		opts = append(opts, handlers.WithMetricsHandler(c.Config.Metrics.Path, c.Metrics.Handler()))
	}
	return handlers.NewRouter(opts...)
}

// Close releases store handles and publisher clients in reverse construction order.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		closeCtx, cancel := context.WithTimeout(ctx, closeTimeout)
		if err := c.closers[i](closeCtx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) addCloser(fn func(context.Context) error) {
	if fn != nil {
		c.closers = append(c.closers, fn)
	}
}

func openDraftStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.CampaignDraftRepository, func(context.Context) error, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		db, err := postgres.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		repo, err := postgresrepo.NewCampaignDraftRepository(db)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("campaign store ready", zap.String("backend", cfg.Store.Backend))
		return repo, func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}, nil
	case config.StoreBackendFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		repo, err := firestorerepo.NewCampaignDraftRepository(provider)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("campaign store ready", zap.String("backend", cfg.Store.Backend), zap.String("project", cfg.Firestore.ProjectID))
		return repo, provider.Close, nil
	case config.StoreBackendBolt:
		db, err := boltrepo.Open(cfg.Store.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		repo, err := boltrepo.NewCampaignDraftRepository(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("campaign store ready", zap.String("backend", cfg.Store.Backend), zap.String("path", cfg.Store.BoltPath))
		return repo, func(context.Context) error { return db.Close() }, nil
	case config.StoreBackendNone, "":
		logger.Info("campaign store not configured; drafts will be skipped")
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func openCampaignPublisher(ctx context.Context, cfg config.Config) (*jobs.PubSubCampaignPublisher, func(context.Context) error, error) {
	topicID := strings.TrimSpace(cfg.PubSub.CampaignTopic)
	if topicID == "" {
		return nil, nil, nil
	}
	projectID := strings.TrimSpace(cfg.PubSub.ProjectID)
	if projectID == "" {
		return nil, nil, errors.New("pubsub project id is required for campaign events")
	}

	var clientOpts []option.ClientOption
	if file := strings.TrimSpace(cfg.Firestore.CredentialsFile); file != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(file))
	}
	client, err := pubsub.NewClient(ctx, projectID, clientOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	publisher, err := jobs.NewPubSubCampaignPublisher(topic)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return publisher, func(context.Context) error {
		topic.Stop()
		return client.Close()
	}, nil
}
