package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/cre-mailflow/api/internal/platform/config"
	"github.com/cre-mailflow/api/internal/platform/observability"
	"github.com/cre-mailflow/api/internal/platform/secrets"
	"github.com/cre-mailflow/api/internal/services"
)

// appEnv holds what every subcommand needs before doing its own work.
type appEnv struct {
	logger  *zap.Logger
	cfg     config.Config
	env     map[string]string
	fetcher *secrets.Fetcher
}

func (r *appEnv) close() {
	if r.fetcher != nil {
		if err := r.fetcher.Close(); err != nil {
			r.logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}
	_ = r.logger.Sync()
}

func bootstrap(ctx context.Context) (*appEnv, error) {
	envValues, err := config.EnvironmentValues(config.WithEnvFile(envFile))
	if err != nil {
		return nil, fmt.Errorf("read environment values: %w", err)
	}

	baseLogger, err := observability.NewLogger(envValues["LOG_LEVEL"])
	if err != nil {
		return nil, fmt.Errorf("initialise logger: %w", err)
	}
	logger := baseLogger.Named("api")

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("initialise secret fetcher: %w", err)
	}

	rt := &appEnv{logger: logger, env: envValues, fetcher: fetcher}

	cfg, err := config.Load(ctx,
		config.WithEnvFile(envFile),
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets(requiredSecretNames(envValues)...),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Error("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		rt.close()
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	rt.cfg = cfg
	return rt, nil
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) services.BuildInfo {
	v := strings.TrimSpace(env["API_BUILD_VERSION"])
	if v == "" {
		v = version
	}
	commit := strings.TrimSpace(env["API_BUILD_COMMIT_SHA"])
	if commit == "" {
		commit = commitSHA
	}
	environment := strings.TrimSpace(cfg.Security.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     v,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		return strings.TrimSpace(env[key])
	}

	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIRESTORE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if file := lookup("API_GOOGLE_CREDENTIALS_FILE"); file != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(file)))
	}
	return secrets.NewFetcher(ctx, opts...)
}

// requiredSecretNames keeps local development usable without a Stripe key while making a deployed
// environment fail fast when checkout could never succeed.
func requiredSecretNames(env map[string]string) []string {
	switch strings.ToLower(strings.TrimSpace(env["API_SECURITY_ENVIRONMENT"])) {
	case "prod", "production", "staging":
		return []string{"PSP.StripeAPIKey"}
	default:
		return nil
	}
}
