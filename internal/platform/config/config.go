package config

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile             = ".env"
	defaultPort                = "8080"
	defaultReadTimeout         = 15 * time.Second
	defaultWriteTimeout        = 60 * time.Second
	defaultIdleTimeout         = 120 * time.Second
	defaultLocalBaseURL        = "http://localhost:5173"
	defaultAIModel             = "gemini-1.5-flash"
	defaultAIEndpoint          = "https://generativelanguage.googleapis.com"
	defaultAITimeout           = 30 * time.Second
	defaultDatabaseMaxConns    = 10
	defaultBoltPath            = "data/campaigns.db"
	defaultSecurityEnvironment = "local"
	defaultDesignRatePerMinute = 10
)

// Store backends accepted by API_STORE_BACKEND.
const (
	StoreBackendNone      = "none"
	StoreBackendPostgres  = "postgres"
	StoreBackendFirestore = "firestore"
	StoreBackendBolt      = "bolt"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Public     PublicConfig
	AI         AIConfig
	PSP        PSPConfig
	Store      StoreConfig
	Firestore  FirestoreConfig
	PubSub     PubSubConfig
	Security   SecurityConfig
	Metrics    MetricsConfig
	RateLimits RateLimitConfig
	LogLevel   string
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// PublicConfig describes how the deployment is reached by browsers.
type PublicConfig struct {
	BaseURL         string
	FallbackBaseURL string
}

// AIConfig configures the text-generation client. An empty key disables generation.
type AIConfig struct {
	GeminiAPIKey string
	Model        string
	Endpoint     string
	Timeout      time.Duration
}

// Enabled reports whether a credential is configured.
func (c AIConfig) Enabled() bool { return strings.TrimSpace(c.GeminiAPIKey) != "" }

// PSPConfig collects payment processor settings.
type PSPConfig struct {
	StripeAPIKey string
	StripePrices map[string]string
}

// StoreConfig selects where campaign drafts are persisted.
type StoreConfig struct {
	Backend     string
	DatabaseURL string
	MaxConns    int
	BoltPath    string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID       string
	EmulatorHost    string
	CredentialsFile string
}

// PubSubConfig configures draft event publication. An empty topic disables publishing.
type PubSubConfig struct {
	ProjectID     string
	CampaignTopic string
}

// SecurityConfig groups deployment identity settings. TrustedProxies lists the CIDRs whose
// X-Forwarded-For entries are believed; with none, callers are keyed by their socket address.
type SecurityConfig struct {
	Environment    string
	TrustedProxies []string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// RateLimitConfig controls request throttling.
type RateLimitConfig struct {
	DesignsPerMinute int
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

// MissingSecretsError indicates that one or more required secrets failed to resolve.
type MissingSecretsError struct {
	names []string
}

// Error implements the error interface.
func (e *MissingSecretsError) Error() string {
	return fmt.Sprintf("missing required secrets [%s]", strings.Join(e.RedactedNames(), ", "))
}

// RedactedNames returns hashed identifiers that are safe to log.
func (e *MissingSecretsError) RedactedNames() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.names))
	for _, name := range e.names {
		sum := sha256.Sum256([]byte(name))
		out = append(out, hex.EncodeToString(sum[:8]))
	}
	sort.Strings(out)
	return out
}

// Names returns the underlying secret identifiers.
func (e *MissingSecretsError) Names() []string {
	if e == nil {
		return nil
	}
	out := append([]string(nil), e.names...)
	sort.Strings(out)
	return out
}

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	useSystemEnv    bool
	secret          SecretResolver
	requiredSecrets []string
}

// EnvironmentValues returns the effective key/value environment map after applying the same precedence
// rules as Load (dotenv < OS env < explicit env map).
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := newLoaderOptions(opts)
	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(dotEnvValues))
	for key, value := range dotEnvValues {
		values[key] = value
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			values[strings.TrimSpace(key)] = value
		}
	}
	for key, value := range options.envMap {
		values[key] = value
	}
	return values, nil
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map that takes precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets the resolver used for secret:// and sm:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// WithRequiredSecrets marks secret fields (e.g. "PSP.StripeAPIKey") as mandatory.
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) {
		o.requiredSecrets = append(o.requiredSecrets, names...)
	}
}

func newLoaderOptions(opts []Option) loaderOptions {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}

// Load assembles the application configuration by combining defaults, .env overrides,
// environment variables, and optional secret manager lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := newLoaderOptions(opts)

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnvValues[key]
		return value, ok
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Public: PublicConfig{
			BaseURL:         publicBaseURL(lookup),
			FallbackBaseURL: stringWithDefault(lookup, "API_PUBLIC_FALLBACK_BASE_URL", defaultLocalBaseURL),
		},
		AI: AIConfig{
			GeminiAPIKey: firstValue(lookup, "API_AI_GEMINI_API_KEY", "GEMINI_API_KEY"),
			Model:        stringWithDefault(lookup, "API_AI_MODEL", defaultAIModel),
			Endpoint:     strings.TrimRight(stringWithDefault(lookup, "API_AI_ENDPOINT", defaultAIEndpoint), "/"),
			Timeout:      durationWithDefault(lookup, "API_AI_TIMEOUT", defaultAITimeout),
		},
		PSP: PSPConfig{
			StripeAPIKey: firstValue(lookup, "API_PSP_STRIPE_API_KEY", "STRIPE_SECRET_KEY"),
			StripePrices: stripePrices(lookup),
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(stringWithDefault(lookup, "API_STORE_BACKEND", StoreBackendNone)),
			DatabaseURL: firstValue(lookup, "API_DATABASE_URL", "DATABASE_URL"),
			MaxConns:    intWithDefault(lookup, "API_DATABASE_MAX_CONNS", defaultDatabaseMaxConns),
			BoltPath:    stringWithDefault(lookup, "API_BOLT_PATH", defaultBoltPath),
		},
		Firestore: FirestoreConfig{
			ProjectID:       stringWithDefault(lookup, "API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost:    stringWithDefault(lookup, "API_FIRESTORE_EMULATOR_HOST", ""),
			CredentialsFile: stringWithDefault(lookup, "API_GOOGLE_CREDENTIALS_FILE", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:     stringWithDefault(lookup, "API_PUBSUB_PROJECT_ID", ""),
			CampaignTopic: stringWithDefault(lookup, "API_PUBSUB_CAMPAIGN_TOPIC", ""),
		},
		Security: SecurityConfig{
			Environment:    strings.ToLower(stringWithDefault(lookup, "API_SECURITY_ENVIRONMENT", defaultSecurityEnvironment)),
			TrustedProxies: listValue(lookup, "API_SECURITY_TRUSTED_PROXIES"),
		},
		Metrics: MetricsConfig{
			Enabled: boolWithDefault(lookup, "API_METRICS_ENABLED", true),
			Path:    stringWithDefault(lookup, "API_METRICS_PATH", "/metrics"),
		},
		RateLimits: RateLimitConfig{
			DesignsPerMinute: intWithDefault(lookup, "API_RATELIMIT_DESIGNS_PER_MIN", defaultDesignRatePerMinute),
		},
		LogLevel: stringWithDefault(lookup, "LOG_LEVEL", ""),
	}

	// Pub/Sub shares the Firestore project unless told otherwise.
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Firestore.ProjectID
	}

	resolved := make(map[string]string)
	secretFields := []struct {
		name  string
		field *string
	}{
		{"PSP.StripeAPIKey", &cfg.PSP.StripeAPIKey},
		{"AI.GeminiAPIKey", &cfg.AI.GeminiAPIKey},
		{"Store.DatabaseURL", &cfg.Store.DatabaseURL},
	}
	for _, target := range secretFields {
		value, err := resolveSecret(ctx, *target.field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*target.field = value
		resolved[target.name] = strings.TrimSpace(value)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	if missing := findMissingSecrets(options.requiredSecrets, resolved); missing != nil {
		return Config{}, missing
	}
	return cfg, nil
}

func publicBaseURL(lookup func(string) (string, bool)) string {
	if base := firstValue(lookup, "API_PUBLIC_BASE_URL"); base != "" {
		return strings.TrimRight(base, "/")
	}
	if host := firstValue(lookup, "VERCEL_URL"); host != "" {
		host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
		return "https://" + strings.TrimRight(host, "/")
	}
	return ""
}

func stripePrices(lookup func(string) (string, bool)) map[string]string {
	prices := make(map[string]string, 3)
	for _, plan := range []string{"LETTER", "POSTCARD_STD", "POSTCARD_JUMBO"} {
		if price := firstValue(lookup, "API_PSP_STRIPE_PRICE_"+plan, "STRIPE_PRICE_"+plan); price != "" {
			prices[plan] = price
		}
	}
	return prices
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if !isSecretReference(value) {
		return value, nil
	}
	normalized := normalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Ref: normalized, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, normalized)
	if err != nil {
		var secretErr *SecretError
		if errors.As(err, &secretErr) {
			return "", secretErr
		}
		return "", &SecretError{Ref: normalized, Err: err}
	}
	return secret, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if cfg.Server.Port == "" {
		invalid = append(invalid, "Server.Port")
	}
	if cfg.AI.Timeout <= 0 {
		invalid = append(invalid, "AI.Timeout")
	}
	switch cfg.Store.Backend {
	case StoreBackendNone:
	case StoreBackendPostgres:
		if strings.TrimSpace(cfg.Store.DatabaseURL) == "" {
			invalid = append(invalid, "Store.DatabaseURL")
		}
	case StoreBackendFirestore:
		if strings.TrimSpace(cfg.Firestore.ProjectID) == "" {
			invalid = append(invalid, "Firestore.ProjectID")
		}
	case StoreBackendBolt:
		if strings.TrimSpace(cfg.Store.BoltPath) == "" {
			invalid = append(invalid, "Store.BoltPath")
		}
	default:
		invalid = append(invalid, "Store.Backend")
	}
	if cfg.PubSub.CampaignTopic != "" && cfg.PubSub.ProjectID == "" {
		invalid = append(invalid, "PubSub.ProjectID")
	}
	if cfg.RateLimits.DesignsPerMinute < 0 {
		invalid = append(invalid, "RateLimits.DesignsPerMinute")
	}
	for _, proxy := range cfg.Security.TrustedProxies {
		if !validProxyRange(proxy) {
			invalid = append(invalid, "Security.TrustedProxies")
			break
		}
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func findMissingSecrets(required []string, resolved map[string]string) *MissingSecretsError {
	seen := make(map[string]struct{}, len(required))
	var missing []string
	for _, name := range required {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		if resolved[trimmed] == "" {
			missing = append(missing, trimmed)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingSecretsError{names: missing}
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "sm://") {
		return "secret://" + strings.TrimPrefix(trimmed, "sm://")
	}
	return trimmed
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func listValue(lookup func(string) (string, bool), key string) []string {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func validProxyRange(value string) bool {
	if _, err := netip.ParsePrefix(value); err == nil {
		return true
	}
	_, err := netip.ParseAddr(value)
	return err == nil
}

func firstValue(lookup func(string) (string, bool), keys ...string) string {
	for _, key := range keys {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value := firstValue(lookup, key); value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value := firstValue(lookup, key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value := firstValue(lookup, key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	switch strings.ToLower(firstValue(lookup, key)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return fallback
}
