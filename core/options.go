package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig     Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	persistenceClient any
	repositoryFactory any
	credentials       Credentials
	tokenSource       TokenSource
	logStore          CallLogStore
	transport         TransportAdapter
	callCache         *CallCache
	rateLimits        RateLimitRecorder
	backoffScheduler  BackoffScheduler
	now               func() time.Time
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func WithCredentials(creds Credentials) Option {
	return func(b *serviceBuilder) {
		b.credentials = creds
	}
}

func WithTokenSource(source TokenSource) Option {
	return func(b *serviceBuilder) {
		b.tokenSource = source
	}
}

func WithCallLogStore(store CallLogStore) Option {
	return func(b *serviceBuilder) {
		b.logStore = store
	}
}

func WithTransport(adapter TransportAdapter) Option {
	return func(b *serviceBuilder) {
		b.transport = adapter
	}
}

func WithCallCache(cache *CallCache) Option {
	return func(b *serviceBuilder) {
		b.callCache = cache
	}
}

func WithRateLimitRecorder(recorder RateLimitRecorder) Option {
	return func(b *serviceBuilder) {
		b.rateLimits = recorder
	}
}

func WithBackoffScheduler(scheduler BackoffScheduler) Option {
	return func(b *serviceBuilder) {
		b.backoffScheduler = scheduler
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *serviceBuilder) {
		b.now = now
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("embedded-api", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return clientErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	token := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Token.URL) != "" {
		token["url"] = cfg.Token.URL
	}
	if includeZero || strings.TrimSpace(cfg.Token.DefaultAudience) != "" {
		token["default_audience"] = cfg.Token.DefaultAudience
	}
	if includeZero || cfg.Token.RefreshBufferMS > 0 {
		token["refresh_buffer_ms"] = cfg.Token.RefreshBufferMS
	}
	if len(token) > 0 {
		layer["token"] = token
	}

	baseURLs := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.BaseURLs.Subscription) != "" {
		baseURLs["subscription"] = cfg.BaseURLs.Subscription
	}
	if includeZero || strings.TrimSpace(cfg.BaseURLs.Tenant) != "" {
		baseURLs["tenant"] = cfg.BaseURLs.Tenant
	}
	if len(baseURLs) > 0 {
		layer["base_urls"] = baseURLs
	}

	retry := map[string]any{}
	if includeZero || cfg.Retry.MaxRetries > 0 {
		retry["max_retries"] = cfg.Retry.MaxRetries
	}
	if includeZero || cfg.Retry.BackoffBaseMS > 0 {
		retry["backoff_base_ms"] = cfg.Retry.BackoffBaseMS
	}
	if includeZero || cfg.Retry.BackoffMaxMS > 0 {
		retry["backoff_max_ms"] = cfg.Retry.BackoffMaxMS
	}
	if len(retry) > 0 {
		layer["retry"] = retry
	}

	poll := map[string]any{}
	if includeZero || cfg.Poll.IntervalMS > 0 {
		poll["interval_ms"] = cfg.Poll.IntervalMS
	}
	if includeZero || cfg.Poll.MaxAttempts > 0 {
		poll["max_attempts"] = cfg.Poll.MaxAttempts
	}
	if includeZero || cfg.Poll.DefaultRetryAfterMS > 0 {
		poll["default_retry_after_ms"] = cfg.Poll.DefaultRetryAfterMS
	}
	if len(poll) > 0 {
		layer["poll"] = poll
	}

	limits := map[string]any{}
	if includeZero || cfg.Limits.MaxStoredBodyBytes > 0 {
		limits["max_stored_body_bytes"] = cfg.Limits.MaxStoredBodyBytes
	}
	if len(limits) > 0 {
		layer["limits"] = limits
	}

	retention := map[string]any{}
	if includeZero || cfg.Retention.TTLHours > 0 {
		retention["ttl_hours"] = cfg.Retention.TTLHours
	}
	if includeZero || cfg.Retention.RowCap > 0 {
		retention["row_cap"] = cfg.Retention.RowCap
	}
	if len(retention) > 0 {
		layer["retention"] = retention
	}

	return layer
}
