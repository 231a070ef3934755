package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

var (
	ErrTransportRequired = errors.New("core: transport adapter required")
)

// responseHeaderAllowList bounds what the log store retains from upstream
// responses. Everything else is dropped before redaction.
var responseHeaderAllowList = []string{
	"content-type",
	"x-request-id",
	"x-correlation-id",
	"x-ratelimit-limit",
	"x-ratelimit-remaining",
	"retry-after",
	"date",
}

type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	credentials       Credentials
	tokenSource       TokenSource
	logStore          CallLogStore
	transport         TransportAdapter
	callCache         *CallCache
	rateLimits        RateLimitRecorder
	backoffScheduler  BackoffScheduler
	now               func() time.Time
	wait              func(ctx context.Context, delay time.Duration) error
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	TokenSource       TokenSource
	CallLogStore      CallLogStore
	Transport         TransportAdapter
	CallCache         *CallCache
	RateLimitRecorder RateLimitRecorder
	BackoffScheduler  BackoffScheduler
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("embedded-api", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("embedded-api"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.transport == nil {
		return nil, mapBuildError(builder.errorMapper, ErrTransportRequired)
	}

	if builder.logStore == nil && builder.repositoryFactory != nil {
		if factory, ok := builder.repositoryFactory.(CallLogStoreFactory); ok {
			storeProvider, buildErr := factory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				builder.logStore = storeProvider.CallLogStore()
			}
		} else if storeProvider, ok := builder.repositoryFactory.(CallLogStoreProvider); ok {
			builder.logStore = storeProvider.CallLogStore()
		}
	}
	if builder.logStore == nil {
		builder.logStore = NewMemoryCallLogStore()
	}
	if builder.callCache == nil {
		builder.callCache = NewCallCache()
	}
	if builder.backoffScheduler == nil {
		builder.backoffScheduler = ExponentialBackoffScheduler{
			Base: finalConfig.BackoffBase(),
			Max:  finalConfig.BackoffMax(),
		}
	}
	if builder.now == nil {
		builder.now = time.Now
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		credentials:       builder.credentials,
		tokenSource:       builder.tokenSource,
		logStore:          builder.logStore,
		transport:         builder.transport,
		callCache:         builder.callCache,
		rateLimits:        builder.rateLimits,
		backoffScheduler:  builder.backoffScheduler,
		now:               builder.now,
		wait:              waitWithContext,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		TokenSource:       s.tokenSource,
		CallLogStore:      s.logStore,
		Transport:         s.transport,
		CallCache:         s.callCache,
		RateLimitRecorder: s.rateLimits,
		BackoffScheduler:  s.backoffScheduler,
	}
}

// Request executes a single API call end to end: URL resolution, token
// acquisition, retries with exponential backoff, rate-limit bookkeeping,
// and exactly one log entry for the final outcome. HTTP failures come back
// inside CallResult; the error return is reserved for invalid input.
func (s *Service) Request(ctx context.Context, opts RequestOptions, creds Credentials) (CallResult, error) {
	if s == nil {
		return CallResult{}, newClientError("service not initialized", goerrors.CategoryInternal, ClientErrorInternal)
	}
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return CallResult{}, newClientError("endpoint is required", goerrors.CategoryBadInput, ClientErrorBadInput)
	}
	kind := opts.TokenKind
	if kind == "" {
		kind = TokenKindSubscription
	}
	if err := kind.Validate(); err != nil {
		return CallResult{}, newClientError(err.Error(), goerrors.CategoryBadInput, ClientErrorBadInput)
	}

	startedAt := s.now().UTC()
	requestID := uuid.NewString()
	fullURL := s.resolveURL(endpoint, kind)
	logicalURL := strings.TrimSpace(opts.LogicalURL)
	if logicalURL == "" {
		logicalURL = fullURL
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"X-Request-ID": requestID,
	}
	for key, value := range opts.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		headers[key] = value
	}
	if mutatingMethod(method) {
		idempotencyKey := strings.TrimSpace(opts.IdempotencyKey)
		if idempotencyKey == "" {
			idempotencyKey = uuid.NewString()
		}
		headers["X-Idempotency-Key"] = idempotencyKey
	}

	call := callState{
		method:     method,
		url:        fullURL,
		logicalURL: logicalURL,
		requestID:  requestID,
		startedAt:  startedAt,
		headers:    headers,
		opts:       opts,
		kind:       kind,
	}

	if !opts.SkipAuth {
		clientID, clientSecret := creds.PairFor(kind)
		if clientID == "" || clientSecret == "" {
			clientID, clientSecret = s.credentials.PairFor(kind)
		}
		if clientID == "" || clientSecret == "" {
			return s.finalize(ctx, call, nil, 0, "Auth Failed",
				fmt.Sprintf("missing %s credentials", kind)), nil
		}
		if s.tokenSource == nil {
			return s.finalize(ctx, call, nil, 0, "Auth Error", "token source not configured"), nil
		}
		bearer, err := s.tokenSource.Token(ctx, TokenRequest{
			Kind:         kind,
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Audience:     s.config.Token.DefaultAudience,
		})
		if err != nil {
			return s.finalize(ctx, call, nil, 0, "Auth Error", err.Error()), nil
		}
		if strings.TrimSpace(bearer) == "" {
			return s.finalize(ctx, call, nil, 0, "Auth Failed",
				fmt.Sprintf("token source returned no %s bearer", kind)), nil
		}
		headers["Authorization"] = "Bearer " + bearer
	}

	payload, err := EncodeBody(opts.Body)
	if err != nil {
		return CallResult{}, newClientError("request body encode failed: "+err.Error(),
			goerrors.CategoryBadInput, ClientErrorBadInput)
	}
	call.body = payload

	retries := s.config.Retry.MaxRetries
	if opts.Retries != nil && *opts.Retries >= 0 {
		retries = *opts.Retries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		resp, doErr := s.transport.Do(ctx, TransportRequest{
			Method:  method,
			URL:     fullURL,
			Query:   opts.Query,
			Headers: headers,
			Body:    payload,
		})
		if doErr != nil {
			if IsNetworkError(doErr) {
				return s.finalize(ctx, call, nil, 0, "CORS/Network Error", doErr.Error()), nil
			}
			lastErr = doErr
			if attempt < retries {
				if waitErr := s.wait(ctx, s.backoffScheduler.NextDelay(attempt+1)); waitErr != nil {
					return s.finalize(ctx, call, nil, 0, "Request Failed", waitErr.Error()), nil
				}
				continue
			}
			return s.finalize(ctx, call, nil, 0, "Request Failed", lastErr.Error()), nil
		}

		s.recordRateLimit(ctx, kind, fullURL, opts.FeatureArea, resp)

		if retryableStatus(resp.StatusCode) && attempt < retries {
			if waitErr := s.wait(ctx, s.backoffScheduler.NextDelay(attempt+1)); waitErr != nil {
				return s.finalize(ctx, call, &resp, resp.StatusCode, "", waitErr.Error()), nil
			}
			continue
		}
		return s.finalize(ctx, call, &resp, resp.StatusCode, "", ""), nil
	}

	// unreachable: the loop always returns
	return s.finalize(ctx, call, nil, 0, "Request Failed", "retry budget exhausted"), nil
}

type callState struct {
	method     string
	url        string
	logicalURL string
	requestID  string
	startedAt  time.Time
	headers    map[string]string
	body       []byte
	opts       RequestOptions
	kind       TokenKind
}

func (s *Service) resolveURL(endpoint string, kind TokenKind) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	base := strings.TrimRight(s.config.BaseURLFor(kind), "/")
	if base == "" {
		return endpoint
	}
	return base + "/" + strings.TrimLeft(endpoint, "/")
}

func mutatingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (s *Service) recordRateLimit(ctx context.Context, kind TokenKind, fullURL string, area FeatureArea, resp TransportResponse) {
	if s.rateLimits == nil {
		return
	}
	host := fullURL
	if parsed, err := url.Parse(fullURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	key := RateLimitKey{
		TokenKind: kind,
		Host:      host,
		Bucket:    string(ParseFeatureArea(string(area))),
	}
	if err := s.rateLimits.Record(ctx, key, ResponseMeta{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
	}); err != nil {
		s.logError(ctx, "rate limit record failed", map[string]any{
			"host":  host,
			"error": err.Error(),
		})
	}
}

// finalize is the single exit point for Request: it builds the redacted log
// entry, appends it, refreshes the latest-call cache, records metrics, and
// shapes the CallResult.
func (s *Service) finalize(ctx context.Context, call callState, resp *TransportResponse, statusOverride int, statusTextOverride, errorMessage string) CallResult {
	finishedAt := s.now().UTC()
	duration := finishedAt.Sub(call.startedAt)

	status := statusOverride
	statusText := statusTextOverride
	var data []byte
	responseHeaders := map[string]string{}
	if resp != nil {
		status = resp.StatusCode
		data = resp.Body
		responseHeaders = filterResponseHeaders(resp.Headers)
	}
	if statusText == "" {
		statusText = http.StatusText(status)
	}
	success := status >= 200 && status < 300
	if !success && errorMessage == "" && status > 0 {
		errorMessage = fmt.Sprintf("HTTP %d %s", status, statusText)
	}

	area := ParseFeatureArea(string(call.opts.FeatureArea))
	maxBody := s.config.Limits.MaxStoredBodyBytes

	var requestBody *string
	if len(call.body) > 0 {
		redacted := TruncateBody(RedactBody(string(call.body)), maxBody)
		requestBody = &redacted
	}
	var responseBody *string
	if len(data) > 0 {
		redacted := TruncateBody(RedactBody(string(data)), maxBody)
		responseBody = &redacted
	}

	entry := CallEntry{
		ID:              uuid.NewString(),
		RequestID:       call.requestID,
		Timestamp:       call.startedAt,
		Method:          call.method,
		URL:             call.logicalURL,
		Status:          status,
		StatusText:      statusText,
		DurationMS:      duration.Milliseconds(),
		RequestHeaders:  RedactHeaders(call.headers),
		RequestBody:     requestBody,
		ResponseHeaders: RedactHeaders(responseHeaders),
		ResponseBody:    responseBody,
		TenantID:        strings.TrimSpace(call.opts.TenantID),
		FeatureArea:     area,
		Error:           errorMessage,
	}

	if s.logStore != nil {
		if err := s.logStore.Append(ctx, entry); err != nil {
			s.logError(ctx, "call log append failed", map[string]any{
				"request_id": call.requestID,
				"error":      err.Error(),
			})
		}
	}
	if s.callCache != nil {
		s.callCache.Set(entry)
	}

	s.observeCall(ctx, call.startedAt, "request", success, map[string]any{
		"feature_area": string(area),
		"token_kind":   string(call.kind),
		"method":       call.method,
		"http_status":  status,
		"request_id":   call.requestID,
		"url":          call.logicalURL,
	})

	return CallResult{
		Success:    success,
		Data:       data,
		Status:     status,
		StatusText: statusText,
		Headers:    responseHeaders,
		Error:      errorMessage,
		RequestID:  call.requestID,
		Duration:   duration,
		Entry:      entry,
	}
}

func filterResponseHeaders(headers map[string]string) map[string]string {
	out := map[string]string{}
	for key, value := range headers {
		lower := strings.ToLower(strings.TrimSpace(key))
		for _, allowed := range responseHeaderAllowList {
			if lower == allowed {
				out[key] = value
				break
			}
		}
	}
	return out
}
