package embeddedapi

import "github.com/goliatone/go-embedded-api/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type TokenKind = core.TokenKind
type FeatureArea = core.FeatureArea
type Token = core.Token
type TokenMetadata = core.TokenMetadata
type Credentials = core.Credentials
type CallEntry = core.CallEntry
type EntryFilter = core.EntryFilter
type RetentionPolicy = core.RetentionPolicy
type RequestOptions = core.RequestOptions
type CallResult = core.CallResult
type ExecutionPollOptions = core.ExecutionPollOptions

type TokenSource = core.TokenSource
type CallLogStore = core.CallLogStore
type TransportAdapter = core.TransportAdapter

const (
	TokenKindSubscription = core.TokenKindSubscription
	TokenKindTenant       = core.TokenKindTenant
)

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithCredentials       = core.WithCredentials
	WithTokenSource       = core.WithTokenSource
	WithCallLogStore      = core.WithCallLogStore
	WithTransport         = core.WithTransport
	WithCallCache         = core.WithCallCache
	WithRateLimitRecorder = core.WithRateLimitRecorder
	WithBackoffScheduler  = core.WithBackoffScheduler
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
