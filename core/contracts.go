package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// TokenRequest identifies one token fetch: the kind picks the cache slot and
// base audience, the pair authenticates against the token endpoint.
type TokenRequest struct {
	Kind         TokenKind
	ClientID     string
	ClientSecret string
	Audience     string
}

// TokenSource yields a usable bearer for a token kind, refreshing as needed.
// An empty bearer with a nil error means the caller must treat auth as failed
// rather than retry.
type TokenSource interface {
	Token(ctx context.Context, req TokenRequest) (string, error)
}

// TokenAdmin exposes the explicit lifecycle operations used by the command
// surface (test-connection, credential change, logout).
type TokenAdmin interface {
	ForceRefresh(ctx context.Context, req TokenRequest) error
	Invalidate(kind TokenKind)
	InvalidateAll()
}

// TokenMetadataReader is a pure read for display panels. Implementations must
// never expose the bearer value.
type TokenMetadataReader interface {
	Metadata(kind TokenKind) TokenMetadata
}

// CallLogStore is the durable, append-only audit trail of redacted call
// entries.
type CallLogStore interface {
	Append(ctx context.Context, entry CallEntry) error
	List(ctx context.Context) ([]CallEntry, error)
	Filtered(ctx context.Context, filter EntryFilter) ([]CallEntry, error)
	ByRequestID(ctx context.Context, requestID string) (CallEntry, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// CallLogPruner applies a retention policy to the durable log.
type CallLogPruner interface {
	Prune(ctx context.Context, policy RetentionPolicy) (int, error)
}

// TransportRequest is the transport-agnostic request envelope handed to an
// adapter.
type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

// TransportResponse is the raw adapter response before pipeline
// classification.
type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// RateLimitKey identifies one upstream throttle bucket.
type RateLimitKey struct {
	TokenKind TokenKind
	Host      string
	Bucket    string
}

// ResponseMeta carries the rate-limit relevant slice of a response.
type ResponseMeta struct {
	StatusCode int
	Headers    map[string]string
	RetryAfter *time.Duration
}

// RateLimitRecorder observes response metadata so throttle state can be
// tracked and displayed. Recording failures never affect the request path.
type RateLimitRecorder interface {
	Record(ctx context.Context, key RateLimitKey, meta ResponseMeta) error
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// CallLogStoreFactory lets the builder resolve the durable store from a
// repository factory wired with a persistence client.
type CallLogStoreFactory interface {
	BuildStores(persistenceClient any) (CallLogStoreProvider, error)
}

type CallLogStoreProvider interface {
	CallLogStore() CallLogStore
}
