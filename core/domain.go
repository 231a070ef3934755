package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTokenKind   = errors.New("core: invalid token kind")
	ErrInvalidFeatureArea = errors.New("core: invalid feature area")
	ErrEntryNotFound      = errors.New("core: call entry not found")
)

// TokenKind selects which of the two independently refreshed bearer tokens a
// request is signed with.
type TokenKind string

const (
	TokenKindSubscription TokenKind = "subscription"
	TokenKindTenant       TokenKind = "tenant"
)

func (k TokenKind) Validate() error {
	switch k {
	case TokenKindSubscription, TokenKindTenant:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTokenKind, string(k))
	}
}

// FeatureArea is the closed tag identifying which business capability an API
// call belongs to. Unrecognized tags normalize to FeatureAreaOther and are
// never inserted as new keys.
type FeatureArea string

const (
	FeatureAreaTenants        FeatureArea = "tenants"
	FeatureAreaBankAccounts   FeatureArea = "bank-accounts"
	FeatureAreaFinancialYears FeatureArea = "financial-years"
	FeatureAreaTransactions   FeatureArea = "transactions"
	FeatureAreaReports        FeatureArea = "reports"
	FeatureAreaAuth           FeatureArea = "auth"
	FeatureAreaDimensions     FeatureArea = "dimensions"
	FeatureAreaOther          FeatureArea = "other"
)

// FeatureAreas returns every recognized tag in stable order.
func FeatureAreas() []FeatureArea {
	return []FeatureArea{
		FeatureAreaTenants,
		FeatureAreaBankAccounts,
		FeatureAreaFinancialYears,
		FeatureAreaTransactions,
		FeatureAreaReports,
		FeatureAreaAuth,
		FeatureAreaDimensions,
		FeatureAreaOther,
	}
}

func (a FeatureArea) Valid() bool {
	for _, known := range FeatureAreas() {
		if a == known {
			return true
		}
	}
	return false
}

// ParseFeatureArea normalizes an arbitrary tag to a recognized area.
func ParseFeatureArea(value string) FeatureArea {
	area := FeatureArea(strings.TrimSpace(strings.ToLower(value)))
	if area.Valid() {
		return area
	}
	return FeatureAreaOther
}

// Token is a short-lived bearer credential held only in process memory. It is
// never written to any persistent store.
type Token struct {
	Kind        TokenKind
	Bearer      string
	ExpiresAt   time.Time
	Scope       string
	Audience    string
	TokenType   string
	RefreshedAt time.Time
}

// ValidAt reports whether the token is still usable once the refresh buffer
// is applied: valid iff now + buffer < expiry.
func (t Token) ValidAt(now time.Time, buffer time.Duration) bool {
	if strings.TrimSpace(t.Bearer) == "" || t.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(buffer).Before(t.ExpiresAt)
}

// TokenMetadata is the displayable view of a cached token. It never carries
// the bearer value.
type TokenMetadata struct {
	Kind             TokenKind
	ExpiresAt        time.Time
	SecondsRemaining int64
	Scope            string
	Audience         string
	Valid            bool
	LastRefreshAt    time.Time
}

// Credentials carries the caller-supplied OAuth client pairs plus the tenant
// domain configuration. The core treats it as an immutable value and never
// logs it unmasked.
type Credentials struct {
	SubscriptionClientID     string
	SubscriptionClientSecret string
	TenantClientID           string
	TenantClientSecret       string

	ProductCode      string
	Platform         string
	BusinessTypeCode string
	JournalCode      string
}

// PairFor returns the client id/secret pair matching the token kind.
func (c Credentials) PairFor(kind TokenKind) (string, string) {
	if kind == TokenKindTenant {
		return strings.TrimSpace(c.TenantClientID), strings.TrimSpace(c.TenantClientSecret)
	}
	return strings.TrimSpace(c.SubscriptionClientID), strings.TrimSpace(c.SubscriptionClientSecret)
}

// CallEntry is one immutable audit record per logical pipeline invocation.
// Bodies and headers are redacted before the entry is constructed; no code
// path persists an unredacted entry.
type CallEntry struct {
	ID              string            `json:"id"`
	RequestID       string            `json:"request_id"`
	Timestamp       time.Time         `json:"timestamp"`
	Method          string            `json:"method"`
	URL             string            `json:"url"`
	Status          int               `json:"status"`
	StatusText      string            `json:"status_text"`
	DurationMS      int64             `json:"duration_ms"`
	RequestHeaders  map[string]string `json:"request_headers"`
	RequestBody     *string           `json:"request_body"`
	ResponseHeaders map[string]string `json:"response_headers"`
	ResponseBody    *string           `json:"response_body"`
	TenantID        string            `json:"tenant_id,omitempty"`
	FeatureArea     FeatureArea       `json:"feature_area"`
	Error           string            `json:"error,omitempty"`
}

// EntryFilter selects call entries; all fields are optional and conjunctive.
type EntryFilter struct {
	URLContains string
	StatusMin   *int
	StatusMax   *int
	From        *time.Time
	To          *time.Time
	FeatureArea FeatureArea
	TenantID    string
}

// RetentionPolicy bounds the durable call log by age and/or row count.
type RetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

// RequestOptions describes one logical call through the pipeline.
type RequestOptions struct {
	Method      string
	Endpoint    string
	Body        any
	Headers     map[string]string
	// Query is merged into the resolved URL's query string by the transport.
	Query       map[string]string
	TokenKind   TokenKind
	FeatureArea FeatureArea
	TenantID    string
	SkipAuth    bool
	// Retries overrides the configured retry budget when non-nil.
	Retries        *int
	IdempotencyKey string
	// LogicalURL overrides the audited URL when the physical request is
	// routed through a local forwarder. Audit records always show the true
	// upstream destination.
	LogicalURL string
}

// CallResult is the discriminated outcome of a pipeline invocation. HTTP and
// network failures are reported here, never as a Go error.
type CallResult struct {
	Success    bool
	Data       []byte
	Status     int
	StatusText string
	Headers    map[string]string
	Error      string
	RequestID  string
	Duration   time.Duration
	Entry      CallEntry
}
