package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-embedded-api/core"
)

const defaultTokenHTTPTimeout = 30 * time.Second

// HTTPDoer is the minimal client contract the manager needs for token
// endpoint calls.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ManagerConfig configures the dual-token manager. TokenURL is required.
type ManagerConfig struct {
	TokenURL        string
	DefaultAudience string
	// RefreshBuffer is subtracted from expiry when judging validity, so a
	// token is refreshed before it actually lapses.
	RefreshBuffer time.Duration
	HTTPClient    HTTPDoer
	Logger        glog.Logger
	Now           func() time.Time
}

// Manager caches one bearer per token kind and collapses concurrent refreshes
// for the same kind into a single endpoint call. Tokens live in memory only.
type Manager struct {
	config ManagerConfig

	mu     sync.RWMutex
	tokens map[core.TokenKind]core.Token

	group singleflight.Group
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if tokenURL == "" {
		return nil, fmt.Errorf("auth: token url is required")
	}
	if cfg.RefreshBuffer <= 0 {
		cfg.RefreshBuffer = time.Minute
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTokenHTTPTimeout}
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	cfg.TokenURL = tokenURL
	cfg.Logger = glog.Ensure(cfg.Logger)

	return &Manager{
		config: cfg,
		tokens: map[core.TokenKind]core.Token{},
	}, nil
}

// Token returns a valid bearer for the request's kind, fetching a fresh one
// when the cached token is absent or inside the refresh buffer.
func (m *Manager) Token(ctx context.Context, req core.TokenRequest) (string, error) {
	if m == nil {
		return "", fmt.Errorf("auth: manager not initialized")
	}
	if err := req.Kind.Validate(); err != nil {
		return "", err
	}

	if token, ok := m.cachedValid(req.Kind); ok {
		return token.Bearer, nil
	}

	value, err, _ := m.group.Do(string(req.Kind), func() (any, error) {
		// another waiter may have refreshed while we queued
		if token, ok := m.cachedValid(req.Kind); ok {
			return token.Bearer, nil
		}
		token, fetchErr := m.fetch(ctx, req)
		if fetchErr != nil {
			m.Invalidate(req.Kind)
			return "", fetchErr
		}
		m.store(token)
		return token.Bearer, nil
	})
	if err != nil {
		return "", err
	}
	bearer, _ := value.(string)
	return bearer, nil
}

// ForceRefresh discards the cached token for the kind and fetches a new one.
func (m *Manager) ForceRefresh(ctx context.Context, req core.TokenRequest) error {
	if m == nil {
		return fmt.Errorf("auth: manager not initialized")
	}
	if err := req.Kind.Validate(); err != nil {
		return err
	}
	m.Invalidate(req.Kind)
	_, err := m.Token(ctx, req)
	return err
}

func (m *Manager) Invalidate(kind core.TokenKind) {
	if m == nil {
		return
	}
	m.mu.Lock()
	delete(m.tokens, kind)
	m.mu.Unlock()
}

func (m *Manager) InvalidateAll() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.tokens = map[core.TokenKind]core.Token{}
	m.mu.Unlock()
}

// Metadata reports the displayable state of the cached token for a kind. The
// bearer value never leaves the manager through this path.
func (m *Manager) Metadata(kind core.TokenKind) core.TokenMetadata {
	if m == nil {
		return core.TokenMetadata{Kind: kind}
	}
	m.mu.RLock()
	token, ok := m.tokens[kind]
	m.mu.RUnlock()
	if !ok {
		return core.TokenMetadata{Kind: kind}
	}
	now := m.config.Now()
	remaining := int64(token.ExpiresAt.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return core.TokenMetadata{
		Kind:             kind,
		ExpiresAt:        token.ExpiresAt,
		SecondsRemaining: remaining,
		Scope:            token.Scope,
		Audience:         token.Audience,
		Valid:            token.ValidAt(now, m.config.RefreshBuffer),
		LastRefreshAt:    token.RefreshedAt,
	}
}

func (m *Manager) cachedValid(kind core.TokenKind) (core.Token, bool) {
	m.mu.RLock()
	token, ok := m.tokens[kind]
	m.mu.RUnlock()
	if !ok {
		return core.Token{}, false
	}
	if !token.ValidAt(m.config.Now(), m.config.RefreshBuffer) {
		return core.Token{}, false
	}
	return token, true
}

func (m *Manager) store(token core.Token) {
	m.mu.Lock()
	m.tokens[token.Kind] = token
	m.mu.Unlock()
}

type tokenEndpointRequest struct {
	Audience     string `json:"audience"`
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenEndpointResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

func (m *Manager) fetch(ctx context.Context, req core.TokenRequest) (core.Token, error) {
	clientID := strings.TrimSpace(req.ClientID)
	clientSecret := strings.TrimSpace(req.ClientSecret)
	if clientID == "" || clientSecret == "" {
		return core.Token{}, fmt.Errorf("auth: %s client credentials are required", req.Kind)
	}
	audience := strings.TrimSpace(req.Audience)
	if audience == "" {
		audience = strings.TrimSpace(m.config.DefaultAudience)
	}

	payload, err := json.Marshal(tokenEndpointRequest{
		Audience:     audience,
		GrantType:    "client_credentials",
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return core.Token{}, fmt.Errorf("auth: token request encode failed: %w", err)
	}

	fetchStart := m.config.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return core.Token{}, fmt.Errorf("auth: token request build failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := m.config.HTTPClient.Do(httpReq)
	if err != nil {
		return core.Token{}, fmt.Errorf("auth: token fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return core.Token{}, fmt.Errorf("auth: token response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.config.Logger.Error("token endpoint rejected request",
			"kind", string(req.Kind),
			"status", resp.StatusCode,
		)
		return core.Token{}, fmt.Errorf("auth: token fetch failed with status %d", resp.StatusCode)
	}

	var decoded tokenEndpointResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return core.Token{}, fmt.Errorf("auth: token response decode failed: %w", err)
	}
	if strings.TrimSpace(decoded.AccessToken) == "" {
		return core.Token{}, fmt.Errorf("auth: token response missing access_token")
	}
	if decoded.ExpiresIn <= 0 {
		return core.Token{}, fmt.Errorf("auth: token response missing expires_in")
	}

	tokenType := strings.TrimSpace(decoded.TokenType)
	if tokenType == "" {
		tokenType = "Bearer"
	}

	m.config.Logger.Info("token refreshed",
		"kind", string(req.Kind),
		"expires_in", decoded.ExpiresIn,
	)

	return core.Token{
		Kind:        req.Kind,
		Bearer:      decoded.AccessToken,
		ExpiresAt:   fetchStart.Add(time.Duration(decoded.ExpiresIn) * time.Second),
		Scope:       decoded.Scope,
		Audience:    audience,
		TokenType:   tokenType,
		RefreshedAt: fetchStart,
	}, nil
}
