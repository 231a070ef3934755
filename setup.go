package embeddedapi

import (
	"github.com/goliatone/go-embedded-api/auth"
	"github.com/goliatone/go-embedded-api/core"
	"github.com/goliatone/go-embedded-api/ratelimit"
	"github.com/goliatone/go-embedded-api/transport"
)

// New wires the default stack: OAuth token manager against the configured
// token endpoint, REST transport, in-memory rate-limit tracking. Extra
// options can override any of it, and a repository factory option switches
// the log store to SQL.
func New(cfg Config, creds Credentials, opts ...Option) (*Service, error) {
	manager, err := auth.NewManager(auth.ManagerConfig{
		TokenURL:        cfg.Token.URL,
		DefaultAudience: cfg.Token.DefaultAudience,
		RefreshBuffer:   cfg.RefreshBuffer(),
	})
	if err != nil {
		return nil, err
	}

	base := []Option{
		core.WithCredentials(creds),
		core.WithTokenSource(manager),
		core.WithTransport(transport.NewRESTAdapter(nil)),
		core.WithRateLimitRecorder(ratelimit.NewTracker(nil)),
	}
	return core.NewService(cfg, append(base, opts...)...)
}
