package core

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExecutionPollOptions shapes the bounded status poll that follows an async
// accepted (202) operation.
type ExecutionPollOptions struct {
	StatusEndpoint string
	TokenKind      TokenKind
	FeatureArea    FeatureArea
	TenantID       string
	// Interval overrides the configured poll interval when positive.
	Interval time.Duration
	// MaxAttempts overrides the configured attempt cap when positive.
	MaxAttempts int
}

// RequestWithRetryAfter issues the call and, when the upstream answers 202
// Accepted, waits out the advertised retry-after once and re-issues the same
// request with the same idempotency key. There is no loop: a second 202 is
// returned to the caller as-is.
func (s *Service) RequestWithRetryAfter(ctx context.Context, opts RequestOptions, creds Credentials) (CallResult, error) {
	if s == nil {
		return CallResult{}, ErrTransportRequired
	}
	if strings.TrimSpace(opts.IdempotencyKey) == "" {
		opts.IdempotencyKey = uuid.NewString()
	}

	result, err := s.Request(ctx, opts, creds)
	if err != nil {
		return result, err
	}
	if result.Status != http.StatusAccepted {
		return result, nil
	}

	delay := retryAfterDelay(result.Headers, s.config.DefaultRetryAfter())
	if waitErr := s.wait(ctx, delay); waitErr != nil {
		return result, nil
	}
	return s.Request(ctx, opts, creds)
}

// PollExecution polls an execution-status endpoint until it resolves: 200 is
// success, 202 means keep waiting, anything else is terminal. Exhausting the
// attempt budget yields an unsuccessful result, not a Go error.
func (s *Service) PollExecution(ctx context.Context, opts ExecutionPollOptions, creds Credentials) (CallResult, error) {
	if s == nil {
		return CallResult{}, ErrTransportRequired
	}
	endpoint := strings.TrimSpace(opts.StatusEndpoint)
	if endpoint == "" {
		return CallResult{}, fmt.Errorf("core: status endpoint is required")
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = s.config.PollInterval()
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.config.Poll.MaxAttempts
	}

	// status probes never retry on their own; the poll loop supplies the
	// pacing and any non-200/202 answer is terminal
	noRetries := 0

	var last CallResult
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := s.Request(ctx, RequestOptions{
			Method:      http.MethodGet,
			Endpoint:    endpoint,
			TokenKind:   opts.TokenKind,
			FeatureArea: opts.FeatureArea,
			TenantID:    opts.TenantID,
			Retries:     &noRetries,
		}, creds)
		if err != nil {
			return result, err
		}
		last = result

		switch result.Status {
		case http.StatusOK:
			return result, nil
		case http.StatusAccepted:
			if attempt == maxAttempts {
				break
			}
			if waitErr := s.wait(ctx, interval); waitErr != nil {
				last.Success = false
				last.Error = waitErr.Error()
				return last, nil
			}
		default:
			return result, nil
		}
	}

	last.Success = false
	last.Error = fmt.Sprintf("execution polling timed out after %d attempts", maxAttempts)
	return last, nil
}

// retryAfterDelay reads a retry-after header expressed in whole seconds.
// Anything unparseable falls back to the provided default.
func retryAfterDelay(headers map[string]string, fallback time.Duration) time.Duration {
	for key, value := range headers {
		if !strings.EqualFold(strings.TrimSpace(key), "retry-after") {
			continue
		}
		seconds, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || seconds < 0 {
			return fallback
		}
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
