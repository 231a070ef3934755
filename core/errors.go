package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ClientErrorBadInput       = "CLIENT_BAD_INPUT"
	ClientErrorAuthFailed     = "CLIENT_AUTH_FAILED"
	ClientErrorNetwork        = "CLIENT_NETWORK_ERROR"
	ClientErrorRetryExhausted = "CLIENT_RETRY_EXHAUSTED"
	ClientErrorPollTimeout    = "CLIENT_POLL_TIMEOUT"
	ClientErrorRateLimited    = "CLIENT_RATE_LIMITED"
	ClientErrorExternal       = "CLIENT_EXTERNAL_FAILURE"
	ClientErrorStoreFailure   = "CLIENT_STORE_FAILURE"
	ClientErrorNotFound       = "CLIENT_NOT_FOUND"
	ClientErrorInternal       = "CLIENT_INTERNAL_ERROR"
)

func clientErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureClientErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "token") && strings.Contains(msg, "fetch"):
		return newClientError(err.Error(), goerrors.CategoryAuth, ClientErrorAuthFailed)
	case strings.Contains(msg, "timed out") && strings.Contains(msg, "poll"):
		return newClientError(err.Error(), goerrors.CategoryOperation, ClientErrorPollTimeout)
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "rate limit"):
		return newClientError(err.Error(), goerrors.CategoryRateLimit, ClientErrorRateLimited)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newClientError(err.Error(), goerrors.CategoryBadInput, ClientErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureClientErrorEnvelope(mapped)
}

func newClientError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureClientErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func wrapClientError(err error, category goerrors.Category, textCode string) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureClientErrorEnvelope(richErr)
	}
	return ensureClientErrorEnvelope(
		goerrors.Wrap(err, category, err.Error()).
			WithTextCode(textCode),
	)
}

func ensureClientErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = clientHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultClientTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultClientTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ClientErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ClientErrorAuthFailed
	case goerrors.CategoryNotFound:
		return ClientErrorNotFound
	case goerrors.CategoryRateLimit:
		return ClientErrorRateLimited
	case goerrors.CategoryExternal:
		return ClientErrorExternal
	case goerrors.CategoryOperation:
		return ClientErrorRetryExhausted
	default:
		return ClientErrorInternal
	}
}

func clientHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsNetworkError reports whether the transport failed before any HTTP
// response was received, which the pipeline treats as structural rather than
// transient.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return strings.TrimSpace(richErr.TextCode) == ClientErrorNetwork
	}
	return false
}
