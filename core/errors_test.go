package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestClientErrorMapperClassifiesByMessage(t *testing.T) {
	cases := []struct {
		err      error
		textCode string
		status   int
	}{
		{errors.New("token fetch failed with status 401"), ClientErrorAuthFailed, http.StatusUnauthorized},
		{errors.New("execution polling timed out after 30 attempts"), ClientErrorPollTimeout, http.StatusInternalServerError},
		{errors.New("bucket throttled for 10s"), ClientErrorRateLimited, http.StatusTooManyRequests},
		{errors.New("endpoint is required"), ClientErrorBadInput, http.StatusBadRequest},
	}
	for _, tc := range cases {
		mapped := clientErrorMapper(tc.err)
		if mapped == nil {
			t.Fatalf("expected mapped error for %v", tc.err)
		}
		if mapped.TextCode != tc.textCode {
			t.Fatalf("%v: expected %q, got %q", tc.err, tc.textCode, mapped.TextCode)
		}
		if mapped.Code != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, mapped.Code)
		}
	}
}

func TestClientErrorMapperPreservesRichErrors(t *testing.T) {
	original := newClientError("upstream gone", goerrors.CategoryExternal, ClientErrorExternal)
	mapped := clientErrorMapper(fmt.Errorf("wrapped: %w", original))
	if mapped.TextCode != ClientErrorExternal {
		t.Fatalf("expected original classification kept, got %q", mapped.TextCode)
	}
	if clientErrorMapper(nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
}

func TestWrapClientErrorFillsEnvelope(t *testing.T) {
	wrapped := wrapClientError(errors.New("disk full"), goerrors.CategoryOperation, ClientErrorStoreFailure)
	if wrapped.TextCode != ClientErrorStoreFailure {
		t.Fatalf("expected store failure code, got %q", wrapped.TextCode)
	}
	if wrapped.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for operation category, got %d", wrapped.Code)
	}
	if wrapClientError(nil, goerrors.CategoryOperation, ClientErrorStoreFailure) != nil {
		t.Fatalf("expected nil passthrough")
	}
}

func TestDefaultTextCodeAndStatusPerCategory(t *testing.T) {
	if got := defaultClientTextCode(goerrors.CategoryNotFound); got != ClientErrorNotFound {
		t.Fatalf("unexpected text code: %q", got)
	}
	if got := defaultClientTextCode(goerrors.CategoryAuthz); got != ClientErrorAuthFailed {
		t.Fatalf("unexpected text code: %q", got)
	}
	if got := clientHTTPStatus(goerrors.CategoryAuthz); got != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", got)
	}
	if got := clientHTTPStatus(goerrors.CategoryExternal); got != http.StatusBadGateway {
		t.Fatalf("unexpected status: %d", got)
	}
}

func TestIsNetworkError(t *testing.T) {
	network := newClientError("connection refused", goerrors.CategoryExternal, ClientErrorNetwork)
	if !IsNetworkError(network) {
		t.Fatalf("expected network classification")
	}
	if !IsNetworkError(fmt.Errorf("wrapped: %w", network)) {
		t.Fatalf("expected classification through wrapping")
	}
	if IsNetworkError(errors.New("plain failure")) {
		t.Fatalf("expected plain error not classified as network")
	}
	if IsNetworkError(nil) {
		t.Fatalf("expected nil not classified")
	}
}
