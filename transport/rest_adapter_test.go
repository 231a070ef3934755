package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-embedded-api/core"
)

func TestRESTAdapterExecutesRequest(t *testing.T) {
	var received *http.Request
	var receivedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Clone(context.Background())
		receivedBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Remaining", "42")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(nil)
	resp, err := adapter.Do(context.Background(), core.TransportRequest{
		Method:  "post",
		URL:     server.URL + "/v1/things",
		Headers: map[string]string{"Authorization": "Bearer tok"},
		Query:   map[string]string{"expand": "lines"},
		Body:    []byte(`{"name":"a"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"id":"1"}` {
		t.Fatalf("unexpected body: %q", resp.Body)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Fatalf("expected flattened headers, got %#v", resp.Headers)
	}
	if resp.Headers["X-Ratelimit-Remaining"] != "42" {
		t.Fatalf("expected rate limit header preserved, got %#v", resp.Headers)
	}
	if _, ok := resp.Metadata["duration_ms"]; !ok {
		t.Fatalf("expected duration metadata, got %#v", resp.Metadata)
	}

	if received.Method != http.MethodPost {
		t.Fatalf("expected method upper-cased, got %q", received.Method)
	}
	if received.Header.Get("Authorization") != "Bearer tok" {
		t.Fatalf("expected auth header forwarded")
	}
	if received.URL.Query().Get("expand") != "lines" {
		t.Fatalf("expected query merged, got %q", received.URL.RawQuery)
	}
	if string(receivedBody) != `{"name":"a"}` {
		t.Fatalf("unexpected forwarded body: %q", receivedBody)
	}
}

func TestRESTAdapterDefaultHeadersAreOverridable(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := NewRESTAdapter(nil)
	adapter.DefaultHeaders = map[string]string{
		"X-Source":     "adapter",
		"Content-Type": "text/plain",
	}

	_, err := adapter.Do(context.Background(), core.TransportRequest{
		URL:     server.URL,
		Headers: map[string]string{"Content-Type": "application/json"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Get("X-Source") != "adapter" {
		t.Fatalf("expected default header sent, got %#v", got)
	}
	if got.Get("Content-Type") != "application/json" {
		t.Fatalf("expected request header to win, got %q", got.Get("Content-Type"))
	}
}

func TestRESTAdapterConnectionFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	adapter := NewRESTAdapter(nil)
	_, err := adapter.Do(context.Background(), core.TransportRequest{URL: url})
	if err == nil {
		t.Fatalf("expected error for refused connection")
	}
	if !core.IsNetworkError(err) {
		t.Fatalf("expected network-classified error, got %v", err)
	}
}

func TestRESTAdapterResponseBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(nil)
	_, err := adapter.Do(context.Background(), core.TransportRequest{
		URL:                  server.URL,
		MaxResponseBodyBytes: 16,
	})
	if err == nil {
		t.Fatalf("expected error for oversized body")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ClientErrorExternal {
		t.Fatalf("expected external error classification, got %v", err)
	}
}

func TestRESTAdapterRejectsEmptyURL(t *testing.T) {
	adapter := NewRESTAdapter(nil)
	_, err := adapter.Do(context.Background(), core.TransportRequest{})
	if err == nil {
		t.Fatalf("expected error for missing url")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ClientErrorBadInput {
		t.Fatalf("expected bad input classification, got %v", err)
	}
}

func TestRESTAdapterKind(t *testing.T) {
	if NewRESTAdapter(nil).Kind() != KindREST {
		t.Fatalf("unexpected adapter kind")
	}
}
