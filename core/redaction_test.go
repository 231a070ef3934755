package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRedactHeadersMasksDenylistCaseInsensitively(t *testing.T) {
	headers := map[string]string{
		"Authorization":   "Bearer abc.def.ghi",
		"X-API-KEY":       "sk_live_123",
		"client-secret":   "hunter2",
		"X-Client-Secret": "hunter3",
		"Api-Key":         "k",
		"Content-Type":    "application/json",
	}

	redacted := RedactHeaders(headers)

	for _, key := range []string{"Authorization", "X-API-KEY", "client-secret", "X-Client-Secret", "Api-Key"} {
		if redacted[key] != RedactedValue {
			t.Fatalf("expected %s to be redacted, got %q", key, redacted[key])
		}
	}
	if redacted["Content-Type"] != "application/json" {
		t.Fatalf("expected content type untouched, got %q", redacted["Content-Type"])
	}
}

func TestRedactHeadersIsIdempotent(t *testing.T) {
	once := RedactHeaders(map[string]string{"Authorization": "Bearer tok"})
	twice := RedactHeaders(once)
	if twice["Authorization"] != RedactedValue {
		t.Fatalf("expected stable redaction, got %q", twice["Authorization"])
	}
}

func TestRedactBodyMasksNestedSensitiveFields(t *testing.T) {
	body := `{
		"client_secret": "hunter2",
		"nested": {"accessToken": "tok", "note": "ok"},
		"items": [{"password": "pw", "name": "a"}]
	}`

	redacted := RedactBody(body)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(redacted), &parsed); err != nil {
		t.Fatalf("redacted body is not valid json: %v", err)
	}
	if parsed["client_secret"] != RedactedValue {
		t.Fatalf("expected client_secret redacted, got %#v", parsed["client_secret"])
	}
	nested := parsed["nested"].(map[string]any)
	if nested["accessToken"] != RedactedValue {
		t.Fatalf("expected accessToken redacted, got %#v", nested["accessToken"])
	}
	if nested["note"] != "ok" {
		t.Fatalf("expected note untouched, got %#v", nested["note"])
	}
	item := parsed["items"].([]any)[0].(map[string]any)
	if item["password"] != RedactedValue {
		t.Fatalf("expected password redacted, got %#v", item["password"])
	}
	if item["name"] != "a" {
		t.Fatalf("expected name untouched, got %#v", item["name"])
	}
}

func TestRedactBodyMasksJWTShapedStringsUnderAnyKey(t *testing.T) {
	body := `{"payload": "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig"}`
	redacted := RedactBody(body)
	if !strings.Contains(redacted, RedactedValue) {
		t.Fatalf("expected jwt-shaped value redacted: %s", redacted)
	}
}

func TestRedactBodyFallsBackToPatternsOnInvalidJSON(t *testing.T) {
	body := "Authorization: Bearer abc123 and client_secret=hunter2&x=1"
	redacted := RedactBody(body)
	if strings.Contains(redacted, "abc123") {
		t.Fatalf("expected bearer masked: %s", redacted)
	}
	if strings.Contains(redacted, "hunter2") {
		t.Fatalf("expected query secret masked: %s", redacted)
	}
}

func TestRedactBodyIsIdempotent(t *testing.T) {
	body := `{"token": "secret-value-goes-here"}`
	once := RedactBody(body)
	twice := RedactBody(once)
	if once != twice {
		t.Fatalf("expected stable redaction: %q vs %q", once, twice)
	}
}

func TestTruncateBodyAppendsMarker(t *testing.T) {
	body := strings.Repeat("a", 100)
	out := TruncateBody(body, 10)
	if out != strings.Repeat("a", 10)+TruncationMarker {
		t.Fatalf("unexpected truncation: %q", out)
	}
	if TruncateBody(body, 0) != body {
		t.Fatalf("expected no truncation with zero cap")
	}
	if TruncateBody("short", 10) != "short" {
		t.Fatalf("expected short body untouched")
	}
}
