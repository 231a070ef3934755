package core

import (
	"encoding/json"
	"regexp"
	"strings"
)

const RedactedValue = "[REDACTED]"

const TruncationMarker = "... [TRUNCATED]"

// Header names whose value is replaced wholesale, matched case-insensitively.
var sensitiveHeaderNames = []string{
	"authorization",
	"api-key",
	"x-api-key",
	"client-secret",
	"x-client-secret",
}

// Body field names redacted on exact-case match at any nesting depth.
var sensitiveFieldNames = map[string]struct{}{
	"client_secret": {},
	"clientSecret":  {},
	"access_token":  {},
	"accessToken":   {},
	"refresh_token": {},
	"refreshToken":  {},
	"password":      {},
	"secret":        {},
	"token":         {},
	"api_key":       {},
	"apiKey":        {},
}

var (
	authSchemePattern  = regexp.MustCompile(`(?i)\b(Bearer|Basic)\s+[A-Za-z0-9\-._~+/]+=*`)
	querySecretPattern = regexp.MustCompile(`(?i)\b(client_secret|access_token|api_key)=[^&\s"']+`)
	jwtPattern         = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*$`)
	bareTokenPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{41,}$`)
)

// RedactHeaders masks denylisted header values, preserving key case.
// Redacting already-redacted headers is a no-op.
func RedactHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		if isSensitiveHeader(key) {
			out[key] = RedactedValue
			continue
		}
		out[key] = value
	}
	return out
}

func isSensitiveHeader(name string) bool {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, sensitive := range sensitiveHeaderNames {
		if normalized == sensitive {
			return true
		}
	}
	return false
}

// RedactBody masks sensitive content in a body assumed to be JSON. A body
// that fails to parse is run through regex-based string redaction instead.
func RedactBody(body string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	var parsed any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return RedactString(body)
	}
	redacted := redactValue(parsed, false)
	encoded, err := json.Marshal(redacted)
	if err != nil {
		return RedactString(body)
	}
	return string(encoded)
}

func redactValue(value any, sensitiveKey bool) any {
	if sensitiveKey {
		return RedactedValue
	}
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, nested := range typed {
			_, sensitive := sensitiveFieldNames[key]
			out[key] = redactValue(nested, sensitive)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactValue(typed[i], false)
		}
		return out
	case string:
		if looksLikeSecret(typed) {
			return RedactedValue
		}
		return typed
	default:
		return value
	}
}

// looksLikeSecret guards against secrets surfacing under unexpected field
// names: JWT-shaped strings and long bare tokens are masked regardless of
// their key.
func looksLikeSecret(value string) bool {
	if value == RedactedValue {
		return false
	}
	if jwtPattern.MatchString(value) {
		return true
	}
	return bareTokenPattern.MatchString(value)
}

// RedactString applies pattern-based masking to arbitrary non-JSON text.
func RedactString(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	value = authSchemePattern.ReplaceAllString(value, "$1 "+RedactedValue)
	value = querySecretPattern.ReplaceAllString(value, "$1="+RedactedValue)
	return value
}

// TruncateBody caps a stored body at maxBytes, appending a visible marker.
// Applied after redaction so the cap never exposes masked content.
func TruncateBody(body string, maxBytes int) string {
	if maxBytes <= 0 || len(body) <= maxBytes {
		return body
	}
	return body[:maxBytes] + TruncationMarker
}
