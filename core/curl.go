package core

import (
	"sort"
	"strings"
)

// GenerateCurl renders a shell command equivalent to the given request with
// headers and body passed through the redaction path. Useful for sharing a
// reproduction without leaking credentials.
func GenerateCurl(method string, url string, headers map[string]string, body string) string {
	method = strings.TrimSpace(strings.ToUpper(method))
	if method == "" {
		method = "GET"
	}

	var builder strings.Builder
	builder.WriteString("curl -X ")
	builder.WriteString(method)
	builder.WriteString(" ")
	builder.WriteString(singleQuote(strings.TrimSpace(url)))

	redacted := RedactHeaders(headers)
	keys := make([]string, 0, len(redacted))
	for key := range redacted {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		builder.WriteString(" \\\n  -H ")
		builder.WriteString(singleQuote(key + ": " + redacted[key]))
	}

	if body != "" {
		builder.WriteString(" \\\n  -d ")
		builder.WriteString(singleQuote(RedactBody(body)))
	}

	return builder.String()
}

// singleQuote wraps a value for POSIX shells; embedded single quotes become
// the '\'' escape sequence.
func singleQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
