package llm

import (
	"encoding/json"
	"strings"
)

// UnwrapError digs a human-readable message out of an upstream failure.
// Providers wrap errors in inconsistent JSON envelopes; this walks the
// common shapes and falls back to the raw error text.
func UnwrapError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()

	if start := strings.IndexByte(msg, '{'); start >= 0 {
		if extracted := extractJSONMessage(msg[start:]); extracted != "" {
			msg = extracted
		}
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "permission denied") || strings.Contains(lower, "permission_error"):
		return "Permission denied by the AI provider. Check that the configured token is valid and has access to the requested model."
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "usage limit") || strings.Contains(lower, "quota"):
		return "The AI provider's usage limit was reached. Wait a moment and try again."
	}
	return msg
}

// extractJSONMessage pulls nested message/error/msg/text fields out of a
// JSON error body, recursing into wrapper objects like
// {"success":false,"error":{...}}.
func extractJSONMessage(s string) string {
	var payload map[string]any
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return ""
	}
	return messageField(payload, 0)
}

func messageField(m map[string]any, depth int) string {
	if depth > 4 {
		return ""
	}
	for _, key := range []string{"message", "error", "msg", "text", "detail"} {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if nested := messageField(v, depth+1); nested != "" {
				return nested
			}
		}
	}
	return ""
}
