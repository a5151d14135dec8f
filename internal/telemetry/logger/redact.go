package logger

import (
	"log/slog"
	"strings"
)

// bearerPrefix marks an Authorization header value.
const bearerPrefix = "Bearer "

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passcode",
	"secret",
	"token",
	"api_key",
	"private_key",
	"credential",
	"authorization",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()

		// Value shape takes priority over key name: partial masks keep
		// enough of the value to correlate log lines.
		if IsSensitiveValue(strVal) {
			return slog.String(a.Key, RedactString(strVal))
		}

		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// maskValue partially masks a value, keeping prefix and hints.
// Format: prefix + first 3 chars + "..." + last 3 chars
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks value if it looks like a credential and returns it
// unchanged otherwise. Use this before embedding values in messages.
func RedactString(value string) string {
	if strings.HasPrefix(value, bearerPrefix) {
		return maskValue(value, bearerPrefix)
	}
	if looksLikeJWT(value) {
		return maskValue(value, "")
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value appears to be a credential.
func IsSensitiveValue(value string) bool {
	return strings.HasPrefix(value, bearerPrefix) || looksLikeJWT(value)
}

// looksLikeJWT reports a three-segment token with a JSON header.
func looksLikeJWT(value string) bool {
	return strings.HasPrefix(value, "eyJ") && strings.Count(value, ".") == 2
}
