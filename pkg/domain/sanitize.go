package domain

import "strings"

// Redacted replaces values under secret-looking keys in sanitized output.
const Redacted = "[REDACTED]"

var secretKeyMarkers = []string{
	"secret", "token", "password", "passwd", "credential",
	"api_key", "apikey", "private_key", "auth",
}

// SanitizeSnapshot returns a copy of a state snapshot with values under
// secret-looking keys replaced. Nested maps are sanitized recursively.
// Introspection surfaces (HTTP, MCP) must never return raw snapshots.
func SanitizeSnapshot(state map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	out := make(map[string]any, len(state))
	for k, v := range state {
		if secretKey(k) {
			out[k] = Redacted
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = SanitizeSnapshot(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func secretKey(k string) bool {
	lower := strings.ToLower(k)
	for _, marker := range secretKeyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
