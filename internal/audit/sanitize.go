package audit

import (
	"fmt"
	"strings"
)

const (
	maxDepth        = 3
	maxArrayEntries = 20
	maxStringRunes  = 200

	redactedMarker = "[redacted]"
	depthMarker    = "[max-depth]"
)

// Keys whose values are always redacted, matched case-insensitively.
var redactedKeys = map[string]struct{}{
	"password":      {},
	"newpassword":   {},
	"token":         {},
	"authorization": {},
	"jwt":           {},
	"secret":        {},
}

// Sanitize walks a decoded JSON value (string | number | bool | nil | slice |
// map) and returns a copy safe for persistence: secret-bearing keys redacted,
// long strings truncated, arrays capped, and anything nested beyond three
// levels collapsed.
func Sanitize(value interface{}) interface{} {
	return sanitize(value, 0)
}

func sanitize(value interface{}, depth int) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return truncateString(v)
	case bool, float64, float32, int, int64, int32, uint, uint64:
		return v
	case []interface{}:
		if depth >= maxDepth {
			return depthMarker
		}
		if len(v) > maxArrayEntries {
			v = v[:maxArrayEntries]
		}
		out := make([]interface{}, len(v))
		for i, entry := range v {
			out[i] = sanitize(entry, depth+1)
		}
		return out
	case map[string]interface{}:
		if depth >= maxDepth {
			return depthMarker
		}
		out := make(map[string]interface{}, len(v))
		for key, entry := range v {
			if _, secret := redactedKeys[strings.ToLower(key)]; secret {
				out[key] = redactedMarker
			} else {
				out[key] = sanitize(entry, depth+1)
			}
		}
		return out
	default:
		return truncateString(fmt.Sprint(v))
	}
}

func truncateString(s string) string {
	runes := []rune(s)
	if len(runes) <= maxStringRunes {
		return s
	}
	return string(runes[:maxStringRunes]) + "…"
}
