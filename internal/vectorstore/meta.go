package vectorstore

import (
	"encoding/json"
	"strconv"
)

// Payload values come back with backend-specific types: qdrant returns int64 for
// integers, JSON decoding returns float64. These helpers normalise them.

// MetaString returns meta[key] as a string, or "".
func MetaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

// MetaInt returns meta[key] as an int, or 0.
func MetaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float32:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// MetaBool returns meta[key] as a bool, or false.
func MetaBool(meta map[string]any, key string) bool {
	switch v := meta[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}
