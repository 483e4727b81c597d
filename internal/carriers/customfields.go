package carriers

import (
	"fmt"
	"strconv"
)

// Helpers for reading the open customFields map. Values arrive from JSON, so
// numbers are float64 and nested objects are map[string]any.

func fieldMap(fields map[string]any, key string) map[string]any {
	if fields == nil {
		return nil
	}
	if nested, ok := fields[key].(map[string]any); ok {
		return nested
	}
	return nil
}

func fieldString(fields map[string]any, key string) string {
	if fields == nil {
		return ""
	}
	switch value := fields[key].(type) {
	case string:
		return value
	case float64:
		if value == float64(int64(value)) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case bool:
		return strconv.FormatBool(value)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}

func fieldInt(fields map[string]any, key string, fallback int) int {
	if fields == nil {
		return fallback
	}
	switch value := fields[key].(type) {
	case float64:
		return int(value)
	case int:
		return value
	case string:
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
