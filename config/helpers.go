package config

import (
	"fmt"
	"time"
)

// Safe type assertion helpers for policy maps decoded from YAML or JSON.
// YAML yields int for integers while JSON yields float64; both are accepted.

// GetString safely extracts a string value from a config map
func GetString(cfg map[string]any, key string, defaultVal string) string {
	if val, ok := cfg[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return defaultVal
}

// GetInt safely extracts an integer value from a config map
func GetInt(cfg map[string]any, key string, defaultVal int) int {
	if val, ok := cfg[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case int32:
			return int(v)
		case uint64:
			return int(v)
		case float64:
			return int(v)
		case float32:
			return int(v)
		}
	}
	return defaultVal
}

// GetFloat64 safely extracts a float64 value from a config map
func GetFloat64(cfg map[string]any, key string, defaultVal float64) float64 {
	if val, ok := cfg[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case float32:
			return float64(v)
		case int:
			return float64(v)
		case int64:
			return float64(v)
		case int32:
			return float64(v)
		case uint64:
			return float64(v)
		}
	}
	return defaultVal
}

// GetStringSlice safely extracts a string slice from a config map
func GetStringSlice(cfg map[string]any, key string, defaultVal []string) []string {
	if val, ok := cfg[key]; ok {
		if slice, ok := val.([]string); ok {
			return slice
		}
		if anySlice, ok := val.([]any); ok {
			result := make([]string, 0, len(anySlice))
			for _, item := range anySlice {
				if str, ok := item.(string); ok {
					result = append(result, str)
				}
			}
			if len(result) == len(anySlice) {
				return result
			}
		}
	}
	return defaultVal
}

// GetDuration extracts a duration given either as integer milliseconds or as
// a Go duration string ("250ms", "1.5s"). A present but malformed value
// returns defaultVal and an error.
func GetDuration(cfg map[string]any, key string, defaultVal time.Duration) (time.Duration, error) {
	val, ok := cfg[key]
	if !ok || val == nil {
		return defaultVal, nil
	}

	switch v := val.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return defaultVal, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	case int, int64, int32, uint64, float64, float32:
		ms := GetFloat64(cfg, key, 0)
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
	return defaultVal, fmt.Errorf("%s: expected milliseconds or a duration string, got %T", key, val)
}

// HasKey safely checks if a key exists in a config map
func HasKey(cfg map[string]any, key string) bool {
	_, ok := cfg[key]
	return ok
}
