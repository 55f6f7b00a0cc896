package httputil

import "strconv"

// ParseIntParam parses an integer query parameter with a default value.
// Returns defaultVal if the parameter is empty or invalid.
func ParseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultVal
}

// ClampLimit bounds a requested result limit to [1, max].
// Non-positive values fall back to defaultVal.
func ClampLimit(limit, defaultVal, max int) int {
	if limit <= 0 {
		limit = defaultVal
	}
	if limit > max {
		limit = max
	}
	return limit
}
