package workflow

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parameter extraction tolerant of the aliases and loose typing that AI
// tool calls produce: the first present key wins, numbers may arrive as
// float64, int or numeric string.

func getString(params map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := params[key]; ok {
			if s, ok := value.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}

	return ""
}

func getFloat(params map[string]any, keys ...string) float64 {
	for _, key := range keys {
		value, ok := params[key]
		if !ok {
			continue
		}

		switch v := value.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return parsed
			}
		}
	}

	return 0
}

func getInt(params map[string]any, keys ...string) int {
	return int(getFloat(params, keys...))
}

func getBool(params map[string]any, keys ...string) (value, present bool) {
	for _, key := range keys {
		raw, ok := params[key]
		if !ok {
			continue
		}

		if b, ok := raw.(bool); ok {
			return b, true
		}
	}

	return false, false
}

func getStringSlice(params map[string]any, keys ...string) []string {
	for _, key := range keys {
		raw, ok := params[key]
		if !ok {
			continue
		}

		switch v := raw.(type) {
		case []string:
			return v
		case []any:
			out := make([]string, 0, len(v))

			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}

			return out
		}
	}

	return nil
}

// getTime accepts RFC 3339, date-time without zone, and bare dates.
func getTime(params map[string]any, keys ...string) (time.Time, error) {
	raw := getString(params, keys...)
	if raw == "" {
		return time.Time{}, nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
