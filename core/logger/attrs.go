package logger

import (
	"log/slog"
	"strings"
	"time"
)

// RoundMS rounds d to whole milliseconds; negative values become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Preview describes a list of names as <prefix>_total, <prefix>_preview with
// at most limit entries and <prefix>_truncated when entries were dropped.
func Preview(prefix string, values []string, limit int) []any {
	attrs := []any{slog.Int(prefix+"_total", len(values))}
	if len(values) == 0 {
		return attrs
	}
	shown := values
	if limit >= 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	if len(shown) > 0 {
		attrs = append(attrs, slog.String(prefix+"_preview", strings.Join(shown, ", ")))
	}
	if len(shown) < len(values) {
		attrs = append(attrs, slog.Bool(prefix+"_truncated", true))
	}
	return attrs
}
