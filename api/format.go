package api

import (
	"fmt"
	"time"
)

const (
	kilobyte = 1024
	megabyte = 1024 * 1024
)

// FormatFileSize renders a byte count for display: bytes below 1 KB,
// otherwise KB or MB with one decimal.
func FormatFileSize(size int64) string {
	switch {
	case size < kilobyte:
		return fmt.Sprintf("%d B", size)
	case size < megabyte:
		return fmt.Sprintf("%.1f KB", float64(size)/kilobyte)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/megabyte)
	}
}

// FormatDate renders a timestamp as short month/day plus 24-hour time.
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 15:04")
}
