package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug turns a title into a URL key, suffixed with the creation
// time in base 36 so equal titles stay unique.
func GenerateSlug(title string, now time.Time) string {
	base := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	base = strings.Trim(base, "-")
	suffix := strconv.FormatInt(now.UnixMilli(), 36)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime accepts RFC 3339 and the datetime-local layouts browsers send.
// Zone-less values are read as UTC.
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}
