package collector

import (
	"regexp"
	"time"

	"github.com/orbitlytics/neocollector/internal/feed"
)

var dateFormatRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDateFormat reports whether s is shaped YYYY-MM-DD. It is a format
// check only and is independent of calendar validity; "9999-99-99" passes.
func ValidDateFormat(s string) bool {
	return dateFormatRe.MatchString(s)
}

// ParseDate parses a YYYY-MM-DD string into a UTC date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(feed.DateFormat, s)
}
