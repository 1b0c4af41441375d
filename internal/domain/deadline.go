package domain

import (
	"strings"
	"time"
)

// deadlineLayouts are tried in order; zone-less layouts are read in the caller's location.
var deadlineLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", false},
}

// ParseDeadline parses the deadline formats produced by the extraction collaborator.
// ok is false for empty or unparseable input.
func ParseDeadline(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, l := range deadlineLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, loc)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
