// internal/export/filter/filter.go

// Package filter selects submissions inside an inclusive, open-ended-capable
// calendar date window.
package filter

import (
	"time"

	"formdesk-workers/internal/models"
)

// DateLayout is the wire format for range bounds.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date bound. Empty or malformed input yields
// nil, which the range treats as unbounded; response shapes from the outside
// are coerced, never raised on.
func ParseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// StartOfDay returns midnight local time on t's calendar date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's calendar date, so a same-day
// start == end window still matches submissions from that day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// Apply returns the submissions whose timestamp falls inside [start, end],
// both bounds inclusive and either bound optional. Input order is preserved.
func Apply(subs []models.Submission, start, end *time.Time) []models.Submission {
	if start == nil && end == nil {
		out := make([]models.Submission, len(subs))
		copy(out, subs)
		return out
	}

	var lo, hi time.Time
	if start != nil {
		lo = StartOfDay(*start)
	}
	if end != nil {
		hi = EndOfDay(*end)
	}

	out := []models.Submission{}
	for _, sub := range subs {
		if start != nil && sub.SubmittedAt.Before(lo) {
			continue
		}
		if end != nil && sub.SubmittedAt.After(hi) {
			continue
		}
		out = append(out, sub)
	}
	return out
}
