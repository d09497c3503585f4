package resource

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the layout of normalized dates
const DateLayout = "2006-01-02"

// DefaultRangeDays is the length of a date range without explicit start
const DefaultRangeDays = 30

// ErrInvalidDate is returned for date parameters which cannot be parsed
var ErrInvalidDate = errors.New("invalid date")

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseTime parses the date representations found in stored records: RFC3339
// timestamps, "YYYY-MM-DD", "YYYY-MM-DD HH:MM:SS" and epoch milliseconds.
// Timestamps without zone are UTC.
func ParseTime(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x.UTC(), !x.IsZero()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	}
	ms, ok := Number(v)
	if !ok || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

// NormalizeDate converts v into a UTC "YYYY-MM-DD" string
func NormalizeDate(v interface{}) (string, bool) {
	t, ok := ParseTime(v)
	if !ok {
		return "", false
	}
	return t.Format(DateLayout), true
}

// Date returns the normalized date of the first of properties which holds a
// valid date. This implements fallbacks like "transaction_date, else
// created_at".
func (r Record) Date(properties ...string) (string, bool) {
	for _, p := range properties {
		v, ok := r.Get(p)
		if !ok {
			continue
		}
		if d, ok := NormalizeDate(v); ok {
			return d, true
		}
	}
	return "", false
}

// Today returns the UTC date of now
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// DaysBetween returns the number of whole days from one date to another,
// rounded down. Both dates are normalized date strings.
func DaysBetween(from, to string) int {
	a, err := time.Parse(DateLayout, from)
	if err != nil {
		return 0
	}
	b, err := time.Parse(DateLayout, to)
	if err != nil {
		return 0
	}
	return int(math.Floor(b.Sub(a).Hours() / 24))
}

// DateRange is an inclusive range of normalized dates
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains returns true if date lies within the range
func (r DateRange) Contains(date string) bool {
	return date != "" && date >= r.Start && date <= r.End
}

// ResolveDateRange resolves optional start and end parameters. End defaults to
// today, start to the day which makes the range DefaultRangeDays long.
// Supplied values which are not dates, and a start after the end, are errors.
func ResolveDateRange(start, end interface{}, now time.Time) (DateRange, error) {
	var r DateRange
	if isBlank(end) {
		r.End = Today(now)
	} else {
		d, ok := NormalizeDate(end)
		if !ok {
			return r, fmt.Errorf("%w: endDate '%v'", ErrInvalidDate, end)
		}
		r.End = d
	}
	if isBlank(start) {
		e, _ := time.Parse(DateLayout, r.End)
		r.Start = e.AddDate(0, 0, -(DefaultRangeDays - 1)).Format(DateLayout)
	} else {
		d, ok := NormalizeDate(start)
		if !ok {
			return r, fmt.Errorf("%w: startDate '%v'", ErrInvalidDate, start)
		}
		r.Start = d
	}
	if r.Start > r.End {
		return r, fmt.Errorf("%w: startDate %s is after endDate %s", ErrInvalidDate, r.Start, r.End)
	}
	return r, nil
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
