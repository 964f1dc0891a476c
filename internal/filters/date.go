package filters

import (
	"fmt"
	"time"
)

// DateBucket selects how a DateFilter matches a timestamp.
type DateBucket string

const (
	BucketNone      DateBucket = ""
	BucketExact     DateBucket = "exact"
	BucketToday     DateBucket = "today"
	BucketYesterday DateBucket = "yesterday"
	BucketThisWeek  DateBucket = "this_week"
	BucketCustom    DateBucket = "custom"
)

// DateFilter matches timestamps by calendar day in Location.
// Day is used by BucketExact; From and To by BucketCustom (inclusive days).
type DateFilter struct {
	Bucket   DateBucket
	Day      *time.Time
	From     *time.Time
	To       *time.Time
	Location *time.Location
}

// ParseDateBucket validates a bucket name from a query string.
func ParseDateBucket(s string) (DateBucket, error) {
	switch b := DateBucket(s); b {
	case BucketNone, BucketExact, BucketToday, BucketYesterday, BucketThisWeek, BucketCustom:
		return b, nil
	}
	return BucketNone, fmt.Errorf("unknown date filter %q", s)
}

// Active reports whether the filter constrains anything. A custom range needs
// both bounds; with only one bound it matches everything.
func (f DateFilter) Active() bool {
	switch f.Bucket {
	case BucketToday, BucketYesterday, BucketThisWeek:
		return true
	case BucketExact:
		return f.Day != nil
	case BucketCustom:
		return f.From != nil && f.To != nil
	}
	return false
}

// Match reports whether t falls in the selected bucket relative to now.
func (f DateFilter) Match(t, now time.Time) bool {
	if !f.Active() {
		return true
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	day := startOfDay(t.In(loc))
	today := startOfDay(now.In(loc))

	switch f.Bucket {
	case BucketExact:
		return day.Equal(startOfDay(f.Day.In(loc)))
	case BucketToday:
		return day.Equal(today)
	case BucketYesterday:
		return day.Equal(today.AddDate(0, 0, -1))
	case BucketThisWeek:
		weekStart := StartOfWeek(today)
		return !day.Before(weekStart) && day.Before(weekStart.AddDate(0, 0, 7))
	case BucketCustom:
		from := startOfDay(f.From.In(loc))
		to := startOfDay(f.To.In(loc))
		return !day.Before(from) && !day.After(to)
	}
	return true
}

// Window returns the half-open range [from, to) of instants Match accepts.
// ok is false when the filter is inactive.
func (f DateFilter) Window(now time.Time) (from, to time.Time, ok bool) {
	if !f.Active() {
		return time.Time{}, time.Time{}, false
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	today := startOfDay(now.In(loc))

	switch f.Bucket {
	case BucketExact:
		from = startOfDay(f.Day.In(loc))
		to = from.AddDate(0, 0, 1)
	case BucketToday:
		from, to = today, today.AddDate(0, 0, 1)
	case BucketYesterday:
		from, to = today.AddDate(0, 0, -1), today
	case BucketThisWeek:
		from = StartOfWeek(today)
		to = from.AddDate(0, 0, 7)
	case BucketCustom:
		from = startOfDay(f.From.In(loc))
		to = startOfDay(f.To.In(loc)).AddDate(0, 0, 1)
	}
	return from, to, true
}

// StartOfWeek returns midnight of the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
