package domain

import (
	"fmt"
	"time"
)

// TimeInterval is an immutable time range with Start <= End.
// Created per computation and discarded after the response is built;
// intervals are never persisted in this form.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// NewTimeInterval creates a time interval and validates its invariant
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	if end.Before(start) {
		return TimeInterval{}, fmt.Errorf("%w: interval end %s before start %s", ErrInvalidInput, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return TimeInterval{Start: start, End: end}, nil
}

// Duration returns the length of the interval
func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Connected reports whether a ends at the exact instant b starts.
// Strict equality on the underlying instant, no tolerance window:
// two events that end/begin at the same instant are one continuous
// activity, a one-second gap is not merged. Overlapping intervals are
// NOT connected by this definition.
func Connected(a, b TimeInterval) bool {
	return a.End.Equal(b.Start)
}

// MustMerge joins two connected intervals into {a.Start, b.End}.
// Calling it on non-connected intervals is a programming error and
// panics rather than returning a recoverable error.
func MustMerge(a, b TimeInterval) TimeInterval {
	if !Connected(a, b) {
		panic(fmt.Sprintf("merge of non-connected intervals: %s-%s and %s-%s",
			a.Start.Format(time.RFC3339), a.End.Format(time.RFC3339),
			b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339)))
	}
	return TimeInterval{Start: a.Start, End: b.End}
}

// Clip restricts the interval to [from, to]. The second return value is
// false when the interval does not intersect the clip window at all.
func (i TimeInterval) Clip(from, to time.Time) (TimeInterval, bool) {
	start := i.Start
	end := i.End
	if start.Before(from) {
		start = from
	}
	if end.After(to) {
		end = to
	}
	if !start.Before(end) {
		return TimeInterval{}, false
	}
	return TimeInterval{Start: start, End: end}, true
}
