package availability

import (
	"errors"
	"time"
)

// DefaultStep is the slot start-time granularity. It is fixed and independent
// of service duration: a 45 minute service still starts on quarter hours.
const DefaultStep = 15 * time.Minute

var (
	// ErrInvalidDuration means the caller passed a non-positive service
	// duration. This is a data error, not a business outcome.
	ErrInvalidDuration = errors.New("service duration must be positive")

	// ErrSlotUnavailable means the requested interval overlaps an existing
	// occupying appointment.
	ErrSlotUnavailable = errors.New("selected slot is no longer available")
)

// Slot is a computed, currently free interval of exactly the service
// duration. Slots are never persisted; they are recomputed per request.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Slots enumerates the free slots for one employee and day.
//
// For each working window [window.Start, window.End) it walks candidate start
// times from window.Start in increments of step, keeping every candidate whose
// interval [candidate, candidate+duration) fits inside the window and overlaps
// none of the busy intervals. The walk always advances by step, whether or not
// the candidate was kept.
//
// Windows are processed in the order given; slots within one window come out
// in ascending start order, but the result is not globally sorted when
// windows are out of order, and overlapping windows can yield duplicate
// slots. No windows, or windows too short for the duration, produce an empty
// result rather than an error.
func Slots(windows []Interval, busy []Interval, duration, step time.Duration) ([]Slot, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if step <= 0 {
		step = DefaultStep
	}

	slots := []Slot{}
	for _, w := range windows {
		for t := w.Start; !t.Add(duration).After(w.End); t = t.Add(step) {
			end := t.Add(duration)
			if !overlapsAny(t, end, busy) {
				slots = append(slots, Slot{Start: t, End: end})
			}
		}
	}
	return slots, nil
}

// CheckConflict decides whether a new appointment starting at requestedStart
// and lasting duration may coexist with the busy intervals. It uses the same
// overlap predicate as Slots, so any slot Slots offered against the same
// snapshot passes this check.
func CheckConflict(requestedStart time.Time, duration time.Duration, busy []Interval) error {
	if duration <= 0 {
		return ErrInvalidDuration
	}
	if overlapsAny(requestedStart, requestedStart.Add(duration), busy) {
		return ErrSlotUnavailable
	}
	return nil
}
