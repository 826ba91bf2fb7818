package availability

import (
	"testing"
	"time"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	h := func(hours float64) time.Time {
		return base.Add(time.Duration(hours * float64(time.Hour)))
	}

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical", h(9), h(10), h(9), h(10), true},
		{"partial overlap", h(9), h(10), h(9.5), h(10.5), true},
		{"a contains b", h(9), h(12), h(10), h(11), true},
		{"b contains a", h(10), h(11), h(9), h(12), true},
		{"touching, a before b", h(9), h(10), h(10), h(11), false},
		{"touching, b before a", h(10), h(11), h(9), h(10), false},
		{"disjoint", h(9), h(10), h(11), h(12), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			// The predicate is symmetric.
			if got := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.want {
				t.Fatalf("Overlaps (swapped) = %v, want %v", got, tc.want)
			}
		})
	}
}
