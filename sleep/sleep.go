// Package sleep implements the homeostatic sleep-debt model and chronotype
// estimation. It is the one analysis package carrying domain semantics
// instead of generic statistics: the constants here come from published
// sleep-research heuristics, not from fitting this system's data.
package sleep

import (
	"errors"
	"fmt"
	"time"
)

// Minimum chronological coverage the analyses demand.
const (
	MinNightsForDebt       = 7
	MinNightsForChronotype = 14
)

var (
	ErrInsufficientData = errors.New("sleep: not enough nights of data")
	ErrUnorderedNights  = errors.New("sleep: nights must be in chronological order")
	ErrInvalidHours     = errors.New("sleep: sleep hours out of range")
)

// Night is one night of sleep. BedtimeMinutes is minutes after midnight in
// [0,1440) — evening bedtimes are large values (23:00 is 1380) — or negative
// when unknown.
type Night struct {
	Date           time.Time `json:"date"`
	Hours          float64   `json:"hours"`
	BedtimeMinutes int       `json:"bedtime_minutes"`
}

// validateNights checks count, ordering and plausibility. The series must be
// chronological because debt accumulation walks it in order.
func validateNights(nights []Night, minCount int) error {
	if len(nights) < minCount {
		return fmt.Errorf("%w: need %d nights, got %d", ErrInsufficientData, minCount, len(nights))
	}
	for i, n := range nights {
		if n.Hours < 0 || n.Hours > 24 {
			return fmt.Errorf("%w: %.1f hours on %s", ErrInvalidHours, n.Hours, n.Date.Format("2006-01-02"))
		}
		if i > 0 && n.Date.Before(nights[i-1].Date) {
			return fmt.Errorf("%w: %s after %s", ErrUnorderedNights,
				nights[i-1].Date.Format("2006-01-02"), n.Date.Format("2006-01-02"))
		}
	}
	return nil
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func meanHours(nights []Night) float64 {
	if len(nights) == 0 {
		return 0
	}
	sum := 0.0
	for _, n := range nights {
		sum += n.Hours
	}
	return sum / float64(len(nights))
}
