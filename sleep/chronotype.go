package sleep

import (
	"fmt"
	"math"
)

// Chronotype labels from mid-sleep timing.
const (
	ChronotypeEarlyBird    = "early_bird"
	ChronotypeIntermediate = "intermediate"
	ChronotypeNightOwl     = "night_owl"
)

// Mid-sleep boundaries in minutes after midnight. Mid-sleep before 03:00
// marks an early chronotype, after 05:00 a late one.
const (
	earlyMidSleepCutoff = 180
	lateMidSleepCutoff  = 300
)

const minutesPerDay = 1440

// ChronotypeResult classifies a person's circadian timing from where the
// midpoint of their sleep falls.
type ChronotypeResult struct {
	Type            string  `json:"type"`
	MidSleepMinutes float64 `json:"mid_sleep_minutes"`
	MidSleepClock   string  `json:"mid_sleep_clock"`
	NightsUsed      int     `json:"nights_used"`
}

// EstimateChronotype classifies circadian timing from at least two weeks of
// nights carrying bedtime data. Mid-sleep is bedtime plus half the sleep
// duration, wrapped across midnight; its average position places the person
// on the early-bird to night-owl spectrum. Mid-sleep is a clock time, so the
// average is circular: 23:50 and 00:10 average to midnight, not noon.
func EstimateChronotype(nights []Night) (*ChronotypeResult, error) {
	if err := validateNights(nights, MinNightsForChronotype); err != nil {
		return nil, err
	}

	used := 0
	sumSin, sumCos := 0.0, 0.0
	for _, n := range nights {
		if n.BedtimeMinutes < 0 || n.BedtimeMinutes >= minutesPerDay {
			continue
		}
		mid := float64(n.BedtimeMinutes) + n.Hours*30 // half the duration, in minutes
		angle := mid * 2 * math.Pi / minutesPerDay
		sumSin += math.Sin(angle)
		sumCos += math.Cos(angle)
		used++
	}
	if used < MinNightsForChronotype {
		return nil, fmt.Errorf("%w: only %d nights carry bedtime data, need %d",
			ErrInsufficientData, used, MinNightsForChronotype)
	}

	avg := math.Atan2(sumSin, sumCos) * minutesPerDay / (2 * math.Pi)
	if avg < 0 {
		avg += minutesPerDay
	}
	clock := int(math.Round(avg)) % minutesPerDay
	result := &ChronotypeResult{
		MidSleepMinutes: avg,
		MidSleepClock:   fmt.Sprintf("%02d:%02d", clock/60%24, clock%60),
		NightsUsed:      used,
	}
	switch {
	case clock < earlyMidSleepCutoff:
		result.Type = ChronotypeEarlyBird
	case clock <= lateMidSleepCutoff:
		result.Type = ChronotypeIntermediate
	default:
		result.Type = ChronotypeNightOwl
	}
	return result, nil
}
