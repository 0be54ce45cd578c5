package sleep

import (
	"sort"
)

// Confidence tiers for the need estimate, in percent. Which tier applies
// depends on how much signal the data carries, not on how much data there is.
const (
	ConfidenceWeekendRebound = 75
	ConfidenceLongSleep      = 60
	ConfidenceDefault        = 40
)

const (
	defaultNeedHours  = 8.0
	weekendGapMinimum = 0.5
	minWeekendNights  = 4
)

// NeedEstimate is the personalized nightly sleep requirement.
type NeedEstimate struct {
	Hours      float64 `json:"hours"`
	Confidence int     `json:"confidence"`
	Basis      string  `json:"basis"`
}

// EstimateNeed derives how much sleep this person actually needs from at
// least a week of history. The strongest signal is weekend rebound: when
// weekend sleep runs meaningfully longer than weekday sleep, the person is
// carrying weekday debt and the weekend number is closer to their true need.
// Without that signal the estimate falls back to the longest nights on
// record, and finally to the population default of 8 hours.
func EstimateNeed(nights []Night) (*NeedEstimate, error) {
	if err := validateNights(nights, MinNightsForDebt); err != nil {
		return nil, err
	}

	var weekend, weekday []Night
	for _, n := range nights {
		if isWeekend(n.Date) {
			weekend = append(weekend, n)
		} else {
			weekday = append(weekday, n)
		}
	}

	if len(weekend) >= minWeekendNights && len(weekday) > 0 {
		weekendAvg := meanHours(weekend)
		weekdayAvg := meanHours(weekday)
		if weekendAvg-weekdayAvg >= weekendGapMinimum {
			// Weight toward the rebound nights but keep some pull from the
			// weekday baseline; unrestricted weekend sleep overshoots need.
			return &NeedEstimate{
				Hours:      0.75*weekendAvg + 0.25*weekdayAvg,
				Confidence: ConfidenceWeekendRebound,
				Basis:      "weekend_rebound",
			}, nil
		}
	}

	if est, ok := longSleepEstimate(nights); ok {
		return est, nil
	}

	return &NeedEstimate{
		Hours:      defaultNeedHours,
		Confidence: ConfidenceDefault,
		Basis:      "population_default",
	}, nil
}

// longSleepEstimate averages the top quartile of nights. Those are the
// nights least truncated by alarms and obligations. It only applies when the
// long nights actually stand out from the rest of the record.
func longSleepEstimate(nights []Night) (*NeedEstimate, bool) {
	hours := make([]float64, len(nights))
	for i, n := range nights {
		hours[i] = n.Hours
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(hours)))

	count := len(hours) / 4
	if count < 3 {
		count = 3
	}
	if count > len(hours) {
		return nil, false
	}

	topSum := 0.0
	for _, h := range hours[:count] {
		topSum += h
	}
	topAvg := topSum / float64(count)

	allSum := 0.0
	for _, h := range hours {
		allSum += h
	}
	allAvg := allSum / float64(len(hours))

	if topAvg-allAvg < 0.25 {
		// Flat distribution: long nights say nothing the average doesn't.
		return nil, false
	}
	return &NeedEstimate{
		Hours:      topAvg,
		Confidence: ConfidenceLongSleep,
		Basis:      "long_sleep",
	}, true
}
