// Package health holds the daily biometric record shape produced by the
// ring and the feature pipeline that turns record series into numeric
// vectors for the analysis packages.
package health

import (
	"errors"
	"fmt"
	"time"

	"ringpulse/sleep"
)

var (
	ErrNoRecords       = errors.New("health: no records")
	ErrUnorderedDates  = errors.New("health: records must be in chronological order")
	ErrImplausibleData = errors.New("health: measurement out of plausible range")
)

// DailyRecord is one day of ring measurements. Sleep fields describe the
// night ending that morning.
type DailyRecord struct {
	Date            time.Time `json:"date"`
	SleepHours      float64   `json:"sleep_hours"`
	SleepEfficiency float64   `json:"sleep_efficiency"` // fraction of time in bed asleep, [0,1]
	BedtimeMinutes  int       `json:"bedtime_minutes"`  // minutes after midnight, negative if unknown
	RestingHR       float64   `json:"resting_hr"`       // beats per minute
	HRV             float64   `json:"hrv"`              // rMSSD, milliseconds
	RespiratoryRate float64   `json:"respiratory_rate"` // breaths per minute
	TempDeviation   float64   `json:"temp_deviation"`   // degrees C from personal baseline
	Steps           int       `json:"steps"`
	ActiveMinutes   int       `json:"active_minutes"`
}

// Validate rejects values a ring cannot plausibly report. Gaps in wear time
// show up as zeros and are allowed; impossible values are not.
func (r DailyRecord) Validate() error {
	switch {
	case r.SleepHours < 0 || r.SleepHours > 24:
		return fmt.Errorf("%w: sleep %.1fh on %s", ErrImplausibleData, r.SleepHours, r.Date.Format("2006-01-02"))
	case r.SleepEfficiency < 0 || r.SleepEfficiency > 1:
		return fmt.Errorf("%w: efficiency %.2f on %s", ErrImplausibleData, r.SleepEfficiency, r.Date.Format("2006-01-02"))
	case r.RestingHR < 0 || r.RestingHR > 250:
		return fmt.Errorf("%w: resting HR %.0f on %s", ErrImplausibleData, r.RestingHR, r.Date.Format("2006-01-02"))
	case r.HRV < 0 || r.HRV > 500:
		return fmt.Errorf("%w: HRV %.0fms on %s", ErrImplausibleData, r.HRV, r.Date.Format("2006-01-02"))
	case r.RespiratoryRate < 0 || r.RespiratoryRate > 60:
		return fmt.Errorf("%w: respiratory rate %.1f on %s", ErrImplausibleData, r.RespiratoryRate, r.Date.Format("2006-01-02"))
	case r.Steps < 0 || r.ActiveMinutes < 0:
		return fmt.Errorf("%w: negative activity on %s", ErrImplausibleData, r.Date.Format("2006-01-02"))
	}
	return nil
}

// ValidateSeries checks every record and the chronological ordering the
// rolling features and the debt model depend on.
func ValidateSeries(records []DailyRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
		if i > 0 && r.Date.Before(records[i-1].Date) {
			return fmt.Errorf("%w: %s after %s", ErrUnorderedDates,
				records[i-1].Date.Format("2006-01-02"), r.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Nights converts the series into the sleep model's input.
func Nights(records []DailyRecord) []sleep.Night {
	nights := make([]sleep.Night, len(records))
	for i, r := range records {
		nights[i] = sleep.Night{
			Date:           r.Date,
			Hours:          r.SleepHours,
			BedtimeMinutes: r.BedtimeMinutes,
		}
	}
	return nights
}
