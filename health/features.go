package health

import (
	"errors"
	"fmt"
)

// rollingWindow is the span of the smoothed features. A week captures the
// weekday/weekend cycle that dominates this data.
const rollingWindow = 7

// Features is the per-day feature set derived from the raw records: the
// measurements themselves plus rolling baselines and day-over-day movement.
type Features struct {
	SleepHours      float64
	SleepEfficiency float64
	RestingHR       float64
	HRV             float64
	RespiratoryRate float64
	TempDeviation   float64
	Steps           float64
	ActiveMinutes   float64

	SleepHours7d    float64
	RestingHR7d     float64
	HRVMomentum     float64
	ActivityBalance float64
}

// FeatureNames returns the names in vector order.
func FeatureNames() []string {
	return []string{
		"SleepHours",
		"SleepEfficiency",
		"RestingHR",
		"HRV",
		"RespiratoryRate",
		"TempDeviation",
		"Steps",
		"ActiveMinutes",
		"SleepHours7d",
		"RestingHR7d",
		"HRVMomentum",
		"ActivityBalance",
	}
}

// FeatureVector flattens one day's features in the FeatureNames order.
func FeatureVector(f Features) []float64 {
	return []float64{
		f.SleepHours,
		f.SleepEfficiency,
		f.RestingHR,
		f.HRV,
		f.RespiratoryRate,
		f.TempDeviation,
		f.Steps,
		f.ActiveMinutes,
		f.SleepHours7d,
		f.RestingHR7d,
		f.HRVMomentum,
		f.ActivityBalance,
	}
}

// ExtractFeatures derives one Features row per record once a full rolling
// window of history exists; earlier days are skipped because their rolling
// baselines would be partial.
func ExtractFeatures(records []DailyRecord) ([]Features, error) {
	if err := ValidateSeries(records); err != nil {
		return nil, err
	}
	if len(records) < rollingWindow {
		return nil, fmt.Errorf("%w: need %d records for rolling features, got %d",
			ErrNoRecords, rollingWindow, len(records))
	}

	features := make([]Features, 0, len(records)-rollingWindow+1)
	for i := rollingWindow - 1; i < len(records); i++ {
		window := records[i-rollingWindow+1 : i+1]
		r := records[i]

		sleepAvg, hrAvg, stepsAvg := 0.0, 0.0, 0.0
		for _, w := range window {
			sleepAvg += w.SleepHours
			hrAvg += w.RestingHR
			stepsAvg += float64(w.Steps)
		}
		sleepAvg /= rollingWindow
		hrAvg /= rollingWindow
		stepsAvg /= rollingWindow

		hrvMomentum := 0.0
		if i > 0 {
			hrvMomentum = r.HRV - records[i-1].HRV
		}
		activityBalance := 0.0
		if stepsAvg > 0 {
			activityBalance = float64(r.Steps) / stepsAvg
		}

		features = append(features, Features{
			SleepHours:      r.SleepHours,
			SleepEfficiency: r.SleepEfficiency,
			RestingHR:       r.RestingHR,
			HRV:             r.HRV,
			RespiratoryRate: r.RespiratoryRate,
			TempDeviation:   r.TempDeviation,
			Steps:           float64(r.Steps),
			ActiveMinutes:   float64(r.ActiveMinutes),
			SleepHours7d:    sleepAvg,
			RestingHR7d:     hrAvg,
			HRVMomentum:     hrvMomentum,
			ActivityBalance: activityBalance,
		})
	}
	return features, nil
}

// Normalizer rescales feature vectors to [0,1] per dimension using min/max
// stats fitted on a reference series, so the distance-based analyses are not
// dominated by step counts dwarfing everything else.
type Normalizer struct {
	mins []float64
	maxs []float64
}

var ErrStatsNotFitted = errors.New("health: normalizer stats not fitted")

// Fit computes per-dimension min/max from the given feature rows.
func (n *Normalizer) Fit(features []Features) error {
	if len(features) == 0 {
		return ErrNoRecords
	}
	dims := len(FeatureNames())
	n.mins = make([]float64, dims)
	n.maxs = make([]float64, dims)
	for i, f := range features {
		vector := FeatureVector(f)
		for d, v := range vector {
			if i == 0 || v < n.mins[d] {
				n.mins[d] = v
			}
			if i == 0 || v > n.maxs[d] {
				n.maxs[d] = v
			}
		}
	}
	return nil
}

// Transform rescales rows with the fitted stats. Constant dimensions map
// to 0.5 so they carry no distance signal in either direction.
func (n *Normalizer) Transform(features []Features) ([][]float64, error) {
	if n.mins == nil {
		return nil, ErrStatsNotFitted
	}
	vectors := make([][]float64, len(features))
	for i, f := range features {
		vector := FeatureVector(f)
		scaled := make([]float64, len(vector))
		for d, v := range vector {
			span := n.maxs[d] - n.mins[d]
			if span == 0 {
				scaled[d] = 0.5
				continue
			}
			scaled[d] = (v - n.mins[d]) / span
		}
		vectors[i] = scaled
	}
	return vectors, nil
}

// FitTransform fits the stats and rescales in one step.
func (n *Normalizer) FitTransform(features []Features) ([][]float64, error) {
	if err := n.Fit(features); err != nil {
		return nil, err
	}
	return n.Transform(features)
}
