package insight

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ringpulse/cluster"
	"ringpulse/health"
	"ringpulse/mvstats"
	"ringpulse/outlier"
	"ringpulse/pattern"
	"ringpulse/sleep"
)

var ErrTooFewRecords = errors.New("insight: not enough records to analyze")

// minRecords is the smallest series the full battery runs on: the sleep
// model wants a week and the rolling features eat the first six days.
const minRecords = 14

// Config tunes the engine. Zero values take defaults.
type Config struct {
	AnomalyThreshold   float64
	ChangePointWindow  int
	ClusterCount       int
	PCAComponents      int
	EigenMaxIterations int
	CacheSize          int
	Seed               int64
}

func (cfg Config) withDefaults() Config {
	if cfg.AnomalyThreshold <= 0 {
		cfg.AnomalyThreshold = 2.5
	}
	if cfg.ChangePointWindow <= 0 {
		cfg.ChangePointWindow = 7
	}
	if cfg.ClusterCount <= 0 {
		cfg.ClusterCount = 3
	}
	if cfg.PCAComponents <= 0 {
		cfg.PCAComponents = 3
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}
	return cfg
}

// Engine runs the analysis battery over record series. Reports are cached
// by a fingerprint of the input, so re-analyzing an unchanged series is
// free.
type Engine struct {
	cfg     Config
	logger  *zap.Logger
	printer *message.Printer
	cache   *lru.Cache[string, *Report]
	now     func() time.Time
}

// NewEngine builds an engine. A nil logger disables logging.
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[string, *Report](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     cfg,
		logger:  logger,
		printer: message.NewPrinter(language.English),
		cache:   cache,
		now:     time.Now,
	}, nil
}

// Analyze runs every applicable analysis over the records and returns the
// narrated findings.
func (e *Engine) Analyze(records []health.DailyRecord) (*Report, error) {
	if len(records) < minRecords {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrTooFewRecords, len(records), minRecords)
	}
	if err := health.ValidateSeries(records); err != nil {
		return nil, err
	}

	key := fingerprint(records)
	if cached, ok := e.cache.Get(key); ok {
		e.logger.Debug("analysis served from cache", zap.String("fingerprint", key[:12]))
		dup := *cached
		dup.FromCache = true
		return &dup, nil
	}

	start := e.now()
	report := &Report{GeneratedAt: start, RecordCount: len(records)}

	report.Insights = append(report.Insights, e.sleepInsights(records)...)
	report.Insights = append(report.Insights, e.trendInsights(records)...)

	features, err := health.ExtractFeatures(records)
	if err == nil {
		var norm health.Normalizer
		vectors, verr := norm.FitTransform(features)
		if verr == nil {
			report.Insights = append(report.Insights, e.anomalyInsights(records, vectors)...)
			report.Insights = append(report.Insights, e.archetypeInsights(vectors)...)
			report.Insights = append(report.Insights, e.dimensionInsights(vectors)...)
		}
	} else {
		e.logger.Warn("feature extraction skipped", zap.Error(err))
	}
	report.Insights = append(report.Insights, e.outlierInsights(records)...)

	e.cache.Add(key, report)
	e.logger.Info("analysis complete",
		zap.Int("records", len(records)),
		zap.Int("insights", len(report.Insights)),
		zap.Duration("elapsed", e.now().Sub(start)))
	return report, nil
}

// fingerprint hashes the fields that influence analysis output.
func fingerprint(records []health.DailyRecord) string {
	h := sha256.New()
	for _, r := range records {
		fmt.Fprintf(h, "%s|%.4f|%.4f|%d|%.2f|%.2f|%.2f|%.3f|%d|%d\n",
			r.Date.Format("2006-01-02"), r.SleepHours, r.SleepEfficiency,
			r.BedtimeMinutes, r.RestingHR, r.HRV, r.RespiratoryRate,
			r.TempDeviation, r.Steps, r.ActiveMinutes)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (e *Engine) sleepInsights(records []health.DailyRecord) []Insight {
	nights := health.Nights(records)
	now := e.now()
	var insights []Insight

	analysis, err := sleep.AnalyzeDebt(nights)
	if err != nil {
		e.logger.Warn("sleep debt analysis skipped", zap.Error(err))
	} else {
		severity := SeverityInfo
		switch analysis.Severity {
		case sleep.SeverityModerate:
			severity = SeverityNotice
		case sleep.SeveritySevere:
			severity = SeverityWarning
		case sleep.SeverityCritical:
			severity = SeverityCritical
		}
		body := e.printer.Sprintf(
			"You are carrying %.1f hours of sleep debt (%s). Estimated need is %.1f hours per night (%d%% confidence). Trend over the last two weeks: %s.",
			analysis.CurrentDebt, analysis.Severity, analysis.Need.Hours,
			analysis.Need.Confidence, analysis.Trend)
		if analysis.Recovery.NightsNeeded > 0 {
			body += e.printer.Sprintf(
				" Adding %.1f hours per night would clear it in about %d nights.",
				analysis.Recovery.ExtraHoursPerNight, analysis.Recovery.NightsNeeded)
		}
		insights = append(insights, Insight{
			Kind:       KindSleepDebt,
			Severity:   severity,
			Confidence: float64(analysis.Need.Confidence),
			Title:      e.printer.Sprintf("Sleep debt: %s", analysis.Severity),
			Body:       body,
			Evidence: map[string]float64{
				"debt_hours":      analysis.CurrentDebt,
				"need_hours":      analysis.Need.Hours,
				"recovery_nights": float64(analysis.Recovery.NightsNeeded),
			},
			GeneratedAt: now,
		})
	}

	chrono, err := sleep.EstimateChronotype(nights)
	if err == nil {
		insights = append(insights, Insight{
			Kind:       KindChronotype,
			Severity:   SeverityInfo,
			Confidence: 75,
			Title:      e.printer.Sprintf("Chronotype: %s", chrono.Type),
			Body: e.printer.Sprintf(
				"Your average mid-sleep falls at %s across %d nights, which places you in the %s range.",
				chrono.MidSleepClock, chrono.NightsUsed, chrono.Type),
			Evidence: map[string]float64{
				"mid_sleep_minutes": chrono.MidSleepMinutes,
				"nights_used":       float64(chrono.NightsUsed),
			},
			GeneratedAt: now,
		})
	}
	return insights
}

func (e *Engine) trendInsights(records []health.DailyRecord) []Insight {
	series := map[string][]float64{
		"sleep duration":     make([]float64, len(records)),
		"resting heart rate": make([]float64, len(records)),
		"HRV":                make([]float64, len(records)),
	}
	for i, r := range records {
		series["sleep duration"][i] = r.SleepHours
		series["resting heart rate"][i] = r.RestingHR
		series["HRV"][i] = r.HRV
	}

	analyzer := pattern.TrendAnalyzer{}
	now := e.now()
	var insights []Insight
	for _, name := range []string{"sleep duration", "resting heart rate", "HRV"} {
		values := series[name]
		trend, err := analyzer.DetectTrend(values)
		if err != nil {
			continue
		}
		if trend.Direction != pattern.TrendStable {
			insights = append(insights, Insight{
				Kind:       KindTrend,
				Severity:   SeverityNotice,
				Confidence: trend.Strength * 100,
				Title:      e.printer.Sprintf("%s is %s", name, trend.Direction),
				Body: e.printer.Sprintf(
					"Your %s shows a %s trend (slope %.3f per day, strength %.0f%%).",
					name, trend.Direction, trend.Slope, trend.Strength*100),
				Evidence:    map[string]float64{"slope": trend.Slope, "r_squared": trend.Strength},
				GeneratedAt: now,
			})
		}

		changes, err := analyzer.DetectChangePoints(values, e.cfg.ChangePointWindow)
		if err != nil {
			continue
		}
		for _, cp := range changes {
			insights = append(insights, Insight{
				Kind:       KindChangePoint,
				Severity:   SeverityNotice,
				Confidence: math.Min(95, math.Abs(cp.ShiftPct)),
				Title:      e.printer.Sprintf("Shift in %s", name),
				Body: e.printer.Sprintf(
					"Around %s your %s moved from an average of %.1f to %.1f (%+.0f%%).",
					records[cp.Index].Date.Format("Jan 2"), name,
					cp.PrevMean, cp.NextMean, cp.ShiftPct),
				Evidence: map[string]float64{
					"prev_mean": cp.PrevMean,
					"next_mean": cp.NextMean,
					"shift_pct": cp.ShiftPct,
				},
				GeneratedAt: now,
			})
		}
	}
	return insights
}

func (e *Engine) anomalyInsights(records []health.DailyRecord, vectors [][]float64) []Insight {
	if len(vectors) < 2 {
		return nil
	}
	detector := pattern.NewAnomalyDetector(pattern.DetectorConfig{
		Threshold: e.cfg.AnomalyThreshold,
		Seed:      e.cfg.Seed,
	})
	if err := detector.Train(vectors[:len(vectors)-1]); err != nil {
		e.logger.Warn("anomaly detector training failed", zap.Error(err))
		return nil
	}
	latest := vectors[len(vectors)-1]
	report, err := detector.Detect(latest)
	if err != nil || !report.IsAnomaly {
		return nil
	}

	// The feature offset: vectors cover only days with full rolling windows.
	day := records[len(records)-1].Date
	names := health.FeatureNames()
	worst := ""
	if len(report.Dimensions) > 0 && report.Dimensions[0] < len(names) {
		worst = names[report.Dimensions[0]]
	}
	return []Insight{{
		Kind:       KindAnomaly,
		Severity:   SeverityWarning,
		Confidence: math.Min(99, 50*report.MaxZScore/report.Threshold),
		Title:      "Unusual day detected",
		Body: e.printer.Sprintf(
			"%s deviates from your baseline (max z-score %.1f, most unusual signal: %s).",
			day.Format("Jan 2"), report.MaxZScore, worst),
		Evidence: map[string]float64{
			"max_zscore": report.MaxZScore,
			"threshold":  report.Threshold,
		},
		GeneratedAt: e.now(),
	}}
}

func (e *Engine) archetypeInsights(vectors [][]float64) []Insight {
	if len(vectors) < e.cfg.ClusterCount*2 {
		return nil
	}
	km, err := cluster.NewKMeans(e.cfg.ClusterCount, cluster.KMeansConfig{Seed: e.cfg.Seed})
	if err != nil {
		return nil
	}
	assignments, err := km.Fit(vectors)
	if err != nil {
		e.logger.Warn("archetype clustering failed", zap.Error(err))
		return nil
	}
	counts := make([]int, e.cfg.ClusterCount)
	for _, a := range assignments {
		counts[a]++
	}
	largest, largestCount := 0, 0
	for i, c := range counts {
		if c > largestCount {
			largest, largestCount = i, c
		}
	}
	share := 100 * float64(largestCount) / float64(len(assignments))
	return []Insight{{
		Kind:       KindArchetype,
		Severity:   SeverityInfo,
		Confidence: share,
		Title:      e.printer.Sprintf("Your days form %d patterns", e.cfg.ClusterCount),
		Body: e.printer.Sprintf(
			"Grouping %d days by their biometrics yields %d day archetypes; the most common one covers %.0f%% of days (archetype %d).",
			len(vectors), e.cfg.ClusterCount, share, largest+1),
		Evidence: map[string]float64{
			"clusters":          float64(e.cfg.ClusterCount),
			"largest_share_pct": share,
		},
		GeneratedAt: e.now(),
	}}
}

func (e *Engine) dimensionInsights(vectors [][]float64) []Insight {
	k := e.cfg.PCAComponents
	if len(vectors) == 0 || k > len(vectors[0]) {
		return nil
	}
	result, err := mvstats.PCA(vectors, k, mvstats.EigenConfig{MaxIterations: e.cfg.EigenMaxIterations})
	if err != nil {
		e.logger.Warn("pca skipped", zap.Error(err))
		return nil
	}
	cumulative := result.CumulativeVariance[len(result.CumulativeVariance)-1]
	return []Insight{{
		Kind:       KindDimension,
		Severity:   SeverityInfo,
		Confidence: cumulative,
		Title:      e.printer.Sprintf("%d dimensions explain %.0f%% of variation", k, cumulative),
		Body: e.printer.Sprintf(
			"Most day-to-day variation in your biometrics (%.0f%%) is captured by %d underlying dimensions; the strongest alone accounts for %.0f%%.",
			cumulative, k, result.ExplainedVariance[0]),
		Evidence: map[string]float64{
			"cumulative_pct": cumulative,
			"first_pct":      result.ExplainedVariance[0],
		},
		GeneratedAt: e.now(),
	}}
}

func (e *Engine) outlierInsights(records []health.DailyRecord) []Insight {
	hr := make([]float64, len(records))
	for i, r := range records {
		hr[i] = r.RestingHR
	}
	result, err := outlier.MovingAverage(hr, 7, 3)
	if err != nil || len(result.Indices) == 0 {
		return nil
	}
	idx := result.Indices[len(result.Indices)-1]
	return []Insight{{
		Kind:       KindOutlier,
		Severity:   SeverityNotice,
		Confidence: math.Min(99, 50*result.Scores[idx]/result.Threshold),
		Title:      "Resting heart rate outlier",
		Body: e.printer.Sprintf(
			"Resting heart rate on %s (%.0f bpm) broke away from the preceding week's pattern.",
			records[idx].Date.Format("Jan 2"), hr[idx]),
		Evidence: map[string]float64{
			"value": hr[idx],
			"score": result.Scores[idx],
		},
		GeneratedAt: e.now(),
	}}
}
