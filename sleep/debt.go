package sleep

import (
	"math"
)

// debtDecay is the fraction of accumulated debt carried into the next day.
// Some of a deficit is absorbed physiologically rather than repaid, so debt
// decays instead of summing forever.
const debtDecay = 0.95

// Severity buckets by hours of accumulated debt.
const (
	SeverityNone     = "none"
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
	SeverityCritical = "critical"
)

// Trend labels for the recent debt trajectory.
const (
	TrendImproving    = "improving"
	TrendStable       = "stable"
	TrendWorsening    = "worsening"
	TrendInsufficient = "insufficient_data"
)

const trendDeadBandHours = 1.0

// DebtDay is one step of the accumulation walk.
type DebtDay struct {
	Date    string  `json:"date"`
	Slept   float64 `json:"slept"`
	Deficit float64 `json:"deficit"`
	Debt    float64 `json:"debt"`
}

// DebtAnalysis is the full output of the sleep-debt model.
type DebtAnalysis struct {
	Need        NeedEstimate `json:"need"`
	CurrentDebt float64      `json:"current_debt"`
	Severity    string       `json:"severity"`
	Trend       string       `json:"trend"`
	History     []DebtDay    `json:"history"`
	Impact      Impact       `json:"impact"`
	Recovery    RecoveryPlan `json:"recovery"`
}

// AnalyzeDebt walks the night series in order accumulating decayed debt:
// each day the carried debt shrinks by the decay factor, then that night's
// deficit (need minus slept) is added, and surplus sleep pays debt down.
// Debt never goes negative; you cannot bank sleep ahead of need.
func AnalyzeDebt(nights []Night) (*DebtAnalysis, error) {
	need, err := EstimateNeed(nights)
	if err != nil {
		return nil, err
	}

	history := make([]DebtDay, 0, len(nights))
	debt := 0.0
	for _, n := range nights {
		deficit := need.Hours - n.Hours
		debt = math.Max(0, debt*debtDecay+deficit)
		history = append(history, DebtDay{
			Date:    n.Date.Format("2006-01-02"),
			Slept:   n.Hours,
			Deficit: deficit,
			Debt:    debt,
		})
	}

	analysis := &DebtAnalysis{
		Need:        *need,
		CurrentDebt: debt,
		Severity:    classifySeverity(debt),
		Trend:       debtTrend(history),
		History:     history,
		Impact:      EstimateImpact(debt),
		Recovery:    PlanRecovery(debt),
	}
	return analysis, nil
}

func classifySeverity(debt float64) string {
	switch {
	case debt < 1:
		return SeverityNone
	case debt < 3:
		return SeverityMild
	case debt < 6:
		return SeverityModerate
	case debt < 10:
		return SeveritySevere
	default:
		return SeverityCritical
	}
}

// debtTrend compares the mean debt of the last seven days against the seven
// before that. Shifts inside a one-hour dead band read as stable; nightly
// noise moves averages by less than that all the time.
func debtTrend(history []DebtDay) string {
	if len(history) < 14 {
		return TrendInsufficient
	}
	recent := history[len(history)-7:]
	prior := history[len(history)-14 : len(history)-7]

	recentMean := 0.0
	for _, d := range recent {
		recentMean += d.Debt
	}
	recentMean /= 7

	priorMean := 0.0
	for _, d := range prior {
		priorMean += d.Debt
	}
	priorMean /= 7

	switch diff := recentMean - priorMean; {
	case diff > trendDeadBandHours:
		return TrendWorsening
	case diff < -trendDeadBandHours:
		return TrendImproving
	default:
		return TrendStable
	}
}

// Impact translates debt hours into functional consequences. The mappings
// are coarse research heuristics: sustained restriction degrades vigilance
// roughly linearly at first, and heavy debt impairs like legal intoxication.
type Impact struct {
	CognitiveImpairmentPct float64 `json:"cognitive_impairment_pct"`
	BloodAlcoholEquivalent float64 `json:"blood_alcohol_equivalent"`
	AccidentRiskMultiplier float64 `json:"accident_risk_multiplier"`
}

// EstimateImpact maps accumulated debt to its functional cost.
func EstimateImpact(debt float64) Impact {
	impact := Impact{AccidentRiskMultiplier: 1.0}
	if debt < 1 {
		return impact
	}

	impact.CognitiveImpairmentPct = math.Min(50, debt*2.5)
	if debt >= 2 {
		impact.BloodAlcoholEquivalent = math.Min(0.10, (debt-2)*0.008)
	}

	switch {
	case debt < 3:
		impact.AccidentRiskMultiplier = 1.3
	case debt < 6:
		impact.AccidentRiskMultiplier = 1.9
	case debt < 10:
		impact.AccidentRiskMultiplier = 2.9
	default:
		impact.AccidentRiskMultiplier = 4.0
	}
	return impact
}

// RecoveryPlan describes how to pay the debt down. Recovery sleep repays
// only a fraction of outstanding debt per night, and extra time in bed past
// two hours yields little additional recovery.
type RecoveryPlan struct {
	NightsNeeded       int     `json:"nights_needed"`
	ExtraHoursPerNight float64 `json:"extra_hours_per_night"`
}

const (
	recoveryFraction   = 0.25
	maxExtraPerNight   = 2.0
	recoveredThreshold = 0.5
	maxRecoveryNights  = 60
)

// PlanRecovery simulates paying debt off at the nightly recovery rate and
// reports how long that takes.
func PlanRecovery(debt float64) RecoveryPlan {
	if debt < recoveredThreshold {
		return RecoveryPlan{}
	}

	extra := math.Min(maxExtraPerNight, debt*recoveryFraction)
	nights := 0
	remaining := debt
	for remaining >= recoveredThreshold && nights < maxRecoveryNights {
		repaid := math.Min(maxExtraPerNight, remaining*recoveryFraction)
		remaining -= repaid
		nights++
	}
	return RecoveryPlan{
		NightsNeeded:       nights,
		ExtraHoursPerNight: extra,
	}
}
