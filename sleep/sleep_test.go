package sleep

import (
	"errors"
	"testing"
	"time"
)

// nightsFrom builds consecutive nights starting at start with the given
// hours, leaving bedtime unknown.
func nightsFrom(start time.Time, hours []float64) []Night {
	nights := make([]Night, len(hours))
	for i, h := range hours {
		nights[i] = Night{Date: start.AddDate(0, 0, i), Hours: h, BedtimeMinutes: -1}
	}
	return nights
}

// monday is a known Monday so weekday/weekend layouts are predictable.
var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func TestDebtStaysZeroWhenSleepMeetsNeed(t *testing.T) {
	nights := nightsFrom(monday, []float64{8, 8, 8, 8, 8, 8, 8})
	analysis, err := AnalyzeDebt(nights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Need.Hours != 8 {
		t.Fatalf("need = %v, want 8", analysis.Need.Hours)
	}
	if analysis.CurrentDebt > 0.01 {
		t.Fatalf("debt = %v, want ~0", analysis.CurrentDebt)
	}
	if analysis.Severity != SeverityNone {
		t.Fatalf("severity = %q, want %q", analysis.Severity, SeverityNone)
	}
	if analysis.Impact.AccidentRiskMultiplier != 1.0 {
		t.Fatalf("accident risk = %v, want 1.0", analysis.Impact.AccidentRiskMultiplier)
	}
	if analysis.Recovery.NightsNeeded != 0 {
		t.Fatalf("recovery nights = %d, want 0", analysis.Recovery.NightsNeeded)
	}
}

func TestDebtAccumulatesUnderChronicRestriction(t *testing.T) {
	nights := nightsFrom(monday, []float64{5, 5, 5, 5, 5, 5, 5})
	analysis, err := AnalyzeDebt(nights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(analysis.History); i++ {
		if analysis.History[i].Debt <= analysis.History[i-1].Debt {
			t.Fatalf("debt not strictly increasing at day %d: %v -> %v",
				i, analysis.History[i-1].Debt, analysis.History[i].Debt)
		}
	}
	if analysis.Severity == SeverityNone || analysis.Severity == SeverityMild {
		t.Fatalf("severity = %q, want moderate or worse", analysis.Severity)
	}
	if analysis.Recovery.NightsNeeded == 0 {
		t.Fatal("expected a recovery plan for accumulated debt")
	}
	if analysis.Recovery.ExtraHoursPerNight <= 0 || analysis.Recovery.ExtraHoursPerNight > 2 {
		t.Fatalf("extra hours per night = %v, want in (0,2]", analysis.Recovery.ExtraHoursPerNight)
	}
}

func TestWeekendReboundDrivesNeedEstimate(t *testing.T) {
	hours := make([]float64, 14)
	for i := range hours {
		hours[i] = 6.5
	}
	// Jan 10/11 and Jan 17/18 are the weekends of this two-week window.
	hours[5], hours[6], hours[12], hours[13] = 8.5, 8.5, 8.5, 8.5

	nights := nightsFrom(monday, hours)
	analysis, err := AnalyzeDebt(nights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Need.Hours <= 6.5 || analysis.Need.Hours >= 8.5 {
		t.Fatalf("need = %v, want strictly between 6.5 and 8.5", analysis.Need.Hours)
	}
	if analysis.Need.Confidence != ConfidenceWeekendRebound && analysis.Need.Confidence != ConfidenceLongSleep {
		t.Fatalf("confidence = %d, want %d or %d",
			analysis.Need.Confidence, ConfidenceWeekendRebound, ConfidenceLongSleep)
	}
	if analysis.Need.Basis != "weekend_rebound" {
		t.Fatalf("basis = %q, want weekend_rebound", analysis.Need.Basis)
	}
	if len(analysis.History) != 14 {
		t.Fatalf("history length = %d, want 14", len(analysis.History))
	}
	for i := 1; i < len(analysis.History); i++ {
		if analysis.History[i].Date <= analysis.History[i-1].Date {
			t.Fatalf("history dates out of order at %d: %s then %s",
				i, analysis.History[i-1].Date, analysis.History[i].Date)
		}
	}
}

func TestLongSleepFallback(t *testing.T) {
	// Twelve consecutive weekday-heavy nights where a few long nights stand
	// out but no weekend rebound pattern exists (only 2 weekend nights).
	hours := []float64{7, 7, 9.5, 7, 9.5, 7, 7, 9.5, 7, 7, 7, 7}
	nights := nightsFrom(monday, hours)
	// Shift dates onto weekdays only by skipping weekends.
	day := monday
	for i := range nights {
		for isWeekend(day) {
			day = day.AddDate(0, 0, 1)
		}
		nights[i].Date = day
		day = day.AddDate(0, 0, 1)
	}

	est, err := EstimateNeed(nights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Basis != "long_sleep" {
		t.Fatalf("basis = %q, want long_sleep", est.Basis)
	}
	if est.Confidence != ConfidenceLongSleep {
		t.Fatalf("confidence = %d, want %d", est.Confidence, ConfidenceLongSleep)
	}
	if est.Hours != 9.5 {
		t.Fatalf("need = %v, want 9.5 (top-quartile average)", est.Hours)
	}
}

func TestDebtTrendDirections(t *testing.T) {
	worsening := append(
		[]float64{8, 8, 8, 8, 8, 8, 8},
		5, 5, 5, 5, 5, 5, 5,
	)
	analysis, err := AnalyzeDebt(nightsFrom(monday, worsening))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Trend != TrendWorsening {
		t.Fatalf("trend = %q, want %q", analysis.Trend, TrendWorsening)
	}

	short := nightsFrom(monday, []float64{8, 8, 8, 8, 8, 8, 8})
	analysis, err = AnalyzeDebt(short)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Trend != TrendInsufficient {
		t.Fatalf("trend = %q, want %q", analysis.Trend, TrendInsufficient)
	}

	// Falling and flat debt levels, exercised on the walk output directly.
	history := make([]DebtDay, 14)
	for i := range history {
		if i < 7 {
			history[i].Debt = 10
		} else {
			history[i].Debt = 5
		}
	}
	if got := debtTrend(history); got != TrendImproving {
		t.Fatalf("trend = %q, want %q", got, TrendImproving)
	}
	for i := range history {
		history[i].Debt = 4
	}
	if got := debtTrend(history); got != TrendStable {
		t.Fatalf("trend = %q, want %q", got, TrendStable)
	}
}

func TestImpactScalesWithDebt(t *testing.T) {
	none := EstimateImpact(0.5)
	if none.CognitiveImpairmentPct != 0 || none.AccidentRiskMultiplier != 1.0 {
		t.Fatalf("trivial debt should have no impact: %+v", none)
	}

	heavy := EstimateImpact(12)
	if heavy.CognitiveImpairmentPct != 30 {
		t.Fatalf("cognitive impairment = %v, want 30", heavy.CognitiveImpairmentPct)
	}
	if heavy.BloodAlcoholEquivalent <= 0 || heavy.BloodAlcoholEquivalent > 0.10 {
		t.Fatalf("BAC equivalent = %v, want in (0,0.10]", heavy.BloodAlcoholEquivalent)
	}
	if heavy.AccidentRiskMultiplier != 4.0 {
		t.Fatalf("accident risk = %v, want 4.0", heavy.AccidentRiskMultiplier)
	}

	extreme := EstimateImpact(100)
	if extreme.CognitiveImpairmentPct != 50 {
		t.Fatalf("cognitive impairment not capped: %v", extreme.CognitiveImpairmentPct)
	}
	if extreme.BloodAlcoholEquivalent != 0.10 {
		t.Fatalf("BAC equivalent not capped: %v", extreme.BloodAlcoholEquivalent)
	}
}

func TestRecoveryPlanPaysDebtDown(t *testing.T) {
	plan := PlanRecovery(6)
	if plan.NightsNeeded == 0 {
		t.Fatal("expected recovery nights for 6h of debt")
	}
	if plan.ExtraHoursPerNight != 1.5 {
		t.Fatalf("extra per night = %v, want 1.5", plan.ExtraHoursPerNight)
	}

	big := PlanRecovery(20)
	if big.ExtraHoursPerNight != 2 {
		t.Fatalf("extra per night = %v, want capped at 2", big.ExtraHoursPerNight)
	}
	if big.NightsNeeded <= plan.NightsNeeded {
		t.Fatalf("more debt should take longer: %d vs %d", big.NightsNeeded, plan.NightsNeeded)
	}
}

func TestEstimateChronotype(t *testing.T) {
	owl := make([]Night, 14)
	early := make([]Night, 14)
	for i := range owl {
		date := monday.AddDate(0, 0, i)
		// Bed at 02:00, 7h sleep: mid-sleep 05:30.
		owl[i] = Night{Date: date, Hours: 7, BedtimeMinutes: 120}
		// Bed at 21:30, 7h sleep: mid-sleep 01:00.
		early[i] = Night{Date: date, Hours: 7, BedtimeMinutes: 1290}
	}

	result, err := EstimateChronotype(owl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Type != ChronotypeNightOwl {
		t.Fatalf("type = %q (mid-sleep %s), want %q", result.Type, result.MidSleepClock, ChronotypeNightOwl)
	}
	if result.MidSleepClock != "05:30" {
		t.Fatalf("mid-sleep clock = %q, want 05:30", result.MidSleepClock)
	}

	result, err = EstimateChronotype(early)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Type != ChronotypeEarlyBird {
		t.Fatalf("type = %q (mid-sleep %s), want %q", result.Type, result.MidSleepClock, ChronotypeEarlyBird)
	}

	// Mid-sleep alternating either side of midnight (23:50 and 00:10) must
	// average to midnight, not noon.
	straddle := make([]Night, 14)
	for i := range straddle {
		bedtime := 1220 // 7h sleep puts mid-sleep at 23:50
		if i%2 == 1 {
			bedtime = 1240 // mid-sleep 00:10
		}
		straddle[i] = Night{Date: monday.AddDate(0, 0, i), Hours: 7, BedtimeMinutes: bedtime}
	}
	result, err = EstimateChronotype(straddle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MidSleepMinutes > 360 && result.MidSleepMinutes < 1080 {
		t.Fatalf("mid-sleep averaged to %v minutes, want near midnight", result.MidSleepMinutes)
	}
	if result.MidSleepClock != "00:00" {
		t.Fatalf("mid-sleep clock = %q, want 00:00", result.MidSleepClock)
	}
	if result.Type != ChronotypeEarlyBird {
		t.Fatalf("type = %q, want %q", result.Type, ChronotypeEarlyBird)
	}

	// Bedtime data missing on most nights.
	for i := range owl {
		if i > 2 {
			owl[i].BedtimeMinutes = -1
		}
	}
	if _, err := EstimateChronotype(owl); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestValidation(t *testing.T) {
	if _, err := EstimateNeed(nightsFrom(monday, []float64{8, 8, 8})); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	bad := nightsFrom(monday, []float64{8, 8, 8, 8, 8, 8, 30})
	if _, err := AnalyzeDebt(bad); !errors.Is(err, ErrInvalidHours) {
		t.Fatalf("expected ErrInvalidHours, got %v", err)
	}

	unordered := nightsFrom(monday, []float64{8, 8, 8, 8, 8, 8, 8})
	unordered[3].Date = monday.AddDate(0, 0, -1)
	if _, err := AnalyzeDebt(unordered); !errors.Is(err, ErrUnorderedNights) {
		t.Fatalf("expected ErrUnorderedNights, got %v", err)
	}
}
