package insight

import (
	"errors"
	"testing"
	"time"

	"ringpulse/health"
)

func restrictedSleeper(n int) []health.DailyRecord {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	records := make([]health.DailyRecord, n)
	for i := range records {
		sleepHours := 5.5 + 0.2*float64(i%3)
		records[i] = health.DailyRecord{
			Date:            start.AddDate(0, 0, i),
			SleepHours:      sleepHours,
			SleepEfficiency: 0.88,
			BedtimeMinutes:  1410 + 10*(i%3),
			RestingHR:       54 + float64(i%4),
			HRV:             65 - float64(i%5),
			RespiratoryRate: 14 + 0.2*float64(i%2),
			TempDeviation:   0.05 * float64(i%3),
			Steps:           7000 + 400*(i%5),
			ActiveMinutes:   35 + 5*(i%3),
		}
	}
	return records
}

func TestAnalyzeProducesSleepDebtInsight(t *testing.T) {
	engine, err := NewEngine(Config{Seed: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := engine.Analyze(restrictedSleeper(28))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordCount != 28 {
		t.Fatalf("record count = %d, want 28", report.RecordCount)
	}
	if report.FromCache {
		t.Fatal("first analysis should not come from cache")
	}

	kinds := make(map[string]int)
	for _, in := range report.Insights {
		kinds[in.Kind]++
		if in.Title == "" || in.Body == "" {
			t.Fatalf("insight missing text: %+v", in)
		}
		if in.GeneratedAt.IsZero() {
			t.Fatalf("insight missing timestamp: %+v", in)
		}
	}
	if kinds[KindSleepDebt] != 1 {
		t.Fatalf("want exactly one sleep debt insight, kinds = %v", kinds)
	}
	if kinds[KindArchetype] != 1 {
		t.Fatalf("want an archetype insight, kinds = %v", kinds)
	}
	if kinds[KindDimension] != 1 {
		t.Fatalf("want a dimension insight, kinds = %v", kinds)
	}
	// Bedtime data is present on every night, so chronotype must appear.
	if kinds[KindChronotype] != 1 {
		t.Fatalf("want a chronotype insight, kinds = %v", kinds)
	}
}

func TestAnalyzeCachesByFingerprint(t *testing.T) {
	engine, err := NewEngine(Config{Seed: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records := restrictedSleeper(21)

	first, err := engine.Analyze(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Analyze(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.FromCache {
		t.Fatal("identical input should hit the cache")
	}
	if len(second.Insights) != len(first.Insights) {
		t.Fatalf("cached report differs: %d vs %d insights", len(second.Insights), len(first.Insights))
	}

	// A changed record must miss the cache.
	records[5].SleepHours = 9
	third, err := engine.Analyze(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.FromCache {
		t.Fatal("modified input must not hit the cache")
	}
}

func TestAnalyzeRejectsShortSeries(t *testing.T) {
	engine, err := NewEngine(Config{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.Analyze(restrictedSleeper(5)); !errors.Is(err, ErrTooFewRecords) {
		t.Fatalf("expected ErrTooFewRecords, got %v", err)
	}
}

func TestFingerprintIsStable(t *testing.T) {
	a := fingerprint(restrictedSleeper(14))
	b := fingerprint(restrictedSleeper(14))
	if a != b {
		t.Fatal("same records must fingerprint identically")
	}
	changed := restrictedSleeper(14)
	changed[0].Steps++
	if fingerprint(changed) == a {
		t.Fatal("changed records must fingerprint differently")
	}
}
