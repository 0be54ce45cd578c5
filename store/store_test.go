package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ringpulse/health"
	"ringpulse/insight"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	records := []health.DailyRecord{
		{Date: start, SleepHours: 7.5, SleepEfficiency: 0.91, BedtimeMinutes: 1380,
			RestingHR: 55, HRV: 62, RespiratoryRate: 14.2, TempDeviation: 0.1,
			Steps: 8200, ActiveMinutes: 45},
		{Date: start.AddDate(0, 0, 1), SleepHours: 6.8, SleepEfficiency: 0.87, BedtimeMinutes: 1420,
			RestingHR: 57, HRV: 58, RespiratoryRate: 14.6, TempDeviation: -0.05,
			Steps: 10100, ActiveMinutes: 60},
	}
	if err := s.SaveRecords(records); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.LoadRecords(0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d records, want 2", len(loaded))
	}
	if !loaded[0].Date.Equal(start) || loaded[0].SleepHours != 7.5 {
		t.Fatalf("first record = %+v", loaded[0])
	}
	if loaded[1].Steps != 10100 || loaded[1].BedtimeMinutes != 1420 {
		t.Fatalf("second record = %+v", loaded[1])
	}

	// Upsert: same date replaces.
	records[0].SleepHours = 8.0
	if err := s.SaveRecords(records[:1]); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	loaded, err = s.LoadRecords(0)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(loaded) != 2 || loaded[0].SleepHours != 8.0 {
		t.Fatalf("upsert failed: %+v", loaded)
	}

	// Limit takes the newest, still oldest-first.
	limited, err := s.LoadRecords(1)
	if err != nil {
		t.Fatalf("limited load: %v", err)
	}
	if len(limited) != 1 || !limited[0].Date.Equal(start.AddDate(0, 0, 1)) {
		t.Fatalf("limited = %+v", limited)
	}
}

func TestRunAndInsightLifecycle(t *testing.T) {
	s := openTestStore(t)
	started := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	runID, err := s.BeginRun(started, 28)
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}

	insights := []insight.Insight{
		{Kind: insight.KindSleepDebt, Severity: insight.SeverityWarning, Confidence: 60,
			Title: "Sleep debt: severe", Body: "7.2 hours of debt.",
			Evidence:    map[string]float64{"debt_hours": 7.2, "need_hours": 8},
			GeneratedAt: started},
		{Kind: insight.KindTrend, Severity: insight.SeverityNotice, Confidence: 88,
			Title: "HRV is decreasing", Body: "Slope -0.4 per day.", GeneratedAt: started.Add(time.Second)},
	}
	if err := s.SaveInsights(runID, insights); err != nil {
		t.Fatalf("save insights: %v", err)
	}
	if err := s.FinishRun(runID, started.Add(time.Minute), len(insights), "ok"); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	recent, err := s.RecentInsights(10)
	if err != nil {
		t.Fatalf("recent insights: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d insights, want 2", len(recent))
	}
	// Newest first.
	if recent[0].Kind != insight.KindTrend || recent[1].Kind != insight.KindSleepDebt {
		t.Fatalf("order wrong: %q then %q", recent[0].Kind, recent[1].Kind)
	}
	if recent[1].Confidence != 60 {
		t.Fatalf("confidence = %v, want 60", recent[1].Confidence)
	}
	if recent[1].Evidence["debt_hours"] != 7.2 {
		t.Fatalf("evidence round trip wrong: %v", recent[1].Evidence)
	}
	if recent[0].Evidence != nil {
		t.Fatalf("empty evidence should load as nil, got %v", recent[0].Evidence)
	}
}

func TestNetSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.LoadNetSnapshot("readiness"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	blob := []byte(`{"config":{"input_size":12}}`)
	if err := s.SaveNetSnapshot("readiness", blob); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	got, err := s.LoadNetSnapshot("readiness")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if string(got) != string(blob) {
		t.Fatalf("snapshot = %s, want %s", got, blob)
	}

	// Upsert replaces the blob.
	updated := []byte(`{"config":{"input_size":14}}`)
	if err := s.SaveNetSnapshot("readiness", updated); err != nil {
		t.Fatalf("update snapshot: %v", err)
	}
	got, err = s.LoadNetSnapshot("readiness")
	if err != nil {
		t.Fatalf("reload snapshot: %v", err)
	}
	if string(got) != string(updated) {
		t.Fatalf("snapshot after update = %s", got)
	}
}
