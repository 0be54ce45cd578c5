// Package insight turns record series into human-readable findings by
// running the analysis packages and narrating what they return.
package insight

import (
	"time"
)

// Insight kinds.
const (
	KindSleepDebt   = "sleep_debt"
	KindChronotype  = "chronotype"
	KindTrend       = "trend"
	KindChangePoint = "change_point"
	KindAnomaly     = "anomaly"
	KindArchetype   = "archetype"
	KindDimension   = "dimension"
	KindOutlier     = "outlier"
)

// Insight severities, lowest to highest.
const (
	SeverityInfo     = "info"
	SeverityNotice   = "notice"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Insight is one finding: a machine-readable kind plus a narrated body.
// Confidence is a percentage; Evidence carries the numbers the narrative
// was built from so dashboards can chart them.
type Insight struct {
	Kind        string             `json:"kind"`
	Severity    string             `json:"severity"`
	Confidence  float64            `json:"confidence"`
	Title       string             `json:"title"`
	Body        string             `json:"body"`
	Evidence    map[string]float64 `json:"evidence,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Report is the output of one full analysis pass.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	RecordCount int       `json:"record_count"`
	Insights    []Insight `json:"insights"`
	FromCache   bool      `json:"from_cache"`
}
