package pattern

import (
	"errors"
	"math"

	"ringpulse/linalg"
)

var ErrShortSeries = errors.New("pattern: series too short for trend analysis")

// slopeDeadBand is the |slope| below which a series counts as stable.
const slopeDeadBand = 0.01

// Trend direction labels.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Trend describes the OLS line fitted over the time index of a series.
type Trend struct {
	Direction string  `json:"direction"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Strength  float64 `json:"strength"` // R-squared of the fit
}

// ChangePoint marks a window whose mean shifted relative to the prior window.
type ChangePoint struct {
	Index    int     `json:"index"`
	PrevMean float64 `json:"prev_mean"`
	NextMean float64 `json:"next_mean"`
	ShiftPct float64 `json:"shift_pct"`
}

// TrendAnalyzer fits trends over a time-ordered series. It holds no state;
// the struct exists so callers can treat it like the other analyzers.
type TrendAnalyzer struct{}

// DetectTrend fits y = intercept + slope*t over the index and classifies the
// direction by the sign of the slope with a dead band.
func (TrendAnalyzer) DetectTrend(values []float64) (*Trend, error) {
	if len(values) < 2 {
		return nil, ErrShortSeries
	}

	idx := make([]float64, len(values))
	for i := range idx {
		idx[i] = float64(i)
	}
	meanX := linalg.Mean(idx)
	meanY := linalg.Mean(values)

	var covXY, varX float64
	for i := range values {
		dx := idx[i] - meanX
		covXY += dx * (values[i] - meanY)
		varX += dx * dx
	}
	slope := 0.0
	if varX > 0 {
		slope = covXY / varX
	}
	intercept := meanY - slope*meanX

	// R-squared of the fit.
	var ssRes, ssTot float64
	for i := range values {
		pred := intercept + slope*idx[i]
		ssRes += (values[i] - pred) * (values[i] - pred)
		ssTot += (values[i] - meanY) * (values[i] - meanY)
	}
	strength := 0.0
	if ssTot > 0 {
		strength = 1 - ssRes/ssTot
	}

	direction := TrendStable
	switch {
	case slope > slopeDeadBand:
		direction = TrendIncreasing
	case slope < -slopeDeadBand:
		direction = TrendDecreasing
	}

	return &Trend{Direction: direction, Slope: slope, Intercept: intercept, Strength: strength}, nil
}

// DetectChangePoints slides a window over the series and flags positions
// where the window mean shifts by more than 20% relative to the prior
// window's mean. window <= 0 defaults to 7.
func (TrendAnalyzer) DetectChangePoints(values []float64, window int) ([]ChangePoint, error) {
	if window <= 0 {
		window = 7
	}
	if len(values) < 2*window {
		return nil, ErrShortSeries
	}

	var points []ChangePoint
	for i := window; i+window <= len(values); i++ {
		prevMean := linalg.Mean(values[i-window : i])
		nextMean := linalg.Mean(values[i : i+window])
		if prevMean == 0 {
			continue
		}
		shift := (nextMean - prevMean) / math.Abs(prevMean)
		if math.Abs(shift) > 0.20 {
			points = append(points, ChangePoint{
				Index:    i,
				PrevMean: prevMean,
				NextMean: nextMean,
				ShiftPct: shift * 100,
			})
		}
	}
	return points, nil
}
