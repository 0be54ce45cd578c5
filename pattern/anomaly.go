package pattern

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"ringpulse/linalg"
)

var (
	ErrNotTrained    = errors.New("pattern: detector not trained")
	ErrEmptyBaseline = errors.New("pattern: baseline dataset is empty")
	ErrUnevenVectors = errors.New("pattern: feature vectors have unequal lengths")
)

// DetectorConfig bounds the randomized scorers so callers can cap worst-case
// latency. Zero values fall back to the defaults below.
type DetectorConfig struct {
	Threshold  float64 `yaml:"threshold" json:"threshold"`
	NumTrees   int     `yaml:"num_trees" json:"num_trees"`
	SampleSize int     `yaml:"sample_size" json:"sample_size"`
	MaxDepth   int     `yaml:"max_depth" json:"max_depth"`
	Seed       int64   `yaml:"seed" json:"seed"`
}

// Report is the outcome of scoring one observation against the baseline.
type Report struct {
	IsAnomaly  bool      `json:"is_anomaly"`
	MaxZScore  float64   `json:"max_zscore"`
	ZScores    []float64 `json:"zscores"`
	Dimensions []int     `json:"dimensions"`
	Threshold  float64   `json:"threshold"`
}

// AnomalyDetector scores observations against a trained baseline: per
// dimension z-scores, an isolation-forest style score, and a local outlier
// factor approximation. Train before calling any scorer.
type AnomalyDetector struct {
	cfg      DetectorConfig
	means    []float64
	stds     []float64
	baseline [][]float64
	rng      *rand.Rand
}

// NewAnomalyDetector creates a detector. Threshold <= 0 defaults to 2.5
// standard deviations.
func NewAnomalyDetector(cfg DetectorConfig) *AnomalyDetector {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 2.5
	}
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = 100
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 64
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 16
	}
	return &AnomalyDetector{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Train computes per-dimension mean and standard deviation from the baseline
// and retains a copy of it for the density-based scorers. The caller's slice
// is never mutated.
func (ad *AnomalyDetector) Train(data [][]float64) error {
	if len(data) == 0 || len(data[0]) == 0 {
		return ErrEmptyBaseline
	}
	dims := len(data[0])
	for i, row := range data {
		if len(row) != dims {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrUnevenVectors, i, len(row), dims)
		}
	}

	ad.baseline = make([][]float64, len(data))
	for i, row := range data {
		ad.baseline[i] = append([]float64(nil), row...)
	}

	ad.means = make([]float64, dims)
	ad.stds = make([]float64, dims)
	column := make([]float64, len(data))
	for j := 0; j < dims; j++ {
		for i := range data {
			column[i] = data[i][j]
		}
		ad.means[j] = linalg.Mean(column)
		ad.stds[j] = linalg.StdDev(column)
	}
	return nil
}

// Detect z-scores every dimension of point and flags an anomaly when the
// maximum absolute z-score exceeds the threshold. Zero-variance dimensions
// score 0 rather than dividing by zero.
func (ad *AnomalyDetector) Detect(point []float64) (*Report, error) {
	if ad.means == nil {
		return nil, ErrNotTrained
	}
	if len(point) != len(ad.means) {
		return nil, fmt.Errorf("%w: point has %d features, baseline has %d",
			ErrUnevenVectors, len(point), len(ad.means))
	}

	report := &Report{
		ZScores:   make([]float64, len(point)),
		Threshold: ad.cfg.Threshold,
	}
	for j, v := range point {
		z := 0.0
		if ad.stds[j] > 0 {
			z = (v - ad.means[j]) / ad.stds[j]
		}
		report.ZScores[j] = z
		abs := math.Abs(z)
		if abs > report.MaxZScore {
			report.MaxZScore = abs
		}
		if abs > ad.cfg.Threshold {
			report.Dimensions = append(report.Dimensions, j)
		}
	}
	report.IsAnomaly = report.MaxZScore > ad.cfg.Threshold
	return report, nil
}

// IsolationScore estimates how easily point is isolated from the baseline by
// randomized axis-aligned splits. Path lengths are averaged over NumTrees
// subsampled trees and normalized by the expected path length of a balanced
// binary search tree, yielding a score in (0,1); values near 1 indicate an
// isolated (anomalous) point.
func (ad *AnomalyDetector) IsolationScore(point []float64) (float64, error) {
	if ad.baseline == nil {
		return 0, ErrNotTrained
	}
	if len(point) != len(ad.means) {
		return 0, ErrUnevenVectors
	}

	sample := ad.cfg.SampleSize
	if sample > len(ad.baseline) {
		sample = len(ad.baseline)
	}
	if sample < 2 {
		return 0, nil
	}

	total := 0.0
	for t := 0; t < ad.cfg.NumTrees; t++ {
		subset := make([][]float64, sample)
		for i := range subset {
			subset[i] = ad.baseline[ad.rng.Intn(len(ad.baseline))]
		}
		total += ad.pathLength(point, subset)
	}
	avgPath := total / float64(ad.cfg.NumTrees)
	c := expectedPathLength(sample)
	if c == 0 {
		return 0, nil
	}
	return math.Pow(2, -avgPath/c), nil
}

// pathLength walks randomized splits until point is alone, the partition
// stops shrinking, or the depth cap is reached. Iterative on purpose: depth
// is bounded by configuration, not the call stack.
func (ad *AnomalyDetector) pathLength(point []float64, subset [][]float64) float64 {
	depth := 0
	current := subset
	for depth < ad.cfg.MaxDepth && len(current) > 1 {
		dim := ad.rng.Intn(len(point))
		lo, hi := current[0][dim], current[0][dim]
		for _, row := range current {
			if row[dim] < lo {
				lo = row[dim]
			}
			if row[dim] > hi {
				hi = row[dim]
			}
		}
		if hi == lo {
			break
		}
		split := lo + ad.rng.Float64()*(hi-lo)

		next := current[:0:0]
		if point[dim] < split {
			for _, row := range current {
				if row[dim] < split {
					next = append(next, row)
				}
			}
		} else {
			for _, row := range current {
				if row[dim] >= split {
					next = append(next, row)
				}
			}
		}
		current = next
		depth++
	}
	// Credit the remaining partition with its expected subtree depth.
	return float64(depth) + expectedPathLength(len(current))
}

// expectedPathLength is c(n), the average path length of an unsuccessful
// search in a binary search tree of n nodes.
func expectedPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649 // Euler-Mascheroni
	return 2*h - 2*float64(n-1)/float64(n)
}

// LocalOutlierFactor approximates LOF using k-distance as the reachability
// distance. Values near 1 indicate baseline-like density; values well above
// 1 indicate an outlier.
func (ad *AnomalyDetector) LocalOutlierFactor(point []float64, k int) (float64, error) {
	if ad.baseline == nil {
		return 0, ErrNotTrained
	}
	if len(point) != len(ad.means) {
		return 0, ErrUnevenVectors
	}
	if k <= 0 {
		k = 5
	}
	if k >= len(ad.baseline) {
		k = len(ad.baseline) - 1
	}
	if k < 1 {
		return 1, nil
	}

	neighbors := ad.nearest(point, k, -1)
	pointDensity := localDensity(neighbors)
	if pointDensity == 0 {
		return math.Inf(1), nil
	}

	ratioSum := 0.0
	for _, nb := range neighbors {
		nbNeighbors := ad.nearest(ad.baseline[nb.index], k, nb.index)
		d := localDensity(nbNeighbors)
		ratioSum += d / pointDensity
	}
	return ratioSum / float64(len(neighbors)), nil
}

type neighbor struct {
	index int
	dist  float64
}

// nearest returns the k baseline points closest to point, skipping exclude.
func (ad *AnomalyDetector) nearest(point []float64, k, exclude int) []neighbor {
	all := make([]neighbor, 0, len(ad.baseline))
	for i, row := range ad.baseline {
		if i == exclude {
			continue
		}
		d, _ := linalg.Distance(point, row)
		all = append(all, neighbor{index: i, dist: d})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].dist < all[j].dist })
	if len(all) > k {
		all = all[:k]
	}
	return all
}

func localDensity(neighbors []neighbor) float64 {
	if len(neighbors) == 0 {
		return 0
	}
	sum := 0.0
	for _, nb := range neighbors {
		sum += nb.dist
	}
	if sum == 0 {
		return math.Inf(1)
	}
	return float64(len(neighbors)) / sum
}
