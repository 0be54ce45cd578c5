// Package cluster groups feature vectors without supervision. KMeans covers
// the "archetype" style insights; DBSCAN covers density-based grouping where
// the number of clusters is unknown and noise points must be isolated.
package cluster

import (
	"errors"
	"fmt"
	"math/rand"

	"ringpulse/linalg"
)

var (
	ErrEmptyDataset    = errors.New("cluster: dataset is empty")
	ErrTooFewPoints    = errors.New("cluster: fewer points than clusters")
	ErrNotFitted       = errors.New("cluster: model not fitted")
	ErrUnevenVectors   = errors.New("cluster: feature vectors have unequal lengths")
	ErrInvalidClusters = errors.New("cluster: k must be positive")
)

// KMeansConfig bounds the Lloyd iteration. Zero values fall back to the
// defaults below so a zero config is usable.
type KMeansConfig struct {
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
	Seed          int64   `yaml:"seed" json:"seed"`
}

const (
	defaultMaxIterations = 100
	defaultTolerance     = 1e-4
)

// KMeans clusters points into k groups with K-Means++ seeding.
type KMeans struct {
	k         int
	cfg       KMeansConfig
	centroids [][]float64
	rng       *rand.Rand
}

// NewKMeans creates a KMeans model for k clusters.
func NewKMeans(k int, cfg KMeansConfig) (*KMeans, error) {
	if k <= 0 {
		return nil, ErrInvalidClusters
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = defaultTolerance
	}
	return &KMeans{k: k, cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}, nil
}

// Fit clusters data and returns one cluster index per point, each in [0, k).
// The input is read-only; centroids are fresh copies.
func (km *KMeans) Fit(data [][]float64) ([]int, error) {
	if err := validateDataset(data); err != nil {
		return nil, err
	}
	if len(data) < km.k {
		return nil, fmt.Errorf("%w: %d points for k=%d", ErrTooFewPoints, len(data), km.k)
	}

	centroids := km.seedCentroids(data)
	assignments := make([]int, len(data))

	for iter := 0; iter < km.cfg.MaxIterations; iter++ {
		for i, point := range data {
			assignments[i] = nearestCentroid(point, centroids)
		}

		moved := 0.0
		counts := make([]int, km.k)
		sums := make([][]float64, km.k)
		for c := range sums {
			sums[c] = make([]float64, len(data[0]))
		}
		for i, point := range data {
			c := assignments[i]
			counts[c]++
			for j, v := range point {
				sums[c][j] += v
			}
		}
		for c := 0; c < km.k; c++ {
			if counts[c] == 0 {
				// Empty cluster keeps its previous centroid.
				continue
			}
			next := make([]float64, len(sums[c]))
			for j := range next {
				next[j] = sums[c][j] / float64(counts[c])
			}
			d, _ := linalg.Distance(centroids[c], next)
			if d > moved {
				moved = d
			}
			centroids[c] = next
		}
		if moved <= km.cfg.Tolerance {
			break
		}
	}

	km.centroids = centroids
	return assignments, nil
}

// Predict returns the index of the nearest centroid.
func (km *KMeans) Predict(point []float64) (int, error) {
	if km.centroids == nil {
		return 0, ErrNotFitted
	}
	if len(point) != len(km.centroids[0]) {
		return 0, fmt.Errorf("%w: point has %d features, centroids have %d",
			ErrUnevenVectors, len(point), len(km.centroids[0]))
	}
	return nearestCentroid(point, km.centroids), nil
}

// Centroids returns a copy of the fitted centroids, nil before Fit.
func (km *KMeans) Centroids() [][]float64 {
	if km.centroids == nil {
		return nil
	}
	out := make([][]float64, len(km.centroids))
	for i, c := range km.centroids {
		out[i] = append([]float64(nil), c...)
	}
	return out
}

// seedCentroids implements K-Means++: the first centroid is uniform random,
// each later one is sampled with probability proportional to the squared
// distance to its nearest already-chosen centroid.
func (km *KMeans) seedCentroids(data [][]float64) [][]float64 {
	centroids := make([][]float64, 0, km.k)
	first := data[km.rng.Intn(len(data))]
	centroids = append(centroids, append([]float64(nil), first...))

	dists := make([]float64, len(data))
	for len(centroids) < km.k {
		total := 0.0
		for i, point := range data {
			best := -1.0
			for _, c := range centroids {
				d, _ := linalg.Distance(point, c)
				sq := d * d
				if best < 0 || sq < best {
					best = sq
				}
			}
			dists[i] = best
			total += best
		}
		if total == 0 {
			// All points coincide with existing centroids; pick uniformly.
			point := data[km.rng.Intn(len(data))]
			centroids = append(centroids, append([]float64(nil), point...))
			continue
		}
		target := km.rng.Float64() * total
		acc := 0.0
		chosen := len(data) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), data[chosen]...))
	}
	return centroids
}

func nearestCentroid(point []float64, centroids [][]float64) int {
	best := 0
	bestDist := -1.0
	for c, centroid := range centroids {
		d, _ := linalg.Distance(point, centroid)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func validateDataset(data [][]float64) error {
	if len(data) == 0 {
		return ErrEmptyDataset
	}
	width := len(data[0])
	if width == 0 {
		return ErrEmptyDataset
	}
	for i, row := range data {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrUnevenVectors, i, len(row), width)
		}
	}
	return nil
}
