// Package mvstats implements the multivariate routines behind the "key
// health dimensions" style insights: PCA, principal-axis factor analysis,
// canonical correlation, MANOVA, and linear discriminant analysis. All of
// them share one eigendecomposition routine based on power iteration with
// deflation. That method is adequate for the small, well-behaved covariance
// and scatter matrices this engine builds; it is not a general-purpose
// decomposition for ill-conditioned or high-dimensional input.
package mvstats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"ringpulse/linalg"
)

var (
	ErrEmptyDataset  = errors.New("mvstats: dataset is empty")
	ErrUnevenVectors = errors.New("mvstats: feature vectors have unequal lengths")
	ErrTooFewSamples = errors.New("mvstats: not enough observations")
	ErrInvalidK      = errors.New("mvstats: component count out of range")
	ErrEigenFailed   = errors.New("mvstats: eigendecomposition did not produce a component")
	ErrTooFewGroups  = errors.New("mvstats: at least two groups required")
	ErrLabelMismatch = errors.New("mvstats: labels and data differ in length")
)

// EigenConfig bounds the power iteration. Zero values use the defaults.
type EigenConfig struct {
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
}

func (cfg EigenConfig) withDefaults() EigenConfig {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 1000
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-10
	}
	return cfg
}

// Eigen extracts the k dominant eigenpairs of a square matrix by power
// iteration, deflating the working copy by lambda*v*v' after each
// extraction. Pairs come back sorted by descending eigenvalue magnitude.
func Eigen(m *linalg.Matrix, k int, cfg EigenConfig) ([]float64, [][]float64, error) {
	if m.Rows() != m.Cols() {
		return nil, nil, linalg.ErrNotSquare
	}
	n := m.Rows()
	if k <= 0 || k > n {
		return nil, nil, fmt.Errorf("%w: k=%d for %dx%d matrix", ErrInvalidK, k, n, n)
	}
	cfg = cfg.withDefaults()

	work := m.Clone()
	values := make([]float64, 0, k)
	vectors := make([][]float64, 0, k)

	for comp := 0; comp < k; comp++ {
		value, vector, ok := powerIterate(work, cfg)
		if !ok {
			// The remaining spectrum is numerically zero; stop early with
			// what was found so far.
			break
		}
		values = append(values, value)
		vectors = append(vectors, vector)

		// Deflate: work -= value * v * v'.
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				work.Set(i, j, work.At(i, j)-value*vector[i]*vector[j])
			}
		}
	}
	if len(values) == 0 {
		return nil, nil, ErrEigenFailed
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(values[order[a]]) > math.Abs(values[order[b]])
	})
	sortedValues := make([]float64, len(values))
	sortedVectors := make([][]float64, len(values))
	for i, idx := range order {
		sortedValues[i] = values[idx]
		sortedVectors[i] = vectors[idx]
	}
	return sortedValues, sortedVectors, nil
}

// powerIterate finds the dominant eigenpair of work, or ok=false when the
// iteration collapses (zero matrix or no convergence to a usable vector).
// The start vector is deterministic but deliberately uneven: a uniform start
// can sit exactly orthogonal to the dominant eigenvector of a deflated
// matrix and stall the iteration.
func powerIterate(work *linalg.Matrix, cfg EigenConfig) (float64, []float64, bool) {
	n := work.Rows()
	v := make([]float64, n)
	for i := range v {
		v[i] = 0.5 + math.Sin(float64(i+1))
	}
	if norm := linalg.Norm(v); norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		next, err := work.MulVec(v)
		if err != nil {
			return 0, nil, false
		}
		norm := linalg.Norm(next)
		if norm < cfg.Tolerance {
			return 0, nil, false
		}
		for i := range next {
			next[i] /= norm
		}

		diff := 0.0
		for i := range next {
			d := math.Abs(next[i] - v[i])
			if d > diff {
				diff = d
			}
			// Sign flips between iterations are fine for the eigenpair;
			// compare against the flipped vector as well.
		}
		flipped := 0.0
		for i := range next {
			d := math.Abs(next[i] + v[i])
			if d > flipped {
				flipped = d
			}
		}
		if flipped < diff {
			diff = flipped
		}
		v = next
		if diff < cfg.Tolerance {
			break
		}
	}

	// Rayleigh quotient for the eigenvalue.
	av, err := work.MulVec(v)
	if err != nil {
		return 0, nil, false
	}
	value, err := linalg.Dot(v, av)
	if err != nil {
		return 0, nil, false
	}
	if math.Abs(value) < cfg.Tolerance {
		return 0, nil, false
	}
	return value, v, true
}
