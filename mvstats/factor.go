package mvstats

import "math"

// communalityTolerance stops the principal-axis iteration when the largest
// communality change falls below it.
const communalityTolerance = 1e-6

// FactorResult holds the factor loadings and per-variable communalities.
type FactorResult struct {
	Loadings      [][]float64 `json:"loadings"` // d rows of length numFactors
	Communalities []float64   `json:"communalities"`
	Eigenvalues   []float64   `json:"eigenvalues"`
	Iterations    int         `json:"iterations"`
	Converged     bool        `json:"converged"`
}

// FactorAnalysis runs iterative principal-axis factoring: communalities
// start at 0.5, get substituted into the correlation matrix diagonal, the
// reduced matrix is eigendecomposed, and new communalities are read off the
// loadings. Iteration stops at convergence or cfg.MaxIterations.
func FactorAnalysis(data [][]float64, numFactors int, cfg EigenConfig) (*FactorResult, error) {
	if err := validate(data, 3); err != nil {
		return nil, err
	}
	dims := len(data[0])
	if numFactors <= 0 || numFactors > dims {
		return nil, ErrInvalidK
	}
	cfg = cfg.withDefaults()

	corr, err := correlationMatrix(data)
	if err != nil {
		return nil, err
	}

	communalities := make([]float64, dims)
	for i := range communalities {
		communalities[i] = 0.5
	}

	result := &FactorResult{}
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		reduced := corr.Clone()
		for i := 0; i < dims; i++ {
			reduced.Set(i, i, communalities[i])
		}

		values, vectors, err := Eigen(reduced, numFactors, cfg)
		if err != nil {
			return nil, err
		}

		loadings := make([][]float64, dims)
		for d := 0; d < dims; d++ {
			loadings[d] = make([]float64, len(values))
			for f := range values {
				if values[f] > 0 {
					loadings[d][f] = vectors[f][d] * math.Sqrt(values[f])
				}
			}
		}

		maxChange := 0.0
		next := make([]float64, dims)
		for d := 0; d < dims; d++ {
			sum := 0.0
			for f := range loadings[d] {
				sum += loadings[d][f] * loadings[d][f]
			}
			// Communalities are variance fractions; keep them in [0,1].
			if sum > 1 {
				sum = 1
			}
			next[d] = sum
			if change := math.Abs(sum - communalities[d]); change > maxChange {
				maxChange = change
			}
		}
		communalities = next
		result.Loadings = loadings
		result.Eigenvalues = values
		result.Iterations = iter + 1

		if maxChange < communalityTolerance {
			result.Converged = true
			break
		}
	}
	result.Communalities = communalities
	return result, nil
}
