package mvstats

import "ringpulse/linalg"

// PCAResult holds the retained principal components and the projection of
// the input onto them.
type PCAResult struct {
	Components         [][]float64 `json:"components"` // k rows of length d
	Eigenvalues        []float64   `json:"eigenvalues"`
	ExplainedVariance  []float64   `json:"explained_variance"`  // percent per component
	CumulativeVariance []float64   `json:"cumulative_variance"` // running percent
	Scores             [][]float64 `json:"scores"`              // n rows of length k
	Loadings           [][]float64 `json:"loadings"`            // d rows of length k
	Means              []float64   `json:"means"`
}

// PCA centers data, eigendecomposes its covariance matrix, keeps the top k
// components by eigenvalue, and projects the centered data onto them.
// Explained variance percentages are taken against the total variance (the
// covariance trace), so they sum to 100 when k equals the dimensionality.
func PCA(data [][]float64, k int, cfg EigenConfig) (*PCAResult, error) {
	if err := validate(data, 2); err != nil {
		return nil, err
	}
	dims := len(data[0])
	if k <= 0 || k > dims {
		return nil, ErrInvalidK
	}

	centered, means := center(data)
	cov, err := covarianceMatrix(data)
	if err != nil {
		return nil, err
	}
	total, err := cov.Trace()
	if err != nil {
		return nil, err
	}

	values, vectors, err := Eigen(cov, k, cfg)
	if err != nil {
		return nil, err
	}

	result := &PCAResult{
		Components:  vectors,
		Eigenvalues: values,
		Means:       means,
	}

	result.ExplainedVariance = make([]float64, len(values))
	result.CumulativeVariance = make([]float64, len(values))
	running := 0.0
	for i, v := range values {
		pct := 0.0
		if total > 0 {
			pct = v / total * 100
		}
		result.ExplainedVariance[i] = pct
		running += pct
		result.CumulativeVariance[i] = running
	}

	// Scores: project each centered row onto every component.
	result.Scores = make([][]float64, len(centered))
	for i, row := range centered {
		score := make([]float64, len(vectors))
		for c, comp := range vectors {
			dot, err := linalg.Dot(row, comp)
			if err != nil {
				return nil, err
			}
			score[c] = dot
		}
		result.Scores[i] = score
	}

	// Loadings are the transpose of the component matrix.
	result.Loadings = make([][]float64, dims)
	for d := 0; d < dims; d++ {
		result.Loadings[d] = make([]float64, len(vectors))
		for c := range vectors {
			result.Loadings[d][c] = vectors[c][d]
		}
	}
	return result, nil
}
