package mvstats

import (
	"math"

	"ringpulse/linalg"
)

// CCAResult holds the canonical correlations and the coefficient vectors of
// both variable sets.
type CCAResult struct {
	Correlations  []float64   `json:"correlations"`
	XCoefficients [][]float64 `json:"x_coefficients"` // one vector per canonical pair
	YCoefficients [][]float64 `json:"y_coefficients"`
}

// CanonicalCorrelation relates two standardized variable sets observed on
// the same rows. It eigendecomposes Sxx⁻¹ Sxy Syy⁻¹ Syx; the canonical
// correlations are the square roots of its eigenvalues.
func CanonicalCorrelation(x, y [][]float64, cfg EigenConfig) (*CCAResult, error) {
	if err := validate(x, 3); err != nil {
		return nil, err
	}
	if err := validate(y, 3); err != nil {
		return nil, err
	}
	if len(x) != len(y) {
		return nil, ErrLabelMismatch
	}

	xs := standardize(x)
	ys := standardize(y)
	divisor := float64(len(x) - 1)

	sxx, err := crossProduct(xs, xs, divisor)
	if err != nil {
		return nil, err
	}
	syy, err := crossProduct(ys, ys, divisor)
	if err != nil {
		return nil, err
	}
	sxy, err := crossProduct(xs, ys, divisor)
	if err != nil {
		return nil, err
	}
	syx := sxy.Transpose()

	sxxInv, err := sxx.Invert()
	if err != nil {
		return nil, err
	}
	syyInv, err := syy.Invert()
	if err != nil {
		return nil, err
	}

	// M = Sxx⁻¹ Sxy Syy⁻¹ Syx
	m, err := sxxInv.Multiply(sxy)
	if err != nil {
		return nil, err
	}
	m, err = m.Multiply(syyInv)
	if err != nil {
		return nil, err
	}
	m, err = m.Multiply(syx)
	if err != nil {
		return nil, err
	}

	pairs := len(x[0])
	if dy := len(y[0]); dy < pairs {
		pairs = dy
	}
	values, vectors, err := Eigen(m, pairs, cfg)
	if err != nil {
		return nil, err
	}

	// Syy⁻¹ Syx maps an x-side coefficient vector to the y side.
	yMap, err := syyInv.Multiply(syx)
	if err != nil {
		return nil, err
	}

	result := &CCAResult{}
	for i, value := range values {
		if value < 0 {
			value = 0
		}
		if value > 1 {
			value = 1
		}
		result.Correlations = append(result.Correlations, math.Sqrt(value))
		result.XCoefficients = append(result.XCoefficients, vectors[i])

		yCoef, err := yMap.MulVec(vectors[i])
		if err != nil {
			return nil, err
		}
		if norm := linalg.Norm(yCoef); norm > 0 {
			for j := range yCoef {
				yCoef[j] /= norm
			}
		}
		result.YCoefficients = append(result.YCoefficients, yCoef)
	}
	return result, nil
}
