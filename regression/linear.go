// Package regression provides supervised fitting: ordinary least squares,
// per-feature polynomial expansion on top of it, and logistic regression
// trained by batch gradient descent.
package regression

import (
	"errors"
	"fmt"

	"ringpulse/linalg"
)

var (
	ErrEmptyDataset  = errors.New("regression: dataset is empty")
	ErrSizeMismatch  = errors.New("regression: inputs and targets differ in length")
	ErrUnevenVectors = errors.New("regression: feature vectors have unequal lengths")
	ErrNotFitted     = errors.New("regression: model not fitted")
)

// LinearRegression fits y = intercept + coef·x via the normal equations
// beta = (XᵀX)⁻¹Xᵀy. There is no regularization: with few observations or
// strongly collinear features XᵀX is ill-conditioned and the coefficients
// degrade accordingly.
type LinearRegression struct {
	intercept    float64
	coefficients []float64
}

// Fit estimates the intercept and coefficients from X and y.
func (lr *LinearRegression) Fit(x [][]float64, y []float64) error {
	if err := validate(x, y); err != nil {
		return err
	}

	// Prepend the intercept column.
	design := make([][]float64, len(x))
	for i, row := range x {
		design[i] = make([]float64, len(row)+1)
		design[i][0] = 1
		copy(design[i][1:], row)
	}

	xm, err := linalg.FromRows(design)
	if err != nil {
		return err
	}
	xt := xm.Transpose()
	xtx, err := xt.Multiply(xm)
	if err != nil {
		return err
	}
	inv, err := xtx.Invert()
	if err != nil {
		return err
	}
	xty, err := xt.MulVec(y)
	if err != nil {
		return err
	}
	beta, err := inv.MulVec(xty)
	if err != nil {
		return err
	}

	lr.intercept = beta[0]
	lr.coefficients = beta[1:]
	return nil
}

// Predict applies the fitted affine map to one feature vector.
func (lr *LinearRegression) Predict(x []float64) (float64, error) {
	if lr.coefficients == nil {
		return 0, ErrNotFitted
	}
	if len(x) != len(lr.coefficients) {
		return 0, fmt.Errorf("%w: got %d features, model has %d", ErrUnevenVectors, len(x), len(lr.coefficients))
	}
	dot, err := linalg.Dot(lr.coefficients, x)
	if err != nil {
		return 0, err
	}
	return lr.intercept + dot, nil
}

// Intercept returns the fitted intercept.
func (lr *LinearRegression) Intercept() float64 { return lr.intercept }

// Coefficients returns a copy of the fitted coefficients, nil before Fit.
func (lr *LinearRegression) Coefficients() []float64 {
	if lr.coefficients == nil {
		return nil
	}
	return append([]float64(nil), lr.coefficients...)
}

func validate(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return ErrEmptyDataset
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d inputs, %d targets", ErrSizeMismatch, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return ErrEmptyDataset
	}
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrUnevenVectors, i, len(row), width)
		}
	}
	return nil
}
