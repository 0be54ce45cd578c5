package regression

import "errors"

var ErrInvalidDegree = errors.New("regression: degree must be positive")

// PolynomialRegression expands each feature into powers 1..Degree and fits
// a LinearRegression over the expanded rows.
type PolynomialRegression struct {
	degree int
	linear LinearRegression
}

// NewPolynomialRegression creates a model of the given degree.
func NewPolynomialRegression(degree int) (*PolynomialRegression, error) {
	if degree <= 0 {
		return nil, ErrInvalidDegree
	}
	return &PolynomialRegression{degree: degree}, nil
}

// Fit expands x and fits the underlying linear model.
func (pr *PolynomialRegression) Fit(x [][]float64, y []float64) error {
	if err := validate(x, y); err != nil {
		return err
	}
	expanded := make([][]float64, len(x))
	for i, row := range x {
		expanded[i] = pr.expand(row)
	}
	return pr.linear.Fit(expanded, y)
}

// Predict expands one feature vector and applies the fitted model.
func (pr *PolynomialRegression) Predict(x []float64) (float64, error) {
	return pr.linear.Predict(pr.expand(x))
}

// Coefficients returns the fitted coefficients over the expanded features.
func (pr *PolynomialRegression) Coefficients() []float64 { return pr.linear.Coefficients() }

// Intercept returns the fitted intercept.
func (pr *PolynomialRegression) Intercept() float64 { return pr.linear.Intercept() }

func (pr *PolynomialRegression) expand(row []float64) []float64 {
	out := make([]float64, 0, len(row)*pr.degree)
	for _, v := range row {
		p := 1.0
		for d := 0; d < pr.degree; d++ {
			p *= v
			out = append(out, p)
		}
	}
	return out
}
