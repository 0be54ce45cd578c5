package mvstats

import (
	"fmt"

	"ringpulse/linalg"
)

// validate checks that data is a non-empty rectangular dataset with at least
// minRows observations.
func validate(data [][]float64, minRows int) error {
	if len(data) == 0 || len(data[0]) == 0 {
		return ErrEmptyDataset
	}
	width := len(data[0])
	for i, row := range data {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrUnevenVectors, i, len(row), width)
		}
	}
	if len(data) < minRows {
		return fmt.Errorf("%w: need at least %d rows, got %d", ErrTooFewSamples, minRows, len(data))
	}
	return nil
}

// columnMeans returns the per-column means of data.
func columnMeans(data [][]float64) []float64 {
	dims := len(data[0])
	means := make([]float64, dims)
	for _, row := range data {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(len(data))
	}
	return means
}

// center returns a copy of data with the column means subtracted.
func center(data [][]float64) ([][]float64, []float64) {
	means := columnMeans(data)
	out := make([][]float64, len(data))
	for i, row := range data {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v - means[j]
		}
	}
	return out, means
}

// standardize returns a copy of data with zero column means and unit column
// standard deviations. Zero-variance columns stay centered at zero.
func standardize(data [][]float64) [][]float64 {
	centered, _ := center(data)
	dims := len(data[0])
	column := make([]float64, len(data))
	for j := 0; j < dims; j++ {
		for i := range centered {
			column[i] = centered[i][j]
		}
		std := linalg.StdDev(column)
		if std == 0 {
			continue
		}
		for i := range centered {
			centered[i][j] /= std
		}
	}
	return centered
}

// covarianceMatrix computes the sample covariance matrix of data.
func covarianceMatrix(data [][]float64) (*linalg.Matrix, error) {
	centered, _ := center(data)
	return crossProduct(centered, centered, float64(len(data)-1))
}

// correlationMatrix computes the Pearson correlation matrix of data. The
// columns carry unit population variance after standardize, so the cross
// product divides by n to keep the diagonal exactly 1.
func correlationMatrix(data [][]float64) (*linalg.Matrix, error) {
	z := standardize(data)
	return crossProduct(z, z, float64(len(data)))
}

// crossProduct computes A'B / divisor for equally tall datasets.
func crossProduct(a, b [][]float64, divisor float64) (*linalg.Matrix, error) {
	if divisor <= 0 {
		return nil, ErrTooFewSamples
	}
	am, err := linalg.FromRows(a)
	if err != nil {
		return nil, err
	}
	bm, err := linalg.FromRows(b)
	if err != nil {
		return nil, err
	}
	product, err := am.Transpose().Multiply(bm)
	if err != nil {
		return nil, err
	}
	return product.Scale(1 / divisor), nil
}
