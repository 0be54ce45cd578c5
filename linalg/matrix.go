// Package linalg provides the small dense linear-algebra kernel shared by
// the analysis packages. Matrices are stored row-major in a flat buffer
// (offset = row*cols + col) for cache locality; all operations allocate
// fresh outputs and never mutate their inputs.
package linalg

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")
	ErrNotSquare         = errors.New("linalg: matrix is not square")
	ErrSingularMatrix    = errors.New("linalg: matrix is singular")
	ErrEmptyMatrix       = errors.New("linalg: matrix is empty")
)

// MaxDeterminantSize bounds Determinant inputs. The analysis code only ever
// builds small covariance/scatter matrices; anything larger is a caller bug.
const MaxDeterminantSize = 12

// pivotEpsilon replaces a near-zero pivot during legacy elimination instead
// of failing. See Invert versus InvertStrict.
const pivotEpsilon = 1e-10

// Matrix is a dense row-major matrix.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrEmptyMatrix
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// FromRows copies a slice-of-rows into a Matrix. Every row must have the
// same length.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyMatrix
	}
	cols := len(rows[0])
	m := &Matrix{rows: len(rows), cols: cols, data: make([]float64, len(rows)*cols)}
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), cols)
		}
		copy(m.data[i*cols:(i+1)*cols], row)
	}
	return m, nil
}

// Identity returns the n x n identity matrix.
func Identity(n int) *Matrix {
	m := &Matrix{rows: n, cols: n, data: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// At returns the element at (row, col). Bounds are the caller's contract;
// out-of-range access panics like slice indexing would.
func (m *Matrix) At(row, col int) float64 { return m.data[row*m.cols+col] }

// Set assigns the element at (row, col).
func (m *Matrix) Set(row, col int, v float64) { m.data[row*m.cols+col] = v }

// Row returns a copy of one row.
func (m *Matrix) Row(i int) []float64 {
	out := make([]float64, m.cols)
	copy(out, m.data[i*m.cols:(i+1)*m.cols])
	return out
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return &Matrix{rows: m.rows, cols: m.cols, data: data}
}

// ToRows converts back to a slice of rows.
func (m *Matrix) ToRows() [][]float64 {
	out := make([][]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		out[i] = m.Row(i)
	}
	return out
}

// Transpose returns a new transposed matrix.
func (m *Matrix) Transpose() *Matrix {
	t := &Matrix{rows: m.cols, cols: m.rows, data: make([]float64, len(m.data))}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			t.data[j*t.cols+i] = m.data[i*m.cols+j]
		}
	}
	return t
}

// Multiply computes m * other.
func (m *Matrix) Multiply(other *Matrix) (*Matrix, error) {
	if m.cols != other.rows {
		return nil, fmt.Errorf("%w: %dx%d * %dx%d", ErrDimensionMismatch, m.rows, m.cols, other.rows, other.cols)
	}
	out := &Matrix{rows: m.rows, cols: other.cols, data: make([]float64, m.rows*other.cols)}
	for i := 0; i < m.rows; i++ {
		for k := 0; k < m.cols; k++ {
			a := m.data[i*m.cols+k]
			if a == 0 {
				continue
			}
			rowK := other.data[k*other.cols : (k+1)*other.cols]
			outRow := out.data[i*out.cols : (i+1)*out.cols]
			for j, b := range rowK {
				outRow[j] += a * b
			}
		}
	}
	return out, nil
}

// MulVec computes m * v for a column vector v.
func (m *Matrix) MulVec(v []float64) ([]float64, error) {
	if m.cols != len(v) {
		return nil, fmt.Errorf("%w: %dx%d * vector of length %d", ErrDimensionMismatch, m.rows, m.cols, len(v))
	}
	out := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		sum := 0.0
		for j, b := range row {
			sum += b * v[j]
		}
		out[i] = sum
	}
	return out, nil
}

// Add computes m + other.
func (m *Matrix) Add(other *Matrix) (*Matrix, error) {
	if m.rows != other.rows || m.cols != other.cols {
		return nil, ErrDimensionMismatch
	}
	out := m.Clone()
	for i := range out.data {
		out.data[i] += other.data[i]
	}
	return out, nil
}

// Scale returns m with every element multiplied by s.
func (m *Matrix) Scale(s float64) *Matrix {
	out := m.Clone()
	for i := range out.data {
		out.data[i] *= s
	}
	return out
}

// Trace returns the sum of diagonal elements.
func (m *Matrix) Trace() (float64, error) {
	if m.rows != m.cols {
		return 0, ErrNotSquare
	}
	sum := 0.0
	for i := 0; i < m.rows; i++ {
		sum += m.data[i*m.cols+i]
	}
	return sum, nil
}

// Invert computes the inverse by Gauss-Jordan elimination with partial
// pivoting. Near-zero pivots are replaced with a small epsilon instead of
// failing, matching the numerical behavior the rest of the stats code was
// validated against. On singular input the result is therefore degenerate
// rather than an error; use InvertStrict when degeneracy must surface.
func (m *Matrix) Invert() (*Matrix, error) {
	return m.invert(false)
}

// InvertStrict is Invert without the epsilon fallback: a pivot smaller than
// the working tolerance returns ErrSingularMatrix.
func (m *Matrix) InvertStrict() (*Matrix, error) {
	return m.invert(true)
}

func (m *Matrix) invert(strict bool) (*Matrix, error) {
	if m.rows != m.cols {
		return nil, ErrNotSquare
	}
	n := m.rows
	work := m.Clone()
	inv := Identity(n)

	for col := 0; col < n; col++ {
		// Partial pivoting: swap in the row with the largest magnitude pivot.
		pivotRow := col
		pivotVal := math.Abs(work.data[col*n+col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(work.data[r*n+col]); v > pivotVal {
				pivotVal = v
				pivotRow = r
			}
		}
		if pivotRow != col {
			swapRows(work.data, n, col, pivotRow)
			swapRows(inv.data, n, col, pivotRow)
		}

		pivot := work.data[col*n+col]
		if math.Abs(pivot) < pivotEpsilon {
			if strict {
				return nil, ErrSingularMatrix
			}
			pivot = pivotEpsilon
			work.data[col*n+col] = pivot
		}

		invPivot := 1 / pivot
		for j := 0; j < n; j++ {
			work.data[col*n+j] *= invPivot
			inv.data[col*n+j] *= invPivot
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := work.data[r*n+col]
			if factor == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				work.data[r*n+j] -= factor * work.data[col*n+j]
				inv.data[r*n+j] -= factor * inv.data[col*n+j]
			}
		}
	}
	return inv, nil
}

// Determinant computes the determinant by Gaussian elimination with partial
// pivoting. Inputs larger than MaxDeterminantSize are rejected: the engine
// only forms small covariance and scatter matrices, and the cap keeps an
// accidental large input from degrading silently.
func (m *Matrix) Determinant() (float64, error) {
	if m.rows != m.cols {
		return 0, ErrNotSquare
	}
	if m.rows > MaxDeterminantSize {
		return 0, fmt.Errorf("linalg: determinant limited to %dx%d matrices, got %dx%d",
			MaxDeterminantSize, MaxDeterminantSize, m.rows, m.cols)
	}
	n := m.rows
	work := m.Clone()
	det := 1.0
	for col := 0; col < n; col++ {
		pivotRow := col
		pivotVal := math.Abs(work.data[col*n+col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(work.data[r*n+col]); v > pivotVal {
				pivotVal = v
				pivotRow = r
			}
		}
		if pivotVal < pivotEpsilon {
			return 0, nil
		}
		if pivotRow != col {
			swapRows(work.data, n, col, pivotRow)
			det = -det
		}
		pivot := work.data[col*n+col]
		det *= pivot
		for r := col + 1; r < n; r++ {
			factor := work.data[r*n+col] / pivot
			if factor == 0 {
				continue
			}
			for j := col; j < n; j++ {
				work.data[r*n+j] -= factor * work.data[col*n+j]
			}
		}
	}
	return det, nil
}

func swapRows(data []float64, cols, a, b int) {
	for j := 0; j < cols; j++ {
		data[a*cols+j], data[b*cols+j] = data[b*cols+j], data[a*cols+j]
	}
}
