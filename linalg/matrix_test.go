package linalg

import (
	"errors"
	"math"
	"testing"
)

func TestFromRowsRejectsRagged(t *testing.T) {
	_, err := FromRows([][]float64{{1, 2}, {3}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestMultiply(t *testing.T) {
	a, err := FromRows([][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := FromRows([][]float64{{5, 6}, {7, 8}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	product, err := a.Multiply(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]float64{{19, 22}, {43, 50}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if product.At(i, j) != want[i][j] {
				t.Errorf("product[%d][%d] = %v, want %v", i, j, product.At(i, j), want[i][j])
			}
		}
	}
}

func TestTranspose(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := m.Transpose()
	if tr.Rows() != 3 || tr.Cols() != 2 {
		t.Fatalf("transpose shape = %dx%d, want 3x2", tr.Rows(), tr.Cols())
	}
	if tr.At(2, 1) != 6 || tr.At(0, 1) != 4 {
		t.Errorf("unexpected transpose values: %v", tr.ToRows())
	}
}

func TestInvertRoundTrip(t *testing.T) {
	m, err := FromRows([][]float64{{4, 7}, {2, 6}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv, err := m.Invert()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	product, err := m.Multiply(inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(product.At(i, j)-want) > 1e-9 {
				t.Errorf("m*inv[%d][%d] = %v, want %v", i, j, product.At(i, j), want)
			}
		}
	}
}

func TestInvertStrictSingular(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2}, {2, 4}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.InvertStrict(); !errors.Is(err, ErrSingularMatrix) {
		t.Fatalf("expected ErrSingularMatrix, got %v", err)
	}
	// Legacy mode substitutes an epsilon pivot and still returns a matrix.
	if _, err := m.Invert(); err != nil {
		t.Fatalf("legacy invert should not fail: %v", err)
	}
}

func TestDeterminant(t *testing.T) {
	m, err := FromRows([][]float64{{6, 1, 1}, {4, -2, 5}, {2, 8, 7}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	det, err := m.Determinant()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(det-(-306)) > 1e-9 {
		t.Fatalf("det = %v, want -306", det)
	}
}

func TestDeterminantSizeCap(t *testing.T) {
	big := Identity(MaxDeterminantSize + 1)
	if _, err := big.Determinant(); err == nil {
		t.Fatal("expected size-cap error for oversized determinant input")
	}
}

func TestDotAndDistance(t *testing.T) {
	dot, err := Dot([]float64{1, 2, 3}, []float64{4, 5, 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dot != 32 {
		t.Fatalf("dot = %v, want 32", dot)
	}
	dist, err := Distance([]float64{0, 0}, []float64{3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dist != 5 {
		t.Fatalf("distance = %v, want 5", dist)
	}
	if _, err := Dot([]float64{1}, []float64{1, 2}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	sim, err := CosineSimilarity([]float64{1, 0}, []float64{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(sim-1) > 1e-12 {
		t.Fatalf("similarity = %v, want 1", sim)
	}
	sim, err = CosineSimilarity([]float64{1, 0}, []float64{0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(sim) > 1e-12 {
		t.Fatalf("similarity = %v, want 0", sim)
	}
	sim, err = CosineSimilarity([]float64{0, 0}, []float64{1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim != 0 {
		t.Fatalf("zero-norm similarity = %v, want 0", sim)
	}
}

func TestMeanVarianceStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := Mean(values); got != 5 {
		t.Fatalf("mean = %v, want 5", got)
	}
	if got := Variance(values); got != 4 {
		t.Fatalf("variance = %v, want 4", got)
	}
	if got := StdDev(values); got != 2 {
		t.Fatalf("stddev = %v, want 2", got)
	}
}
