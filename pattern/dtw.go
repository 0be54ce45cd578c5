package pattern

import (
	"errors"
	"math"
)

var ErrEmptySequence = errors.New("pattern: sequences must be non-empty")

// DTWDistance computes the Dynamic Time Warping distance between a and b
// with the standard O(n*m) dynamic-programming table. Only two table rows
// are kept, so memory is O(min step) rather than O(n*m); the engine never
// needs the warping path itself.
func DTWDistance(a, b []float64) (float64, error) {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0, ErrEmptySequence
	}

	inf := math.Inf(1)
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := 1; j <= m; j++ {
		prev[j] = inf
	}

	for i := 1; i <= n; i++ {
		curr[0] = inf
		for j := 1; j <= m; j++ {
			cost := math.Abs(a[i-1] - b[j-1])
			best := prev[j-1] // match
			if prev[j] < best {
				best = prev[j] // insertion
			}
			if curr[j-1] < best {
				best = curr[j-1] // deletion
			}
			curr[j] = cost + best
		}
		prev, curr = curr, prev
	}
	return prev[m], nil
}
