// Package outlier is a battery of univariate outlier scorers sharing one
// result shape, so callers can swap detection methods without changing the
// consuming code.
package outlier

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Method tags carried in every Result.
const (
	MethodZScore          = "zscore"
	MethodModifiedZScore  = "modified_zscore"
	MethodIQR             = "iqr"
	MethodIsolationForest = "isolation_forest"
	MethodLOF             = "lof"
	MethodDBSCAN          = "dbscan"
	MethodMovingAverage   = "moving_average"
)

var (
	ErrEmptySeries  = errors.New("outlier: series is empty")
	ErrShortSeries  = errors.New("outlier: series too short for this method")
	ErrInvalidParam = errors.New("outlier: invalid parameter")
)

// Result is the uniform outcome of every scorer: flagged indices, one score
// per observation, the threshold applied, and the method tag.
type Result struct {
	Method    string    `json:"method"`
	Indices   []int     `json:"indices"`
	Scores    []float64 `json:"scores"`
	Threshold float64   `json:"threshold"`
}

// ZScore flags values whose |z| exceeds threshold (default 3).
func ZScore(values []float64, threshold float64) (*Result, error) {
	if len(values) == 0 {
		return nil, ErrEmptySeries
	}
	if threshold <= 0 {
		threshold = 3
	}
	mean := mean(values)
	std := stddev(values, mean)

	result := &Result{Method: MethodZScore, Scores: make([]float64, len(values)), Threshold: threshold}
	for i, v := range values {
		z := 0.0
		if std > 0 {
			z = math.Abs(v-mean) / std
		}
		result.Scores[i] = z
		if z > threshold {
			result.Indices = append(result.Indices, i)
		}
	}
	return result, nil
}

// ModifiedZScore uses the median absolute deviation, which resists the very
// outliers it is hunting. Threshold <= 0 defaults to 3.5.
func ModifiedZScore(values []float64, threshold float64) (*Result, error) {
	if len(values) == 0 {
		return nil, ErrEmptySeries
	}
	if threshold <= 0 {
		threshold = 3.5
	}
	med := median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - med)
	}
	mad := median(deviations)

	result := &Result{Method: MethodModifiedZScore, Scores: make([]float64, len(values)), Threshold: threshold}
	for i, v := range values {
		z := 0.0
		if mad > 0 {
			z = 0.6745 * math.Abs(v-med) / mad
		}
		result.Scores[i] = z
		if z > threshold {
			result.Indices = append(result.Indices, i)
		}
	}
	return result, nil
}

// IQR fences values outside [Q1 - k*IQR, Q3 + k*IQR]. k <= 0 defaults to
// 1.5. Scores are the distance beyond the nearest fence, 0 inside it.
func IQR(values []float64, k float64) (*Result, error) {
	if len(values) < 4 {
		return nil, fmt.Errorf("%w: IQR needs at least 4 values", ErrShortSeries)
	}
	if k <= 0 {
		k = 1.5
	}
	q1 := percentile(values, 25)
	q3 := percentile(values, 75)
	spread := q3 - q1
	low := q1 - k*spread
	high := q3 + k*spread

	result := &Result{Method: MethodIQR, Scores: make([]float64, len(values)), Threshold: k}
	for i, v := range values {
		switch {
		case v < low:
			result.Scores[i] = low - v
		case v > high:
			result.Scores[i] = v - high
		}
		if result.Scores[i] > 0 {
			result.Indices = append(result.Indices, i)
		}
	}
	return result, nil
}

// IsolationForestConfig bounds the randomized forest.
type IsolationForestConfig struct {
	NumTrees   int     `yaml:"num_trees" json:"num_trees"`
	SampleSize int     `yaml:"sample_size" json:"sample_size"`
	MaxDepth   int     `yaml:"max_depth" json:"max_depth"`
	Threshold  float64 `yaml:"threshold" json:"threshold"`
	Seed       int64   `yaml:"seed" json:"seed"`
}

// IsolationForest scores every value by how quickly random interval splits
// isolate it; scores above Threshold (default 0.6) are flagged.
func IsolationForest(values []float64, cfg IsolationForestConfig) (*Result, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("%w: isolation forest needs at least 2 values", ErrShortSeries)
	}
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = 100
	}
	if cfg.SampleSize <= 0 || cfg.SampleSize > len(values) {
		cfg.SampleSize = min(64, len(values))
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 16
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.6
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	result := &Result{Method: MethodIsolationForest, Scores: make([]float64, len(values)), Threshold: cfg.Threshold}
	c := expectedPathLength(cfg.SampleSize)
	if c == 0 {
		return result, nil
	}
	for i, v := range values {
		total := 0.0
		for t := 0; t < cfg.NumTrees; t++ {
			sample := make([]float64, cfg.SampleSize)
			for s := range sample {
				sample[s] = values[rng.Intn(len(values))]
			}
			total += isolationPath(v, sample, cfg.MaxDepth, rng)
		}
		score := math.Pow(2, -(total/float64(cfg.NumTrees))/c)
		result.Scores[i] = score
		if score > cfg.Threshold {
			result.Indices = append(result.Indices, i)
		}
	}
	return result, nil
}

// isolationPath splits the live interval at random until v stands alone,
// the partition stops shrinking, or depth runs out. Iterative: the depth cap
// is configuration, not stack budget.
func isolationPath(v float64, sample []float64, maxDepth int, rng *rand.Rand) float64 {
	current := sample
	depth := 0
	for depth < maxDepth && len(current) > 1 {
		lo, hi := current[0], current[0]
		for _, s := range current {
			if s < lo {
				lo = s
			}
			if s > hi {
				hi = s
			}
		}
		if hi == lo {
			break
		}
		split := lo + rng.Float64()*(hi-lo)
		next := current[:0:0]
		if v < split {
			for _, s := range current {
				if s < split {
					next = append(next, s)
				}
			}
		} else {
			for _, s := range current {
				if s >= split {
					next = append(next, s)
				}
			}
		}
		current = next
		depth++
	}
	return float64(depth) + expectedPathLength(len(current))
}

// LOF computes a one-dimensional local outlier factor with k neighbors and
// flags values whose factor exceeds threshold (default 1.5).
func LOF(values []float64, k int, threshold float64) (*Result, error) {
	if len(values) < 3 {
		return nil, fmt.Errorf("%w: LOF needs at least 3 values", ErrShortSeries)
	}
	if k <= 0 {
		k = 5
	}
	if k >= len(values) {
		k = len(values) - 1
	}
	if threshold <= 0 {
		threshold = 1.5
	}

	densities := make([]float64, len(values))
	neighborIdx := make([][]int, len(values))
	for i := range values {
		idx, dists := nearest1D(values, i, k)
		neighborIdx[i] = idx
		sum := 0.0
		for _, d := range dists {
			sum += d
		}
		if sum == 0 {
			densities[i] = math.Inf(1)
		} else {
			densities[i] = float64(len(dists)) / sum
		}
	}

	result := &Result{Method: MethodLOF, Scores: make([]float64, len(values)), Threshold: threshold}
	for i := range values {
		if math.IsInf(densities[i], 1) {
			result.Scores[i] = 1
			continue
		}
		ratio := 0.0
		for _, j := range neighborIdx[i] {
			if math.IsInf(densities[j], 1) {
				// A maximally dense neighborhood dominates the ratio.
				ratio += 10
				continue
			}
			ratio += densities[j] / densities[i]
		}
		score := ratio / float64(len(neighborIdx[i]))
		result.Scores[i] = score
		if score > threshold {
			result.Indices = append(result.Indices, i)
		}
	}
	return result, nil
}

// DBSCAN runs one-dimensional density clustering and reports noise points
// as outliers. Scores are 1 for noise, 0 otherwise.
func DBSCAN(values []float64, eps float64, minPoints int) (*Result, error) {
	if len(values) == 0 {
		return nil, ErrEmptySeries
	}
	if eps <= 0 || minPoints <= 0 {
		return nil, fmt.Errorf("%w: eps and minPoints must be positive", ErrInvalidParam)
	}

	const unvisited = -2
	labels := make([]int, len(values))
	for i := range labels {
		labels[i] = unvisited
	}
	region := func(i int) []int {
		var out []int
		for j, v := range values {
			if math.Abs(values[i]-v) <= eps {
				out = append(out, j)
			}
		}
		return out
	}

	clusterID := 0
	for i := range values {
		if labels[i] != unvisited {
			continue
		}
		neighbors := region(i)
		if len(neighbors) < minPoints {
			labels[i] = -1
			continue
		}
		labels[i] = clusterID
		queue := append([]int(nil), neighbors...)
		for qi := 0; qi < len(queue); qi++ {
			p := queue[qi]
			if labels[p] == -1 {
				labels[p] = clusterID
			}
			if labels[p] != unvisited {
				continue
			}
			labels[p] = clusterID
			if pn := region(p); len(pn) >= minPoints {
				queue = append(queue, pn...)
			}
		}
		clusterID++
	}

	result := &Result{Method: MethodDBSCAN, Scores: make([]float64, len(values)), Threshold: eps}
	for i, label := range labels {
		if label == -1 {
			result.Scores[i] = 1
			result.Indices = append(result.Indices, i)
		}
	}
	return result, nil
}

// MovingAverage scores each point by its deviation from the trailing window
// mean in window standard deviations; window <= 0 defaults to 7 and
// threshold <= 0 to 3. The first window points are never flagged.
func MovingAverage(values []float64, window int, threshold float64) (*Result, error) {
	if window <= 0 {
		window = 7
	}
	if threshold <= 0 {
		threshold = 3
	}
	if len(values) <= window {
		return nil, fmt.Errorf("%w: need more than %d values", ErrShortSeries, window)
	}

	result := &Result{Method: MethodMovingAverage, Scores: make([]float64, len(values)), Threshold: threshold}
	for i := window; i < len(values); i++ {
		frame := values[i-window : i]
		m := mean(frame)
		s := stddev(frame, m)
		z := 0.0
		if s > 0 {
			z = math.Abs(values[i]-m) / s
		}
		result.Scores[i] = z
		if z > threshold {
			result.Indices = append(result.Indices, i)
		}
	}
	return result, nil
}

// nearest1D returns the indices and distances of the k values closest to
// values[i], excluding i itself.
func nearest1D(values []float64, i, k int) ([]int, []float64) {
	type pair struct {
		idx  int
		dist float64
	}
	pairs := make([]pair, 0, len(values)-1)
	for j, v := range values {
		if j == i {
			continue
		}
		pairs = append(pairs, pair{idx: j, dist: math.Abs(values[i] - v)})
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].dist < pairs[b].dist })
	if len(pairs) > k {
		pairs = pairs[:k]
	}
	idx := make([]int, len(pairs))
	dists := make([]float64, len(pairs))
	for n, p := range pairs {
		idx[n] = p.idx
		dists[n] = p.dist
	}
	return idx, dists
}

func expectedPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649
	return 2*h - 2*float64(n-1)/float64(n)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// percentile interpolates the p-th percentile of values.
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(rank)
	frac := rank - float64(lower)
	if lower+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lower]*(1-frac) + sorted[lower+1]*frac
}
