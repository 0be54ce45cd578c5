package mvstats

import (
	"sort"

	"ringpulse/linalg"
)

// LDAResult holds the discriminant axes and the separation each explains.
type LDAResult struct {
	Axes        [][]float64 `json:"axes"` // one vector per discriminant axis
	Eigenvalues []float64   `json:"eigenvalues"`
	Explained   []float64   `json:"explained"` // percent of separation per axis
	Classes     []int       `json:"classes"`
}

// LDA computes linear discriminant axes by solving the generalized
// eigenproblem Sw⁻¹Sb over the within- and between-class scatter matrices.
// At most (classes - 1) axes carry separation; fewer may come back when the
// spectrum collapses early.
func LDA(data [][]float64, labels []int, cfg EigenConfig) (*LDAResult, error) {
	if err := validate(data, 2); err != nil {
		return nil, err
	}
	if len(labels) != len(data) {
		return nil, ErrLabelMismatch
	}

	// Partition rows by class, preserving first-seen label order.
	classOrder := make([]int, 0)
	byClass := make(map[int][][]float64)
	for i, label := range labels {
		if _, seen := byClass[label]; !seen {
			classOrder = append(classOrder, label)
		}
		byClass[label] = append(byClass[label], data[i])
	}
	if len(classOrder) < 2 {
		return nil, ErrTooFewGroups
	}
	sort.Ints(classOrder)

	dims := len(data[0])
	grand := columnMeans(data)

	within, err := linalg.NewMatrix(dims, dims)
	if err != nil {
		return nil, err
	}
	between, err := linalg.NewMatrix(dims, dims)
	if err != nil {
		return nil, err
	}
	for _, label := range classOrder {
		group := byClass[label]
		mean := columnMeans(group)
		for _, row := range group {
			for i := 0; i < dims; i++ {
				for j := 0; j < dims; j++ {
					within.Set(i, j, within.At(i, j)+(row[i]-mean[i])*(row[j]-mean[j]))
				}
			}
		}
		n := float64(len(group))
		for i := 0; i < dims; i++ {
			for j := 0; j < dims; j++ {
				between.Set(i, j, between.At(i, j)+n*(mean[i]-grand[i])*(mean[j]-grand[j]))
			}
		}
	}

	withinInv, err := within.Invert()
	if err != nil {
		return nil, err
	}
	m, err := withinInv.Multiply(between)
	if err != nil {
		return nil, err
	}

	axes := len(classOrder) - 1
	if axes > dims {
		axes = dims
	}
	values, vectors, err := Eigen(m, axes, cfg)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	explained := make([]float64, len(values))
	for i, v := range values {
		if total > 0 && v > 0 {
			explained[i] = v / total * 100
		}
	}

	return &LDAResult{
		Axes:        vectors,
		Eigenvalues: values,
		Explained:   explained,
		Classes:     classOrder,
	}, nil
}
