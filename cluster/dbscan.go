package cluster

import (
	"errors"

	"ringpulse/linalg"
)

// Noise is the label assigned to points not reachable from any dense region.
const Noise = -1

var ErrInvalidDBSCANParams = errors.New("cluster: epsilon and minPoints must be positive")

// DBSCAN performs density-based clustering. A point with at least MinPoints
// neighbors (itself included) within Eps seeds a cluster; the cluster grows
// transitively through other dense points. Everything else is Noise.
type DBSCAN struct {
	Eps       float64
	MinPoints int
}

// NewDBSCAN creates a DBSCAN model.
func NewDBSCAN(eps float64, minPoints int) (*DBSCAN, error) {
	if eps <= 0 || minPoints <= 0 {
		return nil, ErrInvalidDBSCANParams
	}
	return &DBSCAN{Eps: eps, MinPoints: minPoints}, nil
}

// Fit labels every point with a cluster id starting at 0, or Noise.
// The result is deterministic for fixed parameters and input order.
func (d *DBSCAN) Fit(data [][]float64) ([]int, error) {
	if err := validateDataset(data); err != nil {
		return nil, err
	}

	const unvisited = -2
	labels := make([]int, len(data))
	for i := range labels {
		labels[i] = unvisited
	}

	clusterID := 0
	for i := range data {
		if labels[i] != unvisited {
			continue
		}
		neighbors := d.regionQuery(data, i)
		if len(neighbors) < d.MinPoints {
			labels[i] = Noise
			continue
		}

		labels[i] = clusterID
		// Expand the neighborhood transitively. The queue may grow while
		// we walk it, so index rather than range.
		queue := append([]int(nil), neighbors...)
		for qi := 0; qi < len(queue); qi++ {
			p := queue[qi]
			if labels[p] == Noise {
				labels[p] = clusterID
			}
			if labels[p] != unvisited {
				continue
			}
			labels[p] = clusterID
			pNeighbors := d.regionQuery(data, p)
			if len(pNeighbors) >= d.MinPoints {
				queue = append(queue, pNeighbors...)
			}
		}
		clusterID++
	}
	return labels, nil
}

// regionQuery returns the indices within Eps of point i, including i itself.
func (d *DBSCAN) regionQuery(data [][]float64, i int) []int {
	var neighbors []int
	for j := range data {
		dist, _ := linalg.Distance(data[i], data[j])
		if dist <= d.Eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}
