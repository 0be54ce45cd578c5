package cluster

import (
	"errors"
	"testing"

	"ringpulse/linalg"
)

func twoBlobs() [][]float64 {
	return [][]float64{
		{0.0, 0.1}, {0.2, 0.0}, {0.1, 0.2}, {0.0, 0.0},
		{10.0, 10.1}, {10.2, 10.0}, {10.1, 10.2}, {10.0, 10.0},
	}
}

func TestKMeansFitAssignsEveryPoint(t *testing.T) {
	km, err := NewKMeans(2, KMeansConfig{Seed: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := twoBlobs()
	assignments, err := km.Fit(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments) != len(data) {
		t.Fatalf("got %d assignments, want %d", len(assignments), len(data))
	}
	for i, a := range assignments {
		if a < 0 || a >= 2 {
			t.Fatalf("assignment[%d] = %d, want value in [0,2)", i, a)
		}
	}
	// The two tight blobs must land in different clusters.
	if assignments[0] == assignments[4] {
		t.Fatalf("blobs were not separated: %v", assignments)
	}
	for i := 1; i < 4; i++ {
		if assignments[i] != assignments[0] {
			t.Errorf("point %d split from its blob", i)
		}
		if assignments[i+4] != assignments[4] {
			t.Errorf("point %d split from its blob", i+4)
		}
	}
}

func TestKMeansPredictCentroidMapsToOwnCluster(t *testing.T) {
	km, err := NewKMeans(2, KMeansConfig{Seed: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := km.Fit(twoBlobs()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for idx, centroid := range km.Centroids() {
		got, err := km.Predict(centroid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != idx {
			t.Errorf("predict(centroid %d) = %d", idx, got)
		}
	}
}

func TestKMeansErrors(t *testing.T) {
	if _, err := NewKMeans(0, KMeansConfig{}); !errors.Is(err, ErrInvalidClusters) {
		t.Fatalf("expected ErrInvalidClusters, got %v", err)
	}
	km, err := NewKMeans(5, KMeansConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := km.Fit([][]float64{{1}, {2}}); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
	if _, err := km.Predict([]float64{1}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
	km2, _ := NewKMeans(1, KMeansConfig{})
	if _, err := km2.Fit([][]float64{{1, 2}, {3}}); !errors.Is(err, ErrUnevenVectors) {
		t.Fatalf("expected ErrUnevenVectors, got %v", err)
	}
}

func TestDBSCANSeparatesBlobsAndNoise(t *testing.T) {
	data := append(twoBlobs(), []float64{50, 50})
	db, err := NewDBSCAN(1.0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels, err := db.Fit(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[len(labels)-1] != Noise {
		t.Fatalf("isolated point labeled %d, want Noise", labels[len(labels)-1])
	}
	if labels[0] == Noise || labels[4] == Noise {
		t.Fatalf("dense points labeled noise: %v", labels)
	}
	if labels[0] == labels[4] {
		t.Fatalf("blobs merged: %v", labels)
	}

	// Deterministic given identical parameters and data.
	again, err := db.Fit(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range labels {
		if labels[i] != again[i] {
			t.Fatalf("rerun diverged at %d: %d vs %d", i, labels[i], again[i])
		}
	}
}

func TestDBSCANDensityInvariant(t *testing.T) {
	data := twoBlobs()
	db, _ := NewDBSCAN(1.0, 3)
	labels, err := db.Fit(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Every clustered point must be within Eps of a point of its cluster
	// that has at least MinPoints neighbors.
	for i, label := range labels {
		if label == Noise {
			continue
		}
		supported := false
		for j := range data {
			if labels[j] != label {
				continue
			}
			if len(db.regionQuery(data, j)) < db.MinPoints {
				continue
			}
			if d, _ := linalg.Distance(data[i], data[j]); d <= db.Eps {
				supported = true
				break
			}
		}
		if !supported {
			t.Errorf("point %d has no dense supporter in cluster %d", i, label)
		}
	}
}
