package neural

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func separableDataset() (inputs, targets [][]float64) {
	// Two linearly separable clusters in 2D.
	for i := 0; i < 10; i++ {
		off := float64(i) * 0.02
		inputs = append(inputs, []float64{0.1 + off, 0.1 + off})
		targets = append(targets, []float64{0})
		inputs = append(inputs, []float64{0.9 - off, 0.9 - off})
		targets = append(targets, []float64{1})
	}
	return inputs, targets
}

func TestTrainReducesLoss(t *testing.T) {
	n, err := NewNetwork(Config{
		InputSize:    2,
		HiddenLayers: []int{4},
		OutputSize:   1,
		LearningRate: 0.5,
		Activation:   ActivationSigmoid,
		Seed:         11,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inputs, targets := separableDataset()
	losses, err := n.Train(inputs, targets, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(losses) != 200 {
		t.Fatalf("got %d epoch losses, want 200", len(losses))
	}
	if losses[len(losses)-1] >= losses[0] {
		t.Fatalf("final loss %v not below first-epoch loss %v", losses[len(losses)-1], losses[0])
	}

	low, err := n.Predict([]float64{0.1, 0.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	high, err := n.Predict([]float64{0.9, 0.9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low[0] >= 0.5 || high[0] <= 0.5 {
		t.Fatalf("classes not separated: low=%v high=%v", low[0], high[0])
	}
}

func TestActivations(t *testing.T) {
	for _, activation := range []string{ActivationSigmoid, ActivationTanh, ActivationReLU} {
		n, err := NewNetwork(Config{
			InputSize:    2,
			HiddenLayers: []int{3},
			OutputSize:   1,
			Activation:   activation,
			Seed:         1,
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", activation, err)
		}
		out, err := n.Predict([]float64{0.5, 0.5})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", activation, err)
		}
		if len(out) != 1 || math.IsNaN(out[0]) {
			t.Fatalf("%s: bad output %v", activation, out)
		}
	}

	if _, err := NewNetwork(Config{InputSize: 1, OutputSize: 1, Activation: "step"}); !errors.Is(err, ErrUnknownActivation) {
		t.Fatalf("expected ErrUnknownActivation, got %v", err)
	}
}

func TestShapeValidation(t *testing.T) {
	if _, err := NewNetwork(Config{InputSize: 0, OutputSize: 1}); !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}
	if _, err := NewNetwork(Config{InputSize: 2, HiddenLayers: []int{0}, OutputSize: 1}); !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}

	n, err := NewNetwork(Config{InputSize: 2, OutputSize: 1, Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := n.Predict([]float64{1}); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
	if _, err := n.Train([][]float64{{1, 2}}, [][]float64{{1, 2}}, 1); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
	if _, err := n.Train(nil, nil, 1); !errors.Is(err, ErrEmptyTrainingSet) {
		t.Fatalf("expected ErrEmptyTrainingSet, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	n, err := NewNetwork(Config{
		InputSize:    2,
		HiddenLayers: []int{3},
		OutputSize:   1,
		LearningRate: 0.5,
		Seed:         21,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inputs, targets := separableDataset()
	if _, err := n.Train(inputs, targets, 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored, err := Restore(n.Snapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, probe := range [][]float64{{0.1, 0.1}, {0.9, 0.9}, {0.5, 0.4}} {
		want, _ := n.Predict(probe)
		got, err := restored.Predict(probe)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(got[0]-want[0]) > 1e-12 {
			t.Fatalf("restored predict(%v) = %v, want %v", probe, got[0], want[0])
		}
	}
}

func TestSaveLoad(t *testing.T) {
	n, err := NewNetwork(Config{InputSize: 2, HiddenLayers: []int{3}, OutputSize: 1, Seed: 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "net.json")
	if err := n.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := n.Predict([]float64{0.2, 0.7})
	got, err := loaded.Predict([]float64{0.2, 0.7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got[0]-want[0]) > 1e-12 {
		t.Fatalf("loaded predict = %v, want %v", got[0], want[0])
	}
}
