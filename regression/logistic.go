package regression

import (
	"errors"
	"math"
)

var ErrInvalidLabels = errors.New("regression: logistic labels must be 0 or 1")

// LogisticConfig bounds the gradient descent. The model always runs the full
// iteration budget; there is no convergence check.
type LogisticConfig struct {
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`
	Iterations   int     `yaml:"iterations" json:"iterations"`
}

// LogisticRegression fits a binary classifier by batch gradient descent on
// the sigmoid cross-entropy gradient.
type LogisticRegression struct {
	cfg     LogisticConfig
	weights []float64
	bias    float64
}

// NewLogisticRegression creates a model; zero config fields fall back to
// learning rate 0.1 and 1000 iterations.
func NewLogisticRegression(cfg LogisticConfig) *LogisticRegression {
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	return &LogisticRegression{cfg: cfg}
}

// Fit trains on x with binary labels y.
func (lr *LogisticRegression) Fit(x [][]float64, y []float64) error {
	if err := validate(x, y); err != nil {
		return err
	}
	for _, label := range y {
		if label != 0 && label != 1 {
			return ErrInvalidLabels
		}
	}

	n := float64(len(x))
	features := len(x[0])
	lr.weights = make([]float64, features)
	lr.bias = 0

	for iter := 0; iter < lr.cfg.Iterations; iter++ {
		gradW := make([]float64, features)
		gradB := 0.0
		for i, row := range x {
			pred := lr.forward(row)
			err := pred - y[i]
			for j, v := range row {
				gradW[j] += err * v
			}
			gradB += err
		}
		for j := range lr.weights {
			lr.weights[j] -= lr.cfg.LearningRate * gradW[j] / n
		}
		lr.bias -= lr.cfg.LearningRate * gradB / n
	}
	return nil
}

// Predict returns the sigmoid probability of class 1.
func (lr *LogisticRegression) Predict(x []float64) (float64, error) {
	if lr.weights == nil {
		return 0, ErrNotFitted
	}
	if len(x) != len(lr.weights) {
		return 0, ErrUnevenVectors
	}
	return lr.forward(x), nil
}

// PredictClass thresholds the probability; threshold <= 0 uses 0.5.
func (lr *LogisticRegression) PredictClass(x []float64, threshold float64) (int, error) {
	if threshold <= 0 {
		threshold = 0.5
	}
	p, err := lr.Predict(x)
	if err != nil {
		return 0, err
	}
	if p >= threshold {
		return 1, nil
	}
	return 0, nil
}

func (lr *LogisticRegression) forward(x []float64) float64 {
	z := lr.bias
	for j, v := range x {
		z += lr.weights[j] * v
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
