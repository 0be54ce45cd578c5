// Package neural implements a small multi-layer perceptron trained by
// backpropagation with plain per-sample SGD. It is deliberately simple: one
// activation shared by every layer, no momentum, no regularization. Fitted
// parameters can be captured as a Snapshot for external persistence.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Supported activation names.
const (
	ActivationSigmoid = "sigmoid"
	ActivationTanh    = "tanh"
	ActivationReLU    = "relu"
)

var (
	ErrInvalidShape      = errors.New("neural: layer sizes must be positive")
	ErrUnknownActivation = errors.New("neural: unknown activation")
	ErrSizeMismatch      = errors.New("neural: input size mismatch")
	ErrEmptyTrainingSet  = errors.New("neural: training set is empty")
)

// Config fixes the network shape at construction. The shape never changes
// afterwards.
type Config struct {
	InputSize    int     `yaml:"input_size" json:"input_size"`
	HiddenLayers []int   `yaml:"hidden_layers" json:"hidden_layers"`
	OutputSize   int     `yaml:"output_size" json:"output_size"`
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`
	Activation   string  `yaml:"activation" json:"activation"`
	Seed         int64   `yaml:"seed" json:"seed"`
}

// Network is a fully connected feed-forward network. Weights[l] is the
// matrix from layer l to layer l+1, stored as [to][from].
type Network struct {
	cfg      Config
	weights  [][][]float64
	biases   [][]float64
	sizes    []int
	activate func(float64) float64
	// derivative takes the activated output, not the pre-activation input.
	derivative func(float64) float64
}

// NewNetwork builds a network with small random initial weights.
func NewNetwork(cfg Config) (*Network, error) {
	if cfg.InputSize <= 0 || cfg.OutputSize <= 0 {
		return nil, ErrInvalidShape
	}
	for _, h := range cfg.HiddenLayers {
		if h <= 0 {
			return nil, ErrInvalidShape
		}
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.Activation == "" {
		cfg.Activation = ActivationSigmoid
	}

	n := &Network{cfg: cfg}
	if err := n.setActivation(cfg.Activation); err != nil {
		return nil, err
	}

	n.sizes = append([]int{cfg.InputSize}, cfg.HiddenLayers...)
	n.sizes = append(n.sizes, cfg.OutputSize)

	rng := rand.New(rand.NewSource(cfg.Seed))
	n.weights = make([][][]float64, len(n.sizes)-1)
	n.biases = make([][]float64, len(n.sizes)-1)
	for l := 0; l < len(n.sizes)-1; l++ {
		from, to := n.sizes[l], n.sizes[l+1]
		n.weights[l] = make([][]float64, to)
		n.biases[l] = make([]float64, to)
		for t := 0; t < to; t++ {
			n.weights[l][t] = make([]float64, from)
			for f := 0; f < from; f++ {
				n.weights[l][t][f] = (rng.Float64()*2 - 1) * 0.5
			}
			n.biases[l][t] = (rng.Float64()*2 - 1) * 0.1
		}
	}
	return n, nil
}

func (n *Network) setActivation(name string) error {
	switch name {
	case ActivationSigmoid:
		n.activate = func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
		n.derivative = func(y float64) float64 { return y * (1 - y) }
	case ActivationTanh:
		n.activate = math.Tanh
		n.derivative = func(y float64) float64 { return 1 - y*y }
	case ActivationReLU:
		n.activate = func(x float64) float64 {
			if x > 0 {
				return x
			}
			return 0
		}
		n.derivative = func(y float64) float64 {
			if y > 0 {
				return 1
			}
			return 0
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
	return nil
}

// Predict runs a single forward pass.
func (n *Network) Predict(input []float64) ([]float64, error) {
	if len(input) != n.cfg.InputSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(input), n.cfg.InputSize)
	}
	activations := n.forward(input)
	out := activations[len(activations)-1]
	return append([]float64(nil), out...), nil
}

// Train runs full passes over the training set for the given number of
// epochs, applying one SGD step per sample. It returns the mean squared
// error of each epoch.
func (n *Network) Train(inputs, targets [][]float64, epochs int) ([]float64, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(inputs) != len(targets) {
		return nil, fmt.Errorf("%w: %d inputs, %d targets", ErrSizeMismatch, len(inputs), len(targets))
	}
	for i := range inputs {
		if len(inputs[i]) != n.cfg.InputSize {
			return nil, fmt.Errorf("%w: input %d has %d features, want %d",
				ErrSizeMismatch, i, len(inputs[i]), n.cfg.InputSize)
		}
		if len(targets[i]) != n.cfg.OutputSize {
			return nil, fmt.Errorf("%w: target %d has %d values, want %d",
				ErrSizeMismatch, i, len(targets[i]), n.cfg.OutputSize)
		}
	}
	if epochs <= 0 {
		epochs = 1
	}

	losses := make([]float64, 0, epochs)
	for epoch := 0; epoch < epochs; epoch++ {
		sumSquared := 0.0
		for i := range inputs {
			activations := n.forward(inputs[i])
			sumSquared += n.backward(activations, targets[i])
		}
		losses = append(losses, sumSquared/float64(len(inputs)*n.cfg.OutputSize))
	}
	return losses, nil
}

// forward returns the activation of every layer, input included.
func (n *Network) forward(input []float64) [][]float64 {
	activations := make([][]float64, len(n.sizes))
	activations[0] = input
	for l := 0; l < len(n.weights); l++ {
		prev := activations[l]
		next := make([]float64, n.sizes[l+1])
		for t := range next {
			sum := n.biases[l][t]
			for f, w := range n.weights[l][t] {
				sum += w * prev[f]
			}
			next[t] = n.activate(sum)
		}
		activations[l+1] = next
	}
	return activations
}

// backward propagates the output error through the transposed weights and
// applies one SGD update. Returns the summed squared output error.
func (n *Network) backward(activations [][]float64, target []float64) float64 {
	last := len(n.weights) - 1
	output := activations[last+1]

	sumSquared := 0.0
	deltas := make([]float64, len(output))
	for t := range output {
		err := target[t] - output[t]
		sumSquared += err * err
		deltas[t] = err * n.derivative(output[t])
	}

	for l := last; l >= 0; l-- {
		prev := activations[l]

		var nextDeltas []float64
		if l > 0 {
			// Error for the layer below via the transposed weight matrix,
			// computed before this layer's weights move.
			nextDeltas = make([]float64, n.sizes[l])
			for f := range nextDeltas {
				sum := 0.0
				for t := range deltas {
					sum += n.weights[l][t][f] * deltas[t]
				}
				nextDeltas[f] = sum * n.derivative(prev[f])
			}
		}

		for t, delta := range deltas {
			step := n.cfg.LearningRate * delta
			for f := range n.weights[l][t] {
				n.weights[l][t][f] += step * prev[f]
			}
			n.biases[l][t] += step
		}
		deltas = nextDeltas
	}
	return sumSquared
}
