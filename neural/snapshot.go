package neural

import (
	"encoding/json"
	"errors"
	"os"
)

var ErrEmptySnapshot = errors.New("neural: snapshot has no parameters")

// Snapshot is a self-describing copy of a network's configuration and fitted
// parameters. It carries everything needed to rebuild the network; where the
// bytes end up is the caller's decision.
type Snapshot struct {
	Config  Config        `json:"config"`
	Weights [][][]float64 `json:"weights"`
	Biases  [][]float64   `json:"biases"`
}

// Snapshot captures the current configuration and parameters.
func (n *Network) Snapshot() Snapshot {
	snap := Snapshot{Config: n.cfg}
	snap.Weights = make([][][]float64, len(n.weights))
	for l, layer := range n.weights {
		snap.Weights[l] = make([][]float64, len(layer))
		for t, row := range layer {
			snap.Weights[l][t] = append([]float64(nil), row...)
		}
	}
	snap.Biases = make([][]float64, len(n.biases))
	for l, row := range n.biases {
		snap.Biases[l] = append([]float64(nil), row...)
	}
	return snap
}

// Restore rebuilds a network from a snapshot.
func Restore(snap Snapshot) (*Network, error) {
	if len(snap.Weights) == 0 || len(snap.Biases) == 0 {
		return nil, ErrEmptySnapshot
	}
	n, err := NewNetwork(snap.Config)
	if err != nil {
		return nil, err
	}
	if len(snap.Weights) != len(n.weights) || len(snap.Biases) != len(n.biases) {
		return nil, ErrInvalidShape
	}
	for l, layer := range snap.Weights {
		if len(layer) != len(n.weights[l]) {
			return nil, ErrInvalidShape
		}
		for t, row := range layer {
			if len(row) != len(n.weights[l][t]) {
				return nil, ErrInvalidShape
			}
			copy(n.weights[l][t], row)
		}
	}
	for l, row := range snap.Biases {
		if len(row) != len(n.biases[l]) {
			return nil, ErrInvalidShape
		}
		copy(n.biases[l], row)
	}
	return n, nil
}

// Save writes the snapshot as JSON to path.
func (n *Network) Save(path string) error {
	payload, err := json.Marshal(n.Snapshot())
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// Load reads a JSON snapshot from path and rebuilds the network.
func Load(path string) (*Network, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, err
	}
	return Restore(snap)
}
