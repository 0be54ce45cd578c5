// Package pattern matches observations against a session-scoped library of
// reference patterns, scores anomalies against a trained baseline, and
// analyzes linear trends with change-point detection.
package pattern

import (
	"errors"
	"fmt"

	"ringpulse/linalg"
)

var (
	ErrEmptyLibrary  = errors.New("pattern: pattern library is empty")
	ErrEmptyPattern  = errors.New("pattern: pattern must not be empty")
	ErrDuplicateName = errors.New("pattern: pattern name already registered")
)

// Match is the best library entry for an observation.
type Match struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Recognizer holds named reference vectors and sequences. Fixed-length
// observations are matched by cosine similarity; variable-length sequences
// by Dynamic Time Warping distance.
type Recognizer struct {
	threshold float64
	vectors   []namedVector
	sequences []namedVector
}

type namedVector struct {
	name   string
	values []float64
}

// NewRecognizer creates a Recognizer; threshold <= 0 defaults to 0.85.
func NewRecognizer(threshold float64) *Recognizer {
	if threshold <= 0 {
		threshold = 0.85
	}
	return &Recognizer{threshold: threshold}
}

// Add registers a fixed-length reference pattern.
func (r *Recognizer) Add(name string, features []float64) error {
	if len(features) == 0 {
		return ErrEmptyPattern
	}
	for _, p := range r.vectors {
		if p.name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	r.vectors = append(r.vectors, namedVector{name: name, values: append([]float64(nil), features...)})
	return nil
}

// AddSequence registers a reference sequence for DTW matching.
func (r *Recognizer) AddSequence(name string, seq []float64) error {
	if len(seq) == 0 {
		return ErrEmptyPattern
	}
	for _, p := range r.sequences {
		if p.name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	r.sequences = append(r.sequences, namedVector{name: name, values: append([]float64(nil), seq...)})
	return nil
}

// Recognize returns the library pattern with the highest cosine similarity
// to features, or nil when no pattern clears the threshold.
func (r *Recognizer) Recognize(features []float64) (*Match, error) {
	if len(r.vectors) == 0 {
		return nil, ErrEmptyLibrary
	}
	var best *Match
	for _, p := range r.vectors {
		sim, err := linalg.CosineSimilarity(features, p.values)
		if err != nil {
			return nil, err
		}
		if best == nil || sim > best.Confidence {
			best = &Match{Name: p.name, Confidence: sim}
		}
	}
	if best.Confidence < r.threshold {
		return nil, nil
	}
	return best, nil
}

// RecognizeSequence matches a variable-length sequence against the sequence
// library using DTW distance, converting distance to confidence as
// 1/(1+distance). The threshold gate applies to that confidence.
func (r *Recognizer) RecognizeSequence(seq []float64) (*Match, error) {
	if len(r.sequences) == 0 {
		return nil, ErrEmptyLibrary
	}
	var best *Match
	for _, p := range r.sequences {
		dist, err := DTWDistance(seq, p.values)
		if err != nil {
			return nil, err
		}
		confidence := 1 / (1 + dist)
		if best == nil || confidence > best.Confidence {
			best = &Match{Name: p.name, Confidence: confidence}
		}
	}
	if best.Confidence < r.threshold {
		return nil, nil
	}
	return best, nil
}
