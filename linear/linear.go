// Package linear implements the multi-class linear scorer used to classify page vectors.
package linear

import (
	"math"
	"sort"

	"github.com/happyhackingspace/textcat/internal/vectorizer"
	"github.com/samber/lo"
)

// Model holds per-class weight vectors and biases. It is immutable after New.
type Model struct {
	weights map[string]vectorizer.SparseVector
	biases  map[string]float64
}

// Prediction is a single class score.
type Prediction struct {
	Class string  `json:"class"`
	Score float64 `json:"score"`
}

// New creates a model from class weights and biases. Both maps are copied.
// A class missing from biases gets a zero bias.
func New(weights map[string]vectorizer.SparseVector, biases map[string]float64) *Model {
	m := &Model{
		weights: make(map[string]vectorizer.SparseVector, len(weights)),
		biases:  make(map[string]float64, len(weights)),
	}
	for cls, w := range weights {
		m.weights[cls] = w.Clone()
		m.biases[cls] = biases[cls]
	}
	return m
}

// Classes returns the class labels in ascending order.
func (m *Model) Classes() []string {
	classes := lo.Keys(m.weights)
	sort.Strings(classes)
	return classes
}

// NumClasses returns the number of classes.
func (m *Model) NumClasses() int {
	return len(m.weights)
}

// Dim returns the shared weight dimension, or 0 for an empty model.
func (m *Model) Dim() int {
	for _, w := range m.weights {
		return w.Dim
	}
	return 0
}

// Weights returns a copy of the weight vector of cls.
func (m *Model) Weights(cls string) (vectorizer.SparseVector, bool) {
	w, ok := m.weights[cls]
	if !ok {
		return vectorizer.SparseVector{}, false
	}
	return w.Clone(), true
}

// Bias returns the bias of cls.
func (m *Model) Bias(cls string) float64 {
	return m.biases[cls]
}

// Predict returns the raw score dot(weights[c], x) + biases[c] for every class.
// A dimension mismatch yields NaN scores.
func (m *Model) Predict(x vectorizer.SparseVector) map[string]float64 {
	scores := make(map[string]float64, len(m.weights))
	for cls, w := range m.weights {
		scores[cls] = w.Dot(x) + m.biases[cls]
	}
	return scores
}

// Ranked returns softmax scores ordered by score descending, then class ascending.
// NaN scores order last. When topCount > 0 at most topCount predictions are kept.
func (m *Model) Ranked(x vectorizer.SparseVector, topCount int) []Prediction {
	ranked := Rank(Softmax(m.Predict(x)))
	if topCount > 0 && topCount < len(ranked) {
		ranked = ranked[:topCount]
	}
	return ranked
}

// TopPredictions returns the topCount best softmax scores as a map.
// topCount <= 0, or a topCount above the class count, returns every class.
func (m *Model) TopPredictions(x vectorizer.SparseVector, topCount int) map[string]float64 {
	ranked := m.Ranked(x, topCount)
	out := make(map[string]float64, len(ranked))
	for _, p := range ranked {
		out[p.Class] = p.Score
	}
	return out
}

// Softmax converts raw scores into probabilities. The maximum score is
// subtracted before exponentiating.
func Softmax(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	// sum in class order so repeated calls agree bit for bit
	classes := lo.Keys(scores)
	sort.Strings(classes)

	maxScore := math.Inf(-1)
	for _, cls := range classes {
		if s := scores[cls]; s > maxScore {
			maxScore = s
		}
	}

	var sum float64
	for _, cls := range classes {
		e := math.Exp(scores[cls] - maxScore)
		out[cls] = e
		sum += e
	}
	for _, cls := range classes {
		out[cls] /= sum
	}
	return out
}

// Rank orders scores by score descending, then class ascending. NaN scores order last.
func Rank(scores map[string]float64) []Prediction {
	ranked := make([]Prediction, 0, len(scores))
	for cls, p := range scores {
		ranked = append(ranked, Prediction{Class: cls, Score: p})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		aNaN, bNaN := math.IsNaN(a.Score), math.IsNaN(b.Score)
		if aNaN != bNaN {
			return bNaN
		}
		if !aNaN && a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Class < b.Class
	})
	return ranked
}
