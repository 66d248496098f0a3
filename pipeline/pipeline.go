// Package pipeline loads a text-processing model document and classifies page text with it.
//
// A Pipeline starts uninitialized. FromJSON moves it to the initialized state
// when the whole document parses; classification on an uninitialized pipeline
// returns an empty map.
//
//	var p pipeline.Pipeline
//	if p.FromJSON(modelJSON) {
//	    preds := p.ClassifyPage(pageText) // {"crypto-crypto": 0.41, ...}
//	}
package pipeline

import (
	"encoding/json"
	"math"

	"github.com/happyhackingspace/textcat/linear"
	"github.com/happyhackingspace/textcat/transform"
)

// Info is the parsed content of a model document.
type Info struct {
	Version         uint16
	Timestamp       string
	Locale          string
	Transformations transform.Chain
	Model           *linear.Model
}

// Pipeline runs a transformation chain and a linear model over page text.
// It is not modified by classification, so one Pipeline may serve concurrent callers.
type Pipeline struct {
	info        Info
	initialized bool
}

// New creates an initialized pipeline from a chain and a model.
func New(chain transform.Chain, model *linear.Model) *Pipeline {
	return &Pipeline{
		info: Info{
			Transformations: chain.Clone(),
			Model:           model,
		},
		initialized: true,
	}
}

// FromJSON parses a model document. On failure the pipeline keeps its previous state.
func (p *Pipeline) FromJSON(data string) bool {
	return p.Load(data) == nil
}

// Load is FromJSON with the parse error returned.
func (p *Pipeline) Load(data string) error {
	info, err := Parse(data)
	if err != nil {
		return err
	}
	p.info = info
	p.initialized = true
	return nil
}

// IsInitialized reports whether a model has been loaded.
func (p *Pipeline) IsInitialized() bool {
	return p.initialized
}

// Info returns the model metadata.
func (p *Pipeline) Info() Info {
	return p.info
}

// Version returns the model document version.
func (p *Pipeline) Version() uint16 { return p.info.Version }

// Timestamp returns the model document timestamp.
func (p *Pipeline) Timestamp() string { return p.info.Timestamp }

// Locale returns the model document locale.
func (p *Pipeline) Locale() string { return p.info.Locale }

// Clone returns a deep copy. The model is shared since it is immutable.
func (p *Pipeline) Clone() *Pipeline {
	c := *p
	c.info.Transformations = p.info.Transformations.Clone()
	return &c
}

// Apply runs the chain over input and returns softmax scores for every class.
// If the chain does not end in a Vector the empty vector is scored, giving NaN scores.
func (p *Pipeline) Apply(input transform.Data) map[string]float64 {
	if p.info.Model == nil {
		return map[string]float64{}
	}
	x := transform.AsVector(p.info.Transformations.Apply(input))
	return p.info.Model.TopPredictions(x.SparseVector, -1)
}

// TopPredictions classifies text and keeps only classes scoring above 1/numClasses.
func (p *Pipeline) TopPredictions(text string) map[string]float64 {
	predictions := p.Apply(transform.Text(text))
	expected := 1.0 / math.Max(1, float64(len(predictions)))

	out := make(map[string]float64)
	for cls, score := range predictions {
		if score > expected {
			out[cls] = score
		}
	}
	return out
}

// ClassifyPage returns TopPredictions for content, or an empty map when uninitialized.
func (p *Pipeline) ClassifyPage(content string) map[string]float64 {
	if !p.initialized {
		return map[string]float64{}
	}
	return p.TopPredictions(content)
}

// MarshalJSON writes the pipeline as a model document.
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	return json.Marshal(encode(p.info))
}
