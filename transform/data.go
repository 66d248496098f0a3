// Package transform defines the values that flow through a classification pipeline
// and the transformations applied to them.
//
// A Data value is either Text or Vector. Transformations accept any Data and
// return a well-defined fallback when handed the wrong kind:
//
//	chain := transform.Chain{transform.Lowercase{}, transform.NewHashedNGrams(cfg), transform.Normalization{}}
//	v, ok := chain.Apply(transform.Text("Some page text")).(transform.Vector)
package transform

import "github.com/happyhackingspace/textcat/internal/vectorizer"

// Data is the value passed between transformations. It is implemented only by Text and Vector.
type Data interface {
	isData()
}

// Text carries raw or partially transformed text.
type Text string

// Vector carries a sparse feature vector.
type Vector struct {
	vectorizer.SparseVector
}

func (Text) isData()   {}
func (Vector) isData() {}

// NewVector wraps a sparse vector.
func NewVector(sv vectorizer.SparseVector) Vector {
	return Vector{SparseVector: sv}
}

// DenseVector creates a Vector holding every position of values.
func DenseVector(values []float64) Vector {
	return Vector{SparseVector: vectorizer.FromDense(values)}
}

// EmptyVector returns the zero-dimension vector used as the degraded result.
func EmptyVector() Vector {
	return Vector{SparseVector: vectorizer.NewSparseVector(0)}
}

// AsVector returns the vector held by d, or the empty vector when d is not a Vector.
func AsVector(d Data) Vector {
	if v, ok := d.(Vector); ok {
		return v
	}
	return EmptyVector()
}
