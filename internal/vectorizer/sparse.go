// Package vectorizer provides sparse vectors and the hashing vectorizer used for page classification.
package vectorizer

import (
	"math"
	"sort"
)

// normEpsilon is the smallest L2 length that Normalize will divide by.
const normEpsilon = 1e-7

// SparseVector represents a sparse float64 vector.
// Indices are sorted ascending and unique; every index is < Dim when Dim > 0.
// A vector with Dim == 0 marks an absent feature set.
type SparseVector struct {
	Indices []int
	Values  []float64
	Dim     int
}

// NewSparseVector creates an empty sparse vector with the given dimension.
func NewSparseVector(dim int) SparseVector {
	return SparseVector{Dim: dim}
}

// FromDense creates a vector holding every position of dense, zeros included.
func FromDense(dense []float64) SparseVector {
	sv := SparseVector{
		Indices: make([]int, len(dense)),
		Values:  make([]float64, len(dense)),
		Dim:     len(dense),
	}
	for i, v := range dense {
		sv.Indices[i] = i
		sv.Values[i] = v
	}
	return sv
}

// FromFrequencies creates a vector from an index -> value map.
// Indices outside [0, dim) are dropped.
func FromFrequencies(dim int, freqs map[int]float64) SparseVector {
	indices := make([]int, 0, len(freqs))
	for idx := range freqs {
		if idx >= 0 && idx < dim {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	sv := SparseVector{
		Indices: indices,
		Values:  make([]float64, len(indices)),
		Dim:     dim,
	}
	for i, idx := range indices {
		sv.Values[i] = freqs[idx]
	}
	return sv
}

// Set adds or updates a value at the given index, keeping indices sorted.
func (sv *SparseVector) Set(idx int, val float64) {
	pos := sort.SearchInts(sv.Indices, idx)
	if pos < len(sv.Indices) && sv.Indices[pos] == idx {
		sv.Values[pos] = val
		return
	}
	sv.Indices = append(sv.Indices, 0)
	sv.Values = append(sv.Values, 0)
	copy(sv.Indices[pos+1:], sv.Indices[pos:])
	copy(sv.Values[pos+1:], sv.Values[pos:])
	sv.Indices[pos] = idx
	sv.Values[pos] = val
}

// Get returns the value stored at idx, or 0.
func (sv SparseVector) Get(idx int) float64 {
	pos := sort.SearchInts(sv.Indices, idx)
	if pos < len(sv.Indices) && sv.Indices[pos] == idx {
		return sv.Values[pos]
	}
	return 0
}

// Dot computes the dot product of two sparse vectors by merging their index lists.
// It returns NaN when either vector has Dim == 0 or the dimensions differ.
func (sv SparseVector) Dot(other SparseVector) float64 {
	if sv.Dim == 0 || other.Dim == 0 || sv.Dim != other.Dim {
		return math.NaN()
	}

	var sum float64
	i, j := 0, 0
	for i < len(sv.Indices) && j < len(other.Indices) {
		switch {
		case sv.Indices[i] == other.Indices[j]:
			sum += sv.Values[i] * other.Values[j]
			i++
			j++
		case sv.Indices[i] < other.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// ToDense converts to a dense float64 slice.
func (sv SparseVector) ToDense() []float64 {
	dense := make([]float64, sv.Dim)
	for i, idx := range sv.Indices {
		if idx < sv.Dim {
			dense[idx] = sv.Values[i]
		}
	}
	return dense
}

// Nnz returns the number of stored entries.
func (sv SparseVector) Nnz() int {
	return len(sv.Indices)
}

// L2Norm returns the L2 norm of the sparse vector.
func (sv SparseVector) L2Norm() float64 {
	var sum float64
	for _, v := range sv.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Normalize returns an L2-normalized copy. Vectors shorter than 1e-7 are copied unchanged.
func (sv SparseVector) Normalize() SparseVector {
	out := sv.Clone()
	norm := out.L2Norm()
	if norm > normEpsilon {
		for i := range out.Values {
			out.Values[i] /= norm
		}
	}
	return out
}

// Clone returns a deep copy.
func (sv SparseVector) Clone() SparseVector {
	out := SparseVector{Dim: sv.Dim}
	if sv.Indices != nil {
		out.Indices = append([]int(nil), sv.Indices...)
		out.Values = append([]float64(nil), sv.Values...)
	}
	return out
}
