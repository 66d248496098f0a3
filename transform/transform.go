package transform

import (
	"fmt"

	"github.com/happyhackingspace/textcat/internal/vectorizer"
)

// Type names a transformation in the model document.
type Type string

// Transformation types as they appear in "transformation_type".
const (
	TypeLowercase     Type = "TO_LOWER"
	TypeHashedNGrams  Type = "HASHED_NGRAMS"
	TypeNormalization Type = "NORMALIZE"
)

// Transformation is a pure Data -> Data step. It is implemented only by
// Lowercase, HashedNGrams and Normalization.
type Transformation interface {
	Apply(Data) Data
	Type() Type
	isTransformation()
}

// Lowercase lowercases ASCII letters of Text input.
type Lowercase struct{}

// Apply returns the lowercased text, or empty Text for non-text input.
func (Lowercase) Apply(d Data) Data {
	text, ok := d.(Text)
	if !ok {
		return Text("")
	}
	return Text(toLowerASCII(string(text)))
}

// Type implements Transformation.
func (Lowercase) Type() Type { return TypeLowercase }

func (Lowercase) isTransformation() {}

// HashedNGrams turns Text into bucketed substring frequencies.
type HashedNGrams struct {
	hv *vectorizer.HashVectorizer
}

// NewHashedNGrams creates a HashedNGrams step. Zero config fields use the vectorizer defaults.
func NewHashedNGrams(config vectorizer.HashConfig) HashedNGrams {
	return HashedNGrams{hv: vectorizer.NewHashVectorizer(config)}
}

// Apply returns a Vector of dimension Buckets, or the empty vector for non-text input.
func (h HashedNGrams) Apply(d Data) Data {
	text, ok := d.(Text)
	if !ok {
		return EmptyVector()
	}
	return NewVector(h.vectorizer().Vectorize(string(text)))
}

// Type implements Transformation.
func (HashedNGrams) Type() Type { return TypeHashedNGrams }

func (HashedNGrams) isTransformation() {}

// Config returns the hashing configuration.
func (h HashedNGrams) Config() vectorizer.HashConfig {
	return h.vectorizer().Config()
}

func (h HashedNGrams) vectorizer() *vectorizer.HashVectorizer {
	if h.hv == nil {
		return vectorizer.NewHashVectorizer(vectorizer.DefaultHashConfig())
	}
	return h.hv
}

// Normalization scales a Vector to unit L2 length.
type Normalization struct{}

// Apply returns a normalized copy, or the empty vector for non-vector input.
func (Normalization) Apply(d Data) Data {
	v, ok := d.(Vector)
	if !ok {
		return EmptyVector()
	}
	return NewVector(v.Normalize())
}

// Type implements Transformation.
func (Normalization) Type() Type { return TypeNormalization }

func (Normalization) isTransformation() {}

// Chain applies transformations left to right.
type Chain []Transformation

// Apply threads d through every transformation in order.
func (c Chain) Apply(d Data) Data {
	for _, tr := range c {
		d = tr.Apply(d)
	}
	return d
}

// Clone returns a copy of the chain. HashedNGrams steps are rebuilt from their configuration.
func (c Chain) Clone() Chain {
	if c == nil {
		return nil
	}
	out := make(Chain, len(c))
	for i, tr := range c {
		switch t := tr.(type) {
		case HashedNGrams:
			out[i] = NewHashedNGrams(t.Config())
		default:
			out[i] = t
		}
	}
	return out
}

// String lists the chain as "TO_LOWER -> HASHED_NGRAMS -> NORMALIZE".
func (c Chain) String() string {
	s := ""
	for i, tr := range c {
		if i > 0 {
			s += " -> "
		}
		s += string(tr.Type())
	}
	return s
}

// Describe returns a human readable description of a single transformation.
func Describe(tr Transformation) string {
	switch t := tr.(type) {
	case HashedNGrams:
		cfg := t.Config()
		return fmt.Sprintf("%s(buckets=%d, sizes=%v)", t.Type(), cfg.Buckets, cfg.SubstringSizes)
	default:
		return string(tr.Type())
	}
}

func toLowerASCII(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
