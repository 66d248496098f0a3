package transform

import (
	"math"
	"reflect"
	"testing"

	"github.com/happyhackingspace/textcat/internal/vectorizer"
)

func TestLowercase(t *testing.T) {
	tests := []struct {
		input Data
		want  Data
	}{
		{Text("LowerCase AND UPPER"), Text("lowercase and upper")},
		{Text("already lower"), Text("already lower")},
		// only ASCII letters change
		{Text("ÀÉÎ Ωmega"), Text("ÀÉÎ Ωmega")},
		{Text(""), Text("")},
		{DenseVector([]float64{1, 2}), Text("")},
	}
	for _, tt := range tests {
		if got := (Lowercase{}).Apply(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Lowercase(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestHashedNGrams(t *testing.T) {
	out := NewHashedNGrams(vectorizer.DefaultHashConfig()).Apply(Text("tiny"))
	v, ok := out.(Vector)
	if !ok {
		t.Fatalf("expected Vector, got %T", out)
	}
	if v.Dim != 10000 || v.Nnz() != 10 {
		t.Errorf("Dim = %d, Nnz = %d, want 10000 and 10", v.Dim, v.Nnz())
	}

	custom := NewHashedNGrams(vectorizer.HashConfig{Buckets: 3, SubstringSizes: []int{1, 2, 3}})
	v = custom.Apply(Text("tiny")).(Vector)
	if v.Dim != 3 || v.Nnz() != 3 {
		t.Errorf("Dim = %d, Nnz = %d, want 3 and 3", v.Dim, v.Nnz())
	}
}

func TestHashedNGramsIndicesInRange(t *testing.T) {
	texts := []string{"", "a", "Hello, World!", "Καλημέρα κόσμε", "こんにちは世界", "<html><body>x</body></html>"}
	h := NewHashedNGrams(vectorizer.HashConfig{Buckets: 17})
	for _, text := range texts {
		v := h.Apply(Text(text)).(Vector)
		if v.Dim != 17 {
			t.Errorf("%q: Dim = %d, want 17", text, v.Dim)
		}
		for _, idx := range v.Indices {
			if idx < 0 || idx >= v.Dim {
				t.Errorf("%q: index %d out of range", text, idx)
			}
		}
	}
}

func TestHashedNGramsZeroValue(t *testing.T) {
	v := HashedNGrams{}.Apply(Text("tiny")).(Vector)
	if v.Dim != vectorizer.DefaultBuckets {
		t.Errorf("Dim = %d, want %d", v.Dim, vectorizer.DefaultBuckets)
	}
}

func TestWrongInputGivesEmptyVector(t *testing.T) {
	tests := []struct {
		name string
		tr   Transformation
		in   Data
	}{
		{"hashing a vector", NewHashedNGrams(vectorizer.DefaultHashConfig()), DenseVector([]float64{1})},
		{"normalizing text", Normalization{}, Text("text")},
	}
	for _, tt := range tests {
		if got := tt.tr.Apply(tt.in); !reflect.DeepEqual(got, EmptyVector()) {
			t.Errorf("%s: got %v, want the empty vector", tt.name, got)
		}
	}
}

func TestNormalization(t *testing.T) {
	in := DenseVector([]float64{1, 2, 3, 4, 5})
	once := Normalization{}.Apply(in).(Vector)
	if math.Abs(once.L2Norm()-1) > 1e-7 {
		t.Errorf("L2Norm = %v, want 1", once.L2Norm())
	}

	twice := Normalization{}.Apply(once).(Vector)
	for i := range once.Values {
		if math.Abs(once.Values[i]-twice.Values[i]) > 1e-12 {
			t.Errorf("not idempotent at %d: %v vs %v", i, once.Values[i], twice.Values[i])
		}
	}

	// input is not mutated
	if !reflect.DeepEqual(in.Values, []float64{1, 2, 3, 4, 5}) {
		t.Errorf("input mutated: %v", in.Values)
	}
}

func TestChain(t *testing.T) {
	chain := Chain{
		Lowercase{},
		NewHashedNGrams(vectorizer.HashConfig{Buckets: 100, SubstringSizes: []int{1, 2}}),
		Normalization{},
	}

	upper := AsVector(chain.Apply(Text("TINY")))
	lower := AsVector(chain.Apply(Text("tiny")))
	if !reflect.DeepEqual(upper, lower) {
		t.Error("chain output depends on case")
	}
	if math.Abs(lower.L2Norm()-1) > 1e-7 {
		t.Errorf("L2Norm = %v, want 1", lower.L2Norm())
	}
	if got := chain.String(); got != "TO_LOWER -> HASHED_NGRAMS -> NORMALIZE" {
		t.Errorf("String = %q", got)
	}
}

func TestChainWrongOrderDegrades(t *testing.T) {
	out := Chain{Normalization{}, Lowercase{}}.Apply(Text("Text"))

	if !reflect.DeepEqual(out, Text("")) {
		t.Errorf("got %v, want empty text", out)
	}
	if !reflect.DeepEqual(AsVector(out), EmptyVector()) {
		t.Error("AsVector of text should be the empty vector")
	}
}

func TestEmptyChainIsIdentity(t *testing.T) {
	v := DenseVector([]float64{1, 0, 2})
	if got := (Chain{}).Apply(v); !reflect.DeepEqual(got, v) {
		t.Errorf("empty chain changed input: %v", got)
	}
}

func TestChainClone(t *testing.T) {
	chain := Chain{Lowercase{}, NewHashedNGrams(vectorizer.HashConfig{Buckets: 5, SubstringSizes: []int{2}})}
	clone := chain.Clone()

	if len(clone) != 2 {
		t.Fatalf("clone length = %d, want 2", len(clone))
	}
	if !reflect.DeepEqual(chain[1].(HashedNGrams).Config(), clone[1].(HashedNGrams).Config()) {
		t.Error("clone hashing config differs")
	}
	if !reflect.DeepEqual(chain.Apply(Text("abc")), clone.Apply(Text("abc"))) {
		t.Error("clone output differs")
	}
	if Chain(nil).Clone() != nil {
		t.Error("nil chain clone should be nil")
	}
}

func TestDescribe(t *testing.T) {
	h := NewHashedNGrams(vectorizer.HashConfig{Buckets: 5, SubstringSizes: []int{1, 2}})
	if got := Describe(h); got != "HASHED_NGRAMS(buckets=5, sizes=[1 2])" {
		t.Errorf("Describe = %q", got)
	}
	if got := Describe(Normalization{}); got != "NORMALIZE" {
		t.Errorf("Describe = %q", got)
	}
}
