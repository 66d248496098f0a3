package vectorizer

import (
	"hash/crc32"
	"slices"
)

// Defaults used when a HashConfig field is left zero.
const (
	DefaultBuckets       = 10000
	DefaultMaxSubstring  = 6
	DefaultMaxTextLength = 1 << 20
)

// HashConfig configures a HashVectorizer.
type HashConfig struct {
	Buckets        int
	SubstringSizes []int
	MaxTextLength  int
}

// DefaultHashConfig returns 10000 buckets, substring sizes 1..6 and a 1 MiB text limit.
func DefaultHashConfig() HashConfig {
	sizes := make([]int, DefaultMaxSubstring)
	for i := range sizes {
		sizes[i] = i + 1
	}
	return HashConfig{
		Buckets:        DefaultBuckets,
		SubstringSizes: sizes,
		MaxTextLength:  DefaultMaxTextLength,
	}
}

// HashVectorizer maps every byte substring of the configured lengths to a CRC32 bucket.
type HashVectorizer struct {
	buckets       int
	sizes         []int
	maxTextLength int
}

// NewHashVectorizer creates a HashVectorizer. Zero config fields fall back to the defaults.
// Substring sizes are kept in the given order; callers pass them ascending.
func NewHashVectorizer(config HashConfig) *HashVectorizer {
	def := DefaultHashConfig()
	if config.Buckets <= 0 {
		config.Buckets = def.Buckets
	}
	if len(config.SubstringSizes) == 0 {
		config.SubstringSizes = def.SubstringSizes
	}
	if config.MaxTextLength <= 0 {
		config.MaxTextLength = def.MaxTextLength
	}
	return &HashVectorizer{
		buckets:       config.Buckets,
		sizes:         slices.Clone(config.SubstringSizes),
		maxTextLength: config.MaxTextLength,
	}
}

// Buckets returns the number of hash buckets, which is also the output dimension.
func (hv *HashVectorizer) Buckets() int {
	return hv.buckets
}

// SubstringSizes returns a copy of the configured substring lengths.
func (hv *HashVectorizer) SubstringSizes() []int {
	return slices.Clone(hv.sizes)
}

// Config returns the configuration the vectorizer was built with.
func (hv *HashVectorizer) Config() HashConfig {
	return HashConfig{
		Buckets:        hv.buckets,
		SubstringSizes: hv.SubstringSizes(),
		MaxTextLength:  hv.maxTextLength,
	}
}

// Frequencies counts substring hashes per bucket.
// Text longer than the configured maximum is cut at that many bytes.
func (hv *HashVectorizer) Frequencies(text string) map[int]float64 {
	if len(text) > hv.maxTextLength {
		text = text[:hv.maxTextLength]
	}
	data := []byte(text)
	freqs := make(map[int]float64)
	buckets := uint64(hv.buckets)

	for _, size := range hv.sizes {
		if size <= 0 {
			continue
		}
		if size > len(data) {
			break
		}
		for i := 0; i+size <= len(data); i++ {
			h := crc32.ChecksumIEEE(data[i : i+size])
			freqs[int(uint64(h)%buckets)]++
		}
	}
	return freqs
}

// Vectorize returns the bucket frequencies of text as a sparse vector of dimension Buckets.
func (hv *HashVectorizer) Vectorize(text string) SparseVector {
	return FromFrequencies(hv.buckets, hv.Frequencies(text))
}
