// Package textcat classifies web page text with a pre-trained linear model.
//
// The model is a JSON document holding a text transformation chain and a
// multi-class linear classifier. Page text is hashed into character n-gram
// buckets, scored, and the classes above the uniform probability are returned.
//
//	c, _ := textcat.Load("model.json")
//	res, _ := c.ClassifyHTML(htmlString)
//	for _, p := range res.Top {
//	    fmt.Println(p.Class, p.Score) // "crypto-crypto 0.41"
//	}
package textcat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/happyhackingspace/textcat/internal/htmlutil"
	"github.com/happyhackingspace/textcat/internal/textutil"
	"github.com/happyhackingspace/textcat/linear"
	"github.com/happyhackingspace/textcat/pipeline"
)

// DefaultModelFile is the model file name searched for by New.
const DefaultModelFile = "model.json"

// ErrNotInitialized is returned when a Classifier has no model loaded.
var ErrNotInitialized = errors.New("textcat: classifier not initialized")

// Classifier wraps a loaded pipeline together with the page word gate.
type Classifier struct {
	p    *pipeline.Pipeline
	gate textutil.Gate
}

// Result holds the classification of a single page.
type Result struct {
	// Classified is false when the page has too few words to be scored.
	Classified  bool                `json:"classified"`
	Words       int                 `json:"words"`
	Predictions map[string]float64  `json:"predictions"`
	Top         []linear.Prediction `json:"top"`
	Language    textutil.Language   `json:"language"`
	LocaleMatch bool                `json:"locale_match"`
	Title       string              `json:"title,omitempty"`
}

// Label returns the best class, or "" when nothing was predicted.
func (r Result) Label() string {
	if len(r.Top) == 0 {
		return ""
	}
	return r.Top[0].Class
}

// New loads the classifier from "model.json", searching the current directory
// and parent directories up to the module root (where go.mod lives), then ModelDir.
func New() (*Classifier, error) {
	path, err := findModel(DefaultModelFile)
	if err != nil {
		return nil, fmt.Errorf("textcat: %w", err)
	}
	return Load(path)
}

func findModel(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		// Stop at module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	cached := filepath.Join(ModelDir(), name)
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}
	return "", fmt.Errorf("%s not found", name)
}

// ModelDir returns the per-user directory where a downloaded model is cached.
func ModelDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "textcat")
	}
	return filepath.Join(os.TempDir(), "textcat")
}

// Load loads a classifier from a model file.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("textcat: %w", err)
	}
	return LoadJSON(string(data))
}

// LoadJSON loads a classifier from a model document.
func LoadJSON(data string) (*Classifier, error) {
	var p pipeline.Pipeline
	if err := p.Load(data); err != nil {
		return nil, fmt.Errorf("textcat: %w", err)
	}
	return FromPipeline(&p), nil
}

// FromPipeline wraps an initialized pipeline with the default word gate.
func FromPipeline(p *pipeline.Pipeline) *Classifier {
	return &Classifier{p: p, gate: textutil.DefaultGate()}
}

// SetWordLimits changes the word gate. Pages with fewer than minWords words are
// not classified and longer pages are cut to maxWords words. Zero disables a limit.
func (c *Classifier) SetWordLimits(minWords, maxWords int) {
	c.gate = textutil.Gate{MinWords: minWords, MaxWords: maxWords}
}

// Pipeline returns the underlying pipeline.
func (c *Classifier) Pipeline() *pipeline.Pipeline {
	return c.p
}

// Info returns the model metadata.
func (c *Classifier) Info() pipeline.Info {
	if c.p == nil {
		return pipeline.Info{}
	}
	return c.p.Info()
}

// Save writes the model document to path.
func (c *Classifier) Save(path string) error {
	if c.p == nil || !c.p.IsInitialized() {
		return ErrNotInitialized
	}
	data, err := c.p.MarshalJSON()
	if err != nil {
		return fmt.Errorf("textcat: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("textcat: %w", err)
	}
	return nil
}

// ClassifyText classifies plain page text after applying the word gate.
func (c *Classifier) ClassifyText(text string) (Result, error) {
	if c.p == nil || !c.p.IsInitialized() {
		return Result{}, ErrNotInitialized
	}

	gated, ok := c.gate.Apply(text)
	lang := textutil.DetectLanguage(gated)
	res := Result{
		Words:       textutil.CountWords(gated),
		Predictions: map[string]float64{},
		Top:         []linear.Prediction{},
		Language:    lang,
		LocaleMatch: textutil.MatchesLocale(lang, c.p.Locale()),
	}
	if !ok {
		return res, nil
	}

	res.Classified = true
	res.Predictions = c.p.ClassifyPage(gated)
	res.Top = linear.Rank(res.Predictions)
	return res, nil
}

// ClassifyHTML extracts the visible text of an HTML page and classifies it.
func (c *Classifier) ClassifyHTML(html string) (Result, error) {
	page, err := htmlutil.ParsePage(html)
	if err != nil {
		return Result{}, fmt.Errorf("textcat: %w", err)
	}
	res, err := c.ClassifyText(page.Text)
	if err != nil {
		return Result{}, err
	}
	res.Title = page.Title
	return res, nil
}
