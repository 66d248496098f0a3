package textcat

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/happyhackingspace/textcat/internal/storage"
)

// Unclassified is the predicted label of a page the model did not score.
const Unclassified = "-"

// EvalConfig holds configuration for evaluation.
type EvalConfig struct {
	Verbose bool
}

// EvalResult holds the scores of a model over a labelled page folder.
type EvalResult struct {
	Accuracy   float64
	Correct    int
	Total      int
	Skipped    int // pages below the word gate or without a prediction
	Domains    int
	MacroF1    float64
	WeightedF1 float64

	// Confusion maps true label -> predicted label -> count.
	Confusion map[string]map[string]int
	Classes   []string
	Precision map[string]float64
	Recall    map[string]float64
	F1        map[string]float64
}

// Evaluate classifies every labelled page in dataDir and compares the best
// class with the page label.
func (c *Classifier) Evaluate(dataDir string, config *EvalConfig) (*EvalResult, error) {
	verbose := false
	if config != nil {
		verbose = config.Verbose
	}

	store := storage.NewStorage(dataDir)
	opts := storage.DefaultIterOptions()
	opts.Verbose = verbose
	samples, err := store.IterSamples(opts)
	if err != nil {
		return nil, fmt.Errorf("textcat: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("textcat: no labelled pages found in %s", dataDir)
	}

	result := &EvalResult{Confusion: make(map[string]map[string]int)}
	domains := make(map[string]bool)

	for _, s := range samples {
		domains[s.Domain()] = true

		res, err := c.ClassifyHTML(s.HTML)
		if err != nil {
			return nil, err
		}
		predicted := res.Label()
		if predicted == "" {
			predicted = Unclassified
			result.Skipped++
		}
		if verbose {
			slog.Debug("Evaluated page", "path", s.Path, "label", s.Label, "predicted", predicted, "words", res.Words)
		}

		if result.Confusion[s.Label] == nil {
			result.Confusion[s.Label] = make(map[string]int)
		}
		result.Confusion[s.Label][predicted]++
		if predicted == s.Label {
			result.Correct++
		}
		result.Total++
	}

	result.Domains = len(domains)
	result.Accuracy = float64(result.Correct) / float64(result.Total)
	result.Classes = storage.Labels(samples)
	result.computeF1()
	return result, nil
}

// computeF1 fills per-class precision, recall and F1 from the confusion matrix.
func (r *EvalResult) computeF1() {
	r.Precision = make(map[string]float64, len(r.Classes))
	r.Recall = make(map[string]float64, len(r.Classes))
	r.F1 = make(map[string]float64, len(r.Classes))

	predictedTotals := make(map[string]int)
	for _, row := range r.Confusion {
		for pred, n := range row {
			predictedTotals[pred] += n
		}
	}

	var weighted float64
	for _, cls := range r.Classes {
		tp := r.Confusion[cls][cls]
		support := 0
		for _, n := range r.Confusion[cls] {
			support += n
		}

		if predictedTotals[cls] > 0 {
			r.Precision[cls] = float64(tp) / float64(predictedTotals[cls])
		}
		if support > 0 {
			r.Recall[cls] = float64(tp) / float64(support)
		}
		if p, rc := r.Precision[cls], r.Recall[cls]; p+rc > 0 {
			r.F1[cls] = 2 * p * rc / (p + rc)
		}
		r.MacroF1 += r.F1[cls]
		weighted += r.F1[cls] * float64(support)
	}
	if len(r.Classes) > 0 {
		r.MacroF1 /= float64(len(r.Classes))
	}
	if r.Total > 0 {
		r.WeightedF1 = weighted / float64(r.Total)
	}
}

// Support returns the number of pages labelled cls.
func (r *EvalResult) Support(cls string) int {
	n := 0
	for _, v := range r.Confusion[cls] {
		n += v
	}
	return n
}

// ClassesBySupport returns the classes ordered by support, largest first.
func (r *EvalResult) ClassesBySupport() []string {
	classes := append([]string(nil), r.Classes...)
	sort.SliceStable(classes, func(i, j int) bool {
		return r.Support(classes[i]) > r.Support(classes[j])
	})
	return classes
}
