package textcat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/happyhackingspace/textcat/internal/testmodel"
	"github.com/stretchr/testify/require"
)

func writeEvalCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	index := map[string]map[string]string{}

	write := func(name, url, label, body string) {
		html := fmt.Sprintf("<html><body><p>%s</p></body></html>", body)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(html), 0o644))
		index[name] = map[string]string{"url": url, "label": label}
	}
	write("crypto.html", "https://coins.example.com/news", "crypto-crypto", testmodel.Pages["crypto-crypto"])
	write("soccer.html", "https://www.league.org/match", "sports-soccer", testmodel.Pages["sports-soccer"])
	// labelled soccer, but the text is about cooking
	write("wrong.html", "https://league.org/recipes", "sports-soccer", testmodel.Pages["food-cooking"])
	write("short.html", "https://short.net/", "food-cooking", "too few words")

	data, err := json.Marshal(index)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), data, 0o644))
	return dir
}

func TestEvaluate(t *testing.T) {
	req := require.New(t)
	c := newTestClassifier(t)

	result, err := c.Evaluate(writeEvalCorpus(t), &EvalConfig{})
	req.NoError(err)

	req.Equal(4, result.Total)
	req.Equal(2, result.Correct)
	req.Equal(1, result.Skipped)
	req.Equal(3, result.Domains)
	req.InDelta(0.5, result.Accuracy, 1e-12)
	req.Equal([]string{"crypto-crypto", "food-cooking", "sports-soccer"}, result.Classes)

	req.Equal(1, result.Confusion["sports-soccer"]["food-cooking"])
	req.Equal(1, result.Confusion["food-cooking"][Unclassified])
	req.Equal(2, result.Support("sports-soccer"))
	req.Equal("sports-soccer", result.ClassesBySupport()[0])

	req.InDelta(1.0, result.Precision["crypto-crypto"], 1e-12)
	req.InDelta(1.0, result.Recall["crypto-crypto"], 1e-12)
	req.InDelta(1.0, result.Precision["sports-soccer"], 1e-12)
	req.InDelta(0.5, result.Recall["sports-soccer"], 1e-12)
	req.InDelta(0.0, result.F1["food-cooking"], 1e-12)
	req.InDelta((1.0+2.0/3+0)/3, result.MacroF1, 1e-12)
}

func TestEvaluateEmptyFolder(t *testing.T) {
	c := newTestClassifier(t)

	_, err := c.Evaluate(t.TempDir(), nil)
	require.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte("{}"), 0o644))
	_, err = c.Evaluate(dir, nil)
	require.ErrorContains(t, err, "no labelled pages")
}
