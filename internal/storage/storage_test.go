package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://example.org/page", "example"},
		{"https://foo.example.co.uk/path", "example"},
		{"http://www.google.com", "google"},
		{"example.org", "example"},
		{"http://localhost:8080/path", "localhost"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, GetDomain(tt.url), "GetDomain(%q)", tt.url)
	}
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestIterSamples(t *testing.T) {
	req := require.New(t)
	dir := writeCorpus(t, map[string]string{
		"config.json": `{"NA_value": "?", "skip_value": "-", "simplify_map": {"btc": "crypto-crypto"}}`,
		"index.json": `{
			"pages/b.html": {"url": "https://news.zeta.com/b", "label": "btc"},
			"pages/a.html": {"url": "https://alpha.org/a", "label": "sports-soccer"},
			"pages/c.html": {"url": "https://alpha.org/c", "label": "?"},
			"pages/d.html": {"url": "https://beta.org/d", "label": "-"},
			"pages/e.html": {"url": "https://beta.org/e", "label": "sports-soccer"},
			"pages/missing.html": {"url": "https://beta.org/m", "label": "sports-soccer"}
		}`,
		"pages/a.html": "<p>goal</p>",
		"pages/b.html": "<p>bitcoin</p>",
		"pages/c.html": "<p>unknown</p>",
		"pages/d.html": "<p>skipped</p>",
		"pages/e.html": "<p>goal</p>",
	})

	samples, err := NewStorage(dir).IterSamples(DefaultIterOptions())
	req.NoError(err)
	req.Len(samples, 2)

	// alpha < zeta; e.html duplicates a.html
	req.Equal("pages/a.html", samples[0].Path)
	req.Equal("alpha", samples[0].Domain())
	req.Equal("pages/b.html", samples[1].Path)
	req.Equal("crypto-crypto", samples[1].Label)
	req.Equal("btc", samples[1].RawLabel)
	req.Equal("<p>bitcoin</p>", samples[1].HTML)
	req.Equal([]string{"crypto-crypto", "sports-soccer"}, Labels(samples))
}

func TestIterSamplesKeepEverything(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"index.json": `{
			"a.html": {"url": "https://alpha.org/a", "label": "x"},
			"b.html": {"url": "https://alpha.org/b", "label": "x"}
		}`,
		"a.html": "same",
		"b.html": "same",
	})

	samples, err := NewStorage(dir).IterSamples(IterOptions{})
	require.NoError(t, err)
	require.Len(t, samples, 2)
}

func TestIterSamplesMissingIndex(t *testing.T) {
	_, err := NewStorage(t.TempDir()).IterSamples(DefaultIterOptions())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestGetSchemaMissingConfig(t *testing.T) {
	schema, err := NewStorage(t.TempDir()).GetSchema()
	require.NoError(t, err)
	require.Empty(t, schema.Classes)
	require.NotNil(t, schema.SimplifyMap)
}
