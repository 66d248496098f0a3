package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/happyhackingspace/textcat"
)

// loadModel resolves the model in order: --model flag, TEXTCAT_MODEL, model.json
// near the working directory or in the cache, then a download from TEXTCAT_MODEL_URL.
func (c *CLI) loadModel(modelPath string) (*textcat.Classifier, error) {
	cl, err := c.resolveModel(modelPath)
	if err != nil {
		return nil, err
	}
	cl.SetWordLimits(c.cfg.MinWords, c.cfg.MaxWords)
	return cl, nil
}

func (c *CLI) resolveModel(modelPath string) (*textcat.Classifier, error) {
	if modelPath == "" {
		modelPath = c.cfg.ModelPath
	}
	if modelPath != "" {
		slog.Debug("Loading model", "path", modelPath)
		return textcat.Load(modelPath)
	}

	cl, err := textcat.New()
	if err == nil {
		return cl, nil
	}
	if c.cfg.ModelURL == "" {
		return nil, fmt.Errorf("%w; pass --model or set TEXTCAT_MODEL or TEXTCAT_MODEL_URL", err)
	}

	dest := filepath.Join(textcat.ModelDir(), textcat.DefaultModelFile)
	slog.Info("Model not found, downloading", "url", c.cfg.ModelURL, "dest", dest)
	if err := downloadModel(context.Background(), c.cfg.ModelURL, dest, c.cfg.FetchTimeout); err != nil {
		return nil, err
	}
	return textcat.Load(dest)
}

// downloadModel writes the document at url to dest, replacing it only on success.
func downloadModel(ctx context.Context, url, dest string, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("download model: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download model: HTTP %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "model-*.json")
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		// reject documents that would not load before replacing a working model
		var data []byte
		if data, err = os.ReadFile(tmp.Name()); err == nil {
			_, err = textcat.LoadJSON(string(data))
		}
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("download model: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("download model: %w", err)
	}

	slog.Info("Model downloaded", "size", fmt.Sprintf("%.1fMB", float64(written)/1024/1024))
	return nil
}
