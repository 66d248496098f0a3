package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	req := require.New(t)

	cfg, err := FromEnvSet(env.EnvSet{})
	req.NoError(err)
	req.Empty(cfg.ModelPath)
	req.Equal("info", cfg.LogLevel)
	req.Equal(20, cfg.MinWords)
	req.Equal(1234, cfg.MaxWords)
	req.Equal(":8080", cfg.ListenAddr)
	req.Equal(int64(5242880), cfg.MaxBodyBytes)
	req.Equal(15*time.Second, cfg.ReadTimeout)
	req.Equal(30*time.Second, cfg.FetchTimeout)
	req.False(cfg.Render)
	req.Equal(slog.LevelInfo, cfg.Level())
}

func TestOverrides(t *testing.T) {
	req := require.New(t)

	cfg, err := FromEnvSet(env.EnvSet{
		"TEXTCAT_MODEL":          "/models/topics.json",
		"TEXTCAT_MODEL_URL":      "https://models.example.org/topics.json",
		"TEXTCAT_LOG_LEVEL":      "debug",
		"TEXTCAT_MIN_WORDS":      "5",
		"TEXTCAT_MAX_WORDS":      "0",
		"TEXTCAT_LISTEN_ADDR":    "127.0.0.1:9000",
		"TEXTCAT_FETCH_TIMEOUT":  "2s",
		"TEXTCAT_RENDER":         "true",
		"TEXTCAT_MAX_BODY_BYTES": "1024",
	})
	req.NoError(err)
	req.Equal("/models/topics.json", cfg.ModelPath)
	req.Equal("https://models.example.org/topics.json", cfg.ModelURL)
	req.Equal(slog.LevelDebug, cfg.Level())
	req.Equal(5, cfg.MinWords)
	req.Equal(0, cfg.MaxWords)
	req.Equal("127.0.0.1:9000", cfg.ListenAddr)
	req.Equal(2*time.Second, cfg.FetchTimeout)
	req.True(cfg.Render)
	req.Equal(int64(1024), cfg.MaxBodyBytes)
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		es   env.EnvSet
	}{
		{"unknown log level", env.EnvSet{"TEXTCAT_LOG_LEVEL": "loud"}},
		{"negative min words", env.EnvSet{"TEXTCAT_MIN_WORDS": "-1"}},
		{"max below min", env.EnvSet{"TEXTCAT_MIN_WORDS": "50", "TEXTCAT_MAX_WORDS": "10"}},
		{"zero body limit", env.EnvSet{"TEXTCAT_MAX_BODY_BYTES": "0"}},
		{"bad model url", env.EnvSet{"TEXTCAT_MODEL_URL": "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnvSet(tt.es)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := FromEnvSet(env.EnvSet{"TEXTCAT_MIN_WORDS": "many"})
	require.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TEXTCAT_TEST_ONLY_MODEL=x\nTEXTCAT_MIN_WORDS=7\n"), 0o644))

	// godotenv does not override variables that are already set
	t.Setenv("TEXTCAT_MIN_WORDS", "3")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.MinWords)
	require.Equal(t, "x", os.Getenv("TEXTCAT_TEST_ONLY_MODEL"))
	_ = os.Unsetenv("TEXTCAT_TEST_ONLY_MODEL")

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoadReadsProcessEnvironment(t *testing.T) {
	t.Setenv("TEXTCAT_LOG_LEVEL", "warn")
	t.Setenv("TEXTCAT_MAX_WORDS", "40")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, cfg.Level())
	require.Equal(t, 40, cfg.MaxWords)
}
