// Package config reads textcat settings from TEXTCAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds runtime settings shared by the CLI and the HTTP server.
type Config struct {
	ModelPath string `env:"TEXTCAT_MODEL"`
	ModelURL  string `env:"TEXTCAT_MODEL_URL" validate:"omitempty,url"`
	LogLevel  string `env:"TEXTCAT_LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`

	MinWords int `env:"TEXTCAT_MIN_WORDS,default=20" validate:"gte=0"`
	MaxWords int `env:"TEXTCAT_MAX_WORDS,default=1234" validate:"gte=0"`

	ListenAddr      string        `env:"TEXTCAT_LISTEN_ADDR,default=:8080" validate:"required"`
	MaxBodyBytes    int64         `env:"TEXTCAT_MAX_BODY_BYTES,default=5242880" validate:"gt=0"`
	ReadTimeout     time.Duration `env:"TEXTCAT_READ_TIMEOUT,default=15s" validate:"gt=0"`
	WriteTimeout    time.Duration `env:"TEXTCAT_WRITE_TIMEOUT,default=30s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"TEXTCAT_SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`

	FetchTimeout time.Duration `env:"TEXTCAT_FETCH_TIMEOUT,default=30s" validate:"gt=0"`
	Render       bool          `env:"TEXTCAT_RENDER,default=false"`
}

// ErrInvalid is returned when a setting is out of range.
var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New()

// Load reads envFile into the process environment, when it exists, and then
// parses the environment. An empty envFile means ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return FromEnvSet(es)
}

// FromEnvSet parses and validates settings from es.
func FromEnvSet(es env.EnvSet) (Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.MaxWords > 0 && c.MaxWords < c.MinWords {
		return fmt.Errorf("%w: TEXTCAT_MAX_WORDS (%d) is below TEXTCAT_MIN_WORDS (%d)", ErrInvalid, c.MaxWords, c.MinWords)
	}
	return nil
}

// Level returns LogLevel as a slog level.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
