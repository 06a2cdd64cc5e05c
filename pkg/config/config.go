// Package config loads the nodegen YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvAPIToken   = "REPLICATE_API_TOKEN"
	EnvBaseURL    = "REPLICATE_BASE_URL"
	EnvSchemasDir = "NODEGEN_SCHEMAS_DIR"
)

// Config is the full configuration tree.
type Config struct {
	Schemas   Schemas   `yaml:"schemas"`
	Replicate Replicate `yaml:"replicate"`
	Nodes     Nodes     `yaml:"nodes"`
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
}

// Schemas locates the model documents.
type Schemas struct {
	Dir       string `yaml:"dir"`
	Pattern   string `yaml:"pattern"`
	ModelList string `yaml:"model_list"`
	Validate  bool   `yaml:"validate"`
}

// Replicate configures the remote inference client.
type Replicate struct {
	BaseURL      string        `yaml:"base_url"`
	Token        string        `yaml:"token"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Wait         time.Duration `yaml:"wait"`
}

// Nodes configures binding compilation.
type Nodes struct {
	Prefix string `yaml:"prefix"`
}

// Server configures the HTTP surface.
type Server struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"`
}

// Log configures the default slog handler.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Schemas: Schemas{
			Dir:       "schemas",
			Pattern:   "*.json",
			ModelList: "supported_models.json",
		},
		Replicate: Replicate{
			BaseURL:      "https://api.replicate.com/v1",
			PollInterval: time.Second,
			Wait:         60 * time.Second,
		},
		Nodes:  Nodes{Prefix: "Replicate"},
		Server: Server{Addr: ":8080", Mode: "release"},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path yields the defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if value, ok := lookup(EnvAPIToken); ok && value != "" {
		c.Replicate.Token = value
	}
	if value, ok := lookup(EnvBaseURL); ok && value != "" {
		c.Replicate.BaseURL = value
	}
	if value, ok := lookup(EnvSchemasDir); ok && value != "" {
		c.Schemas.Dir = value
	}
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Schemas.Dir) == "" {
		errs = append(errs, errors.New("config: schemas.dir is required"))
	}
	if c.Replicate.PollInterval <= 0 {
		errs = append(errs, errors.New("config: replicate.poll_interval must be positive"))
	}
	if c.Replicate.Wait < 0 || c.Replicate.Wait > 60*time.Second {
		errs = append(errs, errors.New("config: replicate.wait must be between 0s and 60s"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("config: unknown server.mode %q", c.Server.Mode))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds a slog logger writing to w per the Log settings.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	level, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
