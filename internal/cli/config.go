// Package cli implements the coerce command line: validating documents
// against a core schema, projecting schemas to JSON Schema and listing the
// error kinds.
package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reoring/coerce"
)

// Config is the settings file accepted by --config. Command line flags that
// are set explicitly take precedence over it.
type Config struct {
	Strict bool `yaml:"strict"`
	// MaxDepth bounds container nesting for parsing and validation; 0 keeps
	// the defaults.
	MaxDepth int `yaml:"max_depth"`
	// MaxBytes caps each document's size; 0 means unlimited.
	MaxBytes int64 `yaml:"max_bytes"`
	// DuplicateKeys is "ignore", "warn" or "error".
	DuplicateKeys string `yaml:"duplicate_keys"`
	// Language selects the message language ("en" or "ja").
	Language string `yaml:"language"`
	// Format is "text", "json" or "yaml".
	Format  string `yaml:"format"`
	Workers int    `yaml:"workers"`
}

// DefaultConfig is used when no config file is given.
func DefaultConfig() Config {
	return Config{DuplicateKeys: "error", Language: "en", Format: FormatText}
}

// LoadConfig reads path on top of DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, cfg.Check()
}

// Check reports the first invalid setting.
func (c Config) Check() error {
	if _, err := c.severity(); err != nil {
		return err
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("invalid format %q: must be text, json or yaml", c.Format)
	}
	switch c.Language {
	case "", "en", "ja":
	default:
		return fmt.Errorf("invalid language %q: must be en or ja", c.Language)
	}
	if c.MaxDepth < 0 || c.MaxBytes < 0 || c.Workers < 0 {
		return errors.New("max_depth, max_bytes and workers must not be negative")
	}
	return nil
}

func (c Config) severity() (coerce.Severity, error) {
	switch c.DuplicateKeys {
	case "", "error":
		return coerce.Error, nil
	case "warn":
		return coerce.Warn, nil
	case "ignore":
		return coerce.Ignore, nil
	}
	return coerce.Ignore, fmt.Errorf("invalid duplicate_keys %q: must be ignore, warn or error", c.DuplicateKeys)
}

// ParseOpt converts the document settings.
func (c Config) ParseOpt() coerce.ParseOpt {
	sev, _ := c.severity()
	return coerce.ParseOpt{
		Strictness: coerce.Strictness{OnDuplicateKey: sev},
		MaxDepth:   c.MaxDepth,
		MaxBytes:   c.MaxBytes,
	}
}
