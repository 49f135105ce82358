// Package config loads the eir.yaml project file.
//
//	passes: [remove_unreachable, propagate_atomics]
//	validate: true
//	output:
//	  format: text
//	store:
//	  path: .eir/builds.db
//
// Every field is optional; absent fields keep their defaults. Unknown fields
// are errors, so a misspelled key never silently falls back to a default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eir/internal/pass"
)

// FileName is the configuration file looked up in a project directory.
const FileName = "eir.yaml"

// Formats are the accepted output formats.
var Formats = []string{"text", "json"}

// Config is the project configuration.
type Config struct {
	// Passes run on every function, in order.
	Passes []string `yaml:"passes"`

	// Validate runs ir.Validate after every pass.
	Validate bool `yaml:"validate"`

	Output OutputConfig `yaml:"output"`
	Store  StoreConfig  `yaml:"store"`
}

// OutputConfig controls command output.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// StoreConfig locates the build database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Passes:   slices.Clone(pass.DefaultPasses),
		Validate: true,
		Output:   OutputConfig{Format: "text"},
		Store:    StoreConfig{Path: filepath.Join(".eir", "builds.db")},
	}
}

// Load reads path. A missing file is an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find loads FileName from dir, or returns Default when dir has none.
func Find(dir string) (Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes and validates configuration YAML over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Check(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Check reports the first invalid setting.
func (c Config) Check() error {
	for i, name := range c.Passes {
		if _, err := pass.Lookup(name); err != nil {
			return fmt.Errorf("passes[%d]: %w", i, err)
		}
	}
	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("output.format %q: must be one of %v", c.Output.Format, Formats)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	return nil
}
