// Package config loads the ember command's settings from a YAML file.
//
// A missing file is not an error: Load then returns Default(). Unknown keys
// are rejected so that typos do not silently fall back to defaults.
//
//	repl:
//	  prompt: "ember> "
//	  continuation_prompt: "  ...> "
//	  history_file: .ember_history
//	  color: true
//	log:
//	  level: warn
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the file name Load looks for when none is given.
const DefaultFile = "ember.yaml"

// Config is the full configuration.
type Config struct {
	REPL REPL `yaml:"repl"`
	Log  Log  `yaml:"log"`

	// Path is the absolute path the configuration was read from, empty for
	// defaults.
	Path string `yaml:"-"`
}

// REPL configures the interactive prompt.
type REPL struct {
	Prompt             string `yaml:"prompt"`
	ContinuationPrompt string `yaml:"continuation_prompt"`
	// HistoryFile is resolved against the home directory when relative.
	HistoryFile string `yaml:"history_file"`
	Color       bool   `yaml:"color"`
}

// Log configures diagnostics logging.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		REPL: REPL{
			Prompt:             "ember> ",
			ContinuationPrompt: "  ...> ",
			HistoryFile:        ".ember_history",
			Color:              true,
		},
		Log: Log{Level: "warn"},
	}
}

// Load reads the configuration at path, or DefaultFile in the working
// directory when path is empty. Keys absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}

	cfg := Default()
	file, err := os.Open(abs)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	// An empty file decodes to io.EOF and leaves the defaults in place.
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}
	cfg.Path = abs
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", abs, err)
	}
	return cfg, nil
}

// Write serialises cfg to path.
func Write(cfg *Config, path string) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("config: marshal %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encoder close: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.REPL.Prompt) == "" {
		return fmt.Errorf("repl.prompt must not be empty")
	}
	if strings.TrimSpace(c.REPL.ContinuationPrompt) == "" {
		return fmt.Errorf("repl.continuation_prompt must not be empty")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l Log) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level %q is not one of debug, info, warn, error", l.Level)
}

// HistoryPath returns the REPL history file as an absolute path, or "" if
// history is disabled or the home directory is unknown.
func (r REPL) HistoryPath() string {
	if r.HistoryFile == "" {
		return ""
	}
	if filepath.IsAbs(r.HistoryFile) {
		return r.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, r.HistoryFile)
}
