// Package config handles fern.toml tool configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file fern looks for.
const FileName = "fern.toml"

// Config represents a fern.toml file.
type Config struct {
	REPL   REPL   `toml:"repl"`
	Server Server `toml:"server"`
	Log    Log    `toml:"log"`

	// Dir is the directory the file was loaded from (set at load time).
	Dir string `toml:"-"`
}

// REPL configures the interactive prompt.
type REPL struct {
	Prompt  string `toml:"prompt"`
	History string `toml:"history"` // path to the history database
}

// Server configures the evaluation server.
type Server struct {
	Addr string `toml:"addr"`
}

// Log configures logging.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no fern.toml exists.
func Default() *Config {
	return &Config{
		REPL:   REPL{Prompt: "> "},
		Server: Server{Addr: ":4567"},
	}
}

// Load parses a fern.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	cfg.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// FindAndLoad walks up from startDir to find a fern.toml file, then loads
// and returns it. Returns the defaults if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}

// HistoryPath returns the configured history database path, or the default
// under the user's home directory.
func (c *Config) HistoryPath() string {
	if c.REPL.History != "" {
		if filepath.IsAbs(c.REPL.History) || c.Dir == "" {
			return c.REPL.History
		}
		return filepath.Join(c.Dir, c.REPL.History)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fern", "history.db")
}

func applyDefaults(c *Config) {
	if c.REPL.Prompt == "" {
		c.REPL.Prompt = "> "
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":4567"
	}
}
