// Package config handles the .codegraph/config.json project configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// Dir is the hidden directory holding CodeGraph metadata.
	Dir = ".codegraph"
	// FileName is the configuration file inside Dir.
	FileName = "config.json"
	// DBName is the SQLite database inside Dir.
	DBName = "codegraph.db"
)

// Config controls which files are indexed, size limits, and feature
// toggles.
type Config struct {
	Version           int      `json:"version"`
	RootDir           string   `json:"root_dir"`
	Include           []string `json:"include"`
	Exclude           []string `json:"exclude"`
	MaxFileSize       int64    `json:"max_file_size"`
	ExtractDocstrings bool     `json:"extract_docstrings"`
	TrackCallSites    bool     `json:"track_call_sites"`
	EnableEmbeddings  bool     `json:"enable_embeddings"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Include: []string{"**/*.rs", "**/*.go", "**/*.java"},
		Exclude: []string{
			"target/**",
			".git/**",
			".codegraph/**",
			"node_modules/**",
			"vendor/**",
			"**/*.min.*",
			"bin/**",
			"build/**",
			"out/**",
			".gradle/**",
		},
		MaxFileSize:       1 << 20,
		ExtractDocstrings: true,
		TrackCallSites:    true,
	}
}

// DirPath returns the .codegraph directory under a project root.
func DirPath(root string) string {
	return filepath.Join(root, Dir)
}

// Path returns the config file path under a project root.
func Path(root string) string {
	return filepath.Join(root, Dir, FileName)
}

// DBPath returns the database path under a project root.
func DBPath(root string) string {
	return filepath.Join(root, Dir, DBName)
}

// Load reads the configuration for a project root. A missing file yields the
// defaults with RootDir set; a malformed file is a configuration error and
// fatal to the invoking command.
func Load(root string) (*Config, error) {
	path := Path(root)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.RootDir = root
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration atomically: a temp file in the same
// directory is renamed over the final path so a partial write never
// corrupts it.
func Save(root string, cfg *Config) error {
	dir := DirPath(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	path := Path(root)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ShouldInclude reports whether a slash-separated path relative to the
// project root is indexed: it must match at least one include pattern and no
// exclude pattern. Exclude patterns take precedence.
func (c *Config) ShouldInclude(relPath string) bool {
	for _, pattern := range c.Exclude {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return false
		}
	}
	for _, pattern := range c.Include {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}
