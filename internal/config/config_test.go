package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.MaxFileSize != 1<<20 {
		t.Errorf("expected 1 MiB max file size, got %d", cfg.MaxFileSize)
	}
	if !cfg.ExtractDocstrings || !cfg.TrackCallSites {
		t.Error("expected docstrings and call sites enabled by default")
	}
	if cfg.EnableEmbeddings {
		t.Error("expected embeddings disabled by default")
	}
	want := map[string]bool{"**/*.rs": true, "**/*.go": true, "**/*.java": true}
	for _, p := range cfg.Include {
		delete(want, p)
	}
	if len(want) != 0 {
		t.Errorf("missing include patterns: %v", want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.RootDir = root
	cfg.MaxFileSize = 2048
	cfg.EnableEmbeddings = true

	if err := Save(root, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Atomic write leaves no temp file behind.
	if _, err := os.Stat(Path(root) + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp config file left behind")
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.MaxFileSize != 2048 || !loaded.EnableEmbeddings {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if loaded.RootDir != root {
		t.Errorf("expected root %s, got %s", root, loaded.RootDir)
	}
}

func TestLoadMissingGivesDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RootDir != root {
		t.Errorf("expected root dir %s, got %s", root, cfg.RootDir)
	}
	if cfg.Version != 1 {
		t.Errorf("expected default config, got %+v", cfg)
	}
}

func TestLoadMalformedFails(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(DirPath(root), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(Path(root), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestShouldInclude(t *testing.T) {
	cfg := Default()
	cases := map[string]bool{
		"src/main.rs":              true,
		"pkg/util/helpers.go":      true,
		"com/example/App.java":     true,
		"main.go":                  true,
		"README.md":                false,
		"target/debug/build.rs":    false,
		".git/hooks/pre-commit.go": false,
		".codegraph/codegraph.db":  false,
		"vendor/dep/dep.go":        false,
		"assets/app.min.js":        false,
	}
	for path, want := range cases {
		if got := cfg.ShouldInclude(path); got != want {
			t.Errorf("ShouldInclude(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestExcludeTakesPrecedence(t *testing.T) {
	cfg := Default()
	cfg.Include = []string{"**/*.go"}
	cfg.Exclude = []string{"gen/**"}
	if cfg.ShouldInclude("gen/models.go") {
		t.Error("exclude must take precedence over include")
	}
	if !cfg.ShouldInclude("src/models.go") {
		t.Error("non-excluded file should be included")
	}
}

func TestDBPath(t *testing.T) {
	got := DBPath("/proj")
	want := filepath.Join("/proj", ".codegraph", "codegraph.db")
	if got != want {
		t.Errorf("DBPath = %q, want %q", got, want)
	}
}
