package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.BasePath != "/typescript" {
		t.Errorf("expected default base_path %q, got %q", "/typescript", cfg.BasePath)
	}
	if cfg.Highlight.Scope != ScopePage {
		t.Errorf("expected default scope %q, got %q", ScopePage, cfg.Highlight.Scope)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected default session_ttl 30m, got %s", cfg.SessionTTL)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.transport-docs.yml")

	original := DefaultConfig()
	original.Port = 9090
	original.BasePath = "/docs"
	original.ContentDir = "content"
	original.Watch = true
	original.SessionTTL = 5 * time.Minute
	original.Highlight.Style = "monokai"
	original.Highlight.Scope = ScopeGlobal
	original.Log.Format = LogJSON

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Port != original.Port {
		t.Errorf("port: got %d, want %d", loaded.Port, original.Port)
	}
	if loaded.BasePath != original.BasePath {
		t.Errorf("base_path: got %q, want %q", loaded.BasePath, original.BasePath)
	}
	if loaded.ContentDir != original.ContentDir || !loaded.Watch {
		t.Errorf("content: got %q watch=%v", loaded.ContentDir, loaded.Watch)
	}
	if loaded.SessionTTL != original.SessionTTL {
		t.Errorf("session_ttl: got %s, want %s", loaded.SessionTTL, original.SessionTTL)
	}
	if loaded.Highlight != original.Highlight {
		t.Errorf("highlight: got %+v, want %+v", loaded.Highlight, original.Highlight)
	}
	if loaded.Log.Format != LogJSON {
		t.Errorf("log.format: got %q, want %q", loaded.Log.Format, LogJSON)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.BasePath != "/typescript" {
		t.Errorf("expected default base_path, got %q", cfg.BasePath)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("TRANSPORTDOCS_PORT", "7070")
	t.Setenv("TRANSPORTDOCS_HIGHLIGHT__STYLE", "dracula")
	t.Setenv("TRANSPORTDOCS_SESSION_TTL", "90s")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Port != 7070 {
		t.Errorf("env override failed: got port %d, want 7070", loaded.Port)
	}
	if loaded.Highlight.Style != "dracula" {
		t.Errorf("nested env override failed: got %q, want dracula", loaded.Highlight.Style)
	}
	if loaded.SessionTTL != 90*time.Second {
		t.Errorf("duration env override failed: got %s", loaded.SessionTTL)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"TRANSPORTDOCS_PORT", "port"},
		{"TRANSPORTDOCS_BASE_PATH", "base_path"},
		{"TRANSPORTDOCS_LOG__LEVEL", "log.level"},
	}
	for _, tt := range tests {
		if got := envKey(tt.input); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"negative port", func(c *Config) { c.Port = -1 }, true},
		{"root base path", func(c *Config) { c.BasePath = "/" }, true},
		{"relative base path", func(c *Config) { c.BasePath = "typescript" }, true},
		{"trailing slash", func(c *Config) { c.BasePath = "/typescript/" }, true},
		{"empty base path", func(c *Config) { c.BasePath = "" }, true},
		{"java disabled", func(c *Config) { c.JavaBasePath = "" }, false},
		{"relative java path", func(c *Config) { c.JavaBasePath = "java" }, true},
		{"java collides", func(c *Config) { c.JavaBasePath = c.BasePath }, true},
		{"watch without dir", func(c *Config) { c.Watch = true }, true},
		{"watch with dir", func(c *Config) { c.Watch = true; c.ContentDir = "content" }, false},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, true},
		{"empty style", func(c *Config) { c.Highlight.Style = "" }, true},
		{"bad scope", func(c *Config) { c.Highlight.Scope = "section" }, true},
		{"global scope", func(c *Config) { c.Highlight.Scope = ScopeGlobal }, false},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeBasePath(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"typescript", "/typescript"},
		{" /java/ ", "/java"},
		{"", "/typescript"},
		{"/", "/typescript"},
	}
	for _, tt := range tests {
		if got := normalizeBasePath(tt.input); got != tt.want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
