package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "TRANSPORTDOCS_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (TRANSPORTDOCS_*). A double underscore
// descends into a nested key: TRANSPORTDOCS_HIGHLIGHT__STYLE -> highlight.style.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps TRANSPORTDOCS_LOG__LEVEL to log.level.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validScopes = map[HighlightScope]bool{
	ScopePage:   true,
	ScopeGlobal: true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[LogFormat]bool{
	LogText: true,
	LogJSON: true,
}

func validateBasePath(key, p string) error {
	if p == "/" {
		return fmt.Errorf("%s must not be the site root", key)
	}
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("%s %q must start with /", key, p)
	}
	if strings.HasSuffix(p, "/") {
		return fmt.Errorf("%s %q must not end with /", key, p)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	if c.BasePath == "" {
		return fmt.Errorf("base_path is required")
	}
	if err := validateBasePath("base_path", c.BasePath); err != nil {
		return err
	}
	if c.JavaBasePath != "" {
		if err := validateBasePath("java_base_path", c.JavaBasePath); err != nil {
			return err
		}
		if c.JavaBasePath == c.BasePath {
			return fmt.Errorf("java_base_path %q collides with base_path", c.JavaBasePath)
		}
	}

	if c.Watch && c.ContentDir == "" {
		return fmt.Errorf("watch requires content_dir")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}

	if c.Highlight.Style == "" {
		return fmt.Errorf("highlight.style is required")
	}
	if !validScopes[c.Highlight.Scope] {
		return fmt.Errorf("invalid highlight.scope %q: must be one of page, global", c.Highlight.Scope)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log.format %q: must be one of text, json", c.Log.Format)
	}

	return nil
}
