package config

import "time"

// HighlightScope decides which part of the rendered surface the highlighter
// scans when a page first settles.
type HighlightScope string

const (
	ScopePage   HighlightScope = "page"
	ScopeGlobal HighlightScope = "global"
)

// LogFormat selects the log handler.
type LogFormat string

const (
	LogText LogFormat = "text"
	LogJSON LogFormat = "json"
)

// Config is the top-level transport-docs configuration, corresponding to .transport-docs.yml.
type Config struct {
	Port            int             `yaml:"port" koanf:"port"`
	BasePath        string          `yaml:"base_path" koanf:"base_path"`
	JavaBasePath    string          `yaml:"java_base_path" koanf:"java_base_path"` // empty disables the Java section
	SiteTitle       string          `yaml:"site_title" koanf:"site_title"`
	ContentDir      string          `yaml:"content_dir" koanf:"content_dir"`
	Watch           bool            `yaml:"watch" koanf:"watch"`
	DatabasePath    string          `yaml:"database_path" koanf:"database_path"`
	AllowAllOrigins bool            `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	SessionTTL      time.Duration   `yaml:"session_ttl" koanf:"session_ttl"`
	Highlight       HighlightConfig `yaml:"highlight" koanf:"highlight"`
	Log             LogConfig       `yaml:"log" koanf:"log"`
}

// HighlightConfig holds syntax highlighting settings.
type HighlightConfig struct {
	Style string         `yaml:"style" koanf:"style"`
	Scope HighlightScope `yaml:"scope" koanf:"scope"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string    `yaml:"level" koanf:"level"`
	Format LogFormat `yaml:"format" koanf:"format"`
}
