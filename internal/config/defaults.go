package config

import "time"

// DefaultConfigFile is the config path used when --config is not given.
const DefaultConfigFile = ".transport-docs.yml"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		BasePath:     "/typescript",
		JavaBasePath: "/java",
		SiteTitle:    "Transport",
		DatabasePath: "data/transport-docs.db",
		SessionTTL:   30 * time.Minute,
		Highlight: HighlightConfig{
			Style: "github",
			Scope: ScopePage,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogText,
		},
	}
}
