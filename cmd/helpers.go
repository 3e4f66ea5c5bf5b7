package cmd

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/vmware/transport-docs/internal/config"
	"github.com/vmware/transport-docs/internal/content"
	"github.com/vmware/transport-docs/internal/highlight"
	"github.com/vmware/transport-docs/internal/logging"
	"github.com/vmware/transport-docs/internal/router"
	"github.com/vmware/transport-docs/internal/routes"
	"github.com/vmware/transport-docs/internal/session"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `transport-docs init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: logging.Format(cfg.Log.Format),
		Output: os.Stderr,
	})
}

// contentSource returns the on-disk content directory when configured, or
// the pages compiled into the binary.
func contentSource(cfg *config.Config) fs.FS {
	if cfg.ContentDir != "" {
		return os.DirFS(cfg.ContentDir)
	}
	return content.Embedded()
}

// section is a route table served under a base path.
type section struct {
	name     string
	basePath string
	table    *routes.Table
}

// sections lists the configured documentation sections, TypeScript first.
func sections(cfg *config.Config) []section {
	out := []section{{name: "TypeScript", basePath: cfg.BasePath, table: routes.Default()}}
	if cfg.JavaBasePath != "" {
		out = append(out, section{name: "Java", basePath: cfg.JavaBasePath, table: routes.Java()})
	}
	return out
}

// loadLibrary loads the pages and checks that every page the sections'
// route tables name, plus the not-found page, has a source.
func loadLibrary(cfg *config.Config, secs []section) (*content.Library, error) {
	lib, err := content.Load(contentSource(cfg))
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	required := []string{routes.NotFoundPage}
	for _, sec := range secs {
		required = append(required, sec.table.Pages()...)
	}
	if err := lib.Validate(required); err != nil {
		return nil, fmt.Errorf("content does not cover the route tables: %w", err)
	}
	return lib, nil
}

// newRouterFactory returns the session factory for one section, shared by
// serve and check.
func newRouterFactory(cfg *config.Config, sec section, lib *content.Library, h highlight.Highlighter, logger *slog.Logger, observers ...router.Observer) session.Factory {
	renderer := content.NewRenderer()
	return func(id string) *router.SectionRouter {
		opts := []router.Option{
			router.WithSessionID(id),
			router.WithBasePath(sec.basePath),
			router.WithScope(highlight.Scope(cfg.Highlight.Scope)),
			router.WithRenderer(renderer),
			router.WithLogger(logger),
		}
		for _, o := range observers {
			opts = append(opts, router.WithObserver(o))
		}
		return router.New(sec.table, lib, h, opts...)
	}
}
