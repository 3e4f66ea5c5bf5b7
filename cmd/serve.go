package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmware/transport-docs/internal/audit"
	"github.com/vmware/transport-docs/internal/content"
	"github.com/vmware/transport-docs/internal/db"
	"github.com/vmware/transport-docs/internal/highlight"
	"github.com/vmware/transport-docs/internal/server"
	"github.com/vmware/transport-docs/internal/session"
	"github.com/vmware/transport-docs/internal/shell"
)

var (
	servePort      int
	serveRetention time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the documentation server",
	Long: `Serves the welcome page at / and each documentation section under its
configured base path (TypeScript at base_path, Java at java_base_path).
Page lifecycle events are recorded in the SQLite database and exposed at
/api/events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		logger := newLogger(cfg)

		secs := sections(cfg)
		lib, err := loadLibrary(cfg, secs)
		if err != nil {
			return err
		}

		chroma, err := highlight.NewChroma(cfg.Highlight.Style)
		if err != nil {
			return err
		}

		// Open database.
		database, err := db.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()
		auditStore := audit.NewStore(database, audit.WithLogger(logger))

		links := make([]shell.Link, 0, len(secs))
		for _, sec := range secs {
			links = append(links, shell.Link{Name: sec.name, Href: sec.basePath})
		}
		served := make([]server.Section, 0, len(secs))
		for _, sec := range secs {
			sh, err := shell.New(shell.Options{SiteTitle: cfg.SiteTitle, BasePath: sec.basePath, Sections: links})
			if err != nil {
				return err
			}
			sessions := session.NewManager(
				newRouterFactory(cfg, sec, lib, chroma, logger, auditStore),
				cfg.SessionTTL,
				session.WithLogger(logger),
			)
			defer sessions.Close()
			served = append(served, server.Section{
				Name:     sec.name,
				Table:    sec.table,
				Shell:    sh,
				Sessions: sessions,
			})
		}

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.AllowAllOrigins,
		}, server.Deps{
			Sections: served,
			Library:  lib,
			Styles:   chroma,
			Audit:    auditStore,
			Logger:   logger,
		})

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		for _, sec := range served {
			go sec.Sessions.Run(ctx, sweepInterval(cfg.SessionTTL))
		}

		if serveRetention > 0 {
			go pruneEvents(ctx, auditStore, serveRetention, logger)
		}

		if cfg.Watch {
			watcher, err := content.NewWatcher(cfg.ContentDir, lib, content.WithWatchLogger(logger))
			if err != nil {
				return err
			}
			go func() {
				if err := watcher.Run(ctx); err != nil {
					logger.Error("content watcher stopped", "error", err)
				}
			}()
			logger.Info("watching content", "dir", cfg.ContentDir)
		}

		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("shutdown", "error", err)
			}
		}()

		logger.Info("starting transport-docs",
			"version", Version,
			"port", cfg.Port,
			"base_path", cfg.BasePath,
			"java_base_path", cfg.JavaBasePath,
			"pages", lib.Len(),
			"highlight_style", chroma.Style(),
			"highlight_scope", string(cfg.Highlight.Scope),
			"database", cfg.DatabasePath,
		)
		return srv.Start()
	},
}

// sweepInterval checks for idle sessions a few times per ttl.
func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, time.Second)
}

// pruneEvents deletes lifecycle entries older than retention once an hour.
func pruneEvents(ctx context.Context, store *audit.Store, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		n, err := store.DeleteBefore(ctx, time.Now().Add(-retention))
		if err != nil && ctx.Err() == nil {
			logger.Warn("pruning lifecycle events", "error", err)
		} else if n > 0 {
			logger.Info("pruned lifecycle events", "deleted", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on (overrides config)")
	serveCmd.Flags().DurationVar(&serveRetention, "retention", 7*24*time.Hour, "delete lifecycle events older than this (0 keeps everything)")
	rootCmd.AddCommand(serveCmd)
}
