package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fredwork/internal/journal"
	"fredwork/internal/server"
	"fredwork/internal/site"
	"fredwork/internal/slogutil"
	"fredwork/internal/static"
	"fredwork/internal/version"
)

var (
	serveHost     string
	servePort     int
	serveManifest string
	serveJournal  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site described by the manifest",
	Long: `Load the site manifest, check every page and start accepting
connections. Each connection carries one request and gets at most one
response.

Examples:
  fredwork serve
  fredwork serve --port 8080 --manifest site/site.toml
  fredwork serve --journal`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveManifest, "manifest", "", "Site manifest (default from config)")
	serveCmd.Flags().BoolVar(&serveJournal, "journal", false, "Record connections to the journal database")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveManifest != "" {
		cfg.Site.Manifest = serveManifest
	}
	if serveJournal {
		cfg.Journal.Enabled = true
	}

	logger, closer, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	manifest, err := site.Load(cfg.Site.Manifest)
	if err != nil {
		return err
	}
	lookup := &static.FS{Confine: cfg.Static.Confine}
	rt, err := manifest.Build(newEngine(cfg.Template), lookup, logger.With(slogutil.ComponentKey, "site"))
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithTimeouts(
			time.Duration(cfg.Server.ReadTimeoutMs)*time.Millisecond,
			time.Duration(cfg.Server.WriteTimeoutMs)*time.Millisecond,
		),
		server.WithShutdownTimeout(time.Duration(cfg.Server.ShutdownTimeoutMs) * time.Millisecond),
	}
	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal.Path, logger.With(slogutil.ComponentKey, "journal"))
		if err != nil {
			return err
		}
		defer store.Close()
		if cfg.Journal.RetentionDays > 0 {
			if _, err := store.Prune(retention(cfg.Journal.RetentionDays)); err != nil {
				logger.Warn("Failed to prune journal", "error", err.Error())
			}
		}
		opts = append(opts, server.WithRecorder(store))
	}

	srv := server.New(rt, logger.With(slogutil.ComponentKey, "server"), opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Server.Addr()
	fmt.Fprintf(cmd.OutOrStdout(), "fredwork %s listening on %s (%d routes, %d static roots)\n",
		version.Info(), addr, len(rt.Routes()), len(rt.Roots()))
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		logger.Error("Server error", "error", err.Error())
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func retention(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
