package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"fredwork/internal/config"
	fwerrors "fredwork/internal/errors"
	"fredwork/internal/evaluator"
	"fredwork/internal/render"
	"fredwork/internal/slogutil"
	"fredwork/internal/version"
)

var (
	configPath string
	verbosity  int
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "fredwork",
	Short: "fredwork - a minimal HTTP core with template pages",
	Long: `fredwork serves pages and static files over a small HTTP/1.1 core.
Pages are text with <@= expression > tags evaluated per request against the
request and the data bound in the site manifest.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("fredwork version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file or directory holding fredwork.{json,yaml,toml} (default: working directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fwerrors.New(fwerrors.ConfigInvalid, "failed to load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fwerrors.New(fwerrors.ConfigInvalid, "invalid config", err)
	}
	return cfg, nil
}

// newLogger builds the logger for a command. -v/-q win over the configured
// level.
func newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	var override slog.Leveler
	if quiet || verbosity > 0 {
		override = slogutil.LevelFromVerbosity(verbosity, quiet)
	}
	return slogutil.Setup(cfg.Logging, stderr, override)
}

// newEngine builds the template engine from the template section.
func newEngine(cfg config.TemplateConfig) *render.Engine {
	ev := evaluator.New()
	ev.RawStrings = cfg.RawStrings
	return render.New(ev, render.WithDelimiters(cfg.Open, cfg.Close))
}
