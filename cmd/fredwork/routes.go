package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fredwork/internal/site"
	"fredwork/internal/slogutil"
	"fredwork/internal/static"
)

var (
	routesFormat   string
	routesManifest string
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes the manifest registers",
	Long: `Load and check the site manifest, then list its routes and static roots.

Examples:
  fredwork routes
  fredwork routes --manifest site/site.toml --format json`,
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().StringVar(&routesFormat, "format", "human", "Output format (json, human)")
	routesCmd.Flags().StringVar(&routesManifest, "manifest", "", "Site manifest (default from config)")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if routesManifest != "" {
		cfg.Site.Manifest = routesManifest
	}

	manifest, err := site.Load(cfg.Site.Manifest)
	if err != nil {
		return err
	}
	rt, err := manifest.Build(newEngine(cfg.Template), &static.FS{Confine: cfg.Static.Confine}, slogutil.NewDiscardLogger())
	if err != nil {
		return err
	}

	resp := &RoutesResponseCLI{
		Manifest: cfg.Site.Manifest,
		Static:   rt.Roots(),
	}
	for _, r := range rt.Routes() {
		resp.Routes = append(resp.Routes, RouteCLI{Method: string(r.Method), Path: r.Path})
	}

	output, err := FormatResponse(resp, OutputFormat(routesFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
