package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fredwork/internal/render"
	"fredwork/internal/site"
)

var (
	renderBinds []string
	renderRaw   bool
	renderCheck bool
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a template file to stdout",
	Long: `Render a template file with the given bindings and print the result.
Bindings are loaded from .json, .yaml/.yml or .toml data files.

Examples:
  fredwork render html/index.html --bind obj=data/obj.yaml
  fredwork render page.html --bind a=a.json --bind b=b.toml --raw
  fredwork render page.html --check`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringArrayVar(&renderBinds, "bind", nil, "Bind name=file (repeatable, applied in order)")
	renderCmd.Flags().BoolVar(&renderRaw, "raw", false, "Render string results without JSON quoting")
	renderCmd.Flags().BoolVar(&renderCheck, "check", false, "Only list the tags and check they are terminated")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if renderRaw {
		cfg.Template.RawStrings = true
	}

	text, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	engine := newEngine(cfg.Template)

	if renderCheck {
		tags, err := engine.Tags(string(text))
		if err != nil {
			return err
		}
		for _, tag := range tags {
			fmt.Fprintf(cmd.OutOrStdout(), "%d-%d\t%s\n", tag.Start, tag.End, strings.TrimSpace(tag.Instruction))
		}
		return nil
	}

	bindings, err := parseBindings(renderBinds)
	if err != nil {
		return err
	}
	out, err := engine.Render(string(text), bindings)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// parseBindings loads each name=file flag value in order.
func parseBindings(flags []string) ([]render.Binding, error) {
	bindings := make([]render.Binding, 0, len(flags))
	for _, flag := range flags {
		name, file, ok := strings.Cut(flag, "=")
		if !ok || name == "" || file == "" {
			return nil, fmt.Errorf("invalid binding %q, want name=file", flag)
		}
		value, err := site.LoadData(file)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		bindings = append(bindings, render.Binding{Name: name, Value: value})
	}
	return bindings, nil
}
