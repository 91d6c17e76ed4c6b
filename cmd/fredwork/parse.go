package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fredwork/internal/request"
)

var parseFormat string

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a raw request dump",
	Long: `Parse a raw HTTP request, as the server would, and print the result.
Use - to read from stdin.

Examples:
  fredwork parse request.txt
  printf 'GET /?a=1 HTTP/1.1\r\n\r\n' | fredwork parse - --format human`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVar(&parseFormat, "format", "json", "Output format (json, human)")
}

func runParse(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open request: %w", err)
		}
		defer f.Close()
		in = f
	}

	req, err := request.Parse(bufio.NewReader(in))
	if err != nil {
		return err
	}

	output, err := FormatResponse(req, OutputFormat(parseFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
