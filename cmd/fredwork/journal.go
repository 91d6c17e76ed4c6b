package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fredwork/internal/journal"
)

var (
	journalFormat  string
	journalLimit   int
	journalOutcome string
	journalDays    int
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the connection journal",
	Long: `List or prune the connections recorded by "fredwork serve --journal".

Examples:
  fredwork journal list
  fredwork journal list --outcome=miss --limit=50
  fredwork journal prune --days=7`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded connections, newest first",
	RunE:  runJournalList,
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove entries older than the retention period",
	RunE:  runJournalPrune,
}

func init() {
	journalListCmd.Flags().StringVar(&journalFormat, "format", "human", "Output format (json, human)")
	journalListCmd.Flags().IntVar(&journalLimit, "limit", 20, "Maximum entries to return")
	journalListCmd.Flags().StringVar(&journalOutcome, "outcome", "", "Filter by outcome (matched, static, wildcard, miss, parse_error, failed)")

	journalPruneCmd.Flags().IntVar(&journalDays, "days", 0, "Retention in days (default from config)")

	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalPruneCmd)
	rootCmd.AddCommand(journalCmd)
}

// openJournal opens the configured journal. The returned func closes it and
// the log file.
func openJournal() (*journal.Store, int, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, 0, nil, err
	}
	logger, closer, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return nil, 0, nil, err
	}
	store, err := journal.Open(cfg.Journal.Path, logger)
	if err != nil {
		_ = closer.Close()
		return nil, 0, nil, err
	}
	return store, cfg.Journal.RetentionDays, func() {
		_ = store.Close()
		_ = closer.Close()
	}, nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	store, _, done, err := openJournal()
	if err != nil {
		return err
	}
	defer done()

	opts := journal.ListOptions{Limit: journalLimit}
	if journalOutcome != "" {
		opts.Outcome = []string{journalOutcome}
	}
	resp, err := store.List(opts)
	if err != nil {
		return err
	}

	output, err := FormatResponse(resp, OutputFormat(journalFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

func runJournalPrune(cmd *cobra.Command, args []string) error {
	store, days, done, err := openJournal()
	if err != nil {
		return err
	}
	defer done()

	if journalDays > 0 {
		days = journalDays
	}
	if days <= 0 {
		return fmt.Errorf("retention must be at least one day")
	}

	removed, err := store.Prune(retention(days))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries older than %d days\n", removed, days)
	return nil
}
