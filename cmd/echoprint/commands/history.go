package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/echoprint/go/pkg/history"
	"github.com/haivivi/echoprint/go/pkg/kv"
)

var historyLimit int

// openStore opens the journal store. Overridden in tests.
var openStore = func(dir string) (kv.Store, error) {
	s, err := kv.NewBadger(kv.BadgerOptions{Dir: dir, Logger: slog.Default()})
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return s, nil
}

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show past passes",
	Long: `List journaled passes, newest first, or show one pass by ID.

Examples:
  echoprint history --limit 5
  echoprint history 6f1c2a9e-0d7b-4f57-9a55-2f3d8d0c1b7e --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum records to list (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg.HistoryDir())
	if err != nil {
		return err
	}
	defer store.Close()
	journal := history.NewJournal(store)

	if len(args) == 1 {
		rec, err := journal.Get(cmd.Context(), args[0])
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("pass %s not found", args[0])
		}
		if err != nil {
			return err
		}
		return printResult(cmd, rec)
	}

	recs, err := journal.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		status(cmd).Info("no passes recorded")
		return nil
	}
	return printResult(cmd, recs)
}
