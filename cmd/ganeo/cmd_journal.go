package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ganeo/internal/store"
)

var (
	journalPath  string
	journalLimit int
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show calls recorded in the SQLite journal",
	Long: `Prints the most recent gtag calls appended by "ganeo replay --journal"
or by the journal transport, oldest first.

Example:
  ganeo journal --limit 20`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := journalPath
		if path == "" {
			path = cfg.Transport.Journal
		}
		return showJournal(cmd.Context(), cmd.OutOrStdout(), path, journalLimit)
	},
}

func showJournal(ctx context.Context, out io.Writer, path string, limit int) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(out, "No journal at %s\n", path)
			return nil
		}
		return err
	}

	j, err := store.OpenJournal(path)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Entries(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "Journal is empty")
		return nil
	}

	fmt.Fprintln(out, styles.Header.Render(fmt.Sprintf("%-6s %-24s %-8s %s", "SEQ", "AT", "COMMAND", "ARGS")))
	for _, e := range entries {
		args, err := json.Marshal(e.Args)
		if err != nil {
			return fmt.Errorf("row %d: %w", e.Seq, err)
		}
		fmt.Fprintf(out, "%-6d %-24s %s %s\n",
			e.Seq,
			styles.Muted.Render(e.CreatedAt.Format(time.RFC3339)),
			styles.Command.Render(string(e.Command)),
			args)
	}
	return nil
}
