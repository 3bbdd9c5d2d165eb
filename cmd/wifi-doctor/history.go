package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/supporttools/wifi-doctor/pkg/history"
	"github.com/supporttools/wifi-doctor/pkg/types"
)

var historyLimit int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List or inspect past diagnostic sessions",
		Long: `Without arguments, list recent sessions from the local history store.
With a session ID, print that session's full report as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of sessions to list")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadHistoryConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Path, cfg.History.Keep)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session id %q", args[0])
		}
		return showSession(ctx, store, id)
	}
	return listSessions(ctx, store)
}

// loadHistoryConfig loads config without initializing the full logging and
// surface stack; history inspection works offline.
func loadHistoryConfig() (*types.Config, error) {
	cfg, err := loadConfigOnly()
	if err != nil {
		return nil, err
	}
	if cfg.History.Path == "" {
		return nil, fmt.Errorf("no history database path configured")
	}
	return cfg, nil
}

func listSessions(ctx context.Context, store *history.Store) error {
	entries, err := store.List(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tOUTCOME\tROUNDS\tCLASSIFICATION\tDRY RUN")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%v\n",
			e.ID,
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			e.Outcome,
			e.Rounds,
			formatTags(e.Classification),
			e.DryRun)
	}
	return w.Flush()
}

func showSession(ctx context.Context, store *history.Store, id int64) error {
	report, err := store.Load(ctx, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func formatTags(c types.Classification) string {
	if c.Healthy() {
		return "healthy"
	}
	tags := make([]string, len(c))
	for i, tag := range c {
		tags[i] = string(tag)
	}
	return strings.Join(tags, ",")
}
