/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/corpclean/internal/report"
	"github.com/valpere/corpclean/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past cleaning runs",
	Long:  `List, inspect, and clear the SQLite history of cleaning runs.`,
}

// openHistory opens the history database, creating its directory so that a
// fresh checkout reports an empty history.
func openHistory() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tLANGS\tCORPORA\tSTATUS\tINPUT")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s-%s\t%d\t%s\t%s\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04"),
				r.SourceLang, r.TargetLang, r.Corpora, r.Status, r.InputDir)
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its per-corpus results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		run, results, err := db.GetRun(context.Background(), args[0])
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(report.Markdown(*run, results))
		return err
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals over all recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Runs:           %d\n", stats.TotalRuns)
		fmt.Fprintf(out, "Completed runs: %d\n", stats.CompletedRuns)
		fmt.Fprintf(out, "Failed runs:    %d\n", stats.FailedRuns)
		fmt.Fprintf(out, "Corpora:        %d\n", stats.Corpora)
		fmt.Fprintf(out, "Pairs read:     %d\n", stats.PairsRead)
		fmt.Fprintf(out, "Pairs written:  %d\n", stats.PairsWritten)
		fmt.Fprintf(out, "Pairs dropped:  %d\n", stats.PairsDropped)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearRuns(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d runs from history.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.PersistentFlags().String("db", "./data/corpclean.db", "Database path")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list (0 = all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyClearCmd)
}
