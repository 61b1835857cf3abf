package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"receitanet-engine/internal/store"
)

var (
	historyLimit int
	historyPrune int
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of runs to list")
	historyCmd.Flags().IntVar(&historyPrune, "prune-days", 0, "delete runs older than this many days first")
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past runs, or the companies of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	dir, err := resolveDataDir()
	if err != nil {
		return err
	}
	db, err := store.Open(filepath.Join(dir, dbFile))
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	if historyPrune > 0 {
		n, err := db.CleanupOldRuns(ctx, time.Now().AddDate(0, 0, -historyPrune))
		if err != nil {
			return err
		}
		cmd.Printf("pruned %d runs\n", n)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if len(args) == 1 {
		run, err := db.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		items, err := db.ListItems(ctx, run.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "run %s\t%s\tstarted %s\n", run.ID, run.Status, run.StartedAt.Local().Format(time.DateTime))
		fmt.Fprintln(tw, "CNPJ\tCOMPANY\tSTATE\tATTEMPTS\tDETAIL")
		for _, it := range items {
			detail := it.Reason
			if it.Error != "" {
				detail = it.Error
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", it.ItemID, it.Label, it.State, it.Attempts, detail)
		}
		return nil
	}

	runs, err := db.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tTOTAL\tOK\tSKIPPED\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.Total, r.Succeeded, r.Skipped, r.Failed)
	}
	return nil
}
