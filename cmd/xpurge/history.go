package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"xpurge/pkg/journal"
	"xpurge/pkg/ui"
)

var (
	historyLimit int
	historyRun   string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the journal",
	Long: `List recent delete and unlike runs recorded in the journal, newest first.

With --run, list every action of one run instead.`,
	Example: `  xpurge history
  xpurge history --limit 5
  xpurge history --run 3f0c...`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "show the actions of this run")
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)
	if !cfg.Journal.Enabled {
		ui.PrintWarning("The journal is disabled")
		return
	}

	j, err := journal.Open(cfg.Journal.Path, nil)
	if err != nil {
		ui.PrintError("Failed to open journal", err.Error())
		os.Exit(1)
	}
	defer j.Close()

	ctx := cmd.Context()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if historyRun != "" {
		actions, err := j.Actions(ctx, historyRun)
		if err != nil {
			ui.PrintError("Failed to read actions", err.Error())
			os.Exit(1)
		}
		if len(actions) == 0 {
			ui.PrintWarning("No actions recorded for run", historyRun)
			return
		}

		fmt.Fprintln(w, "TIME\tKIND\tTARGET\tOUTCOME\tERROR")
		for _, a := range actions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				a.CreatedAt.Local().Format("2006-01-02 15:04:05"), a.Kind, a.TargetID, a.Outcome, a.Error)
		}
		return
	}

	runs, err := j.RecentRuns(ctx, historyLimit)
	if err != nil {
		ui.PrintError("Failed to read journal", err.Error())
		os.Exit(1)
	}
	if len(runs) == 0 {
		ui.PrintInfo("No runs recorded", cfg.Journal.Path)
		return
	}

	fmt.Fprintln(w, "RUN\tSTARTED\tKIND\tUSER\tWINDOW\tSTATE\tBATCHES\tACTED\tSKIPPED\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Kind,
			r.Username,
			orDash(r.Window),
			r.State,
			r.Counts.Batches,
			r.Counts.Acted,
			r.Counts.Skipped,
			runDuration(r))
	}
}

func runDuration(r journal.Run) string {
	if r.FinishedAt.IsZero() {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
