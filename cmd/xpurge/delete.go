package main

import (
	"os"

	"github.com/spf13/cobra"

	"xpurge/pkg/pipeline"
	"xpurge/pkg/twitter"
	"xpurge/pkg/ui"
)

var (
	since string
	until string
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete your posts",
	Long: `Delete your posts batch by batch until a fetch comes back empty.

The newest page of posts is fetched, written to the work file and deleted one
by one with a pause between deletions, then the first page is fetched again.
The run stops at the first post that cannot be deleted and prints its id.

Use --since and --until (YYYY-MM-DD, UTC) to limit deletion to a date window.`,
	Example: `  # Delete everything
  xpurge delete

  # Delete posts from 2019
  xpurge delete --since 2019-01-01 --until 2020-01-01

  # Slower pace with a live dashboard
  xpurge delete --interval 2s --tui`,
	Args: cobra.NoArgs,
	Run:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	addWindowFlags(deleteCmd)
}

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&since, "since", "", "only posts created on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "only posts created before this date (YYYY-MM-DD)")
}

func mustParseWindow() twitter.Window {
	w, err := twitter.ParseWindow(since, until)
	if err != nil {
		ui.PrintError("Invalid date window", err.Error())
		os.Exit(1)
	}
	return w
}

func runDelete(cmd *cobra.Command, args []string) {
	window := mustParseWindow()

	a := mustSetup(cmd, true)
	defer a.Close()

	ctx := cmd.Context()
	cred := a.mustLogin(ctx)

	ui.PrintInfo("Account", describeUser(cred))
	ui.PrintInfo("Window", window.String())
	ui.PrintHighlight("[DELETING POSTS]")

	runPipeline(ctx, a, cred, pipeline.KindDelete, window)
}
