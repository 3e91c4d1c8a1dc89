package main

import (
	"github.com/spf13/cobra"

	"xpurge/pkg/pipeline"
	"xpurge/pkg/twitter"
	"xpurge/pkg/ui"
)

// unlikeCmd represents the unlike command
var unlikeCmd = &cobra.Command{
	Use:   "unlike",
	Short: "Remove your likes",
	Long: `Remove your likes batch by batch until a fetch comes back empty.

A like that cannot be removed is logged and skipped. The API keeps some
likes on the first page even after they fail; once a page holds only likes
that were already tried the run ends.`,
	Example: `  xpurge unlike
  xpurge unlike --interval 1s --notify`,
	Args: cobra.NoArgs,
	Run:  runUnlike,
}

func init() {
	rootCmd.AddCommand(unlikeCmd)
}

func runUnlike(cmd *cobra.Command, args []string) {
	a := mustSetup(cmd, true)
	defer a.Close()

	ctx := cmd.Context()
	cred := a.mustLogin(ctx)

	ui.PrintInfo("Account", describeUser(cred))
	ui.PrintHighlight("[REMOVING LIKES]")

	runPipeline(ctx, a, cred, pipeline.KindUnlike, twitter.Window{})
}
