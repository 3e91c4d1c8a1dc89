package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"xpurge/pkg/pipeline"
	"xpurge/pkg/twitter"
	"xpurge/pkg/ui"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one batch of posts without deleting anything",
	Long: `Fetch the newest page of your posts, optionally limited to a date window,
print it and write it to the work file. Nothing is deleted.`,
	Example: `  xpurge fetch --since 2021-01-01
  xpurge fetch --work-file ./posts.json`,
	Args: cobra.NoArgs,
	Run:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addWindowFlags(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) {
	window := mustParseWindow()

	a := mustSetup(cmd, false)
	defer a.Close()

	ctx := cmd.Context()
	cred := a.mustLogin(ctx)

	runner := pipeline.New(a.client,
		pipeline.WithBatchSink(a.work),
		pipeline.WithLogger(a.log),
	)

	batch, err := runner.Fetch(ctx, window)
	if err != nil {
		ui.PrintError("Fetch failed", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Account", describeUser(cred))
	ui.PrintInfo("Window", window.String())
	fmt.Println()

	for _, t := range batch {
		fmt.Printf("%s  %s  %s\n", ui.Yellow(t.ID), ui.Dim(t.CreatedAt), summarize(t))
		fmt.Printf("    %s\n", ui.Dim(twitter.PostURL(cred.Username, t.ID)))
	}

	fmt.Println()
	ui.PrintSuccess(fmt.Sprintf("Fetched %d posts", len(batch)))
	ui.PrintInfo("Work file", a.work.Path())
}

func summarize(t twitter.Tweet) string {
	text := strings.Join(strings.Fields(t.Text), " ")
	if r := []rune(text); len(r) > 60 {
		text = string(r[:57]) + "..."
	}

	var extra []string
	if m := t.PublicMetrics; m != nil {
		extra = append(extra, fmt.Sprintf("♥%d ↻%d", m.LikeCount, m.RetweetCount))
	}
	if t.Attachments != nil && len(t.Attachments.MediaKeys) > 0 {
		extra = append(extra, fmt.Sprintf("%d media", len(t.Attachments.MediaKeys)))
	}
	if len(extra) > 0 {
		text += " " + ui.Dim("("+strings.Join(extra, ", ")+")")
	}
	return text
}
