package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xpurge/pkg/logger"
	"xpurge/pkg/ui"
)

var (
	// Version information
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile      string
	credentialsPath string
	backend         string
	workFile        string
	interval        time.Duration
	baseURL         string
	journalPath     string
	noJournal       bool
	metricsAddr     string
	retryEnabled    bool
	logLevel        string
	useTUI          bool
	notify          bool
	noColor         bool
	quiet           bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xpurge",
	Short: "Delete your posts and likes on X",
	Long: `xpurge removes your own posts and likes from X, batch by batch, until none
are left or the API stops handing out more.

Features:
  - PIN based OAuth login, credentials kept in a file, the system keychain
    or an encrypted file
  - Optional date window for post deletion
  - Fixed pause between actions and client side rate limiting
  - Every fetched batch written to a work file for inspection
  - Local journal of every run and action ('xpurge history')
  - Optional live dashboard and desktop notifications`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", logger.Version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetColor(!noColor && term.IsTerminal(int(os.Stdout.Fd())))

		if quiet || useTUI {
			return
		}
		switch cmd.Name() {
		case "version", "help", "completion", "history", "show":
			return
		}
		ui.PrintLogo()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts keep their default behavior except while a pipeline runs.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is ./.xpurge.yaml or ~/.config/xpurge/config.yaml)")
	flags.StringVar(&credentialsPath, "credentials", "", "path of the stored user credential (default ~/.xpurge.json)")
	flags.StringVar(&credentialsPath, "config-file", "", "alias for --credentials")
	flags.StringVar(&backend, "backend", "", "credential backend: file, keyring, encrypted or env")
	flags.StringVar(&workFile, "work-file", "", "where each fetched batch is written")
	flags.DurationVar(&interval, "interval", 0, "pause between actions (default 500ms)")
	flags.StringVar(&baseURL, "base-url", "", "API base URL")
	flags.StringVar(&journalPath, "journal", "", "path of the run journal database")
	flags.BoolVar(&noJournal, "no-journal", false, "do not record runs in the journal")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.BoolVar(&retryEnabled, "retry", false, "retry rate limited, 5xx and network failures with backoff")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	flags.BoolVar(&useTUI, "tui", false, "show a live dashboard while deleting or unliking")
	flags.BoolVar(&notify, "notify", false, "send a desktop notification when a run ends")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "do not print the logo")

	rootCmd.SetVersionTemplate(`xpurge {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// changedFlags returns the global flags the user set, keyed the way config.MergeCommandLineFlags expects
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	out := make(map[string]interface{})
	f := cmd.Flags()

	if f.Changed("credentials") || f.Changed("config-file") {
		out["credentials"] = credentialsPath
	}
	if f.Changed("backend") {
		out["backend"] = backend
	}
	if f.Changed("work-file") {
		out["work-file"] = workFile
	}
	if f.Changed("interval") {
		out["interval"] = interval
	}
	if f.Changed("base-url") {
		out["base-url"] = baseURL
	}
	if f.Changed("journal") {
		out["journal"] = journalPath
	}
	if f.Changed("no-journal") {
		out["no-journal"] = noJournal
	}
	if f.Changed("metrics-addr") {
		out["metrics-addr"] = metricsAddr
	}
	if f.Changed("retry") {
		out["retry"] = retryEnabled
	}
	if f.Changed("log-level") {
		out["log-level"] = logLevel
	}
	if f.Changed("tui") {
		out["tui"] = useTUI
	}
	if f.Changed("notify") {
		out["notify"] = notify
	}
	return out
}
