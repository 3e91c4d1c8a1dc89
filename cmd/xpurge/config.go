package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xpurge/pkg/config"
	"xpurge/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xpurge configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (XPURGE_*)
  - .env and ~/.xpurge.env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created in the current directory as '.xpurge.yaml' unless a
different path is given with --config.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

Application keys are masked.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load and validate the configuration.

This command checks:
  - YAML syntax
  - Value ranges
  - Application keys
  - Writable locations for the work file, journal and log file`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# xpurge configuration file
#
# Every option can also be set with an environment variable, for example
# XPURGE_CONSUMER_KEY or XPURGE_ACTION_INTERVAL.

# X API application
api:
  base_url: "https://api.twitter.com"
  # From your developer app's "Keys and tokens" page
  bearer_token: ""
  consumer_key: ""
  consumer_secret: ""
  timeout: 5s
  user_agent: "xpurge/1.0"

# Where the logged in user credential is kept
credentials:
  # Defaults to ~/.xpurge.json
  # path: "/home/me/.xpurge.json"
  # file, keyring, encrypted or env
  backend: "file"

# Delete/unlike loop
pipeline:
  # Posts or likes per fetch, 1-100
  batch_size: 100
  # Pause after every delete or unlike
  action_interval: 500ms
  # Each fetched batch is written here, defaults to $TMPDIR/xpurge.work.json
  # work_file: "/tmp/xpurge.work.json"

# Client side request limit
rate_limit:
  requests_per_minute: 60
  burst_size: 5

# Retry 429, 5xx and network failures before giving up on a fetch or action
retry:
  enabled: false
  max_attempts: 3
  base_delay: 1s
  max_delay: 60s

# Local record of runs and actions
journal:
  enabled: true
  # Defaults to $XDG_DATA_HOME/xpurge/journal.db
  # path: "/home/me/.local/share/xpurge/journal.db"

# Prometheus metrics, e.g. ":9090". Empty disables the listener.
metrics:
  addr: ""

logging:
  # debug, info, warn, error, disabled
  level: "info"
  # Optional file, appended to
  file: ""

output:
  # Live dashboard during delete and unlike
  tui: false
  # Desktop notification when a run ends
  notify: false
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".xpurge.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			ui.PrintError("Failed to create configuration directory", err.Error())
			os.Exit(1)
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Add your application keys (see 'xpurge auth keys')")
	fmt.Println("2. Run 'xpurge config validate' to check the configuration")
	fmt.Println("3. Run 'xpurge login'")
}

// maskedConfig returns a copy of cfg safe to print
func maskedConfig(cfg *config.Config) config.Config {
	display := *cfg
	display.API.BearerToken = mask(display.API.BearerToken)
	display.API.ConsumerKey = mask(display.API.ConsumerKey)
	display.API.ConsumerSecret = mask(display.API.ConsumerSecret)
	return display
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)

	display := maskedConfig(cfg)
	data, err := yaml.Marshal(&display)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (XPURGE_*)")
	fmt.Println("3. .env files")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (first found of ./.xpurge.yaml, ~/.config/xpurge/config.yaml, ~/.xpurge.yaml)")
	}
	fmt.Println("5. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	problems := checkLocations(cfg)
	var warnings []string
	if err := cfg.ValidateAppCredential(); err != nil {
		warnings = append(warnings, err.Error())
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  API: %s (timeout %s)\n", cfg.API.BaseURL, cfg.API.Timeout)
	fmt.Printf("  Credentials: %s (%s)\n", cfg.Credentials.Backend, cfg.Credentials.Path)
	fmt.Printf("  Batch size: %d, interval: %s\n", cfg.Pipeline.BatchSize, cfg.Pipeline.ActionInterval)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Retry: %t (max %d attempts)\n", cfg.Retry.Enabled, cfg.Retry.MaxAttempts)
	fmt.Printf("  Journal: %t (%s)\n", cfg.Journal.Enabled, cfg.Journal.Path)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}

// checkLocations reports directories xpurge will need to write to but cannot create
func checkLocations(cfg *config.Config) []string {
	var problems []string
	check := func(what, path string) {
		if path == "" {
			return
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create %s directory: %v", what, err))
		}
	}

	check("work file", cfg.Pipeline.WorkFile)
	check("log", cfg.Logging.File)
	if cfg.Journal.Enabled {
		check("journal", cfg.Journal.Path)
	}
	return problems
}
