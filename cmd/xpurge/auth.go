package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"xpurge/pkg/config"
	"xpurge/pkg/credential"
	"xpurge/pkg/ui"
)

var assumeYes bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored credential",
	Long: `Inspect or remove the stored user credential.

The credential is kept in one of:
  - a JSON file (default ~/.xpurge.json, mode 0600)
  - the system keychain
  - an encrypted file with PBKDF2 key derivation
  - environment variables (read only)

Never share your credential file!`,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored credential",
	Long:  `Show the stored credential with the token pair masked.`,
	Run:   runAuthStatus,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored credential",
	Example: `  xpurge auth logout
  xpurge auth logout --yes`,
	Run: runLogout,
}

// keysCmd represents the auth keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Explain how to obtain the application keys",
	Run: func(cmd *cobra.Command, args []string) {
		credential.ShowAppKeysGuide(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(keysCmd)

	logoutCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

func mustOpenStore(cfg *config.Config) credential.Store {
	store, err := credential.NewStore(cfg.Credentials)
	if err != nil {
		ui.PrintError("Failed to open credential store", err.Error())
		os.Exit(1)
	}
	return store
}

func runAuthStatus(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)
	store := mustOpenStore(cfg)

	ui.PrintInfo("Backend", cfg.Credentials.Backend)
	if cfg.Credentials.Backend == "file" || cfg.Credentials.Backend == "" {
		ui.PrintInfo("Path", cfg.Credentials.Path)
	}

	cred, err := store.Load()
	if errors.Is(err, credential.ErrCredentialsNotFound) {
		ui.PrintWarning("Not logged in. Run 'xpurge login'.")
		return
	}
	if err != nil {
		ui.PrintError("Failed to load credentials", err.Error())
		os.Exit(1)
	}

	sanitized := credential.Sanitize(cred)
	fmt.Println()
	ui.PrintInfo("Username", "@"+sanitized.Username)
	ui.PrintInfo("User ID", sanitized.ID)
	ui.PrintInfo("Token", sanitized.OAuthToken)
	ui.PrintInfo("Token secret", sanitized.OAuthTokenSecret)

	if err := cfg.ValidateAppCredential(); err != nil {
		fmt.Println()
		ui.PrintWarning("Application keys incomplete", "run 'xpurge auth keys'")
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)
	store := mustOpenStore(cfg)

	if !store.Exists() {
		ui.PrintWarning("No stored credential")
		return
	}

	if !assumeYes {
		fmt.Print("Remove the stored credential? (y/N): ")
		input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	if err := store.Delete(); err != nil {
		ui.PrintError("Failed to remove credential", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Credential removed")
}
