package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xpurge/pkg/session"
	"xpurge/pkg/ui"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize xpurge for your account",
	Long: `Run the PIN based OAuth login and store the resulting credential,
replacing any credential already stored.

You will be asked for:
  - your X handle
  - the PIN X shows after you open the printed URL and authorize the app`,
	Example: `  xpurge login
  xpurge login --backend keyring`,
	Args: cobra.NoArgs,
	Run:  runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	a := mustSetup(cmd, false)
	defer a.Close()

	cred, err := session.LoginAndSave(cmd.Context(), a.client, a.store, session.NewTerminalPrompter())
	if err != nil {
		ui.PrintError("Login failed", err.Error())
		os.Exit(1)
	}

	fmt.Println()
	ui.PrintSuccess("Logged in as " + describeUser(cred))
	ui.PrintInfo("Stored with", a.cfg.Credentials.Backend)
	fmt.Println("\nNext:")
	fmt.Println("   $ xpurge fetch     # look at what would be deleted")
	fmt.Println("   $ xpurge delete    # delete your posts")
	fmt.Println("   $ xpurge unlike    # remove your likes")
}
