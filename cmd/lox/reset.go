package main

import (
	"context"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Destroy the vault and start over",
	Long: `Reset deletes the container file and every record in it, then creates
a fresh empty vault under a new passphrase. There is no undo.`,
	Example: `  lox reset
  lox reset --yes`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var resetYes bool

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes && !confirm("Destroy the vault and every record in it?") {
		printInfo("Aborted")
		return nil
	}

	ctx := context.Background()

	c, err := newClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Reset(ctx); err != nil {
		return err
	}
	printInfo("Vault destroyed")

	passphrase, err := getPassphrase(true)
	if err != nil {
		return err
	}
	if err := c.Init(ctx, passphrase); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"path":    c.Path(),
		})
		return nil
	}

	printSuccess("Vault reinitialized at %s", c.Path())
	return nil
}
