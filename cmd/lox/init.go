package main

import (
	"context"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty vault",
	Long: `Init creates a new sealed vault at the configured path and refuses
to overwrite an existing one.

The passphrase is never stored anywhere. The only check on later
unlocks is whether the derived key opens the container, so a lost
passphrase means a lost vault.`,
	Example: `  lox init
  lox init --vault /backup/vault.enc`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	passphrase, err := getPassphrase(true)
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Init(context.Background(), passphrase); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"path":    c.Path(),
		})
		return nil
	}

	printSuccess("Vault created at %s", c.Path())
	return nil
}
