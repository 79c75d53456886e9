package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a credential from the vault",
	Example: `  lox delete -n github
  lox delete -n github --yes`,
	Args: cobra.NoArgs,
	RunE: runDelete,
}

var (
	deleteName string
	deleteYes  bool
)

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVarP(&deleteName, "name", "n", "", "Service name (required)")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")

	_ = deleteCmd.MarkFlagRequired("name")
}

func runDelete(cmd *cobra.Command, args []string) error {
	if !deleteYes && !confirm(fmt.Sprintf("Delete %q from the vault?", deleteName)) {
		printInfo("Aborted")
		return nil
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := requireVault(c); err != nil {
		return err
	}

	passphrase, err := getPassphrase(false)
	if err != nil {
		return err
	}

	sess, err := c.Unlock(context.Background(), passphrase)
	if err != nil {
		return err
	}

	if err := sess.Delete(deleteName); err != nil {
		_ = c.CloseSession(sess)
		return err
	}
	if err := c.CloseSession(sess); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"service": deleteName,
		})
		return nil
	}

	printSuccess("Deleted %s", deleteName)
	return nil
}
