package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored service names",
	Long: `List prints the service names in the vault, one per line, in the
order they were added. Secrets are not shown.`,
	Example: `  lox list
  lox list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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

	names, err := sess.List()
	if err != nil {
		_ = c.CloseSession(sess)
		return err
	}
	if err := c.CloseSession(sess); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"services": names,
			"count":    len(names),
		})
		return nil
	}

	if len(names) == 0 {
		printInfo("Vault is empty")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
