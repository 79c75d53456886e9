package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/picvet/lox/internal/models"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a credential",
	Long: `Get prints the record stored under a service name and copies its
secret to the clipboard.`,
	Example: `  lox get -n github
  lox get -n github --json`,
	Args: cobra.NoArgs,
	RunE: runGet,
}

var (
	getName        string
	getNoClipboard bool
)

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&getName, "name", "n", "", "Service name (required)")
	getCmd.Flags().BoolVar(&getNoClipboard, "no-clipboard", false, "Skip the clipboard copy")

	_ = getCmd.MarkFlagRequired("name")
}

func runGet(cmd *cobra.Command, args []string) error {
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

	rec, err := sess.Get(getName)
	if err != nil {
		_ = c.CloseSession(sess)
		return err
	}
	if err := c.CloseSession(sess); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(rec)
		return nil
	}

	printRecord(rec)
	deliverToClipboard(c.Clipboard, rec.Secret, getNoClipboard)
	return nil
}

func printRecord(rec models.CredentialRecord) {
	fmt.Printf("Service:  %s\n", rec.Service)
	if rec.Username != "" {
		fmt.Printf("Username: %s\n", rec.Username)
	}
	fmt.Printf("Secret:   %s\n", rec.Secret)
	if rec.URL != "" {
		fmt.Printf("URL:      %s\n", rec.URL)
	}
	if rec.Notes != "" {
		fmt.Printf("Notes:    %s\n", rec.Notes)
	}
	if rec.HasTOTP() {
		fmt.Printf("TOTP:     configured\n")
	}
	fmt.Printf("Created:  %s\n", rec.CreatedAt.Local().Format(time.RFC3339))
	fmt.Printf("Updated:  %s\n", rec.UpdatedAt.Local().Format(time.RFC3339))
}
