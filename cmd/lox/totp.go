package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var totpCmd = &cobra.Command{
	Use:   "totp",
	Short: "Print the current two-factor code for a service",
	Long: `Totp derives the current RFC 6238 code from the TOTP secret stored
with a credential, along with how long the code stays valid.`,
	Example: `  lox totp -n github`,
	Args:    cobra.NoArgs,
	RunE:    runTOTP,
}

var totpName string

func init() {
	rootCmd.AddCommand(totpCmd)

	totpCmd.Flags().StringVarP(&totpName, "name", "n", "", "Service name (required)")

	_ = totpCmd.MarkFlagRequired("name")
}

func runTOTP(cmd *cobra.Command, args []string) error {
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

	rec, err := sess.Get(totpName)
	if err != nil {
		_ = c.CloseSession(sess)
		return err
	}
	if err := c.CloseSession(sess); err != nil {
		return err
	}

	if !rec.HasTOTP() {
		return fmt.Errorf("service %s has no TOTP secret", totpName)
	}

	code, err := c.TOTP.GenerateCode(rec.TOTPSecret)
	if err != nil {
		return err
	}
	remaining := c.TOTP.TimeRemaining()

	if jsonOutput {
		printJSON(map[string]interface{}{
			"service":    totpName,
			"code":       code,
			"expires_in": int(remaining.Seconds()),
		})
		return nil
	}

	fmt.Println(code)
	printInfo("Valid for %ds", int(remaining.Seconds()))
	return nil
}
