package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picvet/lox/internal/models"
	"github.com/picvet/lox/internal/password"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a credential to the vault",
	Long: `Add stores a credential under a unique service name. The secret is
generated from the configured character classes unless --manual prompts
for one. The stored secret is printed and copied to the clipboard.

Adding over an existing service fails unless --force replaces it.`,
	Example: `  lox add -n github -u dev@example.com
  lox add -n registry --manual --url https://registry.internal
  lox add -n mail -l 32 --no-symbols --totp-secret JBSWY3DPEHPK3PXP`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

var (
	addName        string
	addUsername    string
	addURL         string
	addNotes       string
	addTOTPSecret  string
	addLength      int
	addNoSymbols   bool
	addNoDigits    bool
	addNoUppercase bool
	addManual      bool
	addForce       bool
	addNoClipboard bool
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addName, "name", "n", "", "Service name (required)")
	addCmd.Flags().StringVarP(&addUsername, "username", "u", "", "Username for the service")
	addCmd.Flags().StringVar(&addURL, "url", "", "Service URL")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Free-form notes")
	addCmd.Flags().StringVar(&addTOTPSecret, "totp-secret", "", "Base32 TOTP secret for two-factor codes")
	addCmd.Flags().IntVarP(&addLength, "length", "l", 0, "Generated password length (default from config)")
	addCmd.Flags().BoolVar(&addNoSymbols, "no-symbols", false, "Generate without symbols")
	addCmd.Flags().BoolVar(&addNoDigits, "no-digits", false, "Generate without digits")
	addCmd.Flags().BoolVar(&addNoUppercase, "no-uppercase", false, "Generate without uppercase letters")
	addCmd.Flags().BoolVar(&addManual, "manual", false, "Prompt for the secret instead of generating one")
	addCmd.Flags().BoolVar(&addForce, "force", false, "Replace an existing service")
	addCmd.Flags().BoolVar(&addNoClipboard, "no-clipboard", false, "Skip the clipboard copy")

	_ = addCmd.MarkFlagRequired("name")
}

func runAdd(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := requireVault(c); err != nil {
		return err
	}

	if addTOTPSecret != "" {
		if err := c.TOTP.IsValidSecret(addTOTPSecret); err != nil {
			return err
		}
	}

	var secret string
	if addManual {
		secret, err = promptPassword(fmt.Sprintf("Secret for %s: ", addName))
		if err != nil {
			return fmt.Errorf("read secret: %w", err)
		}
		if secret == "" {
			return errors.New("secret cannot be empty")
		}
	} else {
		secret, err = password.Generate(generatorOptions(addLength, addNoUppercase, addNoDigits, addNoSymbols))
		if err != nil {
			return err
		}
	}

	passphrase, err := getPassphrase(false)
	if err != nil {
		return err
	}

	sess, err := c.Unlock(context.Background(), passphrase)
	if err != nil {
		return err
	}

	rec := models.CredentialRecord{
		Service:    addName,
		Username:   addUsername,
		Secret:     secret,
		URL:        addURL,
		Notes:      addNotes,
		TOTPSecret: addTOTPSecret,
	}

	if err := sess.Add(rec, addForce); err != nil {
		_ = c.CloseSession(sess)
		return err
	}
	if err := c.CloseSession(sess); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"service": addName,
			"secret":  secret,
		})
		return nil
	}

	printSuccess("Stored %s", addName)
	fmt.Println(secret)
	deliverToClipboard(c.Clipboard, secret, addNoClipboard)
	return nil
}
