package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/picvet/lox/internal/client"
	"github.com/picvet/lox/internal/clipboard"
	"github.com/picvet/lox/internal/config"
	"github.com/picvet/lox/internal/events"
	"github.com/picvet/lox/internal/models"
)

var (
	cfgFile        string
	vaultOverride  string
	passphraseFlag string
	jsonOutput     bool
	verbose        bool
	quiet          bool

	cfg        *config.Config
	configPath string
	logger     *events.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lox",
	Short: "Local passphrase-protected secrets vault",
	Long: `Lox keeps credentials in a single sealed container file. The vault
unlocks with a passphrase and records never touch disk in plaintext.
Sealed containers can be pushed to DynamoDB or S3 as opaque blobs.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&vaultOverride, "vault", "", "Vault file path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&passphraseFlag, "passphrase", "", "Vault passphrase (prefer LOX_PASSPHRASE or the prompt)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)

	loaded, err := loader.Load()
	if err != nil {
		// setup exists to repair a broken config, so it starts from defaults
		if cmd.Name() != "setup" {
			return err
		}
		printWarning("Ignoring invalid config: %v", err)
		loaded = config.DefaultConfig()
	}
	configPath = loader.ConfigPath()

	if vaultOverride != "" {
		loaded.Vault.Path = vaultOverride
	}
	if verbose {
		loaded.Log.Level = "debug"
	} else if quiet {
		loaded.Log.Level = "error"
	}

	log, err := events.NewLogger(&loaded.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	cfg = loaded
	logger = log
	return nil
}

func newClient() (*client.Client, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return client.New(cfg, logger)
}

// requireVault fails before any passphrase prompt when there is nothing
// to unlock.
func requireVault(c *client.Client) error {
	exists, err := c.Exists()
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: run 'lox init' first", models.ErrVaultNotFound)
	}
	return nil
}

// getPassphrase resolves the vault passphrase from the --passphrase flag,
// the LOX_PASSPHRASE environment variable, or an interactive prompt, in
// that order. confirmTwice makes the prompt ask again, for operations that
// set a new passphrase.
func getPassphrase(confirmTwice bool) (string, error) {
	if passphraseFlag != "" {
		return passphraseFlag, nil
	}
	if env := os.Getenv("LOX_PASSPHRASE"); env != "" {
		return env, nil
	}

	pass, err := promptPassword("Passphrase: ")
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	if pass == "" {
		return "", errors.New("passphrase cannot be empty")
	}

	if confirmTwice {
		again, err := promptPassword("Confirm passphrase: ")
		if err != nil {
			return "", fmt.Errorf("read passphrase: %w", err)
		}
		if pass != again {
			return "", errors.New("passphrases do not match")
		}
	}

	return pass, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)

	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// startSpinner shows progress on stderr during remote calls. The returned
// function stops it. No-op in JSON or quiet mode.
func startSpinner(message string) func() {
	if jsonOutput || quiet {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	_ = s.Color("cyan")
	s.Start()

	return s.Stop
}

// deliverToClipboard copies a secret and, when a clear timeout is
// configured, blocks until the clipboard is wiped. Ctrl+C skips the wipe
// and keeps the value.
func deliverToClipboard(clip *clipboard.Service, secret string, skip bool) {
	if skip || jsonOutput {
		return
	}

	if !clip.Available() {
		return
	}
	if err := clip.Copy(secret); err != nil {
		printWarning("Clipboard copy failed: %v", err)
		return
	}

	ttl := cfg.Clipboard.ClearAfter
	if ttl <= 0 {
		printInfo("Copied to clipboard")
		return
	}
	printInfo("Copied to clipboard, clearing in %s (Ctrl+C keeps it)", ttl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := clip.ClearAfter(ctx, secret, ttl); err != nil && !errors.Is(err, context.Canceled) {
		printWarning("Clipboard clear failed: %v", err)
	}
}

func printSuccess(format string, args ...interface{}) {
	if quiet {
		return
	}
	color.Green(format, args...)
}

func printInfo(format string, args ...interface{}) {
	if quiet {
		return
	}
	color.Cyan(format, args...)
}

func printWarning(format string, args ...interface{}) {
	_, _ = color.New(color.FgYellow).Fprintf(color.Error, format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	_, _ = color.New(color.FgRed).Fprintf(color.Error, format+"\n", args...)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printError("Encode JSON: %v", err)
		return
	}
	fmt.Println(string(data))
}
