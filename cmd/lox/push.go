package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the sealed container to the remote backend",
	Long: `Push uploads the container file as a new remote revision. The blob is
already encrypted, so the backend never sees plaintext or keys. No
passphrase is needed.`,
	Example: `  lox push
  lox push --json`,
	Args: cobra.NoArgs,
	RunE: runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		printWarning("\nPush interrupted, cancelling...")
		cancel()
	}()

	c, err := newClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	stop := startSpinner("Pushing vault to remote...")
	id, err := c.Push(ctx)
	stop()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success":   true,
			"remote_id": id,
		})
		return nil
	}

	printSuccess("Pushed revision %s", id)
	return nil
}
