package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/picvet/lox/internal/client"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace the local container with the newest remote revision",
	Long: `Pull downloads the newest remote revision and swaps it in for the
local container. The previous container is kept next to the vault with
a ` + client.BackupSuffix + ` suffix. The downloaded blob stays sealed; unlocking it
still takes the passphrase it was sealed with.`,
	Example: `  lox pull
  lox pull --json`,
	Args: cobra.NoArgs,
	RunE: runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		printWarning("\nPull interrupted, cancelling...")
		cancel()
	}()

	c, err := newClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	stop := startSpinner("Pulling latest revision...")
	info, err := c.Pull(ctx)
	stop()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(info)
		return nil
	}

	printSuccess("Pulled revision %s (%d bytes, pushed %s)",
		info.ID, info.Size, info.PushedAt.Local().Format(time.RFC3339))
	if _, err := os.Stat(c.Path() + client.BackupSuffix); err == nil {
		printInfo("Previous container kept at %s%s", c.Path(), client.BackupSuffix)
	}
	return nil
}
