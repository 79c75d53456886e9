package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/picvet/lox/internal/client"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show vault history",
	Long: `History lists recent journaled operations against this vault, newest
first. With --remote it lists revisions stored on the sync backend
instead.`,
	Example: `  lox history
  lox history --limit 50
  lox history --remote`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var (
	historyLimit  int
	historyRemote bool
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries to show")
	historyCmd.Flags().BoolVar(&historyRemote, "remote", false, "List remote revisions instead of local history")
}

func runHistory(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if historyRemote {
		return listRemoteRevisions(c)
	}

	entries, err := c.History(historyLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"events": entries,
			"count":  len(entries),
		})
		return nil
	}

	if len(entries) == 0 {
		printInfo("No history recorded")
		return nil
	}
	for _, ev := range entries {
		line := fmt.Sprintf("%s  %-5s", ev.CreatedAt.Local().Format("2006-01-02 15:04:05"), ev.Operation)
		if ev.RemoteID != "" {
			line += "  " + ev.RemoteID
		}
		if ev.Detail != "" {
			line += "  " + ev.Detail
		}
		fmt.Println(line)
	}
	return nil
}

func listRemoteRevisions(c *client.Client) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	stop := startSpinner("Listing remote revisions...")
	infos, err := c.Revisions(ctx, historyLimit)
	stop()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"revisions": infos,
			"count":     len(infos),
		})
		return nil
	}

	if len(infos) == 0 {
		printInfo("No remote revisions")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%s  %-36s  %8d bytes  %s\n",
			info.PushedAt.Local().Format("2006-01-02 15:04:05"), info.ID, info.Size, info.Name)
	}
	return nil
}
