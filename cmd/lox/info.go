package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show container metadata without unlocking",
	Long: `Info reads the container header and prints the key derivation
parameters and file details. No passphrase is needed and nothing is
decrypted.`,
	Example: `  lox info
  lox info --json`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	info, err := c.Info()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(info)
		return nil
	}

	fmt.Printf("Path:       %s\n", info.Path)
	fmt.Printf("Version:    %d\n", info.Version)
	fmt.Printf("KDF:        %s\n", info.Algorithm)
	if info.Iterations > 0 {
		fmt.Printf("Iterations: %d\n", info.Iterations)
	}
	if info.ScryptN > 0 {
		fmt.Printf("Scrypt:     N=%d r=%d p=%d\n", info.ScryptN, info.ScryptR, info.ScryptP)
	}
	fmt.Printf("Salt:       %d bytes\n", info.SaltSize)
	fmt.Printf("Size:       %d bytes\n", info.Size)
	fmt.Printf("Modified:   %s\n", info.ModTime.Local().Format(time.RFC3339))
	return nil
}
