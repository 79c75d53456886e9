package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/picvet/lox/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write or update the config file",
	Long: `Setup merges the given flags into the current configuration and writes
it back. Only flags that were set change anything; everything else
keeps its current value. Run it with no flags to materialize the
defaults.

Static AWS credentials are optional. When absent, sync uses the
default AWS credential chain (environment, shared config, instance
role).`,
	Example: `  lox setup
  lox setup --vault-path ~/vaults/work.enc --kdf scrypt
  lox setup --sync-backend dynamodb --table lox-vaults --region eu-west-1
  lox setup --sync-backend s3 --bucket my-vaults --common-name laptop`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

var (
	setupVaultPath  string
	setupKDF        string
	setupIterations int
	setupBackend    string
	setupRegion     string
	setupTable      string
	setupBucket     string
	setupPrefix     string
	setupCommonName string
	setupRoleARN    string
	setupAccessKey  string
	setupSecretKey  string
	setupEndpoint   string
	setupHistory    bool
)

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().StringVar(&setupVaultPath, "vault-path", "", "Vault container location")
	setupCmd.Flags().StringVar(&setupKDF, "kdf", "", "Key derivation algorithm (pbkdf2, scrypt)")
	setupCmd.Flags().IntVar(&setupIterations, "iterations", 0, "PBKDF2 iteration count")
	setupCmd.Flags().StringVar(&setupBackend, "sync-backend", "", "Sync backend (dynamodb, s3, none)")
	setupCmd.Flags().StringVar(&setupRegion, "region", "", "AWS region")
	setupCmd.Flags().StringVar(&setupTable, "table", "", "DynamoDB table name")
	setupCmd.Flags().StringVar(&setupBucket, "bucket", "", "S3 bucket name")
	setupCmd.Flags().StringVar(&setupPrefix, "prefix", "", "S3 key prefix")
	setupCmd.Flags().StringVar(&setupCommonName, "common-name", "", "Vault identity in remote records (default hostname)")
	setupCmd.Flags().StringVar(&setupRoleARN, "role-arn", "", "IAM role to assume for sync")
	setupCmd.Flags().StringVar(&setupAccessKey, "access-key", "", "Static AWS access key (empty = default chain)")
	setupCmd.Flags().StringVar(&setupSecretKey, "secret-key", "", "Static AWS secret key")
	setupCmd.Flags().StringVar(&setupEndpoint, "endpoint", "", "AWS endpoint override, for local stacks")
	setupCmd.Flags().BoolVar(&setupHistory, "history", true, "Record operations in the local journal")
}

func runSetup(cmd *cobra.Command, args []string) error {
	if setupVaultPath != "" {
		cfg.Vault.Path = setupVaultPath
	}
	if setupKDF != "" {
		cfg.KDF.Algorithm = strings.ToLower(setupKDF)
	}
	if setupIterations > 0 {
		cfg.KDF.Iterations = setupIterations
	}

	switch strings.ToLower(setupBackend) {
	case "":
	case "none":
		cfg.Sync.Backend = ""
	default:
		cfg.Sync.Backend = strings.ToLower(setupBackend)
	}
	if setupRegion != "" {
		cfg.Sync.Region = setupRegion
	}
	if setupTable != "" {
		cfg.Sync.Table = setupTable
	}
	if setupBucket != "" {
		cfg.Sync.Bucket = setupBucket
	}
	if setupPrefix != "" {
		cfg.Sync.Prefix = setupPrefix
	}
	if setupCommonName != "" {
		cfg.Sync.CommonName = setupCommonName
	}
	if setupRoleARN != "" {
		cfg.Sync.RoleARN = setupRoleARN
	}
	if setupAccessKey != "" {
		cfg.Sync.AccessKey = setupAccessKey
	}
	if setupSecretKey != "" {
		cfg.Sync.SecretKey = setupSecretKey
	}
	if setupEndpoint != "" {
		cfg.Sync.Endpoint = setupEndpoint
	}
	if cmd.Flags().Changed("history") {
		cfg.History.Enabled = setupHistory
	}

	// Remote records need an identity once sync is on
	if cfg.Sync.Backend != "" && cfg.Sync.CommonName == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.Sync.CommonName = host
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, configPath); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"config":  configPath,
		})
		return nil
	}

	printSuccess("Config written to %s", configPath)
	return nil
}
