package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/picvet/lox/internal/crypto"
)

// Config holds all application configuration.
type Config struct {
	// Vault container location
	Vault VaultConfig `json:"vault"`

	// Key derivation parameters for new vaults
	KDF KDFConfig `json:"kdf"`

	// Advisory lock behavior
	Lock LockConfig `json:"lock"`

	// Password generator defaults
	Generator GeneratorConfig `json:"generator"`

	// Clipboard behavior
	Clipboard ClipboardConfig `json:"clipboard"`

	// Remote sync
	Sync SyncConfig `json:"sync"`

	// Local history journal
	History HistoryConfig `json:"history"`

	// Logging
	Log LogConfig `json:"log"`
}

// VaultConfig for the sealed container file.
type VaultConfig struct {
	Path string `json:"path"` // Container file location
}

// KDFConfig for deriving the vault key from a passphrase. These apply
// when a vault is created; existing vaults read their parameters from
// the container header.
type KDFConfig struct {
	Algorithm  string `json:"algorithm"`   // pbkdf2, scrypt
	Iterations int    `json:"iterations"`  // PBKDF2 iteration count
	ScryptN    int    `json:"scrypt_n"`    // scrypt CPU/memory cost
	ScryptR    int    `json:"scrypt_r"`    // scrypt block size
	ScryptP    int    `json:"scrypt_p"`    // scrypt parallelism
	SaltSize   int    `json:"salt_size"`   // Salt length in bytes
}

// LockConfig for the container advisory lock.
type LockConfig struct {
	Timeout      time.Duration `json:"timeout"`       // Max wait for a held lock
	PollInterval time.Duration `json:"poll_interval"` // Retry interval while waiting
}

// GeneratorConfig holds password generator defaults.
type GeneratorConfig struct {
	Length         int  `json:"length"`
	Uppercase      bool `json:"uppercase"`
	Digits         bool `json:"digits"`
	Symbols        bool `json:"symbols"`
	ExcludeSimilar bool `json:"exclude_similar"` // Drop 0O1lI lookalikes
}

// ClipboardConfig for copy-to-clipboard behavior.
type ClipboardConfig struct {
	ClearAfter time.Duration `json:"clear_after"` // Zero disables auto-clear
}

// SyncConfig for pushing sealed containers to a remote backend. The
// container is synced as an opaque blob; the passphrase never leaves
// the machine.
type SyncConfig struct {
	Backend    string        `json:"backend"`     // dynamodb, s3, empty = disabled
	Region     string        `json:"region"`      // AWS region
	Table      string        `json:"table"`       // DynamoDB table name
	Bucket     string        `json:"bucket"`      // S3 bucket name
	Prefix     string        `json:"prefix"`      // S3 key prefix
	CommonName string        `json:"common_name"` // Vault identity in remote records
	AccessKey  string        `json:"access_key"`  // Static credentials; empty = default AWS chain
	SecretKey  string        `json:"secret_key"`
	RoleARN    string        `json:"role_arn"` // Optional assume-role ARN
	Endpoint   string        `json:"endpoint"` // Optional endpoint override
	Timeout    time.Duration `json:"timeout"`  // Per-call timeout
}

// HistoryConfig for the local operation journal.
type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"` // SQLite database location
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
	File   string `json:"file"`   // Log file path (empty = stderr)
	Color  bool   `json:"color"`  // Enable colored output
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	configDir := defaultConfigDir()

	return &Config{
		Vault: VaultConfig{
			Path: filepath.Join(configDir, "vault.enc"),
		},
		KDF: KDFConfig{
			Algorithm:  "pbkdf2",
			Iterations: crypto.DefaultIterations,
			ScryptN:    crypto.ScryptN,
			ScryptR:    crypto.ScryptR,
			ScryptP:    crypto.ScryptP,
			SaltSize:   crypto.DefaultSaltSize,
		},
		Lock: LockConfig{
			Timeout:      5 * time.Second,
			PollInterval: 50 * time.Millisecond,
		},
		Generator: GeneratorConfig{
			Length:         16,
			Uppercase:      true,
			Digits:         true,
			Symbols:        true,
			ExcludeSimilar: true,
		},
		Clipboard: ClipboardConfig{
			ClearAfter: 45 * time.Second,
		},
		Sync: SyncConfig{
			Backend: "",
			Region:  "us-east-1",
			Table:   "lox-vault",
			Prefix:  "lox/",
			Timeout: 30 * time.Second,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(configDir, "history.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
			Color:  true,
		},
	}
}

// defaultConfigDir resolves the per-user config directory.
func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "lox")
	}
	return ".lox"
}

// Validate checks configuration validity. KDF floors are re-checked at
// derivation time; this catches bad config before any file is touched.
func (c *Config) Validate() error {
	if c.Vault.Path == "" {
		return errors.New("vault.path is required")
	}

	switch c.KDF.Algorithm {
	case "pbkdf2":
		if c.KDF.Iterations < crypto.MinIterations {
			return fmt.Errorf("kdf.iterations must be at least %d", crypto.MinIterations)
		}
	case "scrypt":
		if c.KDF.ScryptN < crypto.MinScryptN {
			return fmt.Errorf("kdf.scrypt_n must be at least %d", crypto.MinScryptN)
		}
	default:
		return fmt.Errorf("invalid kdf.algorithm: %s", c.KDF.Algorithm)
	}

	if c.KDF.SaltSize < crypto.MinSaltSize || c.KDF.SaltSize > crypto.MaxSaltSize {
		return fmt.Errorf("kdf.salt_size must be between %d and %d", crypto.MinSaltSize, crypto.MaxSaltSize)
	}

	if c.Lock.Timeout <= 0 {
		return errors.New("lock.timeout must be positive")
	}

	if c.Lock.PollInterval <= 0 {
		return errors.New("lock.poll_interval must be positive")
	}

	if c.Generator.Length < 8 || c.Generator.Length > 128 {
		return errors.New("generator.length must be between 8 and 128")
	}

	switch c.Sync.Backend {
	case "":
		// Sync disabled
	case "dynamodb":
		if c.Sync.Table == "" {
			return errors.New("sync.table is required for dynamodb backend")
		}
		if c.Sync.Region == "" {
			return errors.New("sync.region is required for dynamodb backend")
		}
	case "s3":
		if c.Sync.Bucket == "" {
			return errors.New("sync.bucket is required for s3 backend")
		}
		if c.Sync.Region == "" {
			return errors.New("sync.region is required for s3 backend")
		}
	default:
		return fmt.Errorf("invalid sync.backend: %s", c.Sync.Backend)
	}

	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history.path is required when history is enabled")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// KDFParams converts the configured defaults into derivation
// parameters. The salt is filled in when a vault is created.
func (c *Config) KDFParams() (crypto.Params, error) {
	alg, err := crypto.ParseAlgorithm(c.KDF.Algorithm)
	if err != nil {
		return crypto.Params{}, fmt.Errorf("kdf config: %w", err)
	}

	return crypto.Params{
		Algorithm:  alg,
		Iterations: c.KDF.Iterations,
		N:          c.KDF.ScryptN,
		R:          c.KDF.ScryptR,
		P:          c.KDF.ScryptP,
	}, nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Vault.Path),
	}

	if c.History.Enabled && c.History.Path != "" {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
