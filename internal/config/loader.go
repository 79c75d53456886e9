package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Loader resolves the effective configuration: defaults, then a config
// file, then LOX_ environment overrides.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader returns a loader for the given file. An empty path probes
// the default locations instead.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "LOX_",
	}
}

// Load builds and validates the effective config.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath == "" {
		for _, path := range defaultPaths() {
			if _, err := os.Stat(path); err == nil {
				l.configPath = path
				break
			}
		}
	}
	if l.configPath != "" {
		if err := l.loadFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	}

	if err := l.loadEnv(cfg); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func defaultPaths() []string {
	paths := []string{
		"lox.json",
		".lox.json",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "lox", "config.json"),
			filepath.Join(home, ".lox", "config.json"),
		)
	}
	return paths
}

func (l *Loader) loadFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}

func (l *Loader) env(key string) string {
	return os.Getenv(l.envPrefix + key)
}

// loadEnv applies LOX_* overrides on top of whatever the file set. The
// passphrase is deliberately not part of config; commands read
// LOX_PASSPHRASE directly and it is never written to disk.
func (l *Loader) loadEnv(cfg *Config) error {
	for key, dst := range map[string]*string{
		"VAULT_PATH":       &cfg.Vault.Path,
		"SYNC_REGION":      &cfg.Sync.Region,
		"SYNC_TABLE":       &cfg.Sync.Table,
		"SYNC_BUCKET":      &cfg.Sync.Bucket,
		"SYNC_PREFIX":      &cfg.Sync.Prefix,
		"SYNC_COMMON_NAME": &cfg.Sync.CommonName,
		"SYNC_ROLE_ARN":    &cfg.Sync.RoleARN,
		"SYNC_ACCESS_KEY":  &cfg.Sync.AccessKey,
		"SYNC_SECRET_KEY":  &cfg.Sync.SecretKey,
		"SYNC_ENDPOINT":    &cfg.Sync.Endpoint,
		"HISTORY_PATH":     &cfg.History.Path,
		"LOG_FILE":         &cfg.Log.File,
	} {
		if v := l.env(key); v != "" {
			*dst = v
		}
	}

	for key, dst := range map[string]*string{
		"KDF_ALGORITHM": &cfg.KDF.Algorithm,
		"SYNC_BACKEND":  &cfg.Sync.Backend,
		"LOG_LEVEL":     &cfg.Log.Level,
		"LOG_FORMAT":    &cfg.Log.Format,
	} {
		if v := l.env(key); v != "" {
			*dst = strings.ToLower(v)
		}
	}

	if v := l.env("KDF_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse KDF_ITERATIONS: %w", err)
		}
		cfg.KDF.Iterations = n
	}

	if v := l.env("LOCK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse LOCK_TIMEOUT: %w", err)
		}
		cfg.Lock.Timeout = d
	}

	if v := l.env("HISTORY_ENABLED"); v != "" {
		cfg.History.Enabled = v == "true" || v == "1"
	}

	return nil
}

// ConfigPath returns the file the loader read, or the preferred
// default location when no file existed.
func (l *Loader) ConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "lox", "config.json")
	}
	return "lox.json"
}

// Save writes config as JSON, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
