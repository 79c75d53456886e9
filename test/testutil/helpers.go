// Package testutil provides shared helpers for integration tests and
// benchmarks.
package testutil

import (
	"io"
	"path/filepath"
	"time"

	"github.com/picvet/lox/internal/config"
	"github.com/picvet/lox/internal/crypto"
	"github.com/picvet/lox/internal/events"
)

// TestConfigWithDir returns a config rooted under dir with the cheapest
// allowed KDF parameters and short lock timeouts.
func TestConfigWithDir(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Vault.Path = filepath.Join(dir, "vault.enc")
	cfg.KDF.Iterations = crypto.MinIterations
	cfg.Lock.Timeout = 2 * time.Second
	cfg.Lock.PollInterval = 10 * time.Millisecond
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.Clipboard.ClearAfter = 0
	cfg.Sync.Backend = ""
	return cfg
}

// NewTestLogger returns a logger that only surfaces errors and writes
// nowhere.
func NewTestLogger() *events.Logger {
	return events.NewTestLogger(events.ErrorLevel, "json", io.Discard)
}
