package events_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picvet/lox/internal/config"
	"github.com/picvet/lox/internal/events"
)

func TestNewLogger(t *testing.T) {
	logger, err := events.NewLogger(&config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLoggerFileError(t *testing.T) {
	cfg := &config.LogConfig{
		Level:  "info",
		Format: "text",
		File:   filepath.Join(t.TempDir(), "missing", "lox.log"),
	}

	_, err := events.NewLogger(cfg)
	assert.Error(t, err)
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerJSONEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.InfoLevel, "json", &buf)

	logger.WithField("service", "github").Info("record added")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "record added", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "github", entry["service"])
	assert.NotEmpty(t, entry["time"])
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.InfoLevel, "json", &buf)

	logger.WithFields(map[string]interface{}{
		"vault_path": "/tmp/vault.enc",
		"records":    3,
	}).Info("vault sealed")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "/tmp/vault.enc", entry["vault_path"])
	assert.EqualValues(t, 3, entry["records"])
	assert.Equal(t, "vault sealed", entry["msg"])
}

func TestLoggerRedactsSecrets(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"passphrase field", "passphrase", "correct-horse"},
		{"password field", "password", "s3cr3t"},
		{"uppercase key", "Passphrase", "hunter2"},
		{"totp secret", "totp_secret", "JBSWY3DPEHPK3PXP"},
		{"token field", "token", "ghp_abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

			logger.WithField(tt.key, tt.value).Info("unlock attempt")

			output := buf.String()
			assert.NotContains(t, output, tt.value)
			assert.Contains(t, output, "[REDACTED]")
		})
	}
}

func TestLoggerRedactsSecretsInFieldMap(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	logger.WithFields(map[string]interface{}{
		"service":  "github",
		"password": "s3cr3t",
	}).Debug("record detail")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "github", entry["service"])
	assert.Equal(t, "[REDACTED]", entry["password"])
	assert.NotContains(t, buf.String(), "s3cr3t")
}

func TestLoggerLevelGate(t *testing.T) {
	emit := map[events.LogLevel]func(*events.Logger, string){
		events.DebugLevel: (*events.Logger).Debug,
		events.InfoLevel:  (*events.Logger).Info,
		events.WarnLevel:  (*events.Logger).Warn,
		events.ErrorLevel: (*events.Logger).Error,
	}
	levels := []events.LogLevel{
		events.DebugLevel, events.InfoLevel, events.WarnLevel, events.ErrorLevel,
	}

	for _, configured := range levels {
		for _, msg := range levels {
			var buf bytes.Buffer
			logger := events.NewTestLogger(configured, "text", &buf)
			emit[msg](logger, "gate check")

			if msg >= configured {
				assert.NotEmpty(t, buf.String(), "%v entry on a %v logger", msg, configured)
			} else {
				assert.Empty(t, buf.String(), "%v entry on a %v logger", msg, configured)
			}
		}
	}
}

func TestLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.InfoLevel, "text", &buf)

	logger.WithFields(map[string]interface{}{
		"service": "github",
		"count":   2,
	}).Info("record added")

	output := buf.String()
	assert.Contains(t, output, "[INFO]")
	assert.Contains(t, output, "record added")
	// Fields print in sorted order so lines are stable.
	assert.Contains(t, output, "count=2 service=github")
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.InfoLevel, "json", &buf)

	logger.WithError(assert.AnError).Error("seal failed")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, assert.AnError.Error(), entry["error"])
	assert.Equal(t, "seal failed", entry["msg"])
	assert.Equal(t, "error", entry["level"])
}

func TestLoggerWithErrorNil(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.InfoLevel, "json", &buf)

	logger.WithError(nil).Info("nothing broke")

	entry := decodeEntry(t, &buf)
	assert.NotContains(t, entry, "error")
}

func TestLoggerDerivedDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := events.NewTestLogger(events.InfoLevel, "json", &buf)

	_ = parent.WithField("service", "github")
	parent.Info("plain entry")

	entry := decodeEntry(t, &buf)
	assert.NotContains(t, entry, "service")
}
