package history_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picvet/lox/internal/events"
	"github.com/picvet/lox/internal/history"
)

func newTestJournal(t *testing.T) *history.Journal {
	t.Helper()

	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	journal, err := history.NewJournal(filepath.Join(t.TempDir(), "history.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	return journal
}

func TestAppendAndList(t *testing.T) {
	journal := newTestJournal(t)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []history.Event{
		{Operation: history.OpInit, VaultPath: "/tmp/vault.enc", CreatedAt: base},
		{Operation: history.OpSeal, VaultPath: "/tmp/vault.enc", Detail: "3 records", CreatedAt: base.Add(time.Minute)},
		{Operation: history.OpPush, VaultPath: "/tmp/vault.enc", RemoteID: "rev-123", Detail: "412 bytes", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, ev := range entries {
		require.NoError(t, journal.Append(ev))
	}

	got, err := journal.List("/tmp/vault.enc", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first
	assert.Equal(t, history.OpPush, got[0].Operation)
	assert.Equal(t, "rev-123", got[0].RemoteID)
	assert.Equal(t, "412 bytes", got[0].Detail)
	assert.Equal(t, history.OpSeal, got[1].Operation)
	assert.Equal(t, history.OpInit, got[2].Operation)
	assert.Empty(t, got[2].RemoteID)
}

func TestListRespectsLimit(t *testing.T) {
	journal := newTestJournal(t)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		require.NoError(t, journal.Append(history.Event{
			Operation: history.OpSeal,
			VaultPath: "/tmp/vault.enc",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := journal.List("/tmp/vault.enc", 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestListScopedToVaultPath(t *testing.T) {
	journal := newTestJournal(t)

	require.NoError(t, journal.Append(history.Event{
		Operation: history.OpInit,
		VaultPath: "/tmp/a.enc",
	}))
	require.NoError(t, journal.Append(history.Event{
		Operation: history.OpInit,
		VaultPath: "/tmp/b.enc",
	}))

	got, err := journal.List("/tmp/a.enc", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/tmp/a.enc", got[0].VaultPath)

	got, err = journal.List("/tmp/missing.enc", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAppendStampsTimestamp(t *testing.T) {
	journal := newTestJournal(t)

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, journal.Append(history.Event{
		Operation: history.OpPull,
		VaultPath: "/tmp/vault.enc",
	}))

	got, err := journal.List("/tmp/vault.enc", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].CreatedAt.After(before))
}

func TestAppendValidation(t *testing.T) {
	journal := newTestJournal(t)

	err := journal.Append(history.Event{VaultPath: "/tmp/vault.enc"})
	assert.ErrorContains(t, err, "operation is required")

	err = journal.Append(history.Event{Operation: history.OpInit})
	assert.ErrorContains(t, err, "vault path is required")
}

func TestJournalSurvivesReopen(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	journal, err := history.NewJournal(dbPath, logger)
	require.NoError(t, err)
	require.NoError(t, journal.Append(history.Event{
		Operation: history.OpInit,
		VaultPath: "/tmp/vault.enc",
	}))
	require.NoError(t, journal.Close())

	journal, err = history.NewJournal(dbPath, logger)
	require.NoError(t, err)
	defer journal.Close()

	got, err := journal.List("/tmp/vault.enc", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNopJournal(t *testing.T) {
	var journal history.Recorder = history.NopJournal{}

	assert.NoError(t, journal.Append(history.Event{Operation: history.OpInit, VaultPath: "/x"}))

	got, err := journal.List("/x", 10)
	assert.NoError(t, err)
	assert.Empty(t, got)

	assert.NoError(t, journal.Close())
}
