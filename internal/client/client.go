// Package client wires configuration into the vault engine and its
// collaborators. Commands talk to a Client; only the vault package
// touches keys and plaintext.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/picvet/lox/internal/clipboard"
	"github.com/picvet/lox/internal/config"
	"github.com/picvet/lox/internal/container"
	"github.com/picvet/lox/internal/crypto"
	"github.com/picvet/lox/internal/events"
	"github.com/picvet/lox/internal/history"
	"github.com/picvet/lox/internal/models"
	"github.com/picvet/lox/internal/storage"
	"github.com/picvet/lox/internal/sync"
	"github.com/picvet/lox/internal/totp"
	"github.com/picvet/lox/internal/vault"
)

// BackupSuffix marks the safety copy written before pull replaces the
// container.
const BackupSuffix = ".backup"

// Client provides the high-level API for lox operations.
type Client struct {
	Vault     *vault.Service
	TOTP      *totp.Service
	Clipboard *clipboard.Service

	config  *config.Config
	logger  *events.Logger
	store   storage.ContainerStore
	journal history.Recorder

	// newRemote builds the sync backend; swapped in tests.
	newRemote func(config.SyncConfig, *events.Logger) (sync.Remote, error)
}

// New creates a client from validated config.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	params, err := cfg.KDFParams()
	if err != nil {
		return nil, err
	}

	store := storage.NewLocalStore(logger)

	vaultService := vault.NewService(store, crypto.NewProvider(), &vault.Config{
		Params:      params,
		SaltSize:    cfg.KDF.SaltSize,
		LockTimeout: cfg.Lock.Timeout,
		LockPoll:    cfg.Lock.PollInterval,
	}, logger)

	journal := history.Recorder(history.NopJournal{})
	if cfg.History.Enabled {
		j, err := history.NewJournal(cfg.History.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open history journal: %w", err)
		}
		journal = j
	}

	return &Client{
		Vault:     vaultService,
		TOTP:      totp.NewService(),
		Clipboard: clipboard.NewService(logger),
		config:    cfg,
		logger:    logger,
		store:     store,
		journal:   journal,
		newRemote: sync.New,
	}, nil
}

// Path returns the configured container location.
func (c *Client) Path() string {
	return c.config.Vault.Path
}

// Init creates a new vault at the configured path.
func (c *Client) Init(ctx context.Context, passphrase string) error {
	if err := c.Vault.Init(ctx, c.config.Vault.Path, passphrase); err != nil {
		return err
	}
	c.record(history.OpInit, "", "")
	return nil
}

// Unlock opens a session on the configured vault.
func (c *Client) Unlock(ctx context.Context, passphrase string) (*vault.Session, error) {
	return c.Vault.Unlock(ctx, c.config.Vault.Path, passphrase)
}

// CloseSession seals and closes a session, journaling the seal when
// the session carried changes.
func (c *Client) CloseSession(sess *vault.Session) error {
	dirty := sess.Dirty()
	if err := sess.Close(); err != nil {
		return err
	}
	if dirty {
		c.record(history.OpSeal, "", "")
	}
	return nil
}

// Reset destroys the configured vault.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.Vault.Reset(ctx, c.config.Vault.Path); err != nil {
		return err
	}
	c.record(history.OpReset, "", "")
	return nil
}

// Exists reports whether the configured vault is initialized.
func (c *Client) Exists() (bool, error) {
	return c.Vault.Exists(c.config.Vault.Path)
}

// Info returns container header info without unlocking.
func (c *Client) Info() (*vault.Info, error) {
	return c.Vault.Info(c.config.Vault.Path)
}

// Push uploads the sealed container to the configured remote. Only
// container bytes travel; nothing is decrypted.
func (c *Client) Push(ctx context.Context) (string, error) {
	data, err := c.store.Read(c.config.Vault.Path)
	if err != nil {
		return "", err
	}

	remote, err := c.newRemote(c.config.Sync, c.logger)
	if err != nil {
		return "", err
	}

	id, err := remote.Push(ctx, sync.Revision{Name: c.config.Sync.CommonName, Data: data})
	if err != nil {
		return "", err
	}

	c.record(history.OpPush, id, fmt.Sprintf("%d bytes", len(data)))
	return id, nil
}

// Pull downloads the newest remote revision and replaces the local
// container under the advisory lock. The payload is never decrypted; a
// header sanity check rejects foreign bytes, and the previous container
// is kept at Path + BackupSuffix.
func (c *Client) Pull(ctx context.Context) (*sync.RevisionInfo, error) {
	remote, err := c.newRemote(c.config.Sync, c.logger)
	if err != nil {
		return nil, err
	}

	rev, err := remote.PullLatest(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := container.DecodeHeader(rev.Data); err != nil {
		return nil, fmt.Errorf("remote revision %s: %w", rev.ID, err)
	}

	path := c.config.Vault.Path
	lock, err := storage.AcquireLock(path, c.config.Lock.Timeout, c.config.Lock.PollInterval, c.logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	prev, err := c.store.Read(path)
	switch {
	case err == nil:
		if err := c.store.WriteAtomic(path+BackupSuffix, prev, 0600); err != nil {
			return nil, fmt.Errorf("back up container: %w", err)
		}
	case errors.Is(err, models.ErrVaultNotFound):
		// First pull onto this machine
	default:
		return nil, err
	}

	if err := c.store.WriteAtomic(path, rev.Data, 0600); err != nil {
		return nil, err
	}

	c.record(history.OpPull, rev.ID, fmt.Sprintf("%d bytes", len(rev.Data)))

	return &sync.RevisionInfo{
		ID:       rev.ID,
		Name:     rev.Name,
		Size:     int64(len(rev.Data)),
		PushedAt: rev.PushedAt,
	}, nil
}

// Revisions lists remote revision metadata, newest first.
func (c *Client) Revisions(ctx context.Context, limit int) ([]sync.RevisionInfo, error) {
	remote, err := c.newRemote(c.config.Sync, c.logger)
	if err != nil {
		return nil, err
	}
	return remote.List(ctx, limit)
}

// History returns recent journal entries for the configured vault.
func (c *Client) History(limit int) ([]history.Event, error) {
	return c.journal.List(c.config.Vault.Path, limit)
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.journal.Close()
}

// record appends a journal event. Journal failures never fail the
// operation they describe.
func (c *Client) record(op history.Operation, remoteID, detail string) {
	ev := history.Event{
		Operation: op,
		VaultPath: c.config.Vault.Path,
		RemoteID:  remoteID,
		Detail:    detail,
	}
	if err := c.journal.Append(ev); err != nil {
		c.logger.WithError(err).Warn("Failed to record history event")
	}
}
