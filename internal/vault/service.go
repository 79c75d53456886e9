// Package vault ties key derivation, the sealed container codec, and
// atomic storage into passphrase-guarded sessions. A Service performs
// the lifecycle operations (init, unlock, reset, inspect); a Session
// holds the derived key, the plaintext store, and the advisory lock
// between unlock and seal.
package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/picvet/lox/internal/container"
	"github.com/picvet/lox/internal/crypto"
	"github.com/picvet/lox/internal/events"
	"github.com/picvet/lox/internal/models"
	"github.com/picvet/lox/internal/storage"
)

// Config contains engine settings applied to new vaults and locking.
// Existing vaults read their derivation parameters from the container
// header instead.
type Config struct {
	Params      crypto.Params // KDF defaults for new vaults, salt filled at init
	SaltSize    int
	LockTimeout time.Duration
	LockPoll    time.Duration
}

// Service manages vault lifecycle operations.
type Service struct {
	store  storage.ContainerStore
	crypto crypto.Provider
	codec  *container.Codec
	cfg    *Config
	logger *events.Logger
}

// NewService creates a vault service.
func NewService(store storage.ContainerStore, provider crypto.Provider, cfg *Config, logger *events.Logger) *Service {
	return &Service{
		store:  store,
		crypto: provider,
		codec:  container.NewCodec(provider),
		cfg:    cfg,
		logger: logger.WithField("service", "vault"),
	}
}

// Init creates a sealed vault with an empty store at path. The
// passphrase check on later unlocks is the ability to open the
// container; nothing derived from the passphrase is stored.
func (s *Service) Init(ctx context.Context, path, passphrase string) error {
	logger := s.logger.WithField("path", path)
	logger.Debug("Initializing vault")

	if err := ctx.Err(); err != nil {
		return err
	}

	lock, err := storage.AcquireLock(path, s.cfg.LockTimeout, s.cfg.LockPoll, s.logger)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	exists, err := s.store.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", models.ErrVaultExists, path)
	}

	salt, err := s.crypto.NewSalt(s.cfg.SaltSize)
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	params := s.cfg.Params
	params.Salt = salt

	key, err := s.deriveKey(passphrase, params)
	if err != nil {
		return err
	}
	defer crypto.Zero(key)

	data, err := s.seal(models.NewVaultStore(), key, params)
	if err != nil {
		return err
	}

	if err := s.store.WriteAtomic(path, data, 0600); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"algorithm": params.Algorithm.String(),
		"salt_size": len(salt),
	}).Info("Vault initialized")

	return nil
}

// Unlock opens the vault at path and returns a live session holding the
// advisory lock. The caller must Close the session; every failure path
// here releases the lock before returning.
func (s *Service) Unlock(ctx context.Context, path, passphrase string) (*Session, error) {
	sessionID := uuid.NewString()
	logger := s.logger.WithFields(map[string]interface{}{
		"path":       path,
		"session_id": sessionID,
	})
	logger.Debug("Unlocking vault")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock, err := storage.AcquireLock(path, s.cfg.LockTimeout, s.cfg.LockPoll, logger)
	if err != nil {
		return nil, err
	}

	session, err := s.openSession(path, passphrase, sessionID, lock, logger)
	if err != nil {
		_ = lock.Release()
		return nil, err
	}

	logger.WithField("records", session.store.Len()).Info("Vault unlocked")
	return session, nil
}

// openSession reads, decodes, and opens the container while the lock is
// already held.
func (s *Service) openSession(path, passphrase, sessionID string, lock *storage.FileLock, logger *events.Logger) (*Session, error) {
	raw, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}

	cont, err := container.Decode(raw)
	if err != nil {
		return nil, err
	}

	key, err := s.deriveKey(passphrase, cont.Params)
	if err != nil {
		return nil, err
	}

	vstore, err := s.codec.Open(cont, key)
	if err != nil {
		crypto.Zero(key)
		return nil, err
	}

	return &Session{
		id:     sessionID,
		path:   path,
		params: cont.Params,
		key:    key,
		store:  vstore,
		lock:   lock,
		files:  s.store,
		codec:  s.codec,
		logger: logger,
	}, nil
}

// Reset removes the container without requiring the passphrase. The
// caller chains into Init for a fresh vault.
func (s *Service) Reset(ctx context.Context, path string) error {
	logger := s.logger.WithField("path", path)
	logger.Debug("Resetting vault")

	if err := ctx.Err(); err != nil {
		return err
	}

	lock, err := storage.AcquireLock(path, s.cfg.LockTimeout, s.cfg.LockPoll, logger)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	if err := s.store.Remove(path); err != nil {
		return err
	}

	logger.Info("Vault reset")
	return nil
}

// Exists reports whether a container file is present at path.
func (s *Service) Exists(path string) (bool, error) {
	return s.store.Exists(path)
}

// Info describes a sealed container without opening it.
type Info struct {
	Path       string    `json:"path"`
	Version    uint16    `json:"version"`
	Algorithm  string    `json:"algorithm"`
	Iterations int       `json:"iterations,omitempty"`
	ScryptN    int       `json:"scrypt_n,omitempty"`
	ScryptR    int       `json:"scrypt_r,omitempty"`
	ScryptP    int       `json:"scrypt_p,omitempty"`
	SaltSize   int       `json:"salt_size"`
	Size       int64     `json:"size"`
	ModTime    time.Time `json:"modified"`
}

// Info reads the container header. No passphrase is needed; only the
// public envelope is inspected.
func (s *Service) Info(path string) (*Info, error) {
	stat, err := s.store.Stat(path)
	if err != nil {
		return nil, err
	}

	raw, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}

	hdr, err := container.DecodeHeader(raw)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Path:      path,
		Version:   hdr.Version,
		Algorithm: hdr.Params.Algorithm.String(),
		SaltSize:  len(hdr.Params.Salt),
		Size:      stat.Size,
		ModTime:   stat.ModTime,
	}

	switch hdr.Params.Algorithm {
	case crypto.AlgorithmPBKDF2:
		info.Iterations = hdr.Params.Iterations
	case crypto.AlgorithmScrypt:
		info.ScryptN = hdr.Params.N
		info.ScryptR = hdr.Params.R
		info.ScryptP = hdr.Params.P
	}

	return info, nil
}

// deriveKey runs the KDF and normalizes weak-parameter failures to the
// engine error taxonomy.
func (s *Service) deriveKey(passphrase string, params crypto.Params) ([]byte, error) {
	key, err := s.crypto.DeriveKey(passphrase, params)
	if err != nil {
		if errors.Is(err, crypto.ErrWeakParameters) {
			return nil, fmt.Errorf("%w: %v", models.ErrWeakParameters, err)
		}
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// seal encrypts the store and encodes the container for disk.
func (s *Service) seal(vstore *models.VaultStore, key []byte, params crypto.Params) ([]byte, error) {
	cont, err := s.codec.Seal(vstore, key, params)
	if err != nil {
		return nil, fmt.Errorf("seal vault: %w", err)
	}
	return container.Encode(cont), nil
}
