package vault

import (
	"fmt"
	"sync"
	"time"

	"github.com/picvet/lox/internal/container"
	"github.com/picvet/lox/internal/crypto"
	"github.com/picvet/lox/internal/events"
	"github.com/picvet/lox/internal/models"
	"github.com/picvet/lox/internal/storage"
)

type sessionState int

const (
	stateUnlocked sessionState = iota
	stateSealing
	stateClosed
)

// Session is an unlocked vault: the derived key, the plaintext store,
// and the advisory lock, alive between Unlock and Close. Mutating
// operations mark the session dirty; Close re-seals only when dirty,
// reusing the salt and derivation parameters from unlock with a fresh
// nonce.
type Session struct {
	mu    sync.Mutex
	state sessionState
	dirty bool

	id     string
	path   string
	params crypto.Params
	key    []byte
	store  *models.VaultStore
	lock   *storage.FileLock
	files  storage.ContainerStore
	codec  *container.Codec
	logger *events.Logger
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Path returns the container path this session operates on.
func (s *Session) Path() string {
	return s.path
}

// Dirty reports whether the store has changes not yet sealed to disk.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Add inserts a credential record, or replaces an existing one when
// overwrite is set. Timestamps are stamped here; an overwrite keeps the
// original creation time.
func (s *Session) Add(rec models.CredentialRecord, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return err
	}

	rec.Touch(time.Now().UTC())

	if err := s.store.Add(rec, overwrite); err != nil {
		return err
	}

	s.dirty = true
	s.logger.WithFields(map[string]interface{}{
		"service":   rec.Service,
		"overwrite": overwrite,
	}).Debug("Record added")
	return nil
}

// Get returns a copy of the record for service.
func (s *Session) Get(service string) (models.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return models.CredentialRecord{}, err
	}

	return s.store.Get(service)
}

// List returns service names in insertion order.
func (s *Session) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	return s.store.List(), nil
}

// Records returns copies of all records in insertion order.
func (s *Session) Records() ([]models.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	return s.store.Records(), nil
}

// Delete removes the record for service.
func (s *Session) Delete(service string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return err
	}

	if err := s.store.Delete(service); err != nil {
		return err
	}

	s.dirty = true
	s.logger.WithField("service", service).Debug("Record deleted")
	return nil
}

// Len returns the number of records in the store.
func (s *Session) Len() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return 0, err
	}

	return s.store.Len(), nil
}

// Close seals the vault when dirty and tears the session down. The key
// is zeroed, the plaintext store cleared, and the lock released on
// every path, including seal failures. Close is idempotent; after the
// first call every other method fails with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateClosed {
		return nil
	}

	s.state = stateSealing

	var sealErr error
	if s.dirty {
		s.logger.WithField("records", s.store.Len()).Debug("Sealing vault")

		cont, err := s.codec.Seal(s.store, s.key, s.params)
		if err != nil {
			sealErr = fmt.Errorf("seal vault: %w", err)
		} else if err := s.files.WriteAtomic(s.path, container.Encode(cont), 0600); err != nil {
			sealErr = err
		}
	}

	crypto.Zero(s.key)
	s.key = nil
	s.store.Clear()

	if err := s.lock.Release(); err != nil && sealErr == nil {
		sealErr = err
	}

	s.state = stateClosed

	if sealErr != nil {
		s.logger.WithError(sealErr).Error("Session close failed")
		return sealErr
	}

	s.logger.Info("Session closed")
	return nil
}

func (s *Session) ensureOpen() error {
	if s.state != stateUnlocked {
		return models.ErrSessionClosed
	}
	return nil
}
