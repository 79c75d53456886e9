package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/picvet/lox/internal/events"
	"github.com/picvet/lox/internal/models"
)

// LockSuffix is appended to the container path to form the lock file.
const LockSuffix = ".lock"

// lockState is written into the lock file for post-mortem inspection.
type lockState struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// FileLock is an exclusive advisory lock over a container path, held for
// the whole unlock-to-seal span of a session. It is implemented as an
// O_CREATE|O_EXCL lock file, which both creates and tests in one atomic
// step on every platform lox runs on.
type FileLock struct {
	path     string
	released bool
}

// AcquireLock takes the lock for path, polling until timeout. A held
// lock surfaces as models.ErrVaultBusy rather than blocking forever.
func AcquireLock(path string, timeout, poll time.Duration, logger *events.Logger) (*FileLock, error) {
	lockPath := path + LockSuffix

	if err := os.MkdirAll(filepath.Dir(lockPath), 0700); err != nil {
		return nil, &models.VaultError{Op: "lock", Path: path, Err: err}
	}

	if poll <= 0 {
		poll = 50 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)

	for {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
		if err == nil {
			state, _ := json.Marshal(lockState{PID: os.Getpid(), AcquiredAt: time.Now().UTC()})
			_, werr := file.Write(state)
			cerr := file.Close()
			if werr != nil || cerr != nil {
				os.Remove(lockPath)
				return nil, &models.VaultError{Op: "lock", Path: path, Err: firstError(werr, cerr)}
			}

			logger.WithField("lock", lockPath).Debug("Lock acquired")
			return &FileLock{path: lockPath}, nil
		}

		if !os.IsExist(err) {
			return nil, &models.VaultError{Op: "lock", Path: path, Err: err}
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: lock file %s held by another process", models.ErrVaultBusy, lockPath)
		}

		time.Sleep(poll)
	}
}

// Release removes the lock file. Safe to call more than once.
func (l *FileLock) Release() error {
	if l == nil || l.released {
		return nil
	}
	l.released = true

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return &models.VaultError{Op: "unlock", Path: l.path, Err: err}
	}
	return nil
}

// Path returns the lock file location.
func (l *FileLock) Path() string {
	return l.path
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
