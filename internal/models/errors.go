package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeAuth               = "AUTH_FAILED"
	ErrCodeVaultNotFound      = "VAULT_NOT_FOUND"
	ErrCodeVaultExists        = "VAULT_EXISTS"
	ErrCodeFormat             = "FORMAT_ERROR"
	ErrCodeUnsupportedVersion = "UNSUPPORTED_VERSION"
	ErrCodeWeakParameters     = "WEAK_PARAMETERS"
	ErrCodeDuplicateService   = "DUPLICATE_SERVICE"
	ErrCodeServiceNotFound    = "SERVICE_NOT_FOUND"
	ErrCodeVaultBusy          = "VAULT_BUSY"
	ErrCodeSessionClosed      = "SESSION_CLOSED"
	ErrCodeStorage            = "STORAGE_ERROR"
	ErrCodeConfig             = "CONFIG_ERROR"
	ErrCodeSync               = "SYNC_ERROR"
)

// Sentinel errors
var (
	ErrVaultNotFound        = errors.New("vault not found")
	ErrVaultExists          = errors.New("vault already initialized")
	ErrAuthenticationFailed = errors.New("authentication failed: wrong passphrase or corrupted vault")
	ErrInvalidFormat        = errors.New("invalid container format")
	ErrUnsupportedVersion   = errors.New("unsupported container version")
	ErrWeakParameters       = errors.New("key derivation parameters below safety floor")
	ErrDuplicateService     = errors.New("service already exists")
	ErrServiceNotFound      = errors.New("service not found")
	ErrVaultBusy            = errors.New("vault is locked by another process")
	ErrSessionClosed        = errors.New("session is closed")
	ErrInvalidConfig        = errors.New("invalid configuration")
)

// VaultError wraps an I/O failure with the operation and path it occurred on.
type VaultError struct {
	Op   string
	Path string
	Err  error
}

func (e *VaultError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("vault %s: %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("vault %s: %v", e.Op, e.Err)
}

func (e *VaultError) Unwrap() error {
	return e.Err
}

// SyncError provides detailed remote sync failure information.
type SyncError struct {
	Backend string
	Phase   string
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s [%s]: %v", e.Phase, e.Backend, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// ErrorCode maps an error to its machine-readable code for structured
// output. Unknown errors map to the storage code when they carry a
// VaultError and to a generic internal code otherwise.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationFailed):
		return ErrCodeAuth
	case errors.Is(err, ErrVaultNotFound):
		return ErrCodeVaultNotFound
	case errors.Is(err, ErrVaultExists):
		return ErrCodeVaultExists
	case errors.Is(err, ErrInvalidFormat):
		return ErrCodeFormat
	case errors.Is(err, ErrUnsupportedVersion):
		return ErrCodeUnsupportedVersion
	case errors.Is(err, ErrWeakParameters):
		return ErrCodeWeakParameters
	case errors.Is(err, ErrDuplicateService):
		return ErrCodeDuplicateService
	case errors.Is(err, ErrServiceNotFound):
		return ErrCodeServiceNotFound
	case errors.Is(err, ErrVaultBusy):
		return ErrCodeVaultBusy
	case errors.Is(err, ErrSessionClosed):
		return ErrCodeSessionClosed
	case errors.Is(err, ErrInvalidConfig):
		return ErrCodeConfig
	}

	var ve *VaultError
	if errors.As(err, &ve) {
		return ErrCodeStorage
	}
	var se *SyncError
	if errors.As(err, &se) {
		return ErrCodeSync
	}
	return "INTERNAL_ERROR"
}
