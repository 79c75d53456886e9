// Package storage handles the vault container's on-disk life: whole-file
// reads, crash-safe atomic writes, and the advisory lock that serializes
// access across processes. It never interprets the bytes it moves; the
// sync layer uses the same Read/WriteAtomic surface to ship opaque
// containers.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/picvet/lox/internal/events"
	"github.com/picvet/lox/internal/models"
)

// ContainerStore manages container file operations.
type ContainerStore interface {
	// Read retrieves the container bytes.
	Read(path string) ([]byte, error)

	// WriteAtomic persists data so a crash never leaves a partial file.
	WriteAtomic(path string, data []byte, mode os.FileMode) error

	// Exists checks if a container exists.
	Exists(path string) (bool, error)

	// Remove deletes a container.
	Remove(path string) error

	// Stat returns container file information.
	Stat(path string) (FileInfo, error)
}

// FileInfo contains container file metadata.
type FileInfo struct {
	Path    string
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
}

// LocalStore implements ContainerStore on the local file system.
type LocalStore struct {
	logger *events.Logger
}

// NewLocalStore creates a local container store.
func NewLocalStore(logger *events.Logger) *LocalStore {
	return &LocalStore{
		logger: logger.WithField("component", "container_store"),
	}
}

// Read retrieves the container bytes. A missing file is
// models.ErrVaultNotFound.
func (s *LocalStore) Read(path string) ([]byte, error) {
	safePath, err := checkPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(safePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrVaultNotFound, path)
		}
		return nil, &models.VaultError{Op: "read", Path: path, Err: err}
	}

	return data, nil
}

// WriteAtomic saves data using a temp file in the target directory, an
// fsync, and a rename. The previous container stays readable until the
// rename commits; on any failure the temp file is removed and the
// original is untouched.
func (s *LocalStore) WriteAtomic(path string, data []byte, mode os.FileMode) error {
	safePath, err := checkPath(path)
	if err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"path": path,
		"size": len(data),
	}).Debug("Writing container")

	if err := os.MkdirAll(filepath.Dir(safePath), 0700); err != nil {
		return &models.VaultError{Op: "write", Path: path, Err: err}
	}

	tempPath := fmt.Sprintf("%s.tmp.%d", safePath, time.Now().UnixNano())
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, mode)
	if err != nil {
		return &models.VaultError{Op: "write", Path: path, Err: err}
	}

	success := false
	defer func() {
		tempFile.Close()
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return &models.VaultError{Op: "write", Path: path, Err: err}
	}

	if err := tempFile.Sync(); err != nil {
		return &models.VaultError{Op: "sync", Path: path, Err: err}
	}

	if err := tempFile.Close(); err != nil {
		return &models.VaultError{Op: "close", Path: path, Err: err}
	}

	if err := os.Rename(tempPath, safePath); err != nil {
		return &models.VaultError{Op: "rename", Path: path, Err: err}
	}

	success = true
	return nil
}

// Exists checks if a container exists at path.
func (s *LocalStore) Exists(path string) (bool, error) {
	safePath, err := checkPath(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(safePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &models.VaultError{Op: "stat", Path: path, Err: err}
}

// Remove deletes the container. A missing file is
// models.ErrVaultNotFound.
func (s *LocalStore) Remove(path string) error {
	safePath, err := checkPath(path)
	if err != nil {
		return err
	}

	s.logger.WithField("path", path).Debug("Removing container")

	if err := os.Remove(safePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", models.ErrVaultNotFound, path)
		}
		return &models.VaultError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// Stat returns container file information.
func (s *LocalStore) Stat(path string) (FileInfo, error) {
	safePath, err := checkPath(path)
	if err != nil {
		return FileInfo{}, err
	}

	stat, err := os.Stat(safePath)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fmt.Errorf("%w: %s", models.ErrVaultNotFound, path)
		}
		return FileInfo{}, &models.VaultError{Op: "stat", Path: path, Err: err}
	}

	return FileInfo{
		Path:    path,
		Size:    stat.Size(),
		Mode:    stat.Mode(),
		ModTime: stat.ModTime(),
	}, nil
}

// checkPath validates and normalizes a container path.
func checkPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("container path is empty")
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("container path contains null bytes")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve container path: %w", err)
	}
	return abs, nil
}
