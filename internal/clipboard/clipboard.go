// Package clipboard copies secrets to the system clipboard with
// scheduled clearing so credentials do not linger after use.
package clipboard

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"

	"github.com/picvet/lox/internal/events"
)

// Service wraps the system clipboard.
type Service struct {
	logger *events.Logger
}

// NewService creates a clipboard service.
func NewService(logger *events.Logger) *Service {
	return &Service{
		logger: logger.WithField("component", "clipboard"),
	}
}

// Available reports whether a system clipboard is usable.
func (s *Service) Available() bool {
	return !clipboard.Unsupported
}

// Copy places text on the clipboard.
func (s *Service) Copy(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard not supported on this platform")
	}

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}

	s.logger.Debug("Copied to clipboard")
	return nil
}

// Clear overwrites the clipboard contents.
func (s *Service) Clear() error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard not supported on this platform")
	}

	if err := clipboard.WriteAll(""); err != nil {
		return fmt.Errorf("clear clipboard: %w", err)
	}

	s.logger.Debug("Clipboard cleared")
	return nil
}

// ClearAfter waits ttl, then wipes the clipboard if it still holds
// value. Cancelling the context skips the wipe, so an interrupted
// command leaves whatever the user copied in the meantime untouched.
func (s *Service) ClearAfter(ctx context.Context, value string, ttl time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(ttl):
	}

	current, err := clipboard.ReadAll()
	if err != nil {
		return fmt.Errorf("read clipboard: %w", err)
	}

	// The user copied something else since; leave it alone.
	if current != value {
		return nil
	}

	return s.Clear()
}
