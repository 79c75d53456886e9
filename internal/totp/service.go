// Package totp generates RFC 6238 time-based one-time passwords for
// credential records that carry a two-factor secret. Codes use the
// standard 30-second period, 6 digits, SHA1.
package totp

import (
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"
)

// Service provides TOTP code generation.
type Service struct {
	period uint // Time step in seconds
}

// NewService creates a TOTP service with standard settings.
func NewService() *Service {
	return &Service{
		period: 30,
	}
}

// GenerateCode generates a code from a base32 secret for the current
// time window.
func (s *Service) GenerateCode(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("totp: secret cannot be empty")
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		return "", fmt.Errorf("totp: generate code: %w", err)
	}

	return code, nil
}

// GenerateCodeAt generates a code for a specific time.
func (s *Service) GenerateCodeAt(secret string, t time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("totp: secret cannot be empty")
	}

	code, err := totp.GenerateCode(secret, t)
	if err != nil {
		return "", fmt.Errorf("totp: generate code at %v: %w", t, err)
	}

	return code, nil
}

// Validate checks a code against a secret, allowing one period of
// clock skew either way.
func (s *Service) Validate(code, secret string) bool {
	if secret == "" || code == "" {
		return false
	}

	return totp.Validate(code, secret)
}

// TimeRemaining reports how long the current code stays valid.
func (s *Service) TimeRemaining() time.Duration {
	now := time.Now()
	window := now.Unix() / int64(s.period)
	next := (window + 1) * int64(s.period)
	return time.Unix(next, 0).Sub(now)
}

// IsValidSecret checks that a secret can produce codes before it is
// stored on a record.
func (s *Service) IsValidSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("totp: secret cannot be empty")
	}

	if _, err := totp.GenerateCode(secret, time.Now()); err != nil {
		return fmt.Errorf("totp: invalid secret format: %w", err)
	}

	return nil
}
