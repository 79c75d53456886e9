package models

import (
	"fmt"
	"strings"
	"time"
)

// CredentialRecord is a single named credential held by the vault.
// Service is the unique, case-sensitive key. URL, Notes and TOTPSecret
// are optional metadata carried in the same sealed payload.
type CredentialRecord struct {
	Service    string    `json:"service"`
	Username   string    `json:"username,omitempty"`
	Secret     string    `json:"secret"`
	URL        string    `json:"url,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	TOTPSecret string    `json:"totp_secret,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate validates the record structure and data.
func (r *CredentialRecord) Validate() error {
	if r.Service == "" {
		return fmt.Errorf("service name is required")
	}

	if strings.TrimSpace(r.Service) != r.Service {
		return fmt.Errorf("service name cannot have leading or trailing whitespace")
	}

	if strings.ContainsAny(r.Service, "\x00\n\r") {
		return fmt.Errorf("service name contains invalid characters")
	}

	if !r.CreatedAt.IsZero() && !r.UpdatedAt.IsZero() && r.UpdatedAt.Before(r.CreatedAt) {
		return fmt.Errorf("updated_at cannot be before created_at")
	}

	return nil
}

// Touch stamps the record timestamps. CreatedAt is set only when zero so
// overwrites keep the original creation time.
func (r *CredentialRecord) Touch(now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

// HasTOTP reports whether the record carries a two-factor secret.
func (r *CredentialRecord) HasTOTP() bool {
	return strings.TrimSpace(r.TOTPSecret) != ""
}
