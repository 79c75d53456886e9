package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/picvet/lox/internal/models"
)

func TestCredentialRecordValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		record  models.CredentialRecord
		wantErr bool
	}{
		{
			name: "valid record",
			record: models.CredentialRecord{
				Service:   "github",
				Username:  "octocat",
				Secret:    "s3cr3t",
				CreatedAt: now,
				UpdatedAt: now,
			},
			wantErr: false,
		},
		{
			name: "valid with optional metadata",
			record: models.CredentialRecord{
				Service:    "aws",
				Secret:     "hunter2",
				URL:        "https://console.aws.amazon.com",
				Notes:      "work account",
				TOTPSecret: "JBSWY3DPEHPK3PXP",
				CreatedAt:  now,
				UpdatedAt:  now,
			},
			wantErr: false,
		},
		{
			name:    "empty service",
			record:  models.CredentialRecord{Secret: "x"},
			wantErr: true,
		},
		{
			name:    "whitespace padded service",
			record:  models.CredentialRecord{Service: " github ", Secret: "x"},
			wantErr: true,
		},
		{
			name:    "service with newline",
			record:  models.CredentialRecord{Service: "git\nhub", Secret: "x"},
			wantErr: true,
		},
		{
			name: "updated before created",
			record: models.CredentialRecord{
				Service:   "github",
				Secret:    "x",
				CreatedAt: now,
				UpdatedAt: now.Add(-time.Hour),
			},
			wantErr: true,
		},
		{
			name:    "zero timestamps allowed before touch",
			record:  models.CredentialRecord{Service: "github", Secret: "x"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCredentialRecordTouch(t *testing.T) {
	t.Run("first touch sets both timestamps", func(t *testing.T) {
		rec := models.CredentialRecord{Service: "github", Secret: "x"}
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

		rec.Touch(now)

		assert.Equal(t, now, rec.CreatedAt)
		assert.Equal(t, now, rec.UpdatedAt)
	})

	t.Run("later touch preserves created_at", func(t *testing.T) {
		created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		rec := models.CredentialRecord{Service: "github", Secret: "x"}
		rec.Touch(created)

		later := created.Add(48 * time.Hour)
		rec.Touch(later)

		assert.Equal(t, created, rec.CreatedAt)
		assert.Equal(t, later, rec.UpdatedAt)
	})
}

func TestCredentialRecordHasTOTP(t *testing.T) {
	rec := models.CredentialRecord{Service: "github", Secret: "x"}
	assert.False(t, rec.HasTOTP())

	rec.TOTPSecret = "JBSWY3DPEHPK3PXP"
	assert.True(t, rec.HasTOTP())

	rec.TOTPSecret = "   "
	assert.False(t, rec.HasTOTP())
}
