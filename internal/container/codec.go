// Package container implements the sealed vault file format: a
// version-tagged binary envelope carrying key derivation parameters, a
// nonce, and the AEAD-sealed credential store. Opening a container doubles
// as the passphrase check; there is no separately stored password hash.
package container

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/picvet/lox/internal/crypto"
	"github.com/picvet/lox/internal/models"
)

// Codec seals and opens vault stores.
type Codec struct {
	provider crypto.Provider
}

// NewCodec creates a codec over the given crypto provider.
func NewCodec(provider crypto.Provider) *Codec {
	return &Codec{provider: provider}
}

// Seal serializes the store to its canonical form and encrypts it under
// key with a fresh nonce. The derivation parameters become part of the
// authenticated header. The intermediate plaintext is wiped before
// returning.
func (c *Codec) Seal(store *models.VaultStore, key []byte, params crypto.Params) (*Container, error) {
	plaintext, err := json.Marshal(store)
	if err != nil {
		return nil, fmt.Errorf("serialize store: %w", err)
	}
	defer crypto.Zero(plaintext)

	aad := encodeHeader(FormatVersion, params)
	nonce, sealed, err := c.provider.Encrypt(plaintext, key, aad)
	if err != nil {
		return nil, fmt.Errorf("encrypt store: %w", err)
	}

	return &Container{
		Version: FormatVersion,
		Params:  params,
		Nonce:   nonce,
		Sealed:  sealed,
	}, nil
}

// Open verifies and decrypts a container, then deserializes the canonical
// plaintext into a fresh store. Authentication failure means a wrong
// passphrase or a tampered file; the two are deliberately
// indistinguishable and no partial plaintext is ever returned.
func (c *Codec) Open(cont *Container, key []byte) (*models.VaultStore, error) {
	if cont.Version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d", models.ErrUnsupportedVersion, cont.Version)
	}

	aad := encodeHeader(cont.Version, cont.Params)
	plaintext, err := c.provider.Decrypt(cont.Nonce, cont.Sealed, key, aad)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, fmt.Errorf("open container: %w", models.ErrAuthenticationFailed)
		}
		return nil, fmt.Errorf("open container: %w", err)
	}
	defer crypto.Zero(plaintext)

	store := models.NewVaultStore()
	if err := json.Unmarshal(plaintext, store); err != nil {
		if errors.Is(err, models.ErrInvalidFormat) {
			return nil, fmt.Errorf("deserialize store: %w", err)
		}
		return nil, fmt.Errorf("deserialize store: %w: %v", models.ErrInvalidFormat, err)
	}

	return store, nil
}
