package crypto

// Provider defines the interface for cryptographic operations.
type Provider interface {
	// DeriveKey derives the vault key from the master passphrase.
	DeriveKey(passphrase string, params Params) ([]byte, error)

	// NewSalt generates a fresh random salt.
	NewSalt(size int) ([]byte, error)

	// Encrypt seals plaintext with AES-GCM under a fresh nonce.
	Encrypt(plaintext, key, aad []byte) (nonce, sealed []byte, err error)

	// Decrypt verifies and opens sealed ciphertext.
	Decrypt(nonce, sealed, key, aad []byte) ([]byte, error)
}
