package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/text/unicode/norm"
)

const (
	// Key sizes
	KeySize   = 32 // AES-256
	NonceSize = 12 // GCM standard
	TagSize   = 16 // GCM tag

	// PBKDF2 parameters
	DefaultIterations = 100000
	MinIterations     = 10000

	// Scrypt parameters
	ScryptN    = 32768 // CPU/memory cost parameter
	ScryptR    = 8     // block size parameter
	ScryptP    = 1     // parallelization parameter
	MinScryptN = 4096

	// Salt bounds
	DefaultSaltSize = 16
	MinSaltSize     = 8
	MaxSaltSize     = 64
)

// Errors
var (
	ErrInvalidKey        = errors.New("invalid key size")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrWeakParameters    = errors.New("derivation parameters below safety floor")
)

// Algorithm identifies a key derivation function. The numeric values are
// part of the container format and must not change.
type Algorithm uint8

const (
	AlgorithmPBKDF2 Algorithm = 1 // PBKDF2-HMAC-SHA256
	AlgorithmScrypt Algorithm = 2
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmPBKDF2:
		return "pbkdf2-sha256"
	case AlgorithmScrypt:
		return "scrypt"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm maps a configuration name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "pbkdf2", "pbkdf2-sha256":
		return AlgorithmPBKDF2, nil
	case "scrypt":
		return AlgorithmScrypt, nil
	default:
		return 0, fmt.Errorf("unknown kdf algorithm: %q", name)
	}
}

// Params contains key derivation parameters. They are stored in the
// container alongside the salt so derivation is reproducible.
type Params struct {
	Algorithm  Algorithm
	Iterations int // PBKDF2 only
	N, R, P    int // scrypt only
	Salt       []byte
}

// DefaultParams returns PBKDF2 parameters at the default cost, without a
// salt. Callers attach a salt from NewSalt or from a decoded container.
func DefaultParams() Params {
	return Params{
		Algorithm:  AlgorithmPBKDF2,
		Iterations: DefaultIterations,
	}
}

// Validate enforces the safety floor. Containers written by a weaker
// configuration fail here rather than deriving a brute-forceable key.
func (p Params) Validate() error {
	switch p.Algorithm {
	case AlgorithmPBKDF2:
		if p.Iterations < MinIterations {
			return fmt.Errorf("%w: %d pbkdf2 iterations (minimum %d)",
				ErrWeakParameters, p.Iterations, MinIterations)
		}
	case AlgorithmScrypt:
		if p.N < MinScryptN {
			return fmt.Errorf("%w: scrypt N=%d (minimum %d)",
				ErrWeakParameters, p.N, MinScryptN)
		}
		if p.R < 1 || p.P < 1 {
			return fmt.Errorf("%w: scrypt r=%d p=%d", ErrWeakParameters, p.R, p.P)
		}
		// scrypt.Key requires N to be a power of two
		if p.N&(p.N-1) != 0 {
			return fmt.Errorf("invalid scrypt N=%d: must be a power of two", p.N)
		}
	default:
		return fmt.Errorf("unknown kdf algorithm id: %d", p.Algorithm)
	}

	if len(p.Salt) < MinSaltSize || len(p.Salt) > MaxSaltSize {
		return fmt.Errorf("%w: salt length %d (want %d..%d)",
			ErrWeakParameters, len(p.Salt), MinSaltSize, MaxSaltSize)
	}

	return nil
}

// CryptoProvider handles all cryptographic operations.
type CryptoProvider struct{}

// NewProvider creates a crypto provider.
func NewProvider() Provider {
	return &CryptoProvider{}
}

// DeriveKey derives the vault key from the master passphrase. The
// passphrase is NFKC-normalized first so the same passphrase typed on
// different platforms derives the same key. Deterministic for fixed
// inputs; the container codec relies on that to make AEAD verification
// double as the passphrase check.
func (p *CryptoProvider) DeriveKey(passphrase string, params Params) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	normalized := norm.NFKC.String(passphrase)

	switch params.Algorithm {
	case AlgorithmPBKDF2:
		key := pbkdf2.Key(
			[]byte(normalized),
			params.Salt,
			params.Iterations,
			KeySize,
			sha256.New,
		)
		return key, nil

	case AlgorithmScrypt:
		key, err := scrypt.Key(
			[]byte(normalized),
			params.Salt,
			params.N, params.R, params.P,
			KeySize,
		)
		if err != nil {
			return nil, fmt.Errorf("scrypt key derivation: %w", err)
		}
		return key, nil

	default:
		return nil, fmt.Errorf("unknown kdf algorithm id: %d", params.Algorithm)
	}
}

// NewSalt generates a fresh random salt. Used only by init and reset; an
// existing vault keeps its salt for its whole lifetime.
func (p *CryptoProvider) NewSalt(size int) ([]byte, error) {
	if size < MinSaltSize || size > MaxSaltSize {
		return nil, fmt.Errorf("salt size %d out of range %d..%d", size, MinSaltSize, MaxSaltSize)
	}

	salt := make([]byte, size)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Encrypt seals plaintext with AES-256-GCM under a fresh random nonce.
// Returns the nonce and the ciphertext with the tag appended.
func (p *CryptoProvider) Encrypt(plaintext, key, aad []byte) ([]byte, []byte, error) {
	if len(key) != KeySize {
		return nil, nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, aad)
	return nonce, sealed, nil
}

// Decrypt verifies and opens sealed ciphertext (ciphertext + tag). Any
// verification failure returns ErrDecryptionFailed with no plaintext;
// wrong key and tampered data are indistinguishable.
func (p *CryptoProvider) Decrypt(nonce, sealed, key, aad []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	if len(nonce) != NonceSize || len(sealed) < TagSize {
		return nil, ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}
