package crypto_test

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picvet/lox/internal/crypto"
	"github.com/picvet/lox/internal/crypto/testdata"
)

func TestProvider_DeriveKey(t *testing.T) {
	provider := crypto.NewProvider()
	salt := []byte("fixed-salt-16byt")

	tests := []struct {
		name       string
		passphrase string
		params     crypto.Params
		wantErr    error
	}{
		{
			name:       "pbkdf2 default cost",
			passphrase: "correct-horse",
			params: crypto.Params{
				Algorithm:  crypto.AlgorithmPBKDF2,
				Iterations: crypto.DefaultIterations,
				Salt:       salt,
			},
		},
		{
			name:       "scrypt default cost",
			passphrase: "correct-horse",
			params: crypto.Params{
				Algorithm: crypto.AlgorithmScrypt,
				N:         crypto.ScryptN,
				R:         crypto.ScryptR,
				P:         crypto.ScryptP,
				Salt:      salt,
			},
		},
		{
			name:       "unicode passphrase",
			passphrase: "пароль123",
			params: crypto.Params{
				Algorithm:  crypto.AlgorithmPBKDF2,
				Iterations: crypto.DefaultIterations,
				Salt:       salt,
			},
		},
		{
			name:       "weak pbkdf2 iterations",
			passphrase: "correct-horse",
			params: crypto.Params{
				Algorithm:  crypto.AlgorithmPBKDF2,
				Iterations: 500,
				Salt:       salt,
			},
			wantErr: crypto.ErrWeakParameters,
		},
		{
			name:       "weak scrypt N",
			passphrase: "correct-horse",
			params: crypto.Params{
				Algorithm: crypto.AlgorithmScrypt,
				N:         1024,
				R:         8,
				P:         1,
				Salt:      salt,
			},
			wantErr: crypto.ErrWeakParameters,
		},
		{
			name:       "salt too short",
			passphrase: "correct-horse",
			params: crypto.Params{
				Algorithm:  crypto.AlgorithmPBKDF2,
				Iterations: crypto.DefaultIterations,
				Salt:       []byte("short"),
			},
			wantErr: crypto.ErrWeakParameters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := provider.DeriveKey(tt.passphrase, tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Len(t, key, crypto.KeySize)

			// Verify deterministic
			key2, err := provider.DeriveKey(tt.passphrase, tt.params)
			require.NoError(t, err)
			assert.Equal(t, key, key2)
		})
	}

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := provider.DeriveKey("x", crypto.Params{Algorithm: 99, Salt: salt})
		assert.Error(t, err)
	})

	t.Run("scrypt N must be power of two", func(t *testing.T) {
		_, err := provider.DeriveKey("x", crypto.Params{
			Algorithm: crypto.AlgorithmScrypt,
			N:         5000,
			R:         8,
			P:         1,
			Salt:      salt,
		})
		assert.Error(t, err)
	})

	t.Run("different salts derive different keys", func(t *testing.T) {
		params := crypto.Params{
			Algorithm:  crypto.AlgorithmPBKDF2,
			Iterations: crypto.MinIterations,
			Salt:       []byte("salt-number-one!"),
		}
		key1, err := provider.DeriveKey("same-passphrase", params)
		require.NoError(t, err)

		params.Salt = []byte("salt-number-two!")
		key2, err := provider.DeriveKey("same-passphrase", params)
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})

	t.Run("nfkc normalization unifies composed and decomposed input", func(t *testing.T) {
		params := crypto.Params{
			Algorithm:  crypto.AlgorithmPBKDF2,
			Iterations: crypto.MinIterations,
			Salt:       salt,
		}

		composed := "café"   // é as a single code point
		decomposed := "café" // e followed by combining acute

		key1, err := provider.DeriveKey(composed, params)
		require.NoError(t, err)
		key2, err := provider.DeriveKey(decomposed, params)
		require.NoError(t, err)

		assert.Equal(t, key1, key2)
	})
}

func TestKeyDerivationVectors(t *testing.T) {
	provider := crypto.NewProvider()

	for _, vector := range testdata.Vectors {
		t.Run(vector.Name, func(t *testing.T) {
			salt, err := hex.DecodeString(vector.Salt)
			require.NoError(t, err)

			alg, err := crypto.ParseAlgorithm(vector.Algorithm)
			require.NoError(t, err)

			params := crypto.Params{
				Algorithm:  alg,
				Iterations: vector.Iterations,
				N:          vector.N,
				R:          vector.R,
				P:          vector.P,
				Salt:       salt,
			}

			key, err := provider.DeriveKey(vector.Passphrase, params)
			require.NoError(t, err)
			assert.Len(t, key, crypto.KeySize)

			// Verify deterministic
			key2, err := provider.DeriveKey(vector.Passphrase, params)
			require.NoError(t, err)
			assert.Equal(t, key, key2)
		})
	}
}

func TestProvider_NewSalt(t *testing.T) {
	provider := crypto.NewProvider()

	t.Run("generates requested size", func(t *testing.T) {
		salt, err := provider.NewSalt(crypto.DefaultSaltSize)
		require.NoError(t, err)
		assert.Len(t, salt, crypto.DefaultSaltSize)
	})

	t.Run("successive salts differ", func(t *testing.T) {
		salt1, err := provider.NewSalt(crypto.DefaultSaltSize)
		require.NoError(t, err)
		salt2, err := provider.NewSalt(crypto.DefaultSaltSize)
		require.NoError(t, err)
		assert.NotEqual(t, salt1, salt2)
	})

	t.Run("size bounds enforced", func(t *testing.T) {
		_, err := provider.NewSalt(4)
		assert.Error(t, err)

		_, err = provider.NewSalt(crypto.MaxSaltSize + 1)
		assert.Error(t, err)
	})
}

func TestProvider_EncryptDecrypt(t *testing.T) {
	provider := crypto.NewProvider()

	t.Run("round trip with associated data", func(t *testing.T) {
		key := make([]byte, crypto.KeySize)
		for i := range key {
			key[i] = byte(i)
		}
		aad := []byte("container header v1")
		plaintext := []byte(`{"schema_version":1,"records":[]}`)

		nonce, sealed, err := provider.Encrypt(plaintext, key, aad)
		require.NoError(t, err)
		assert.Len(t, nonce, crypto.NonceSize)
		assert.Equal(t, len(plaintext)+crypto.TagSize, len(sealed))

		result, err := provider.Decrypt(nonce, sealed, key, aad)
		require.NoError(t, err)
		assert.Equal(t, plaintext, result)
	})

	t.Run("mismatched associated data fails", func(t *testing.T) {
		key := testKey(t)
		nonce, sealed, err := provider.Encrypt([]byte("payload"), key, []byte("header-a"))
		require.NoError(t, err)

		_, err = provider.Decrypt(nonce, sealed, key, []byte("header-b"))
		assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
	})

	t.Run("invalid key size", func(t *testing.T) {
		_, _, err := provider.Encrypt([]byte("x"), []byte("short"), nil)
		assert.ErrorIs(t, err, crypto.ErrInvalidKey)

		_, err = provider.Decrypt(make([]byte, crypto.NonceSize), make([]byte, crypto.TagSize+1), []byte("short"), nil)
		assert.ErrorIs(t, err, crypto.ErrInvalidKey)
	})

	t.Run("sealed data too short", func(t *testing.T) {
		key := testKey(t)
		_, err := provider.Decrypt(make([]byte, crypto.NonceSize), []byte("tiny"), key, nil)
		assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
	})

	t.Run("wrong nonce length", func(t *testing.T) {
		key := testKey(t)
		_, err := provider.Decrypt(make([]byte, 8), make([]byte, crypto.TagSize+8), key, nil)
		assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		key := testKey(t)
		nonce, sealed, err := provider.Encrypt([]byte("sensitive data"), key, nil)
		require.NoError(t, err)

		sealed[len(sealed)-1] ^= 0xFF

		_, err = provider.Decrypt(nonce, sealed, key, nil)
		assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
	})

	t.Run("empty plaintext round trips", func(t *testing.T) {
		key := testKey(t)
		nonce, sealed, err := provider.Encrypt(nil, key, nil)
		require.NoError(t, err)
		assert.Equal(t, crypto.TagSize, len(sealed))

		result, err := provider.Decrypt(nonce, sealed, key, nil)
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, crypto.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}
