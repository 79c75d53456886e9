package crypto_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picvet/lox/internal/crypto"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, crypto.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestDerivationFloors(t *testing.T) {
	assert.Equal(t, 32, crypto.KeySize)
	assert.GreaterOrEqual(t, crypto.DefaultIterations, 100000)
	assert.GreaterOrEqual(t, crypto.MinIterations, 10000)
	assert.GreaterOrEqual(t, crypto.DefaultSaltSize, crypto.MinSaltSize)
}

func TestSealUsesFreshNonce(t *testing.T) {
	provider := crypto.NewProvider()
	key := randomKey(t)
	store := []byte(`{"records":{}}`)

	nonceA, sealedA, err := provider.Encrypt(store, key, nil)
	require.NoError(t, err)
	nonceB, sealedB, err := provider.Encrypt(store, key, nil)
	require.NoError(t, err)

	assert.NotEqual(t, nonceA, nonceB)
	assert.NotEqual(t, sealedA, sealedB)

	for _, seal := range []struct{ nonce, sealed []byte }{
		{nonceA, sealedA},
		{nonceB, sealedB},
	} {
		plain, err := provider.Decrypt(seal.nonce, seal.sealed, key, nil)
		require.NoError(t, err)
		assert.Equal(t, store, plain)
	}
}

func TestNonceNeverRepeats(t *testing.T) {
	provider := crypto.NewProvider()
	key := randomKey(t)

	const samples = 10000
	seen := make(map[string]struct{}, samples)
	store := []byte("same store")

	for i := 0; i < samples; i++ {
		nonce, _, err := provider.Encrypt(store, key, nil)
		require.NoError(t, err)

		_, dup := seen[string(nonce)]
		require.False(t, dup, "nonce reused at sample %d", i)
		seen[string(nonce)] = struct{}{}
	}

	assert.Len(t, seen, samples)
}

func TestOpenRejectsTampering(t *testing.T) {
	provider := crypto.NewProvider()
	key := randomKey(t)

	header := []byte("LOXV\x00\x01")
	nonce, sealed, err := provider.Encrypt([]byte("vault payload"), key, header)
	require.NoError(t, err)

	t.Run("any flipped sealed bit", func(t *testing.T) {
		for i := range sealed {
			tampered := make([]byte, len(sealed))
			copy(tampered, sealed)
			tampered[i] ^= 0x01

			_, err := provider.Decrypt(nonce, tampered, key, header)
			assert.ErrorIs(t, err, crypto.ErrDecryptionFailed, "sealed byte %d", i)
		}
	})

	t.Run("any flipped nonce bit", func(t *testing.T) {
		for i := range nonce {
			tampered := make([]byte, len(nonce))
			copy(tampered, nonce)
			tampered[i] ^= 0x01

			_, err := provider.Decrypt(tampered, sealed, key, header)
			assert.ErrorIs(t, err, crypto.ErrDecryptionFailed, "nonce byte %d", i)
		}
	})

	t.Run("modified header aad", func(t *testing.T) {
		_, err := provider.Decrypt(nonce, sealed, key, []byte("LOXV\x00\x02"))
		assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
	})

	t.Run("missing header aad", func(t *testing.T) {
		_, err := provider.Decrypt(nonce, sealed, key, nil)
		assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
	})

	t.Run("sealed shorter than the tag", func(t *testing.T) {
		_, err := provider.Decrypt(nonce, sealed[:crypto.TagSize-1], key, header)
		assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
	})
}

func TestOpenWithWrongPassphraseKey(t *testing.T) {
	provider := crypto.NewProvider()

	salt, err := provider.NewSalt(crypto.DefaultSaltSize)
	require.NoError(t, err)
	params := crypto.Params{
		Algorithm:  crypto.AlgorithmPBKDF2,
		Iterations: crypto.MinIterations,
		Salt:       salt,
	}

	rightKey, err := provider.DeriveKey("correct horse", params)
	require.NoError(t, err)
	wrongKey, err := provider.DeriveKey("correct h0rse", params)
	require.NoError(t, err)
	require.NotEqual(t, rightKey, wrongKey)

	nonce, sealed, err := provider.Encrypt([]byte("store bytes"), rightKey, nil)
	require.NoError(t, err)

	_, err = provider.Decrypt(nonce, sealed, wrongKey, nil)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestValidateKeySize(t *testing.T) {
	assert.NoError(t, crypto.ValidateKeySize(make([]byte, crypto.KeySize)))

	for _, size := range []int{0, 16, crypto.KeySize - 1, crypto.KeySize + 1, 64} {
		assert.Error(t, crypto.ValidateKeySize(make([]byte, size)), "size %d", size)
	}
}

func TestZero(t *testing.T) {
	key := randomKey(t)

	crypto.Zero(key)

	for i, b := range key {
		require.Zero(t, b, "byte %d not cleared", i)
	}
}

func TestConstantCompare(t *testing.T) {
	a := []byte("one-time-value")
	b := []byte("one-time-value")
	c := []byte("other-value!!!")

	assert.True(t, crypto.ConstantCompare(a, b))
	assert.False(t, crypto.ConstantCompare(a, c))
	assert.False(t, crypto.ConstantCompare(a, a[:4]))
}
