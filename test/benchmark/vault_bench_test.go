package benchmark

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/picvet/lox/internal/container"
	"github.com/picvet/lox/internal/crypto"
	"github.com/picvet/lox/internal/models"
	"github.com/picvet/lox/internal/storage"
	"github.com/picvet/lox/test/testutil"
)

func benchParams(b *testing.B) crypto.Params {
	b.Helper()

	salt := make([]byte, crypto.DefaultSaltSize)
	if _, err := rand.Read(salt); err != nil {
		b.Fatal(err)
	}
	return crypto.Params{
		Algorithm:  crypto.AlgorithmPBKDF2,
		Iterations: crypto.MinIterations,
		Salt:       salt,
	}
}

func benchStore(b *testing.B, records int) *models.VaultStore {
	b.Helper()

	store := models.NewVaultStore()
	for i := 0; i < records; i++ {
		err := store.Add(models.CredentialRecord{
			Service:  fmt.Sprintf("service-%04d", i),
			Username: "bench@example.com",
			Secret:   "correct horse battery staple",
		}, false)
		if err != nil {
			b.Fatal(err)
		}
	}
	return store
}

func BenchmarkContainerSeal(b *testing.B) {
	provider := crypto.NewProvider()
	codec := container.NewCodec(provider)
	params := benchParams(b)

	key, err := provider.DeriveKey("bench passphrase", params)
	if err != nil {
		b.Fatal(err)
	}

	for _, records := range []int{10, 100, 1000} {
		store := benchStore(b, records)

		b.Run(fmt.Sprintf("records_%d", records), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				cont, err := codec.Seal(store, key, params)
				if err != nil {
					b.Fatal(err)
				}
				container.Encode(cont)
			}
		})
	}
}

func BenchmarkContainerOpen(b *testing.B) {
	provider := crypto.NewProvider()
	codec := container.NewCodec(provider)
	params := benchParams(b)

	key, err := provider.DeriveKey("bench passphrase", params)
	if err != nil {
		b.Fatal(err)
	}

	for _, records := range []int{10, 100, 1000} {
		cont, err := codec.Seal(benchStore(b, records), key, params)
		if err != nil {
			b.Fatal(err)
		}
		data := container.Encode(cont)

		b.Run(fmt.Sprintf("records_%d", records), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				decoded, err := container.Decode(data)
				if err != nil {
					b.Fatal(err)
				}
				if _, err := codec.Open(decoded, key); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkAtomicWrite(b *testing.B) {
	store := storage.NewLocalStore(testutil.NewTestLogger())
	path := filepath.Join(b.TempDir(), "vault.enc")

	for _, size := range []int{4 << 10, 64 << 10, 1 << 20} {
		data := make([]byte, size)
		if _, err := rand.Read(data); err != nil {
			b.Fatal(err)
		}

		b.Run(fmt.Sprintf("%dKB", size/1024), func(b *testing.B) {
			b.SetBytes(int64(size))
			for i := 0; i < b.N; i++ {
				if err := store.WriteAtomic(path, data, 0600); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
