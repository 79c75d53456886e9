package crypto_test

import (
	"fmt"

	"github.com/picvet/lox/internal/crypto"
)

func ExampleProvider_DeriveKey() {
	provider := crypto.NewProvider()

	salt, err := provider.NewSalt(crypto.DefaultSaltSize)
	if err != nil {
		panic(err)
	}

	key, err := provider.DeriveKey("correct horse battery staple", crypto.Params{
		Algorithm:  crypto.AlgorithmPBKDF2,
		Iterations: crypto.MinIterations,
		Salt:       salt,
	})
	if err != nil {
		panic(err)
	}
	defer crypto.Zero(key)

	fmt.Printf("derived %d-byte vault key\n", len(key))
	// Output: derived 32-byte vault key
}

func ExampleProvider_Encrypt() {
	provider := crypto.NewProvider()

	key, err := provider.DeriveKey("opensesame", crypto.Params{
		Algorithm:  crypto.AlgorithmPBKDF2,
		Iterations: crypto.MinIterations,
		Salt:       []byte("0123456789abcdef"),
	})
	if err != nil {
		panic(err)
	}
	defer crypto.Zero(key)

	// The container header rides along as AAD, so a tampered header
	// fails the open even though it is stored in the clear.
	header := []byte("container header")
	nonce, sealed, err := provider.Encrypt([]byte(`{"github":"hunter2"}`), key, header)
	if err != nil {
		panic(err)
	}

	opened, err := provider.Decrypt(nonce, sealed, key, header)
	if err != nil {
		panic(err)
	}

	fmt.Println(string(opened))
	// Output: {"github":"hunter2"}
}

func ExampleValidateKeySize() {
	fmt.Println(crypto.ValidateKeySize(make([]byte, crypto.KeySize)))
	fmt.Println(crypto.ValidateKeySize(make([]byte, 8)))
	// Output:
	// <nil>
	// invalid key size: expected 32, got 8
}
