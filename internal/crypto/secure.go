package crypto

import (
	"crypto/subtle"
	"fmt"
	"runtime"
)

// Zero overwrites sensitive byte material in place. The KeepAlive stops
// the compiler from eliding the writes when the slice is about to go out
// of scope.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ValidateKeySize checks if the key is the correct size.
func ValidateKeySize(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("invalid key size: expected %d, got %d", KeySize, len(key))
	}
	return nil
}

// ConstantCompare reports whether a and b are equal without leaking the
// position of the first difference.
func ConstantCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
