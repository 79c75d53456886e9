// Package password generates random credentials from tunable character
// classes. All randomness comes from crypto/rand.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	MinLength     = 8
	MaxLength     = 128
	DefaultLength = 16

	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars     = "0123456789"
	symbolChars    = "!@#$%^&*()_+-=[]{}|;:,.<>?"

	// similarChars are easy to misread when a password is typed from a
	// screen or printout.
	similarChars = "0O1lI"
)

// ErrInvalidLength is returned for lengths outside MinLength..MaxLength.
var ErrInvalidLength = fmt.Errorf("password length must be between %d and %d", MinLength, MaxLength)

// Options control generation. Lowercase letters are always included.
type Options struct {
	Length         int
	Uppercase      bool
	Digits         bool
	Symbols        bool
	ExcludeSimilar bool
}

// DefaultOptions enables every class at the default length.
func DefaultOptions() Options {
	return Options{
		Length:         DefaultLength,
		Uppercase:      true,
		Digits:         true,
		Symbols:        true,
		ExcludeSimilar: true,
	}
}

// Generate produces a random password. Every enabled character class
// contributes at least one character; positions are shuffled so the
// class-guaranteed characters do not cluster at the front.
func Generate(opts Options) (string, error) {
	if opts.Length < MinLength || opts.Length > MaxLength {
		return "", fmt.Errorf("%w: got %d", ErrInvalidLength, opts.Length)
	}

	classes := buildClasses(opts)

	var all strings.Builder
	for _, class := range classes {
		all.WriteString(class)
	}
	pool := all.String()

	password := make([]byte, 0, opts.Length)

	// One character from each enabled class
	for _, class := range classes {
		ch, err := randomChar(class)
		if err != nil {
			return "", err
		}
		password = append(password, ch)
	}

	// Fill the remainder from the combined pool
	for len(password) < opts.Length {
		ch, err := randomChar(pool)
		if err != nil {
			return "", err
		}
		password = append(password, ch)
	}

	if err := shuffle(password); err != nil {
		return "", err
	}

	return string(password), nil
}

// buildClasses assembles the enabled character classes, stripping
// lookalike characters when requested.
func buildClasses(opts Options) []string {
	classes := []string{lowercaseChars}

	if opts.Uppercase {
		classes = append(classes, uppercaseChars)
	}
	if opts.Digits {
		classes = append(classes, digitChars)
	}
	if opts.Symbols {
		classes = append(classes, symbolChars)
	}

	if opts.ExcludeSimilar {
		for i, class := range classes {
			classes[i] = stripChars(class, similarChars)
		}
	}

	return classes
}

func stripChars(s, cut string) string {
	var b strings.Builder
	for _, r := range s {
		if !strings.ContainsRune(cut, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func randomChar(class string) (byte, error) {
	if class == "" {
		return 0, errors.New("empty character class")
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(class))))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return class[idx.Int64()], nil
}

// shuffle performs a Fisher-Yates shuffle.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("read random: %w", err)
		}
		b[i], b[j.Int64()] = b[j.Int64()], b[i]
	}
	return nil
}
