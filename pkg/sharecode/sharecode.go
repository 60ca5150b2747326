// Package sharecode generates the short codes guests use to open a trip.
package sharecode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Alphabet omits 0, 1, I, L and O so codes survive being read aloud.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Length of every generated code.
const Length = 6

// ErrExhausted is returned when every attempt collided with an existing code.
var ErrExhausted = errors.New("share code: no free code found")

// ExistsFunc reports whether a code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// New returns one random code.
func New() (string, error) {
	var b strings.Builder
	b.Grow(Length)
	max := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("share code: %w", err)
		}
		b.WriteByte(Alphabet[n.Int64()])
	}
	return b.String(), nil
}

// Generate draws codes until exists reports a free one, up to attempts tries.
func Generate(ctx context.Context, attempts int, exists ExistsFunc) (string, error) {
	for i := 0; i < attempts; i++ {
		code, err := New()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("share code collision check: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Valid reports whether s has the shape of a share code.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(Alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}

// Normalize upper-cases user input before lookup.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
