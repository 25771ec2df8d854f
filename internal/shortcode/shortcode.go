// Package shortcode issues the 6-character share aliases used in /r/{code}
// links. The alphabet drops glyphs that are easy to misread (0, O, 1, I, L).
package shortcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	Length   = 6
)

var alphabetMax = big.NewInt(int64(len(Alphabet)))

// Generate returns a uniformly random code.
func Generate() (string, error) {
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetMax)
		if err != nil {
			return "", fmt.Errorf("shortcode: read random: %w", err)
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b), nil
}

// Normalize upper-cases and trims s and reports whether the result is a
// well-formed code. Callers use the false case to fall back to a raw token
// lookup.
func Normalize(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != Length {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return "", false
		}
	}
	return s, true
}
