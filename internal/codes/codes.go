// Package codes generates the short human-typed codes players share to
// find each other's session.
package codes

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Letters only: codes get read out loud and typed on phone keyboards, so
// no digits that could be confused with letters.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Length of every session code.
const Length = 4

// maxAttempts bounds collision retries. 26^4 codes means hitting this
// requires a nearly-full code space.
const maxAttempts = 1000

var ErrCodeSpaceExhausted = errors.New("code space exhausted")

// Generate returns a fresh code that the taken predicate rejects no
// candidate for. It retries whole codes on collision and fails with
// ErrCodeSpaceExhausted once the retry budget runs out.
func Generate(taken func(string) bool) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := random()
		if err != nil {
			return "", err
		}
		if !taken(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func random() (string, error) {
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("draw code character: %w", err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
