package codes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate_FourUppercaseLetters(t *testing.T) {
	code, err := Generate(func(string) bool { return false })
	require.NoError(t, err)
	require.Len(t, code, Length)
	for _, r := range code {
		require.Truef(t, strings.ContainsRune(alphabet, r), "unexpected character %q in %q", r, code)
	}
}

func TestGenerate_RetriesWholeCodeOnCollision(t *testing.T) {
	attempts := 0
	taken := func(string) bool {
		attempts++
		return attempts <= 3
	}

	code, err := Generate(taken)
	require.NoError(t, err)
	require.Len(t, code, Length)
	require.Equal(t, 4, attempts, "expected three rejected candidates before success")
}

func TestGenerate_ExhaustedCodeSpace(t *testing.T) {
	_, err := Generate(func(string) bool { return true })
	require.ErrorIs(t, err, ErrCodeSpaceExhausted)
}
