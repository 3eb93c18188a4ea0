package ticketcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFormat(t *testing.T) {
	g := New()

	code, err := g.Next()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(code, "TKT-"))
	assert.Len(t, code, len(prefix)+codeLength)

	for _, r := range code[len(prefix):] {
		assert.Contains(t, alphabet, string(r))
	}
}

func TestNextAvoidsAmbiguousCharacters(t *testing.T) {
	assert.NotContains(t, alphabet, "0")
	assert.NotContains(t, alphabet, "O")
	assert.NotContains(t, alphabet, "1")
	assert.NotContains(t, alphabet, "I")
	assert.NotContains(t, alphabet, "L")
}

func TestNextProducesDistinctCodes(t *testing.T) {
	g := New()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := g.Next()
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %s after %d draws", code, i)
		seen[code] = true
	}
}
