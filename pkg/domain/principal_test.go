package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "namereg/pkg/errors"
)

func TestParsePrincipal(t *testing.T) {
	t.Run("empty maps to anonymous", func(t *testing.T) {
		p, err := ParsePrincipal("")
		require.NoError(t, err)
		assert.True(t, p.IsAnonymous())
	})

	t.Run("anonymous literal maps to sentinel", func(t *testing.T) {
		p, err := ParsePrincipal("anonymous")
		require.NoError(t, err)
		assert.Equal(t, Anonymous, p)
	})

	t.Run("opaque token passes through", func(t *testing.T) {
		p, err := ParsePrincipal("w7x7r-cok77-xa")
		require.NoError(t, err)
		assert.Equal(t, Principal("w7x7r-cok77-xa"), p)
		assert.False(t, p.IsAnonymous())
	})

	t.Run("rejects oversized input", func(t *testing.T) {
		_, err := ParsePrincipal(strings.Repeat("a", 256))
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	})

	t.Run("rejects control characters", func(t *testing.T) {
		_, err := ParsePrincipal("abc\x00def")
		require.Error(t, err)
	})

	t.Run("rejects embedded whitespace", func(t *testing.T) {
		_, err := ParsePrincipal("ab cd")
		require.Error(t, err)
	})
}

// The identity guard is a pure predicate: it fails iff the caller is anonymous.
func TestRequireAuthenticated(t *testing.T) {
	_, err := RequireAuthenticated(Anonymous)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	_, err = RequireAuthenticated(Principal(""))
	require.Error(t, err, "zero value is anonymous too")

	got, err := RequireAuthenticated(Principal("alice"))
	require.NoError(t, err)
	assert.Equal(t, Principal("alice"), got)
}
