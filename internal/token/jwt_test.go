package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namereg/pkg/domain"
	pkgerrors "namereg/pkg/errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)
var principal = domain.Principal("alice")
var expiresIn = time.Hour

func Test_Issue(t *testing.T) {
	tok, err := jwtService.Issue(principal, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := jwtService.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, string(principal), claims.Principal)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	tok, err := jwtService.Issue(principal, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(tok)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, "token has expired", pkgerrors.MessageOf(err))
}

func Test_PrincipalFromToken(t *testing.T) {
	tok, err := jwtService.Issue(principal, expiresIn)
	require.NoError(t, err)

	got, err := jwtService.PrincipalFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
}

func Test_PrincipalFromToken_WrongKey(t *testing.T) {
	other := NewJWTService("other-key", "test-issuer", "test-audience")
	tok, err := other.Issue(principal, expiresIn)
	require.NoError(t, err)

	got, err := jwtService.PrincipalFromToken(tok)
	require.Error(t, err)
	assert.Equal(t, domain.Anonymous, got)
}
