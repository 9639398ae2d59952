package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginTokenRoundTrip(t *testing.T) {
	token, err := GenerateLoginToken(42, "jane@example.com", 15*time.Minute, "app-secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyLoginToken(token, "app-secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.CustomerID)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestLoginTokenWrongSecret(t *testing.T) {
	token, err := GenerateLoginToken(1, "a@b.com", time.Minute, "secret-one")
	require.NoError(t, err)

	claims, err := VerifyLoginToken(token, "secret-two")
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestLoginTokenExpired(t *testing.T) {
	token, err := GenerateLoginToken(1, "a@b.com", -time.Minute, "secret")
	require.NoError(t, err)

	claims, err := VerifyLoginToken(token, "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
	assert.Nil(t, claims)
}

func TestLoginTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "not-a-token", "a.b", "!!!.###"} {
		claims, err := VerifyLoginToken(token, "secret")
		assert.Error(t, err, "token %q", token)
		assert.Nil(t, claims)
	}
}

func TestGenerateLoginTokenRequiresSecret(t *testing.T) {
	_, err := GenerateLoginToken(1, "a@b.com", time.Minute, "")
	assert.Error(t, err)
}
