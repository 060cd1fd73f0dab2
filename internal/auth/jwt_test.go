package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	token, exp, err := Issue("user-1", "yearbook-api", "secret", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := Parse(token, "secret", "yearbook-api")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, _, err := Issue("user-1", "yearbook-api", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "secret", "yearbook-api")
	assert.Error(t, err)
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := Issue("user-1", "yearbook-api", "secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "other-secret", "yearbook-api")
	assert.Error(t, err)
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	token, _, err := Issue("user-1", "someone-else", "secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "secret", "yearbook-api")
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not.a.token", "secret", "yearbook-api")
	assert.Error(t, err)
}
