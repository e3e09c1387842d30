package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsquad/authgate/internal/models"
)

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := NewTokenManager("test-secret-key-123", time.Hour)

	token, err := tm.IssueAccessToken("acct-1", models.CustomerPanelAccess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", claims.AccountID)
	assert.Equal(t, models.CustomerPanelAccess, claims.Scope)
	assert.NotEmpty(t, claims.ID, "every token carries a jti for revocation")
}

func TestTokenManager_ValidateToken_WrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret-key-123", time.Hour)
	other := NewTokenManager("different-secret-456", time.Hour)

	token, err := tm.IssueAccessToken("acct-1", models.AdminPanelAccess)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_ValidateToken_Expired(t *testing.T) {
	tm := NewTokenManager("test-secret-key-123", -time.Minute)

	token, err := tm.IssueAccessToken("acct-1", models.AdminPanelAccess)
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_ValidateToken_Garbage(t *testing.T) {
	tm := NewTokenManager("test-secret-key-123", time.Hour)

	_, err := tm.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestTokenManager_UniqueJTIs(t *testing.T) {
	tm := NewTokenManager("test-secret-key-123", time.Hour)

	first, err := tm.IssueAccessToken("acct-1", models.CustomerPanelAccess)
	require.NoError(t, err)
	second, err := tm.IssueAccessToken("acct-1", models.CustomerPanelAccess)
	require.NoError(t, err)

	firstClaims, err := tm.ValidateToken(first)
	require.NoError(t, err)
	secondClaims, err := tm.ValidateToken(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestGenerateTemporaryToken(t *testing.T) {
	token, err := GenerateTemporaryToken()
	require.NoError(t, err)
	assert.Len(t, token, 40)

	for _, r := range token {
		assert.True(t, strings.ContainsRune(tempTokenAlphabet, r), "unexpected character %q", r)
	}

	other, err := GenerateTemporaryToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
