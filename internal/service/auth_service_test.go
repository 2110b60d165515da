package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	auth := NewAuthService("admin", "secret", "test-secret")

	resp, err := auth.Login("admin", "secret")
	require.NoError(t, err)
	assert.Contains(t, resp.OperatorID, "op_")

	claims, err := auth.ValidateOperatorToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.OperatorID, claims.OperatorID)

	_, err = auth.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = NewAuthService("", "", "s").Login("", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_TokensAreNotInterchangeable(t *testing.T) {
	auth := NewAuthService("admin", "secret", "test-secret")

	respondent, err := auth.GenerateRespondentToken("s1", "r1")
	require.NoError(t, err)
	_, err = auth.ValidateOperatorToken(respondent)
	assert.ErrorIs(t, err, ErrInvalidToken)

	login, err := auth.Login("admin", "secret")
	require.NoError(t, err)
	_, err = auth.ValidateRespondentToken(login.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_RejectsBadTokens(t *testing.T) {
	auth := NewAuthService("admin", "secret", "test-secret")
	token, err := auth.GenerateRespondentToken("s1", "r1")
	require.NoError(t, err)

	other := NewAuthService("admin", "secret", "another-secret")
	_, err = other.ValidateRespondentToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.ValidateRespondentToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	auth.now = func() time.Time { return time.Now().Add(RespondentTokenTTL + time.Hour) }
	_, err = auth.ValidateRespondentToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}
