package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyassist/internal/config"
)

func TestMintedToken_CachesUntilRefreshWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMintedToken(&config.GatewayConfig{SigningKey: "k", TokenTTL: time.Hour})
	m.now = func() time.Time { return now }

	first, err := m.Token()
	require.NoError(t, err)

	now = now.Add(50 * time.Minute)
	second, err := m.Token()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	now = now.Add(6 * time.Minute)
	third, err := m.Token()
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestTokenSourceFor(t *testing.T) {
	assert.Nil(t, tokenSourceFor(&config.GatewayConfig{}))
	assert.Equal(t, StaticToken("abc"), tokenSourceFor(&config.GatewayConfig{APIToken: "abc", SigningKey: "k"}))
	_, minted := tokenSourceFor(&config.GatewayConfig{SigningKey: "k"}).(*MintedToken)
	assert.True(t, minted)
}
