package gateway

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"surveyassist/internal/config"
)

// refreshThreshold is how long before expiry a minted token is replaced
const refreshThreshold = 5 * time.Minute

// TokenSource supplies the bearer token sent to the gateway
type TokenSource interface {
	Token() (string, error)
}

// StaticToken always returns the same token
type StaticToken string

func (t StaticToken) Token() (string, error) {
	return string(t), nil
}

type gatewayClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// MintedToken signs short-lived HS256 tokens and caches them until close to expiry
type MintedToken struct {
	key      []byte
	issuer   string
	audience string
	subject  string
	email    string
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewMintedToken creates a token source from the gateway config
func NewMintedToken(cfg *config.GatewayConfig) *MintedToken {
	ttl := cfg.TokenTTL
	if ttl <= refreshThreshold {
		ttl = time.Hour
	}
	return &MintedToken{
		key:      []byte(cfg.SigningKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		subject:  cfg.Subject,
		email:    cfg.Email,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Token returns the cached token or mints a new one
func (m *MintedToken) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.token != "" && now.Add(refreshThreshold).Before(m.expires) {
		return m.token, nil
	}

	expires := now.Add(m.ttl)
	claims := &gatewayClaims{
		Email: m.email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   m.subject,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign gateway token: %w", err)
	}
	m.token = signed
	m.expires = expires
	return signed, nil
}

// tokenSourceFor picks the configured token strategy; nil means no auth header
func tokenSourceFor(cfg *config.GatewayConfig) TokenSource {
	switch {
	case cfg.APIToken != "":
		return StaticToken(cfg.APIToken)
	case cfg.SigningKey != "":
		return NewMintedToken(cfg)
	default:
		return nil
	}
}
