package config

import (
	"strings"
	"time"
)

// GatewayConfig holds classification gateway settings
type GatewayConfig struct {
	BaseURL   string  `json:"baseUrl"`
	APIToken  string  `json:"-"` // Never serialize
	LLM       string  `json:"llm"`
	TimeoutMS int     `json:"timeoutMs"`
	RateLimit float64 `json:"rateLimit"` // requests per second, 0 disables limiting
	Burst     int     `json:"burst"`

	// Minted bearer tokens, used when APIToken is empty and SigningKey is set
	SigningKey string        `json:"-"`
	Issuer     string        `json:"issuer"`
	Audience   string        `json:"audience"`
	Subject    string        `json:"subject"`
	Email      string        `json:"email"`
	TokenTTL   time.Duration `json:"tokenTtl"`
}

// DefaultGatewayConfig returns the gateway configuration from the environment
func DefaultGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		BaseURL:    strings.TrimRight(getEnv("SURVEY_ASSIST_API_URL", ""), "/"),
		APIToken:   getEnv("SURVEY_ASSIST_API_TOKEN", ""),
		LLM:        getEnv("SURVEY_ASSIST_LLM", "gemini"),
		TimeoutMS:  getEnvInt("SURVEY_ASSIST_TIMEOUT_MS", 5000),
		RateLimit:  getEnvFloat("SURVEY_ASSIST_RATE_LIMIT", 10),
		Burst:      getEnvInt("SURVEY_ASSIST_BURST", 5),
		SigningKey: getEnv("SURVEY_ASSIST_JWT_KEY", ""),
		Issuer:     getEnv("SURVEY_ASSIST_JWT_ISSUER", "surveyassist"),
		Audience:   getEnv("SURVEY_ASSIST_JWT_AUDIENCE", "survey-assist-api"),
		Subject:    getEnv("SURVEY_ASSIST_JWT_SUBJECT", "surveyassist-server"),
		Email:      getEnv("SURVEY_ASSIST_JWT_EMAIL", ""),
		TokenTTL:   getEnvDuration("SURVEY_ASSIST_JWT_TTL", time.Hour),
	}
}

// IsEnabled returns true if a real gateway is configured
func (c *GatewayConfig) IsEnabled() bool {
	return c.BaseURL != ""
}

// Timeout returns the per-call deadline
func (c *GatewayConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Endpoint joins the base URL with path
func (c *GatewayConfig) Endpoint(path string) string {
	return c.BaseURL + "/" + strings.TrimLeft(path, "/")
}
