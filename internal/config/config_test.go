package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("SURVEY_ASSIST_API_URL", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreRedis, cfg.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.Gateway.IsEnabled())
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_STORE", "Memory")
	t.Setenv("REDIS_URI", "redis://cache:6380")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("RESULTS_ENABLED", "false")
	t.Setenv("SURVEY_ASSIST_API_URL", "http://gateway:8080/")
	t.Setenv("SURVEY_ASSIST_TIMEOUT_MS", "1500")

	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.SessionStore)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.ResultsEnabled)
	assert.True(t, cfg.Gateway.IsEnabled())
	assert.Equal(t, "http://gateway:8080/survey-assist/classify", cfg.Gateway.Endpoint("/survey-assist/classify"))
	assert.Equal(t, 1500*time.Millisecond, cfg.Gateway.Timeout())
}

func TestLoad_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SURVEY_ASSIST_BURST", "lots")
	t.Setenv("SESSION_LOCK_TTL", "soon")

	cfg := Load()
	assert.Equal(t, 5, cfg.Gateway.Burst)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
}

func TestLoad_CORS(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	assert.Equal(t, "*", Load().CORS.AllowedOrigins)

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://survey.example.org")
	cfg := Load()
	assert.Equal(t, "https://survey.example.org", cfg.CORS.AllowedOrigins)
	assert.Equal(t, "Content-Type, Authorization", cfg.CORS.AllowedHeaders)
}
