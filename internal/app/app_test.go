package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyassist/internal/config"
	"surveyassist/internal/definition"
)

func testConfig(store string) *config.Config {
	return &config.Config{
		DefinitionPath:   "../definition/testdata/survey_definition.json",
		SessionStore:     store,
		SessionTTL:       time.Hour,
		LockTTL:          time.Second,
		LockWait:         time.Second,
		JWTSecret:        "test-secret",
		OperatorUsername: "admin",
		OperatorPassword: "secret",
		Gateway:          &config.GatewayConfig{TimeoutMS: 1000},
	}
}

func TestBuild_MemoryStore(t *testing.T) {
	a, err := Build(context.Background(), testConfig(config.StoreMemory), prometheus.NewRegistry(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.ResultRepo)
	assert.Equal(t, "Labour Market Survey", a.Definition.Title())

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuild_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(config.StoreRedis)
	cfg.RedisAddr = mr.Addr()

	a, err := Build(context.Background(), cfg, prometheus.NewRegistry(), nil)
	require.NoError(t, err)
	defer a.Close()

	resp, err := a.SurveyService.CreateSession(context.Background(), "r1")
	require.NoError(t, err)
	step, err := a.SurveyService.Start(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "q1", step.Question.QuestionID)
	assert.True(t, mr.Exists("survey:session:"+resp.SessionID))
}

func TestBuild_Failures(t *testing.T) {
	cfg := testConfig(config.StoreMemory)
	cfg.DefinitionPath = "testdata/missing.json"
	_, err := Build(context.Background(), cfg, prometheus.NewRegistry(), nil)
	assert.Error(t, err)

	cfg = testConfig("etcd")
	_, err = Build(context.Background(), cfg, prometheus.NewRegistry(), nil)
	assert.ErrorContains(t, err, `unknown SESSION_STORE "etcd"`)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("survey_title: Broken\nquestions: []\n"), 0o600))
	cfg = testConfig(config.StoreMemory)
	cfg.DefinitionPath = bad
	_, err = Build(context.Background(), cfg, prometheus.NewRegistry(), nil)
	var defErr *definition.DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.NotEmpty(t, defErr.Problems)
}

func TestBuild_ShippedDefinition(t *testing.T) {
	cfg := testConfig(config.StoreMemory)
	cfg.DefinitionPath = "../../configs/survey_definition.json"
	a, err := Build(context.Background(), cfg, prometheus.NewRegistry(), nil)
	require.NoError(t, err)
	a.Close()
}
