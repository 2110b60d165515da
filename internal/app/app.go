// Package app wires configuration into a running service graph.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyassist/internal/cache"
	"surveyassist/internal/config"
	"surveyassist/internal/definition"
	"surveyassist/internal/flow"
	"surveyassist/internal/gateway"
	"surveyassist/internal/metrics"
	"surveyassist/internal/repository"
	"surveyassist/internal/service"
	"surveyassist/internal/transport/rest"
	"surveyassist/internal/transport/ws"
)

// App holds the built dependencies of the HTTP service
type App struct {
	Definition    *definition.Definition
	SessionStore  cache.SessionStore
	Locker        cache.Locker
	ResultRepo    repository.ResultRepo
	Engine        *flow.Engine
	AuthService   *service.AuthService
	SurveyService *service.SurveyService
	Metrics       *metrics.Metrics
	WSHub         *ws.Hub
	Router        http.Handler

	closers []func()
}

// Build connects the configured backends and assembles the service.
// reg receives the Prometheus collectors.
func Build(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{}

	def, err := definition.LoadFile(cfg.DefinitionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey definition: %w", err)
	}
	a.Definition = def
	logger.Info("survey definition loaded",
		"title", def.Title(), "questions", def.Len(), "assist", def.AssistEnabled(), "rules", len(def.Rules()))

	if err := a.connectSessionStore(ctx, cfg, logger); err != nil {
		a.Close()
		return nil, err
	}
	if cfg.ResultsEnabled {
		if err := a.connectResults(ctx, cfg, logger); err != nil {
			a.Close()
			return nil, err
		}
	}

	classifier := gateway.New(cfg.Gateway)
	if cfg.Gateway.IsEnabled() {
		logger.Info("classification gateway configured", "url", cfg.Gateway.BaseURL, "llm", cfg.Gateway.LLM)
	} else {
		logger.Warn("SURVEY_ASSIST_API_URL not set, using mock classifier")
	}

	a.Metrics = metrics.New(reg)
	a.Engine = flow.NewEngine(def, classifier, cfg.Gateway.Timeout(), logger)
	a.Engine.SetRecorder(a.Metrics)

	a.AuthService = service.NewAuthService(cfg.OperatorUsername, cfg.OperatorPassword, cfg.JWTSecret)
	a.SurveyService = service.NewSurveyService(a.Engine, a.SessionStore, a.Locker, a.ResultRepo, a.AuthService, logger)
	a.SurveyService.SetStats(a.Metrics)
	a.SurveyService.SetLockWait(cfg.LockWait)

	a.WSHub = ws.NewHub(logger)
	a.closers = append(a.closers, a.WSHub.Close)
	a.SurveyService.SetBroadcaster(a.WSHub)

	var gatherer prometheus.Gatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	a.Router = rest.NewRouter(&rest.Container{
		AuthService:   a.AuthService,
		SurveyService: a.SurveyService,
		WSHub:         a.WSHub,
		Gatherer:      gatherer,
		CORS:          &cfg.CORS,
		Logger:        logger,
	})
	return a, nil
}

func (a *App) connectSessionStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	switch cfg.SessionStore {
	case config.StoreMemory:
		a.SessionStore = cache.NewMemoryStore(cfg.SessionTTL)
		a.Locker = cache.NewMemoryLocker()
		logger.Warn("using in-memory session store; sessions are lost on restart")
		return nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, func() { rdb.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, err := rdb.Ping(pingCtx).Result(); err != nil {
			return fmt.Errorf("failed to ping Redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("connected to Redis", "addr", cfg.RedisAddr)

		a.SessionStore = cache.NewSessionCache(rdb, cfg.SessionTTL)
		a.Locker = cache.NewRedisLocker(rdb, cfg.LockTTL, logger)
		return nil
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
}

func (a *App) connectResults(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.closers = append(a.closers, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Disconnect(disconnectCtx)
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", "database", cfg.MongoDatabase)

	repo := repository.NewResultRepo(client.Database(cfg.MongoDatabase))
	if err := repo.EnsureIndexes(pingCtx); err != nil {
		return err
	}
	a.ResultRepo = repo
	return nil
}

// Close releases backend connections in reverse order
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
