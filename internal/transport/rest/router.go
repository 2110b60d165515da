package rest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"

	_ "surveyassist/docs"
	"surveyassist/internal/config"
	"surveyassist/internal/service"
	"surveyassist/internal/transport/rest/handler"
	"surveyassist/internal/transport/rest/middleware"
	"surveyassist/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService   *service.AuthService
	SurveyService *service.SurveyService
	WSHub         *ws.Hub
	Gatherer      prometheus.Gatherer // nil serves the default registry
	CORS          *config.CORSConfig  // nil uses DefaultCORSConfig
	Logger        *slog.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, logger)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService, logger)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	cors := c.CORS
	if cors == nil {
		defaults := config.DefaultCORSConfig()
		cors = &defaults
	}

	// CORS answers preflights before anything is logged
	r.Use(corsMiddleware(*cors))
	r.Use(middleware.AccessLog(logger))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions", surveyHandler.CreateSession).Methods("POST", "OPTIONS")

	// WebSocket routes (operator token in query param)
	v1.HandleFunc("/ws/monitor", wsHandler.MonitorWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	gatherer := c.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	r.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}).Methods("GET")

	// Respondent routes (session-scoped token)
	respondentRoutes := v1.PathPrefix("/survey").Subrouter()
	respondentRoutes.Use(authMW.RequireRespondent)

	respondentRoutes.HandleFunc("/start", surveyHandler.Start).Methods("POST", "OPTIONS")
	respondentRoutes.HandleFunc("/current", surveyHandler.Current).Methods("GET", "OPTIONS")
	respondentRoutes.HandleFunc("/answers", surveyHandler.SubmitAnswer).Methods("POST", "OPTIONS")
	respondentRoutes.HandleFunc("/summary", surveyHandler.Summary).Methods("GET", "OPTIONS")

	// Operator routes
	operatorRoutes := v1.PathPrefix("/results").Subrouter()
	operatorRoutes.Use(authMW.RequireOperator)

	operatorRoutes.HandleFunc("", surveyHandler.ListResults).Methods("GET", "OPTIONS")
	operatorRoutes.HandleFunc("/{sessionId}", surveyHandler.GetResult).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(cfg config.CORSConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.AllowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
