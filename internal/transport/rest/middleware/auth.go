package middleware

import (
	"context"
	"net/http"
	"strings"

	"surveyassist/internal/service"
)

type contextKey string

const (
	OperatorIDKey   contextKey = "operatorId"
	SessionIDKey    contextKey = "sessionId"
	RespondentIDKey contextKey = "respondentId"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireOperator admits requests carrying an operator token
func (m *AuthMiddleware) RequireOperator(next http.Handler) http.Handler {
	return m.require(next, func(ctx context.Context, token string) (context.Context, error) {
		claims, err := m.authSvc.ValidateOperatorToken(token)
		if err != nil {
			return nil, err
		}
		return context.WithValue(ctx, OperatorIDKey, claims.OperatorID), nil
	})
}

// RequireRespondent admits requests carrying a session-scoped respondent
// token and puts its session and respondent ids in the context
func (m *AuthMiddleware) RequireRespondent(next http.Handler) http.Handler {
	return m.require(next, func(ctx context.Context, token string) (context.Context, error) {
		claims, err := m.authSvc.ValidateRespondentToken(token)
		if err != nil {
			return nil, err
		}
		ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
		return context.WithValue(ctx, RespondentIDKey, claims.RespondentID), nil
	})
}

type tokenCheck func(ctx context.Context, token string) (context.Context, error)

func (m *AuthMiddleware) require(next http.Handler, check tokenCheck) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			unauthorized(w, "missing authorization header")
			return
		}
		ctx, err := check(r.Context(), token)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOperatorID extracts operator ID from context
func GetOperatorID(ctx context.Context) string {
	v, _ := ctx.Value(OperatorIDKey).(string)
	return v
}

// GetSessionID extracts the respondent's session ID from context
func GetSessionID(ctx context.Context) string {
	v, _ := ctx.Value(SessionIDKey).(string)
	return v
}

// GetRespondentID extracts respondent ID from context
func GetRespondentID(ctx context.Context) string {
	v, _ := ctx.Value(RespondentIDKey).(string)
	return v
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
