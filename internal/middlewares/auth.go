package middlewares

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/models"
)

type ctxKey string

const sessionCtxKey ctxKey = "session"

// TokenExtractor pulls the raw token string out of a request.
type TokenExtractor interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
}

// SessionValidator resolves a token string to a live session.
type SessionValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*models.Session, error)
}

// authErrorResponse is the JSON body returned on failed authorization.
type authErrorResponse struct {
	Error string `json:"error"`
}

// AuthMiddleware returns a middleware that authenticates the request and
// stores the resolved session in the request context.
func AuthMiddleware(extractor TokenExtractor, validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := extractor.GetTokenFromRequest(ctx, r)
			if err != nil {
				logger.Log.Infow("authorization failed", "err", err)
				unauthorized(w)
				return
			}

			session, err := validator.ValidateToken(ctx, tokenString)
			if err != nil {
				logger.Log.Infow("authorization failed", "err", err)
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(ctx, session)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(authErrorResponse{Error: "Unauthorized"})
}

// ContextWithSession returns a child context carrying the session.
func ContextWithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, session)
}

// SessionFromContext returns the session stored by AuthMiddleware,
// or nil when the request was not authenticated.
func SessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(sessionCtxKey).(*models.Session)
	return session
}
