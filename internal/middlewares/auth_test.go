package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeevko/cropguard/internal/models"
)

func TestAuthMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session := &models.Session{SessionID: uuid.New(), Username: "alice"}

	t.Run("valid token passes the session along", func(t *testing.T) {
		extractor := NewMockTokenExtractor(ctrl)
		validator := NewMockSessionValidator(ctrl)

		extractor.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("token123", nil)
		validator.EXPECT().ValidateToken(gomock.Any(), "token123").Return(session, nil)

		var got *models.Session
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = SessionFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		AuthMiddleware(extractor, validator)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, session, got)
	})

	t.Run("missing token", func(t *testing.T) {
		extractor := NewMockTokenExtractor(ctrl)
		validator := NewMockSessionValidator(ctrl)

		extractor.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("", errors.New("no authorization header"))

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		AuthMiddleware(extractor, validator)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	})

	t.Run("revoked session", func(t *testing.T) {
		extractor := NewMockTokenExtractor(ctrl)
		validator := NewMockSessionValidator(ctrl)

		extractor.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("token123", nil)
		validator.EXPECT().ValidateToken(gomock.Any(), "token123").Return(nil, errors.New("session expired or revoked"))

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		AuthMiddleware(extractor, validator)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSessionFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, SessionFromContext(req.Context()))
}
