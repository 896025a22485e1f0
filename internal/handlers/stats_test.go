package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("success", func(t *testing.T) {
		svc := NewMockUserCounter(ctrl)
		svc.EXPECT().UserCount(gomock.Any()).Return(int64(42), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rec := httptest.NewRecorder()

		NewStatsHandler(svc)(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp StatsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(42), resp.RegisteredUsers)
	})

	t.Run("internal error", func(t *testing.T) {
		svc := NewMockUserCounter(ctrl)
		svc.EXPECT().UserCount(gomock.Any()).Return(int64(0), errors.New("db down"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rec := httptest.NewRecorder()

		NewStatsHandler(svc)(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
