package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/avdeevko/cropguard/internal/logger"
)

// UserCounter defines the interface that the stats service must implement.
type UserCounter interface {
	UserCount(ctx context.Context) (int64, error)
}

// StatsResponse represents public service statistics
// swagger:model StatsResponse
type StatsResponse struct {
	// Total number of registered users
	// example: 42
	RegisteredUsers int64 `json:"registered_users"`
}

// StatsErrorResponse represents an error response for stats
// swagger:model StatsErrorResponse
type StatsErrorResponse struct {
	// Error message
	// example: Internal server error
	Error string `json:"error"`
}

// NewStatsHandler returns an HTTP handler serving public service stats.
// @Summary Service statistics
// @Description Returns the total number of registered users
// @Tags stats
// @Produce json
// @Success 200 {object} handlers.StatsResponse "Service statistics"
// @Failure 500 {object} handlers.StatsErrorResponse "Internal server error"
// @Router /stats [get]
func NewStatsHandler(svc UserCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		count, err := svc.UserCount(r.Context())
		if err != nil {
			logger.Log.Errorw("internal server error", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(StatsErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(StatsResponse{RegisteredUsers: count})
	}
}
