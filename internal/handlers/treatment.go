package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/models"
	"github.com/avdeevko/cropguard/internal/services"
)

// TreatmentGetter defines the interface that the treatment service must implement.
type TreatmentGetter interface {
	Treatment(ctx context.Context, label string) (*models.TreatmentBundle, error)
}

// TreatmentErrorResponse represents an error response for treatment lookup
// swagger:model TreatmentErrorResponse
type TreatmentErrorResponse struct {
	// Error message
	// example: unknown disease label
	Error string `json:"error"`
}

// NewTreatmentHandler returns an HTTP handler serving the treatment bundle
// for a disease class label.
// @Summary Get treatment advice
// @Description Returns the static advisory bundle for one disease label
// @Tags diseases
// @Produce json
// @Security BearerAuth
// @Param label path string true "Disease class label" example(Blast)
// @Success 200 {object} models.TreatmentBundle "Treatment bundle"
// @Failure 404 {object} handlers.TreatmentErrorResponse "Unknown disease label"
// @Router /diseases/{label}/treatment [get]
func NewTreatmentHandler(svc TreatmentGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		label := chi.URLParam(r, "label")

		bundle, err := svc.Treatment(r.Context(), label)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUnknownDisease):
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(TreatmentErrorResponse{
					Error: "unknown disease label",
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(TreatmentErrorResponse{
					Error: "Internal server error",
				})
			}
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(bundle)
	}
}
