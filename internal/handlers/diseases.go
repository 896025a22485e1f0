package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

// DiseaseLister defines the interface that the disease listing service must implement.
type DiseaseLister interface {
	Diseases(ctx context.Context) []string
}

// DiseasesResponse represents the known disease class labels
// swagger:model DiseasesResponse
type DiseasesResponse struct {
	// Class labels the classifier can output
	// example: ["Bacterialblight","Blast","Brownspot"]
	Diseases []string `json:"diseases"`
}

// NewDiseasesHandler returns an HTTP handler listing the classifier's
// label set.
// @Summary List known diseases
// @Description Returns the fixed, closed set of disease class labels
// @Tags diseases
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.DiseasesResponse "Known class labels"
// @Router /diseases [get]
func NewDiseasesHandler(svc DiseaseLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(DiseasesResponse{
			Diseases: svc.Diseases(r.Context()),
		})
	}
}
