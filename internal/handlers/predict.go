package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/avdeevko/cropguard/internal/classifier"
	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/middlewares"
	"github.com/avdeevko/cropguard/internal/models"
	"github.com/avdeevko/cropguard/internal/services"
)

// maxUploadBytes bounds the multipart form held in memory. Leaf photos are
// small; anything larger is rejected up front.
const maxUploadBytes = 10 << 20

// Predictor defines the interface that the prediction service must implement.
type Predictor interface {
	PredictBatch(ctx context.Context, username string, images [][]byte) []services.BatchResult
}

// PredictResult represents the outcome for one uploaded image
// swagger:model PredictResult
type PredictResult struct {
	// Original upload filename
	// example: leaf.jpg
	Filename string `json:"filename"`

	// Prediction for this image, absent when the image failed
	Prediction *models.Prediction `json:"prediction,omitempty"`

	// Per-image error, absent when the image succeeded
	// example: image cannot be decoded
	Error string `json:"error,omitempty"`
}

// PredictResponse represents a successful prediction response
// swagger:model PredictResponse
type PredictResponse struct {
	// One result per uploaded image, in upload order
	Results []PredictResult `json:"results"`
}

// PredictErrorResponse represents an error response for prediction
// swagger:model PredictErrorResponse
type PredictErrorResponse struct {
	// Error message
	// example: no image uploaded
	Error string `json:"error"`
}

// NewPredictHandler returns an HTTP handler that classifies uploaded leaf
// images. Several files may be uploaded under the "image" field; a
// malformed image fails alone without aborting the rest.
// @Summary Classify leaf images
// @Description Runs each uploaded image through the disease classifier
// @Tags prediction
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Leaf image (jpeg or png), repeatable"
// @Success 200 {object} handlers.PredictResponse "Per-image predictions"
// @Failure 400 {object} handlers.PredictErrorResponse "No image or unreadable image"
// @Failure 401 {object} handlers.PredictErrorResponse "Unauthorized"
// @Failure 503 {object} handlers.PredictErrorResponse "Model unavailable"
// @Router /predict [post]
func NewPredictHandler(svc Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		session := middlewares.SessionFromContext(r.Context())
		if session == nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(PredictErrorResponse{Error: "Unauthorized"})
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(PredictErrorResponse{Error: "invalid multipart form"})
			return
		}

		files := r.MultipartForm.File["image"]
		if len(files) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(PredictErrorResponse{Error: "no image uploaded"})
			return
		}

		// An unreadable upload stays in the batch as empty bytes; the
		// classifier rejects it like any other undecodable image.
		images := make([][]byte, 0, len(files))
		for _, fh := range files {
			data, err := readUpload(fh)
			if err != nil {
				logger.Log.Warnw("failed to read upload", "filename", fh.Filename, "err", err)
			}
			images = append(images, data)
		}

		batch := svc.PredictBatch(r.Context(), session.Username, images)

		results := make([]PredictResult, 0, len(files))
		for i, br := range batch {
			result := PredictResult{Filename: files[i].Filename}

			if br.Err != nil {
				if errors.Is(br.Err, classifier.ErrNotLoaded) {
					w.WriteHeader(http.StatusServiceUnavailable)
					json.NewEncoder(w).Encode(PredictErrorResponse{Error: "model unavailable"})
					return
				}
				// Single upload: surface the failure as the response status.
				if len(files) == 1 {
					logger.Log.Infow("prediction rejected", "filename", files[i].Filename, "err", br.Err)
					w.WriteHeader(http.StatusBadRequest)
					json.NewEncoder(w).Encode(PredictErrorResponse{Error: br.Err.Error()})
					return
				}
				result.Error = br.Err.Error()
			} else {
				result.Prediction = br.Prediction
			}

			results = append(results, result)
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(PredictResponse{Results: results})
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
