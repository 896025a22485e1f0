package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/models"
)

// ErrTreatmentNotFound is returned when no bundle exists for a label.
var ErrTreatmentNotFound = errors.New("no treatment information for disease")

// TreatmentRepository serves static treatment bundles keyed by class label.
// The content is data, not code: it is loaded once from a JSON file at
// startup and read-only afterwards.
type TreatmentRepository struct {
	bundles map[string]models.TreatmentBundle
}

// NewTreatmentRepository loads the treatment table from the given file.
func NewTreatmentRepository(path string) (*TreatmentRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read treatment data %s: %w", path, err)
	}

	bundles := make(map[string]models.TreatmentBundle)
	if err := json.Unmarshal(data, &bundles); err != nil {
		return nil, fmt.Errorf("parse treatment data %s: %w", path, err)
	}
	if len(bundles) == 0 {
		return nil, fmt.Errorf("treatment data %s contains no diseases", path)
	}

	logger.Log.Infow("treatment data loaded",
		"path", path,
		"diseases", len(bundles),
	)

	return &TreatmentRepository{bundles: bundles}, nil
}

// Get returns the treatment bundle for the given class label.
func (r *TreatmentRepository) Get(ctx context.Context, label string) (*models.TreatmentBundle, error) {
	bundle, ok := r.bundles[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTreatmentNotFound, label)
	}
	return &bundle, nil
}

// Labels returns the sorted set of labels with treatment information.
func (r *TreatmentRepository) Labels(ctx context.Context) []string {
	labels := make([]string, 0, len(r.bundles))
	for label := range r.bundles {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Covers reports whether every given label has a treatment bundle.
// Used as a startup cross-check against the classifier's label set.
func (r *TreatmentRepository) Covers(ctx context.Context, labels []string) error {
	for _, label := range labels {
		if _, ok := r.bundles[label]; !ok {
			return fmt.Errorf("%w: %s", ErrTreatmentNotFound, label)
		}
	}
	return nil
}
