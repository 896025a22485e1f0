// Package classifier wraps the pretrained leaf-disease image classifier.
// The model artifacts (weights, ordered class-name list, preprocessing
// hyperparameters) are opaque inputs produced by the training pipeline;
// they are loaded from disk once and reused for the process lifetime.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/avdeevko/cropguard/internal/models"
)

var (
	// ErrModelLoad is returned when a model artifact is missing or malformed.
	// Fatal at startup: the service cannot serve predictions without a model.
	ErrModelLoad = errors.New("model load failed")

	// ErrImageDecode is returned when an uploaded image cannot be read.
	// Recovered per image; other images in a batch are unaffected.
	ErrImageDecode = errors.New("image cannot be decoded")

	// ErrNotLoaded is returned when Classify is called before Load.
	ErrNotLoaded = errors.New("classifier not loaded")
)

// Classifier produces a prediction for a single image. Implementations are
// safe for concurrent use after Load has returned.
type Classifier interface {
	// Load reads the model artifacts. Must be called once before Classify.
	Load(ctx context.Context) error
	// Classify runs one forward pass over the given encoded image.
	Classify(ctx context.Context, imageData []byte) (*models.Prediction, error)
	// Classes returns the ordered class-name list the model predicts over.
	Classes() []string
}

// Config points at the model artifacts on disk.
type Config struct {
	WeightsPath     string // Serialized model weights
	ClassNamesPath  string // JSON list of class names in inference-output order
	ModelConfigPath string // JSON preprocessing hyperparameters
	RemoteURL       string // Base URL of a remote inference server, remote mode only
}

// New returns the classifier registered under the given mode.
func New(mode string, cfg Config) (Classifier, error) {
	switch mode {
	case "local", "":
		return NewLocalClassifier(cfg), nil
	case "remote":
		return NewRemoteClassifier(cfg), nil
	default:
		return nil, fmt.Errorf("unknown classifier mode: %s", mode)
	}
}

// classNamesFile mirrors the class-name artifact written by training.
type classNamesFile struct {
	Classes []string `json:"classes"`
}

func loadClassNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read class names %s: %v", ErrModelLoad, path, err)
	}

	var cf classNamesFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: parse class names %s: %v", ErrModelLoad, path, err)
	}
	if len(cf.Classes) == 0 {
		return nil, fmt.Errorf("%w: class names %s is empty", ErrModelLoad, path)
	}

	return cf.Classes, nil
}
