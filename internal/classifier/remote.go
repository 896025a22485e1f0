package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/models"
)

// RemoteClassifier delegates inference to an external model server over
// HTTP. The class-name list is still read from disk so the rest of the
// service can validate treatment coverage without a network round trip.
type RemoteClassifier struct {
	cfg        Config
	httpClient *http.Client
	classes    []string
	loaded     bool
}

// NewRemoteClassifier creates an unloaded remote classifier.
func NewRemoteClassifier(cfg Config) *RemoteClassifier {
	return &RemoteClassifier{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads the class-name list and checks the inference server health.
func (c *RemoteClassifier) Load(ctx context.Context) error {
	classes, err := loadClassNames(c.cfg.ClassNamesPath)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.RemoteURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: inference server unreachable: %v", ErrModelLoad, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: inference server health returned %d", ErrModelLoad, resp.StatusCode)
	}

	c.classes = classes
	c.loaded = true

	logger.Log.Infow("remote classifier ready",
		"url", c.cfg.RemoteURL,
		"classes", len(classes),
	)

	return nil
}

// Classes returns the ordered class-name list.
func (c *RemoteClassifier) Classes() []string {
	return c.classes
}

// remotePrediction is the inference server response body.
type remotePrediction struct {
	Label        string             `json:"label"`
	Confidence   float64            `json:"confidence"`
	Distribution map[string]float64 `json:"distribution"`
}

// Classify posts the image to the inference server and returns its
// prediction. A 400 from the server means the image was unreadable.
func (c *RemoteClassifier) Classify(ctx context.Context, imageData []byte) (*models.Prediction, error) {
	if !c.loaded {
		return nil, ErrNotLoaded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.RemoteURL+"/predict", bytes.NewReader(imageData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Log.Errorw("inference request failed", "url", c.cfg.RemoteURL, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: rejected by inference server", ErrImageDecode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("inference server returned %d: %s", resp.StatusCode, body)
	}

	var rp remotePrediction
	if err := json.Unmarshal(body, &rp); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}

	return &models.Prediction{
		Label:        rp.Label,
		Confidence:   rp.Confidence,
		Distribution: rp.Distribution,
	}, nil
}
