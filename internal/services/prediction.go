package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/models"
	"github.com/avdeevko/cropguard/internal/repositories"
)

// ErrUnknownDisease is returned when a label is outside the classifier's
// class set.
var ErrUnknownDisease = errors.New("unknown disease label")

// ImageClassifier runs inference over one encoded image.
type ImageClassifier interface {
	Classify(ctx context.Context, imageData []byte) (*models.Prediction, error) // Classifies a single image
	Classes() []string                                                          // Ordered class-name list
}

// TreatmentReader serves static treatment bundles.
type TreatmentReader interface {
	Get(ctx context.Context, label string) (*models.TreatmentBundle, error)
	Labels(ctx context.Context) []string
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// BatchResult is the outcome for one image of a batch. A failed image
// carries its error and does not abort the rest of the batch.
type BatchResult struct {
	Prediction *models.Prediction
	Err        error
}

// PredictionService classifies uploaded images, serves treatment advice,
// and publishes an audit event per successful prediction.
type PredictionService struct {
	classifier  ImageClassifier
	treatments  TreatmentReader
	kafkaWriter KafkaWriter
}

// NewPredictionService creates a new PredictionService.
func NewPredictionService(
	classifier ImageClassifier,
	treatments TreatmentReader,
	kafkaWriter KafkaWriter,
) *PredictionService {
	return &PredictionService{
		classifier:  classifier,
		treatments:  treatments,
		kafkaWriter: kafkaWriter,
	}
}

// Predict classifies a single image on behalf of username.
func (svc *PredictionService) Predict(ctx context.Context, username string, imageData []byte) (*models.Prediction, error) {
	prediction, err := svc.classifier.Classify(ctx, imageData)
	if err != nil {
		logger.Log.Errorw("classification failed", "username", username, "err", err)
		return nil, err
	}

	svc.publishEvent(ctx, username, prediction)

	return prediction, nil
}

// PredictBatch classifies images one at a time. A malformed image yields an
// error entry for that image only.
func (svc *PredictionService) PredictBatch(ctx context.Context, username string, images [][]byte) []BatchResult {
	results := make([]BatchResult, 0, len(images))
	for _, imageData := range images {
		prediction, err := svc.Predict(ctx, username, imageData)
		results = append(results, BatchResult{Prediction: prediction, Err: err})
	}
	return results
}

// Diseases returns the classifier's label set.
func (svc *PredictionService) Diseases(ctx context.Context) []string {
	return svc.classifier.Classes()
}

// Treatment returns the advisory bundle for a class label.
func (svc *PredictionService) Treatment(ctx context.Context, label string) (*models.TreatmentBundle, error) {
	bundle, err := svc.treatments.Get(ctx, label)
	if err != nil {
		if errors.Is(err, repositories.ErrTreatmentNotFound) {
			return nil, ErrUnknownDisease
		}
		return nil, err
	}
	return bundle, nil
}

// publishEvent publishes a prediction audit event to Kafka.
func (svc *PredictionService) publishEvent(ctx context.Context, username string, prediction *models.Prediction) {
	if svc.kafkaWriter == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "username", username)
		return
	}

	event := models.PredictionEvent{
		EventID:    uuid.New().String(),
		Username:   username,
		Label:      prediction.Label,
		Confidence: prediction.Confidence,
		Timestamp:  time.Now().Unix(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("failed to marshal prediction event", "err", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(username),
		Value: value,
	}

	if err := svc.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("failed to publish prediction event", "event_id", event.EventID, "err", err)
		return
	}

	logger.Log.Infow("prediction event published",
		"event_id", event.EventID,
		"username", username,
		"label", prediction.Label,
	)
}
