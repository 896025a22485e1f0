package models

// Prediction is the result of a single classification call.
// Distribution always covers the classifier's full label set and sums to 1.
type Prediction struct {
	Label        string             `json:"label"`        // Arg-max class label
	Confidence   float64            `json:"confidence"`   // Probability of Label, in [0,1]
	Distribution map[string]float64 `json:"distribution"` // Probability per class label
}

// PredictionEvent is the audit record published after a successful
// classification.
type PredictionEvent struct {
	EventID    string  `json:"event_id"`   // Unique identifier for the event
	Username   string  `json:"username"`   // User who requested the classification
	Label      string  `json:"label"`      // Predicted class label
	Confidence float64 `json:"confidence"` // Prediction confidence
	Timestamp  int64   `json:"timestamp"`  // Unix timestamp (seconds) of the classification
}
