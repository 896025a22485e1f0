package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/models"
)

// modelConfig mirrors the hyperparameter artifact written by training.
// Defaults match the transfer-learning pipeline the weights came from.
type modelConfig struct {
	ImgSize int       `json:"img_size"`
	Mean    []float64 `json:"mean"`
	Std     []float64 `json:"std"`
}

// weightsFile is the exported classification head: one weight row per
// class over the flattened normalized image, plus a bias per class.
type weightsFile struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// LocalClassifier runs inference in-process. The forward pass is fully
// deterministic: identical input bytes always produce identical output.
type LocalClassifier struct {
	cfg Config

	classes []string
	weights [][]float64
	bias    []float64
	imgSize int
	mean    []float64
	std     []float64
	loaded  bool
}

// NewLocalClassifier creates an unloaded in-process classifier.
func NewLocalClassifier(cfg Config) *LocalClassifier {
	return &LocalClassifier{cfg: cfg}
}

// Load reads class names, hyperparameters, and weights from disk and
// cross-checks their shapes. Any mismatch is an ErrModelLoad.
func (c *LocalClassifier) Load(ctx context.Context) error {
	classes, err := loadClassNames(c.cfg.ClassNamesPath)
	if err != nil {
		return err
	}

	mc := modelConfig{
		ImgSize: 224,
		Mean:    []float64{0.485, 0.456, 0.406},
		Std:     []float64{0.229, 0.224, 0.225},
	}
	if c.cfg.ModelConfigPath != "" {
		data, err := os.ReadFile(c.cfg.ModelConfigPath)
		if err != nil {
			return fmt.Errorf("%w: read model config %s: %v", ErrModelLoad, c.cfg.ModelConfigPath, err)
		}
		if err := json.Unmarshal(data, &mc); err != nil {
			return fmt.Errorf("%w: parse model config %s: %v", ErrModelLoad, c.cfg.ModelConfigPath, err)
		}
	}
	if mc.ImgSize <= 0 || len(mc.Mean) != 3 || len(mc.Std) != 3 {
		return fmt.Errorf("%w: invalid model config %s", ErrModelLoad, c.cfg.ModelConfigPath)
	}

	data, err := os.ReadFile(c.cfg.WeightsPath)
	if err != nil {
		return fmt.Errorf("%w: read weights %s: %v", ErrModelLoad, c.cfg.WeightsPath, err)
	}
	var wf weightsFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return fmt.Errorf("%w: parse weights %s: %v", ErrModelLoad, c.cfg.WeightsPath, err)
	}

	// Shape cross-checks: one row and one bias per class, one weight per
	// flattened CHW input element.
	if len(wf.Weights) != len(classes) {
		return fmt.Errorf("%w: weights have %d rows, class list has %d entries",
			ErrModelLoad, len(wf.Weights), len(classes))
	}
	if len(wf.Bias) != len(classes) {
		return fmt.Errorf("%w: bias has %d entries, class list has %d entries",
			ErrModelLoad, len(wf.Bias), len(classes))
	}
	features := 3 * mc.ImgSize * mc.ImgSize
	for i, row := range wf.Weights {
		if len(row) != features {
			return fmt.Errorf("%w: weight row %d has %d elements, expected %d",
				ErrModelLoad, i, len(row), features)
		}
	}

	c.classes = classes
	c.weights = wf.Weights
	c.bias = wf.Bias
	c.imgSize = mc.ImgSize
	c.mean = mc.Mean
	c.std = mc.Std
	c.loaded = true

	logger.Log.Infow("classifier loaded",
		"weights", c.cfg.WeightsPath,
		"classes", len(classes),
		"img_size", mc.ImgSize,
	)

	return nil
}

// Classes returns the ordered class-name list.
func (c *LocalClassifier) Classes() []string {
	return c.classes
}

// Classify decodes the image, applies the fixed preprocessing transform
// (resize to the model input size, channel-wise normalize), and runs one
// forward pass through the classification head.
func (c *LocalClassifier) Classify(ctx context.Context, imageData []byte) (*models.Prediction, error) {
	if !c.loaded {
		return nil, ErrNotLoaded
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	features := c.preprocess(img)

	logits := make([]float64, len(c.classes))
	for i, row := range c.weights {
		sum := c.bias[i]
		for j, x := range features {
			sum += row[j] * x
		}
		logits[i] = sum
	}

	probs := softmax(logits)

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	distribution := make(map[string]float64, len(c.classes))
	for i, name := range c.classes {
		distribution[name] = probs[i]
	}

	logger.Log.Infow("image classified",
		"format", format,
		"label", c.classes[best],
		"confidence", probs[best],
	)

	return &models.Prediction{
		Label:        c.classes[best],
		Confidence:   probs[best],
		Distribution: distribution,
	}, nil
}

// preprocess resizes the image to imgSize x imgSize with bilinear
// interpolation and returns the normalized pixels in CHW order, matching
// the layout the weights were trained on.
func (c *LocalClassifier) preprocess(img image.Image) []float64 {
	scaled := image.NewRGBA(image.Rect(0, 0, c.imgSize, c.imgSize))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	features := make([]float64, 3*c.imgSize*c.imgSize)
	plane := c.imgSize * c.imgSize
	for y := 0; y < c.imgSize; y++ {
		for x := 0; x < c.imgSize; x++ {
			offset := scaled.PixOffset(x, y)
			idx := y*c.imgSize + x
			for ch := 0; ch < 3; ch++ {
				v := float64(scaled.Pix[offset+ch]) / 255.0
				features[ch*plane+idx] = (v - c.mean[ch]) / c.std[ch]
			}
		}
	}

	return features
}

// softmax converts logits to a probability vector summing to 1.
// The max is subtracted first for numerical stability.
func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(v - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}

	return probs
}
