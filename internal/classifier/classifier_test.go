package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testImgSize = 4
	testClasses = 3
)

// writeArtifacts writes a consistent miniature model to dir and returns its Config.
func writeArtifacts(t *testing.T, dir string) Config {
	t.Helper()

	classNames := map[string][]string{
		"classes": {"Bacterialblight", "Blast", "Brownspot"},
	}
	writeJSON(t, filepath.Join(dir, "class_names.json"), classNames)

	modelCfg := map[string]interface{}{
		"img_size": testImgSize,
		"mean":     []float64{0.485, 0.456, 0.406},
		"std":      []float64{0.229, 0.224, 0.225},
	}
	writeJSON(t, filepath.Join(dir, "model_config.json"), modelCfg)

	features := 3 * testImgSize * testImgSize
	weights := make([][]float64, testClasses)
	for i := range weights {
		weights[i] = make([]float64, features)
		for j := range weights[i] {
			weights[i][j] = float64((i+1)*(j+1)%7) / 100.0
		}
	}
	writeJSON(t, filepath.Join(dir, "model.json"), map[string]interface{}{
		"weights": weights,
		"bias":    []float64{0.1, -0.2, 0.3},
	})

	return Config{
		WeightsPath:     filepath.Join(dir, "model.json"),
		ClassNamesPath:  filepath.Join(dir, "class_names.json"),
		ModelConfigPath: filepath.Join(dir, "model_config.json"),
	}
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

// testPNG encodes a small gradient image.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	cfg := Config{}

	c, err := New("local", cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalClassifier{}, c)

	c, err = New("", cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalClassifier{}, c)

	c, err = New("remote", cfg)
	require.NoError(t, err)
	assert.IsType(t, &RemoteClassifier{}, c)

	_, err = New("gpu-farm", cfg)
	assert.Error(t, err)
}

func TestLocalClassifier_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		cfg := writeArtifacts(t, t.TempDir())
		c := NewLocalClassifier(cfg)
		require.NoError(t, c.Load(ctx))
		assert.Equal(t, []string{"Bacterialblight", "Blast", "Brownspot"}, c.Classes())
	})

	t.Run("missing class names", func(t *testing.T) {
		cfg := writeArtifacts(t, t.TempDir())
		cfg.ClassNamesPath = filepath.Join(t.TempDir(), "nope.json")
		err := NewLocalClassifier(cfg).Load(ctx)
		assert.ErrorIs(t, err, ErrModelLoad)
	})

	t.Run("empty class list", func(t *testing.T) {
		dir := t.TempDir()
		cfg := writeArtifacts(t, dir)
		writeJSON(t, cfg.ClassNamesPath, map[string][]string{"classes": {}})
		err := NewLocalClassifier(cfg).Load(ctx)
		assert.ErrorIs(t, err, ErrModelLoad)
	})

	t.Run("missing weights", func(t *testing.T) {
		cfg := writeArtifacts(t, t.TempDir())
		cfg.WeightsPath = filepath.Join(t.TempDir(), "nope.json")
		err := NewLocalClassifier(cfg).Load(ctx)
		assert.ErrorIs(t, err, ErrModelLoad)
	})

	t.Run("weight row count mismatch", func(t *testing.T) {
		dir := t.TempDir()
		cfg := writeArtifacts(t, dir)
		writeJSON(t, cfg.WeightsPath, map[string]interface{}{
			"weights": [][]float64{make([]float64, 3*testImgSize*testImgSize)},
			"bias":    []float64{0.1, -0.2, 0.3},
		})
		err := NewLocalClassifier(cfg).Load(ctx)
		assert.ErrorIs(t, err, ErrModelLoad)
	})

	t.Run("weight row length mismatch", func(t *testing.T) {
		dir := t.TempDir()
		cfg := writeArtifacts(t, dir)
		short := make([][]float64, testClasses)
		for i := range short {
			short[i] = make([]float64, 5)
		}
		writeJSON(t, cfg.WeightsPath, map[string]interface{}{
			"weights": short,
			"bias":    []float64{0.1, -0.2, 0.3},
		})
		err := NewLocalClassifier(cfg).Load(ctx)
		assert.ErrorIs(t, err, ErrModelLoad)
	})

	t.Run("bias length mismatch", func(t *testing.T) {
		dir := t.TempDir()
		cfg := writeArtifacts(t, dir)
		weights := make([][]float64, testClasses)
		for i := range weights {
			weights[i] = make([]float64, 3*testImgSize*testImgSize)
		}
		writeJSON(t, cfg.WeightsPath, map[string]interface{}{
			"weights": weights,
			"bias":    []float64{0.1},
		})
		err := NewLocalClassifier(cfg).Load(ctx)
		assert.ErrorIs(t, err, ErrModelLoad)
	})
}

func TestLocalClassifier_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("before load", func(t *testing.T) {
		c := NewLocalClassifier(Config{})
		_, err := c.Classify(ctx, testPNG(t))
		assert.ErrorIs(t, err, ErrNotLoaded)
	})

	t.Run("garbage input", func(t *testing.T) {
		c := NewLocalClassifier(writeArtifacts(t, t.TempDir()))
		require.NoError(t, c.Load(ctx))

		_, err := c.Classify(ctx, []byte("definitely not an image"))
		assert.ErrorIs(t, err, ErrImageDecode)
	})

	t.Run("valid image", func(t *testing.T) {
		c := NewLocalClassifier(writeArtifacts(t, t.TempDir()))
		require.NoError(t, c.Load(ctx))

		prediction, err := c.Classify(ctx, testPNG(t))
		require.NoError(t, err)

		assert.Contains(t, c.Classes(), prediction.Label)
		require.Len(t, prediction.Distribution, testClasses)

		var sum, max float64
		for _, p := range prediction.Distribution {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
			if p > max {
				max = p
			}
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.InDelta(t, max, prediction.Confidence, 1e-12)
		assert.Equal(t, prediction.Distribution[prediction.Label], prediction.Confidence)
	})

	t.Run("deterministic", func(t *testing.T) {
		c := NewLocalClassifier(writeArtifacts(t, t.TempDir()))
		require.NoError(t, c.Load(ctx))

		img := testPNG(t)
		first, err := c.Classify(ctx, img)
		require.NoError(t, err)
		second, err := c.Classify(ctx, img)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}

func TestSoftmax(t *testing.T) {
	probs := softmax([]float64{1000, 1001, 999})

	var sum float64
	for _, p := range probs {
		require.False(t, math.IsNaN(p))
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, probs[1], probs[0])
	assert.Greater(t, probs[0], probs[2])
}

func TestRemoteClassifier(t *testing.T) {
	ctx := context.Background()

	newServer := func(t *testing.T, predict http.HandlerFunc) *httptest.Server {
		t.Helper()
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("/predict", predict)
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)
		return srv
	}

	classNamesPath := func(t *testing.T) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "class_names.json")
		writeJSON(t, path, map[string][]string{
			"classes": {"Bacterialblight", "Blast", "Brownspot"},
		})
		return path
	}

	t.Run("load checks health", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {})

		c := NewRemoteClassifier(Config{ClassNamesPath: classNamesPath(t), RemoteURL: srv.URL})
		require.NoError(t, c.Load(ctx))
		assert.Equal(t, []string{"Bacterialblight", "Blast", "Brownspot"}, c.Classes())
	})

	t.Run("load fails when server is down", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
		url := srv.URL
		srv.Close()

		c := NewRemoteClassifier(Config{ClassNamesPath: classNamesPath(t), RemoteURL: url})
		assert.ErrorIs(t, c.Load(ctx), ErrModelLoad)
	})

	t.Run("classify success", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"label":"Blast","confidence":0.91,"distribution":{"Bacterialblight":0.05,"Blast":0.91,"Brownspot":0.04}}`)
		})

		c := NewRemoteClassifier(Config{ClassNamesPath: classNamesPath(t), RemoteURL: srv.URL})
		require.NoError(t, c.Load(ctx))

		prediction, err := c.Classify(ctx, []byte("jpeg-bytes"))
		require.NoError(t, err)
		assert.Equal(t, "Blast", prediction.Label)
		assert.InDelta(t, 0.91, prediction.Confidence, 1e-9)
		assert.Len(t, prediction.Distribution, 3)
	})

	t.Run("server rejects the image", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})

		c := NewRemoteClassifier(Config{ClassNamesPath: classNamesPath(t), RemoteURL: srv.URL})
		require.NoError(t, c.Load(ctx))

		_, err := c.Classify(ctx, []byte("not-an-image"))
		assert.ErrorIs(t, err, ErrImageDecode)
	})

	t.Run("server error", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		c := NewRemoteClassifier(Config{ClassNamesPath: classNamesPath(t), RemoteURL: srv.URL})
		require.NoError(t, c.Load(ctx))

		_, err := c.Classify(ctx, []byte("jpeg-bytes"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrImageDecode)
	})

	t.Run("classify before load", func(t *testing.T) {
		c := NewRemoteClassifier(Config{})
		_, err := c.Classify(ctx, []byte("jpeg-bytes"))
		assert.ErrorIs(t, err, ErrNotLoaded)
	})
}
