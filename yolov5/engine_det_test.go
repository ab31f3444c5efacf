package yolov5

import (
	"github.com/getcharzp/go-vision-track/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"image"
	"os"
	"path/filepath"
	"testing"
)

// newTestEngine 只创建后处理部分，不加载模型
func newTestEngine(t *testing.T) *DetEngine {
	t.Helper()
	dir := t.TempDir()
	labelPath := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(labelPath, []byte("person\ncar\n"), 0o644))

	cfg := DefaultConfig()
	cfg.LabelPath = labelPath
	cfg.Tracking.Decoder = tracking.DecoderConfig{NumAnchors: 2, NumClasses: 2, ScoreThreshold: 0.2}

	e := &DetEngine{config: cfg, logger: zap.NewNop()}
	require.NoError(t, e.initPipeline())
	return e
}

func TestPostprocess(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, []string{"person", "car"}, e.Labels())

	data := []float32{
		0.5, 0.5, 0.2, 0.2, 0.9, 0.1, 0.85,
		0.1, 0.1, 0.1, 0.1, 0.05, 0.9, 0.1,
	}
	crop := image.Rect(80, 0, 560, 480)
	res, err := e.postprocess(data, []int64{1, 2, 7}, crop)
	require.NoError(t, err)

	require.Len(t, res.BBoxList, 1)
	assert.Equal(t, tracking.BoundingBox{ClassID: 1, Label: "car", Confidence: 0.85, X: 272, Y: 192, W: 96, H: 96}, res.BBoxList[0])
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, 0, res.Tracks[0].ID)
	assert.Equal(t, crop, res.Crop)

	e.Reset()
	res, err = e.postprocess(data, []int64{1, 2, 7}, crop)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tracks[0].ID)
}

func TestPostprocessShapeMismatch(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.postprocess(make([]float32, 21), []int64{1, 3, 7}, image.Rect(0, 0, 10, 10))
	assert.ErrorIs(t, err, tracking.ErrInvalidInput)

	_, err = e.postprocess(make([]float32, 14), []int64{1, 2, 85}, image.Rect(0, 0, 10, 10))
	assert.ErrorIs(t, err, tracking.ErrInvalidInput)
}

func TestPostprocessDataShapeMismatch(t *testing.T) {
	e := newTestEngine(t)
	e.config.Tracking.Decoder.NumAnchors = 0
	require.NoError(t, e.initPipeline())

	// 形状声明 2 个锚框，数据却有 3 个
	data := []float32{
		0.5, 0.5, 0.2, 0.2, 0.9, 0.1, 0.85,
		0.1, 0.1, 0.1, 0.1, 0.05, 0.9, 0.1,
		0.3, 0.3, 0.2, 0.2, 0.9, 0.9, 0.1,
	}
	_, err := e.postprocess(data, []int64{1, 2, 7}, image.Rect(0, 0, 100, 100))
	assert.ErrorIs(t, err, tracking.ErrInvalidInput)

	_, err = e.postprocess(data[:13], []int64{1, 2, 7}, image.Rect(0, 0, 100, 100))
	assert.ErrorIs(t, err, tracking.ErrInvalidInput)

	res, err := e.postprocess(data[:14], []int64{1, 2, 7}, image.Rect(0, 0, 100, 100))
	require.NoError(t, err)
	assert.Len(t, res.BBoxList, 1)
}

func TestNewDetEngineRejectsBadConfig(t *testing.T) {
	cfg := DefaultDetConfig()
	cfg.LabelPath = filepath.Join(t.TempDir(), "missing.txt")
	_, err := NewDetEngine(cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg = DefaultDetConfig()
	cfg.InputSize = 0
	_, err = NewDetEngine(cfg)
	assert.ErrorIs(t, err, tracking.ErrConfiguration)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yolov5.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model_path: /models/yolov5s.onnx
num_threads: 4
tracking:
  decoder:
    score_threshold: 0.3
  tracker:
    max_undetected: 20
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/models/yolov5s.onnx", cfg.ModelPath)
	assert.Equal(t, 4, cfg.NumThreads)
	assert.Equal(t, 416, cfg.InputSize)
	assert.Equal(t, DefaultDetConfig().LabelPath, cfg.LabelPath)
	assert.Equal(t, float32(0.3), cfg.Tracking.Decoder.ScoreThreshold)
	assert.Equal(t, 80, cfg.Tracking.Decoder.NumClasses)
	assert.Equal(t, 20, cfg.Tracking.Tracker.MaxUndetected)
}
