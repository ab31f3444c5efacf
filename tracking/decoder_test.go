package tracking

import (
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"image"
	"math"
	"testing"
)

func newTestDecoder(t *testing.T, numAnchors int, labels ...string) *AnchorDecoder {
	t.Helper()
	d, err := NewAnchorDecoder(DecoderConfig{
		NumAnchors:     numAnchors,
		NumClasses:     len(labels),
		ScoreThreshold: 0.2,
	}, labels)
	require.NoError(t, err)
	return d
}

func TestDecodeSingleAnchor(t *testing.T) {
	d := newTestDecoder(t, 1, "cat", "dog")
	data := []float32{0.5, 0.5, 0.2, 0.2, 0.9, 0.1, 0.85}

	boxes, err := d.Decode(data, image.Rect(0, 0, 416, 416))
	require.NoError(t, err)

	want := []BoundingBox{{ClassID: 1, Label: "dog", Confidence: 0.85, X: 166, Y: 166, W: 83, H: 83}}
	if diff := cmp.Diff(want, boxes); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeThresholds(t *testing.T) {
	d := newTestDecoder(t, 4, "a", "b")
	data := []float32{
		0.5, 0.5, 0.1, 0.1, 0.1, 0.9, 0.9, // objectness < T
		0.5, 0.5, 0.1, 0.1, 0.9, 0.2, 0.1, // confidence == T
		0.5, 0.5, 0.1, 0.1, 0.2, 0.5, 0.1, // objectness == T, kept
		0.5, 0.5, 0.1, 0.1, 0.9, 0.0, 0.0, // all class scores zero
	}

	boxes, err := d.Decode(data, image.Rect(0, 0, 100, 100))
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, 0, boxes[0].ClassID)
	assert.Equal(t, float32(0.5), boxes[0].Confidence)
}

func TestDecodeTieKeepsFirstClass(t *testing.T) {
	d := newTestDecoder(t, 1, "a", "b", "c")
	data := []float32{0.5, 0.5, 0.5, 0.5, 0.9, 0.3, 0.7, 0.7}

	boxes, err := d.Decode(data, image.Rect(0, 0, 100, 100))
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, 1, boxes[0].ClassID)
	assert.Equal(t, "b", boxes[0].Label)
}

func TestDecodeCropOffset(t *testing.T) {
	d := newTestDecoder(t, 1, "a")
	data := []float32{0.5, 0.5, 0.5, 0.25, 0.9, 0.8}

	boxes, err := d.Decode(data, image.Rect(100, 50, 300, 250))
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, BoundingBox{ClassID: 0, Label: "a", Confidence: 0.8, X: 150, Y: 125, W: 100, H: 50}, boxes[0])
}

func TestDecodeDropsZeroArea(t *testing.T) {
	d := newTestDecoder(t, 1, "a")
	data := []float32{0.5, 0.5, 0.001, 0.5, 0.9, 0.8}

	boxes, err := d.Decode(data, image.Rect(0, 0, 416, 416))
	require.NoError(t, err)
	assert.Empty(t, boxes)
}

func TestDecodeInferAnchorCount(t *testing.T) {
	d := newTestDecoder(t, 0, "a")
	data := []float32{
		0.2, 0.2, 0.1, 0.1, 0.9, 0.8,
		0.7, 0.7, 0.1, 0.1, 0.9, 0.6,
	}
	boxes, err := d.Decode(data, image.Rect(0, 0, 100, 100))
	require.NoError(t, err)
	assert.Len(t, boxes, 2)

	_, err = d.Decode(data[:8], image.Rect(0, 0, 100, 100))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecodeInvalidInput(t *testing.T) {
	d := newTestDecoder(t, 2, "a")

	_, err := d.Decode(make([]float32, 6), image.Rect(0, 0, 100, 100))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewAnchorDecoder(DecoderConfig{NumAnchors: 1, NumClasses: 3, ScoreThreshold: 0.2}, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewAnchorDecoderConfiguration(t *testing.T) {
	tests := []DecoderConfig{
		{NumAnchors: 1, NumClasses: 0, ScoreThreshold: 0.2},
		{NumAnchors: -1, NumClasses: 1, ScoreThreshold: 0.2},
		{NumAnchors: 1, NumClasses: 1, ScoreThreshold: -0.1},
		{NumAnchors: 1, NumClasses: 1, ScoreThreshold: 1.5},
	}
	for _, cfg := range tests {
		_, err := NewAnchorDecoder(cfg, []string{"a"})
		assert.ErrorIs(t, err, ErrConfiguration, "%+v", cfg)
	}
}

func TestDecodeClampsConfidence(t *testing.T) {
	d := newTestDecoder(t, 2, "a", "b")
	data := []float32{
		0.5, 0.5, 0.2, 0.2, 0.9, 0.1, 1.0001,
		0.2, 0.2, 0.1, 0.1, 0.9, 0.7, 0.1,
	}

	boxes, err := d.Decode(data, image.Rect(0, 0, 416, 416))
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Equal(t, float32(1), boxes[0].Confidence)
	assert.Equal(t, 1, boxes[0].ClassID)
	assert.Equal(t, float32(0.7), boxes[1].Confidence)
}

func TestDecodeSkipsNonFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	d := newTestDecoder(t, 6, "a")
	data := []float32{
		nan, 0.5, 0.2, 0.2, 0.9, 0.8, // cx 为 NaN
		0.5, 0.5, inf, 0.2, 0.9, 0.8, // w 为 Inf
		0.5, 0.5, 0.2, 0.2, nan, 0.8, // objectness 为 NaN
		0.5, 0.5, 0.2, 0.2, 0.9, inf, // 类别分数为 Inf
		0.5, 0.5, 0.2, 1e30, 0.9, 0.8, // 超出 int 范围
		0.5, 0.5, 0.2, 0.2, 0.9, 0.8, // 正常
	}

	boxes, err := d.Decode(data, image.Rect(0, 0, 416, 416))
	require.NoError(t, err)
	want := []BoundingBox{{ClassID: 0, Label: "a", Confidence: 0.8, X: 166, Y: 166, W: 83, H: 83}}
	if diff := cmp.Diff(want, boxes); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}
