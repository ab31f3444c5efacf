package tracking

import (
	"fmt"
	"image"
	"math"
)

// anchorHeader 每个锚框的固定字段: cx, cy, w, h, objectness
const anchorHeader = 5

// AnchorDecoder 将 yolov5 输出张量解析为候选框
type AnchorDecoder struct {
	config DecoderConfig
	labels []string
}

// NewAnchorDecoder 创建解码器
//
// # Params:
//
//	cfg: 解码参数
//	labels: 标签列表，下标即类别ID，数量不能少于类别数
func NewAnchorDecoder(cfg DecoderConfig, labels []string) (*AnchorDecoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(labels) < cfg.NumClasses {
		return nil, fmt.Errorf("%w: 标签数量(%d)少于类别数(%d)", ErrInvalidInput, len(labels), cfg.NumClasses)
	}
	return &AnchorDecoder{
		config: cfg,
		labels: labels,
	}, nil
}

// Stride 每个锚框占用的元素个数
func (d *AnchorDecoder) Stride() int {
	return anchorHeader + d.config.NumClasses
}

// Decode 解析候选框
//
// data 只在调用期间被读取，不会被保留
//
// # Params:
//
//	data: 模型输出，长度为 锚框数 x (5 + 类别数)
//	crop: 输入图像在原图中的裁剪区域，用于还原像素坐标
func (d *AnchorDecoder) Decode(data []float32, crop image.Rectangle) ([]BoundingBox, error) {
	stride := d.Stride()
	numAnchors := d.config.NumAnchors
	if numAnchors == 0 {
		if len(data)%stride != 0 {
			return nil, fmt.Errorf("%w: 张量长度(%d)不是 %d 的整数倍", ErrInvalidInput, len(data), stride)
		}
		numAnchors = len(data) / stride
	} else if len(data) != numAnchors*stride {
		return nil, fmt.Errorf("%w: 张量长度(%d)与预期(%d x %d)不匹配", ErrInvalidInput, len(data), numAnchors, stride)
	}

	threshold := d.config.ScoreThreshold
	cropX, cropY := float32(crop.Min.X), float32(crop.Min.Y)
	cropW, cropH := float32(crop.Dx()), float32(crop.Dy())

	var boxes []BoundingBox
	for i := 0; i < numAnchors; i++ {
		anchor := data[i*stride : (i+1)*stride]
		if !finite(anchor[4]) || anchor[4] < threshold {
			continue
		}

		// 找最大类别分数，分数相同时保留靠前的类别
		classID := 0
		confidence := float32(0.0)
		for c, score := range anchor[anchorHeader:] {
			if score > confidence {
				confidence = score
				classID = c
			}
		}
		if confidence <= threshold || !finite(confidence) {
			continue
		}
		// 超出 [0, 1] 的分数按 1 处理，保证输出框能被跟踪器接受
		confidence = min(confidence, 1)

		// 转换回原图坐标
		cx := anchor[0]*cropW + cropX
		cy := anchor[1]*cropH + cropY
		w := anchor[2] * cropW
		h := anchor[3] * cropH
		left, top := cx-w/2, cy-h/2
		if !inPixelRange(left) || !inPixelRange(top) || !inPixelRange(w) || !inPixelRange(h) {
			continue
		}
		box := BoundingBox{
			ClassID:    classID,
			Label:      d.labels[classID],
			Confidence: confidence,
			X:          int(left),
			Y:          int(top),
			W:          int(w),
			H:          int(h),
		}
		if box.W <= 0 || box.H <= 0 {
			continue
		}
		boxes = append(boxes, box)
	}
	return boxes, nil
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

// inPixelRange NaN、Inf 以及转换为 int 会溢出的坐标都返回 false
func inPixelRange(v float32) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}
