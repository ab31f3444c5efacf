package tracking

import (
	"go.uber.org/zap"
	"image"
)

// FrameResult 单帧后处理结果
type FrameResult struct {
	Candidates int             // 解码得到的候选框数量
	BBoxList   []BoundingBox   // NMS 之后的检测框
	Tracks     []TrackSnapshot // 更新后的轨迹
}

// Pipeline 解码 -> NMS -> 跟踪
type Pipeline struct {
	decoder *AnchorDecoder
	nms     *NMS
	tracker *Tracker
	logger  *zap.Logger
	frame   int
}

// PipelineOption 可选项
type PipelineOption func(*Pipeline)

// WithLogger 设置日志，同时作用于跟踪器
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline 创建后处理流水线
//
// # Params:
//
//	cfg: 配置
//	labels: 标签列表
func NewPipeline(cfg Config, labels []string, opts ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	var err error
	if p.decoder, err = NewAnchorDecoder(cfg.Decoder, labels); err != nil {
		return nil, err
	}
	if p.nms, err = NewNMS(cfg.NMS); err != nil {
		return nil, err
	}
	if p.tracker, err = NewTracker(cfg.Tracker, WithTrackerLogger(p.logger.Named("tracker"))); err != nil {
		return nil, err
	}
	return p, nil
}

// Process 处理一帧
//
// 解码失败时直接返回，跟踪器状态不受影响
//
// # Params:
//
//	data: 模型输出张量
//	crop: 裁剪区域（原图像素坐标）
func (p *Pipeline) Process(data []float32, crop image.Rectangle) (FrameResult, error) {
	cands, err := p.decoder.Decode(data, crop)
	if err != nil {
		return FrameResult{}, err
	}
	bboxes := p.nms.Filter(cands)
	if err := p.tracker.Update(bboxes); err != nil {
		return FrameResult{}, err
	}
	p.frame++

	p.logger.Debug("帧处理完成",
		zap.Int("frame", p.frame),
		zap.Int("candidates", len(cands)),
		zap.Int("detections", len(bboxes)),
		zap.Int("tracks", p.tracker.Len()),
	)
	return FrameResult{
		Candidates: len(cands),
		BBoxList:   bboxes,
		Tracks:     p.tracker.TrackList(),
	}, nil
}

// Reset 清空跟踪状态
func (p *Pipeline) Reset() {
	p.tracker.Reset()
	p.frame = 0
}

// Tracker 返回内部跟踪器
func (p *Pipeline) Tracker() *Tracker {
	return p.tracker
}
