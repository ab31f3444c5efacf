package tracking

import (
	"fmt"
	"go.uber.org/zap"
)

// Tracker 多目标跟踪器
//
// 逐帧按时间顺序调用 Update，不支持并发调用
type Tracker struct {
	config   TrackerConfig
	smoother Smoother
	logger   *zap.Logger

	tracks []*Track // 按创建顺序
	nextID int
}

// TrackerOption 跟踪器可选项
type TrackerOption func(*Tracker)

// WithTrackerLogger 设置日志
func WithTrackerLogger(logger *zap.Logger) TrackerOption {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithSmoother 替换配置中的平滑策略
func WithSmoother(s Smoother) TrackerOption {
	return func(t *Tracker) {
		if s != nil {
			t.smoother = s
		}
	}
}

// NewTracker 创建跟踪器
func NewTracker(cfg TrackerConfig, opts ...TrackerOption) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Tracker{
		config:   cfg,
		smoother: newSmoother(cfg),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Reset 清空全部轨迹
//
// ID 计数器继续递增，避免与外部缓存的旧 ID 冲突
func (t *Tracker) Reset() {
	t.tracks = nil
	t.logger.Debug("跟踪器已重置", zap.Int("next_id", t.nextID))
}

// Update 用本帧检测结果更新轨迹
//
// 检测框不合法时返回 ErrInvalidInput，此时所有轨迹保持不变
//
// # Params:
//
//	dets: 本帧经过 NMS 的检测框
func (t *Tracker) Update(dets []BoundingBox) error {
	for i, det := range dets {
		if det.W <= 0 || det.H <= 0 {
			return fmt.Errorf("%w: 第 %d 个检测框尺寸为 %dx%d", ErrInvalidInput, i, det.W, det.H)
		}
		if !inUnitRange(det.Confidence) {
			return fmt.Errorf("%w: 第 %d 个检测框置信度为 %v", ErrInvalidInput, i, det.Confidence)
		}
	}

	for _, track := range t.tracks {
		track.PreUpdate()
	}

	// 按创建顺序，每条轨迹贪心地选取 IoU 最大的未使用检测框
	used := make([]bool, len(dets))
	for _, track := range t.tracks {
		latest := track.LatestBoundingBox()
		best := -1
		bestIoU := t.config.MatchIoUThreshold
		for i, det := range dets {
			if used[i] {
				continue
			}
			if t.config.MatchSameClass && det.ClassID != latest.ClassID {
				continue
			}
			if iou := IoU(latest, det); iou > bestIoU {
				bestIoU = iou
				best = i
			}
		}

		if best < 0 {
			track.UpdateNoDet()
			continue
		}
		used[best] = true
		track.Update(dets[best])
	}

	// 删除长时间丢失的轨迹
	alive := t.tracks[:0]
	for _, track := range t.tracks {
		if track.UndetectedCount() > t.config.MaxUndetected {
			t.logger.Debug("删除轨迹", zap.Int("id", track.ID()), zap.Int("detected", track.DetectedCount()))
			continue
		}
		alive = append(alive, track)
	}
	clear(t.tracks[len(alive):])
	t.tracks = alive

	// 未关联的检测框创建新轨迹
	for i, det := range dets {
		if used[i] || det.Confidence < t.config.MinConfidenceToCreate {
			continue
		}
		track := newTrack(t.nextID, det, t.config.HistoryCapacity, t.smoother)
		t.nextID++
		t.tracks = append(t.tracks, track)
		t.logger.Debug("新建轨迹", zap.Int("id", track.ID()), zap.Stringer("bbox", det))
	}
	return nil
}

// TrackList 按创建顺序返回当前轨迹的快照
func (t *Tracker) TrackList() []TrackSnapshot {
	list := make([]TrackSnapshot, 0, len(t.tracks))
	for _, track := range t.tracks {
		list = append(list, track.Snapshot())
	}
	return list
}

// Records 导出当前轨迹
func (t *Tracker) Records() []TrackRecord {
	records := make([]TrackRecord, 0, len(t.tracks))
	for _, track := range t.tracks {
		records = append(records, NewTrackRecord(track.Snapshot()))
	}
	return records
}

// Len 当前轨迹数量
func (t *Tracker) Len() int {
	return len(t.tracks)
}

// NextID 下一条新轨迹将使用的 ID
func (t *Tracker) NextID() int {
	return t.nextID
}
