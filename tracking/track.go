package tracking

// TrackData 轨迹中一帧的记录
type TrackData struct {
	BBox       BoundingBox `json:"bbox"`     // 平滑后的框
	BBoxRaw    BoundingBox `json:"bbox_raw"` // 检测到的原始框
	IsDetected bool        `json:"is_detected"`
}

// Track 单个目标的轨迹，只由 Tracker 持有
type Track struct {
	id            int
	history       *ring[TrackData]
	cntDetected   int
	cntUndetected int
	pending       bool
	smoother      Smoother
}

// newTrack 用一个检测框创建轨迹
func newTrack(id int, bbox BoundingBox, capacity int, smoother Smoother) *Track {
	if smoother == nil {
		smoother = PassThrough{}
	}
	t := &Track{
		id:          id,
		history:     newRing[TrackData](capacity),
		cntDetected: 1,
		smoother:    smoother,
	}
	t.history.Push(TrackData{BBox: bbox, BBoxRaw: bbox, IsDetected: true})
	return t
}

// PreUpdate 每帧关联前调用，本帧结果待定
func (t *Track) PreUpdate() {
	t.pending = true
}

// Update 本帧关联到检测框
func (t *Track) Update(bbox BoundingBox) {
	prev := t.LatestBoundingBox()
	t.history.Push(TrackData{
		BBox:       t.smoother.Smooth(prev, bbox),
		BBoxRaw:    bbox,
		IsDetected: true,
	})
	t.cntDetected++
	t.cntUndetected = 0
	t.pending = false
}

// UpdateNoDet 本帧没有关联到检测框，沿用上一帧的框
func (t *Track) UpdateNoDet() {
	latest := *t.history.Latest()
	t.history.Push(TrackData{
		BBox:       latest.BBox,
		BBoxRaw:    latest.BBoxRaw,
		IsDetected: false,
	})
	t.cntUndetected++
	t.pending = false
}

// LatestBoundingBox 最近一帧的框（检测到的或沿用的）
func (t *Track) LatestBoundingBox() BoundingBox {
	return t.history.Latest().BBox
}

// History 按时间顺序返回历史记录的拷贝
func (t *Track) History() []TrackData {
	return t.history.Slice()
}

func (t *Track) ID() int { return t.id }

// DetectedCount 累计检测到的帧数
func (t *Track) DetectedCount() int { return t.cntDetected }

// UndetectedCount 连续丢失的帧数
func (t *Track) UndetectedCount() int { return t.cntUndetected }

// Pending PreUpdate 之后尚未 Update / UpdateNoDet
func (t *Track) Pending() bool { return t.pending }

// Snapshot 生成只读快照
func (t *Track) Snapshot() TrackSnapshot {
	latest := *t.history.Latest()
	return TrackSnapshot{
		ID:              t.id,
		BBox:            latest.BBox,
		IsDetected:      latest.IsDetected,
		DetectedCount:   t.cntDetected,
		UndetectedCount: t.cntUndetected,
		History:         t.history.Slice(),
	}
}

// TrackSnapshot 轨迹的只读快照
type TrackSnapshot struct {
	ID              int
	BBox            BoundingBox
	IsDetected      bool
	DetectedCount   int
	UndetectedCount int
	History         []TrackData
}
