package tracking

// TrackRecord 轨迹导出格式，一条记录对应一条存活的轨迹
type TrackRecord struct {
	ID         int     `json:"id"`
	ClassID    int     `json:"class_id"`
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	W          int     `json:"w"`
	H          int     `json:"h"`

	Detected        bool `json:"detected"` // 本帧是否检测到
	DetectedCount   int  `json:"detected_count"`
	UndetectedCount int  `json:"undetected_count"`
}

// NewTrackRecord 从快照生成导出记录
func NewTrackRecord(s TrackSnapshot) TrackRecord {
	return TrackRecord{
		ID:              s.ID,
		ClassID:         s.BBox.ClassID,
		Label:           s.BBox.Label,
		Confidence:      s.BBox.Confidence,
		X:               s.BBox.X,
		Y:               s.BBox.Y,
		W:               s.BBox.W,
		H:               s.BBox.H,
		Detected:        s.IsDetected,
		DetectedCount:   s.DetectedCount,
		UndetectedCount: s.UndetectedCount,
	}
}
