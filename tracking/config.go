package tracking

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

// 平滑策略
const (
	SmoothingNone = "none" // 直接使用检测框
	SmoothingEMA  = "ema"  // 指数滑动平均
)

// DecoderConfig 锚框解码参数
type DecoderConfig struct {
	NumAnchors     int     `yaml:"num_anchors"`     // 锚框数量，0 表示由张量长度推断
	NumClasses     int     `yaml:"num_classes"`     // 类别数
	ScoreThreshold float32 `yaml:"score_threshold"` // objectness 与类别置信度阈值
}

// NMSConfig 非极大值抑制参数
type NMSConfig struct {
	IoUThreshold float32 `yaml:"iou_threshold"` // IoU 超过该值即被抑制
	ClassAware   bool    `yaml:"class_aware"`   // 只在同类别之间抑制
}

// TrackerConfig 跟踪器参数
type TrackerConfig struct {
	MatchIoUThreshold     float32 `yaml:"match_iou_threshold"`      // 关联需要的最小 IoU（严格大于）
	MatchSameClass        bool    `yaml:"match_same_class"`         // 只与同类别检测框关联
	MaxUndetected         int     `yaml:"max_undetected"`           // 连续丢失超过该帧数即删除
	HistoryCapacity       int     `yaml:"history_capacity"`         // 每条轨迹保留的历史帧数
	MinConfidenceToCreate float32 `yaml:"min_confidence_to_create"` // 新建轨迹需要的最低置信度
	Smoothing             string  `yaml:"smoothing"`                // none | ema
	SmoothingAlpha        float32 `yaml:"smoothing_alpha"`          // ema 权重，越大越贴近当前检测
}

// Config 后处理整体配置
type Config struct {
	Decoder DecoderConfig `yaml:"decoder"`
	NMS     NMSConfig     `yaml:"nms"`
	Tracker TrackerConfig `yaml:"tracker"`
}

// DefaultDecoderConfig yolov5 416x416 COCO 模型的默认解码参数
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		NumAnchors:     10647,
		NumClasses:     80,
		ScoreThreshold: 0.2,
	}
}

// DefaultNMSConfig 默认 NMS 参数
func DefaultNMSConfig() NMSConfig {
	return NMSConfig{IoUThreshold: 0.5}
}

// DefaultTrackerConfig 默认跟踪参数
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MatchIoUThreshold: 0.3,
		MaxUndetected:     10,
		HistoryCapacity:   100,
		Smoothing:         SmoothingNone,
		SmoothingAlpha:    0.6,
	}
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Decoder: DefaultDecoderConfig(),
		NMS:     DefaultNMSConfig(),
		Tracker: DefaultTrackerConfig(),
	}
}

// LoadConfig 读取 YAML 配置，未出现的字段保留默认值
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate 校验全部参数
func (c Config) Validate() error {
	if err := c.Decoder.Validate(); err != nil {
		return err
	}
	if err := c.NMS.Validate(); err != nil {
		return err
	}
	return c.Tracker.Validate()
}

func (c DecoderConfig) Validate() error {
	if c.NumClasses < 1 {
		return fmt.Errorf("%w: num_classes=%d", ErrConfiguration, c.NumClasses)
	}
	if c.NumAnchors < 0 {
		return fmt.Errorf("%w: num_anchors=%d", ErrConfiguration, c.NumAnchors)
	}
	if !inUnitRange(c.ScoreThreshold) {
		return fmt.Errorf("%w: score_threshold=%v", ErrConfiguration, c.ScoreThreshold)
	}
	return nil
}

func (c NMSConfig) Validate() error {
	if !inUnitRange(c.IoUThreshold) {
		return fmt.Errorf("%w: iou_threshold=%v", ErrConfiguration, c.IoUThreshold)
	}
	return nil
}

func (c TrackerConfig) Validate() error {
	switch {
	case !inUnitRange(c.MatchIoUThreshold):
		return fmt.Errorf("%w: match_iou_threshold=%v", ErrConfiguration, c.MatchIoUThreshold)
	case c.MaxUndetected < 0:
		return fmt.Errorf("%w: max_undetected=%d", ErrConfiguration, c.MaxUndetected)
	case c.HistoryCapacity < 1:
		return fmt.Errorf("%w: history_capacity=%d", ErrConfiguration, c.HistoryCapacity)
	case !inUnitRange(c.MinConfidenceToCreate):
		return fmt.Errorf("%w: min_confidence_to_create=%v", ErrConfiguration, c.MinConfidenceToCreate)
	}
	switch c.Smoothing {
	case "", SmoothingNone:
	case SmoothingEMA:
		if c.SmoothingAlpha <= 0 || c.SmoothingAlpha > 1 {
			return fmt.Errorf("%w: smoothing_alpha=%v", ErrConfiguration, c.SmoothingAlpha)
		}
	default:
		return fmt.Errorf("%w: 未知的平滑策略 %q", ErrConfiguration, c.Smoothing)
	}
	return nil
}

// inUnitRange NaN 也会被拒绝
func inUnitRange(v float32) bool {
	return v >= 0 && v <= 1
}
