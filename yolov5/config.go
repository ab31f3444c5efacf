package yolov5

import (
	"fmt"
	"github.com/getcharzp/go-vision-track"
	"github.com/getcharzp/go-vision-track/tracking"
	"gopkg.in/yaml.v3"
	"image"
	"os"
	"time"
)

// Config 引擎的初始化参数
type Config struct {
	ModelPath          string `yaml:"model_path"`            // ONNX 模型路径
	OnnxRuntimeLibPath string `yaml:"onnx_runtime_lib_path"` // ONNX Runtime 动态库路径
	LabelPath          string `yaml:"label_path"`            // 标签文件，每行一个类别

	// 模型参数
	InputSize  int    `yaml:"input_size"`  // 默认 416
	InputName  string `yaml:"input_name"`  // 输入张量名
	OutputName string `yaml:"output_name"` // 输出张量名

	// 后处理参数
	Tracking tracking.Config `yaml:"tracking"`

	// 可选参数
	UseCuda    bool `yaml:"use_cuda"`    // (可选) 是否启用 CUDA
	NumThreads int  `yaml:"num_threads"` // (可选) ONNX 线程数, 默认由CPU核心数决定
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		OnnxRuntimeLibPath: vision.DefaultLibraryPath(),
		InputSize:          416,
		InputName:          "input_1:0",
		OutputName:         "Identity:0",
		Tracking:           tracking.DefaultConfig(),
	}
}

// DefaultDetConfig 检测的默认配置
func DefaultDetConfig() Config {
	cfg := DefaultConfig()
	cfg.ModelPath = "./yolov5_weights/yolov5_416x416.onnx"
	cfg.LabelPath = "./yolov5_weights/label_coco_80.txt"
	return cfg
}

// LoadConfig 读取 YAML 配置，未出现的字段使用 DefaultDetConfig 的值
func LoadConfig(path string) (Config, error) {
	cfg := DefaultDetConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate 校验参数
func (c Config) Validate() error {
	if c.InputSize <= 0 {
		return fmt.Errorf("%w: input_size=%d", tracking.ErrConfiguration, c.InputSize)
	}
	return c.Tracking.Validate()
}

// Result 单帧检测与跟踪结果
type Result struct {
	BBoxList []tracking.BoundingBox   // NMS 后的检测框
	Tracks   []tracking.TrackSnapshot // 当前存活的轨迹
	Crop     image.Rectangle          // 送入模型的裁剪区域（原图坐标）

	TimePreProcess  time.Duration
	TimeInference   time.Duration
	TimePostProcess time.Duration
}
