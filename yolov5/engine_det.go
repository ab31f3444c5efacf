package yolov5

import (
	"fmt"
	"github.com/getcharzp/go-vision-track"
	"github.com/getcharzp/go-vision-track/tracking"
	"github.com/up-zero/gotool/convertutil"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
	"image"
	"time"
)

// DetEngine YOLOv5-det + 跟踪 Engine
//
// 不支持并发调用 Predict，帧需要按时间顺序送入
type DetEngine struct {
	session  *ort.DynamicAdvancedSession
	onnx     *vision.OnnxConfig
	pipeline *tracking.Pipeline
	labels   []string
	config   Config
	logger   *zap.Logger
}

// Option 可选项
type Option func(*DetEngine)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(e *DetEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewDetEngine 初始化检测引擎
func NewDetEngine(cfg Config, opts ...Option) (*DetEngine, error) {
	e := &DetEngine{config: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.initPipeline(); err != nil {
		return nil, err
	}

	oc := new(vision.OnnxConfig)
	if err := convertutil.CopyProperties(cfg, oc); err != nil {
		return nil, fmt.Errorf("复制参数失败: %w", err)
	}
	// 初始化 ONNX
	if err := oc.New(); err != nil {
		return nil, err
	}

	// 创建 Session
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, oc.SessionOptions)
	if err != nil {
		oc.Destroy()
		return nil, fmt.Errorf("创建 ONNX 会话失败: %w", err)
	}
	e.session = session
	e.onnx = oc

	e.logger.Info("检测引擎初始化完成",
		zap.String("model", cfg.ModelPath),
		zap.Int("input_size", cfg.InputSize),
		zap.Int("classes", cfg.Tracking.Decoder.NumClasses),
		zap.Bool("cuda", cfg.UseCuda),
	)
	return e, nil
}

// initPipeline 读取标签并创建后处理流水线，不依赖 ONNX Runtime
func (e *DetEngine) initPipeline() error {
	if err := e.config.Validate(); err != nil {
		return err
	}
	labels, err := ReadLabel(e.config.LabelPath)
	if err != nil {
		return err
	}
	pipeline, err := tracking.NewPipeline(e.config.Tracking, labels, tracking.WithLogger(e.logger.Named("pipeline")))
	if err != nil {
		return fmt.Errorf("创建后处理失败: %w", err)
	}
	e.labels = labels
	e.pipeline = pipeline
	return nil
}

// Destroy 释放相关资源
func (e *DetEngine) Destroy() {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	if e.onnx != nil {
		e.onnx.Destroy()
		e.onnx = nil
	}
}

// Labels 标签列表
func (e *DetEngine) Labels() []string {
	return e.labels
}

// Reset 清空跟踪状态，轨迹 ID 继续递增
func (e *DetEngine) Reset() {
	e.pipeline.Reset()
}

// Predict 执行检测推理并更新跟踪
func (e *DetEngine) Predict(img image.Image) (*Result, error) {
	// 预处理
	t0 := time.Now()
	crop := centerCrop(img.Bounds(), e.config.InputSize, e.config.InputSize)
	inputTensor, err := preprocess(img, crop, e.config.InputSize)
	if err != nil {
		return nil, fmt.Errorf("预处理失败: %w", err)
	}
	defer inputTensor.Destroy()

	// 推理
	t1 := time.Now()
	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("推理失败: %w", err)
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: 输出张量不是 float32", tracking.ErrInvalidInput)
	}

	// 后处理
	t2 := time.Now()
	result, err := e.postprocess(outputTensor.GetData(), outputTensor.GetShape(), crop)
	if err != nil {
		return nil, err
	}
	t3 := time.Now()

	result.TimePreProcess = t1.Sub(t0)
	result.TimeInference = t2.Sub(t1)
	result.TimePostProcess = t3.Sub(t2)
	return result, nil
}

// postprocess 后处理
//
// # Params:
//
//	data: 输出张量数据
//	shape: 输出张量形状
//	crop: 裁剪区域
func (e *DetEngine) postprocess(data []float32, shape []int64, crop image.Rectangle) (*Result, error) {
	numAnchors, err := outputDims(shape, e.config.Tracking.Decoder.NumClasses)
	if err != nil {
		return nil, err
	}
	if want := e.config.Tracking.Decoder.NumAnchors; want > 0 && want != numAnchors {
		return nil, fmt.Errorf("%w: 输出锚框数(%d)与配置(%d)不匹配", tracking.ErrInvalidInput, numAnchors, want)
	}
	if want := numAnchors * (5 + e.config.Tracking.Decoder.NumClasses); len(data) != want {
		return nil, fmt.Errorf("%w: 输出数据长度(%d)与形状 %v 不匹配", tracking.ErrInvalidInput, len(data), shape)
	}

	frame, err := e.pipeline.Process(data, crop)
	if err != nil {
		return nil, fmt.Errorf("后处理失败: %w", err)
	}
	return &Result{
		BBoxList: frame.BBoxList,
		Tracks:   frame.Tracks,
		Crop:     crop,
	}, nil
}
