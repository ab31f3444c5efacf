// Command yolov5-track 对按文件名排序的帧序列做检测与跟踪，输出叠加图和 JSON Lines 轨迹
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"github.com/getcharzp/go-vision-track"
	"github.com/getcharzp/go-vision-track/tracking"
	"github.com/getcharzp/go-vision-track/yolov5"
	"github.com/google/uuid"
	"github.com/up-zero/gotool/imageutil"
	"go.uber.org/zap"
	"image"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// frameRecord tracks.jsonl 中的一行
type frameRecord struct {
	RunID      string                 `json:"run_id"`
	Frame      int                    `json:"frame"`
	File       string                 `json:"file"`
	Detections int                    `json:"detections"`
	Tracks     []tracking.TrackRecord `json:"tracks"`

	PreProcessMs  float64 `json:"pre_process_ms"`
	InferenceMs   float64 `json:"inference_ms"`
	PostProcessMs float64 `json:"post_process_ms"`
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML 配置文件，为空时使用默认配置")
		inputDir   = flag.String("input", "./frames", "输入帧目录")
		outputDir  = flag.String("output", "./output", "输出目录")
		fontPath   = flag.String("font", "", "标注字体，为空时只画框")
		fontSize   = flag.Float64("font-size", 14, "标注字号")
		logLevel   = flag.String("log-level", "info", "日志级别")
		logFormat  = flag.String("log-format", "console", "日志格式 console|json")
	)
	flag.Parse()

	logger, err := vision.NewLogger(*logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		configPath: *configPath,
		inputDir:   *inputDir,
		outputDir:  *outputDir,
		fontPath:   *fontPath,
		fontSize:   *fontSize,
	}
	if err := run(ctx, logger, opts); err != nil {
		logger.Error("运行失败", zap.Error(err))
		os.Exit(1)
	}
}

type options struct {
	configPath string
	inputDir   string
	outputDir  string
	fontPath   string
	fontSize   float64
}

func run(ctx context.Context, logger *zap.Logger, opts options) error {
	cfg := yolov5.DefaultDetConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = yolov5.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}

	frames, err := listFrames(opts.inputDir)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("目录 %s 中没有图片", opts.inputDir)
	}
	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	var drawer *vision.TextDrawer
	if opts.fontPath != "" {
		if drawer, err = vision.NewTextDrawer(opts.fontPath); err != nil {
			return err
		}
		defer drawer.Close()
		if err := drawer.SetSize(opts.fontSize); err != nil {
			return fmt.Errorf("设置字号失败: %w", err)
		}
	}

	engine, err := yolov5.NewDetEngine(cfg, yolov5.WithLogger(logger))
	if err != nil {
		return err
	}
	defer engine.Destroy()

	out, err := os.Create(filepath.Join(opts.outputDir, "tracks.jsonl"))
	if err != nil {
		return fmt.Errorf("创建轨迹文件失败: %w", err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	logger.Info("开始处理", zap.Int("frames", len(frames)), zap.String("input", opts.inputDir))

	for i, path := range frames {
		if err := ctx.Err(); err != nil {
			logger.Warn("处理被中断", zap.Int("frame", i))
			return nil
		}

		img, err := imageutil.Open(path)
		if err != nil {
			// 单帧读取失败跳过，跟踪器不更新
			logger.Warn("读取图片失败", zap.String("file", path), zap.Error(err))
			continue
		}
		res, err := engine.Predict(img)
		if err != nil {
			logger.Warn("处理帧失败", zap.String("file", path), zap.Error(err))
			continue
		}

		rec := frameRecord{
			RunID:         runID,
			Frame:         i,
			File:          filepath.Base(path),
			Detections:    len(res.BBoxList),
			Tracks:        make([]tracking.TrackRecord, 0, len(res.Tracks)),
			PreProcessMs:  float64(res.TimePreProcess.Microseconds()) / 1000,
			InferenceMs:   float64(res.TimeInference.Microseconds()) / 1000,
			PostProcessMs: float64(res.TimePostProcess.Microseconds()) / 1000,
		}
		for _, tr := range res.Tracks {
			rec.Tracks = append(rec.Tracks, tracking.NewTrackRecord(tr))
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("写入轨迹失败: %w", err)
		}

		overlay := vision.DrawTracks(img, res.Tracks, drawer)
		outPath := filepath.Join(opts.outputDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".jpg")
		if err := saveOverlay(outPath, overlay, saveJPEG); err != nil {
			logger.Warn("保存叠加图失败", zap.String("file", outPath), zap.Error(err))
		}

		logger.Debug("帧完成",
			zap.Int("frame", i),
			zap.Int("detections", rec.Detections),
			zap.Int("tracks", len(rec.Tracks)),
			zap.Duration("inference", res.TimeInference),
		)
	}

	logger.Info("处理完成", zap.String("output", opts.outputDir))
	return nil
}

func saveJPEG(path string, img image.Image) {
	imageutil.Save(path, img, 80)
}

// saveOverlay 先删除上次运行留下的同名文件，再写入并确认文件已生成
func saveOverlay(path string, img image.Image, save func(string, image.Image)) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("删除旧文件失败: %w", err)
	}
	save(path, img)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("文件未生成: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("文件为空: %s", path)
	}
	return nil
}

// listFrames 按文件名排序列出目录中的图片
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取输入目录失败: %w", err)
	}
	var frames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			frames = append(frames, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}
