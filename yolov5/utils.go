package yolov5

import (
	"fmt"
	"github.com/getcharzp/go-vision-track/tracking"
	"github.com/up-zero/gotool/imageutil"
	ort "github.com/yalue/onnxruntime_go"
	"image"
	"image/draw"
)

// centerCrop 按模型输入的宽高比从原图中心裁剪
//
// # Params:
//
//	bounds: 原图区域
//	tensorW, tensorH: 模型输入尺寸
func centerCrop(bounds image.Rectangle, tensorW, tensorH int) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	aspectImg := float32(w) / float32(h)
	aspectTensor := float32(tensorW) / float32(tensorH)

	cropX, cropY := 0, 0
	cropW, cropH := w, h
	if aspectImg > aspectTensor {
		cropW = int(aspectTensor * float32(h))
		cropX = (w - cropW) / 2
	} else {
		cropH = int(float32(w) / aspectTensor)
		cropY = (h - cropH) / 2
	}
	return image.Rect(cropX, cropY, cropX+cropW, cropY+cropH).Add(bounds.Min)
}

// preprocess 预处理：裁剪、缩放、转换为 NHWC 并归一化到 0-1
func preprocess(img image.Image, crop image.Rectangle, inputSize int) (*ort.Tensor[float32], error) {
	cropped := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, crop.Min, draw.Src)

	resized := imageutil.Resize(cropped, inputSize, inputSize)
	data := imageToNHWC(resized, inputSize)

	shape := ort.NewShape(1, int64(inputSize), int64(inputSize), 3)
	return ort.NewTensor(shape, data)
}

// imageToNHWC 读取左上角 size x size 的像素，按 RGB 交错排列
func imageToNHWC(img image.Image, size int) []float32 {
	origin := img.Bounds().Min
	data := make([]float32, size*size*3)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := img.At(origin.X+x, origin.Y+y).RGBA()

			idx := (y*size + x) * 3
			data[idx] = float32(r) / 65535.0
			data[idx+1] = float32(g) / 65535.0
			data[idx+2] = float32(b) / 65535.0
		}
	}
	return data
}

// outputDims 从输出形状中解析锚框数量
//
// 支持 [1, N, 5+C] 和 [N, 5+C]
func outputDims(shape []int64, numClasses int) (int, error) {
	stride := int64(5 + numClasses)
	switch {
	case len(shape) == 3 && shape[0] == 1 && shape[2] == stride:
		return int(shape[1]), nil
	case len(shape) == 2 && shape[1] == stride:
		return int(shape[0]), nil
	}
	return 0, fmt.Errorf("%w: 输出形状 %v 与类别数 %d 不匹配", tracking.ErrInvalidInput, shape, numClasses)
}
