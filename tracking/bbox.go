package tracking

import (
	"fmt"
	"image"
)

// BoundingBox 检测框
type BoundingBox struct {
	ClassID    int     `json:"class_id"`
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"` // 置信度 [0, 1]

	// 原图像素坐标，左上角 + 宽高
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Rect 转换为 image.Rectangle（左闭右开）
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Area 面积
func (b BoundingBox) Area() int {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("%s(%d) %.2f [%d,%d %dx%d]", b.Label, b.ClassID, b.Confidence, b.X, b.Y, b.W, b.H)
}

// IoU 计算两个检测框的交并比
//
// 不相交或并集面积为 0 时返回 0
func IoU(a, b BoundingBox) float32 {
	r1, r2 := a.Rect(), b.Rect()
	intersect := r1.Intersect(r2)
	if intersect.Empty() {
		return 0.0
	}

	interArea := intersect.Dx() * intersect.Dy()
	union := r1.Dx()*r1.Dy() + r2.Dx()*r2.Dy() - interArea
	if union <= 0 {
		return 0.0
	}
	return float32(interArea) / float32(union)
}
