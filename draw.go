package vision

import (
	"fmt"
	"github.com/getcharzp/go-vision-track/tracking"
	"github.com/up-zero/gotool/imageutil"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"image"
	"image/color"
	"image/draw"
	"os"
)

// TextDrawer 文本绘制工具
type TextDrawer struct {
	font     *opentype.Font
	face     font.Face
	fontSize float64
}

// NewTextDrawer 创建文本绘制工具
//
// # Params:
//
//	fontPath: 字体路径
func NewTextDrawer(fontPath string) (*TextDrawer, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("打开字体文件失败：%w", err)
	}

	ttFont, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("解析字体文件失败：%w", err)
	}

	d := &TextDrawer{font: ttFont}
	if err := d.SetSize(12); err != nil {
		return nil, err
	}
	return d, nil
}

// SetSize 动态调整字体大小
//
// # Params:
//
//	fontSize: 字体大小
func (d *TextDrawer) SetSize(fontSize float64) error {
	if d.face != nil && d.fontSize == fontSize {
		return nil
	}

	// 释放旧 Face 内存
	if d.face != nil {
		d.face.Close()
	}

	nf, err := opentype.NewFace(d.font, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return err
	}

	d.face = nf
	d.fontSize = fontSize
	return nil
}

// DrawText 绘制文本
//
// # Params:
//
//	img: 被绘制的图像
//	text: 绘制的文本
//	x, y: 绘制的坐标
//	c: 绘制的颜色
func (d *TextDrawer) DrawText(img draw.Image, text string, x, y int, c color.Color) {
	point := fixed.Point26_6{
		X: fixed.I(x),
		Y: fixed.I(y),
	}

	d1 := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c), // 文字颜色源
		Face: d.face,
		Dot:  point, // 开始绘制的点
	}
	d1.DrawString(text)
}

// Close 释放资源
func (d *TextDrawer) Close() {
	if d.face != nil {
		d.face.Close()
	}
}

// 轨迹配色，按 ID 轮流使用
var palette = []color.RGBA{
	{R: 230, G: 25, B: 75, A: 255},
	{R: 60, G: 180, B: 75, A: 255},
	{R: 0, G: 130, B: 200, A: 255},
	{R: 245, G: 130, B: 48, A: 255},
	{R: 145, G: 30, B: 180, A: 255},
	{R: 70, G: 240, B: 240, A: 255},
	{R: 240, G: 50, B: 230, A: 255},
	{R: 210, G: 245, B: 60, A: 255},
}

// TrackColor 轨迹 ID 对应的颜色
func TrackColor(id int) color.RGBA {
	if id < 0 {
		id = -id
	}
	return palette[id%len(palette)]
}

// DrawDetections 将检测框绘制到图片副本上
//
// # Params:
//
//	img: 原图
//	boxes: 检测框
//	d: 文本绘制工具，为 nil 时不绘制文字
func DrawDetections(img image.Image, boxes []tracking.BoundingBox, d *TextDrawer) *image.RGBA {
	dst := cloneRGBA(img)
	for _, box := range boxes {
		c := TrackColor(box.ClassID)
		imageutil.DrawThickRectOutline(dst, box.Rect(), c, 2)
		if d != nil {
			d.DrawText(dst, fmt.Sprintf("%s %.2f", box.Label, box.Confidence), box.X, box.Y-2, c)
		}
	}
	return dst
}

// DrawTracks 将轨迹绘制到图片副本上，丢失中的轨迹用细线
//
// # Params:
//
//	img: 原图
//	tracks: 轨迹快照
//	d: 文本绘制工具，为 nil 时不绘制文字
func DrawTracks(img image.Image, tracks []tracking.TrackSnapshot, d *TextDrawer) *image.RGBA {
	dst := cloneRGBA(img)
	for _, tr := range tracks {
		c := TrackColor(tr.ID)
		thickness := 3
		if !tr.IsDetected {
			thickness = 1
		}
		imageutil.DrawThickRectOutline(dst, tr.BBox.Rect(), c, thickness)
		if d != nil {
			text := fmt.Sprintf("#%d %s %.2f", tr.ID, tr.BBox.Label, tr.BBox.Confidence)
			d.DrawText(dst, text, tr.BBox.X, tr.BBox.Y-2, c)
		}
	}
	return dst
}

func cloneRGBA(img image.Image) *image.RGBA {
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, img.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}
