package tracking

// Smoother 轨迹框平滑策略
type Smoother interface {
	// Smooth 根据上一帧的框和本帧检测框计算本帧的输出框
	Smooth(prev, det BoundingBox) BoundingBox
}

// PassThrough 不做平滑，直接使用检测框
type PassThrough struct{}

func (PassThrough) Smooth(_, det BoundingBox) BoundingBox {
	return det
}

// EMASmoother 对坐标和宽高做指数滑动平均
//
//	out = Alpha*det + (1-Alpha)*prev
//
// 类别、标签和置信度取自检测框
type EMASmoother struct {
	Alpha float32
}

func (s EMASmoother) Smooth(prev, det BoundingBox) BoundingBox {
	mix := func(p, d int) int {
		return int(s.Alpha*float32(d) + (1-s.Alpha)*float32(p))
	}
	out := det
	out.X = mix(prev.X, det.X)
	out.Y = mix(prev.Y, det.Y)
	out.W = mix(prev.W, det.W)
	out.H = mix(prev.H, det.H)
	out.W = max(out.W, 1)
	out.H = max(out.H, 1)
	return out
}

// newSmoother 根据配置创建平滑策略
func newSmoother(cfg TrackerConfig) Smoother {
	if cfg.Smoothing == SmoothingEMA {
		return EMASmoother{Alpha: cfg.SmoothingAlpha}
	}
	return PassThrough{}
}
