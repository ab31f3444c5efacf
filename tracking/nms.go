package tracking

import "sort"

// NMS 非极大值抑制
type NMS struct {
	config NMSConfig
}

// NewNMS 创建 NMS 过滤器
func NewNMS(cfg NMSConfig) (*NMS, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &NMS{config: cfg}, nil
}

// Filter 过滤掉重叠度过高的检测框
func (n *NMS) Filter(boxes []BoundingBox) []BoundingBox {
	return NMSFilter(boxes, n.config.IoUThreshold, n.config.ClassAware)
}

// NMSFilter 非极大值抑制，过滤掉重叠度过高的检测框
//
// 输出按置信度降序排列，置信度相同时保持输入顺序，不修改入参
//
// # Params:
//
//	boxes: 候选框
//	iouThresh: IOU 阈值
//	classAware: 为 true 时只抑制同类别的框
func NMSFilter(boxes []BoundingBox, iouThresh float32, classAware bool) []BoundingBox {
	cands := make([]BoundingBox, len(boxes))
	copy(cands, boxes)
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Confidence > cands[j].Confidence
	})

	keep := make([]BoundingBox, 0, len(cands))
	suppressed := make([]bool, len(cands))

	for i := 0; i < len(cands); i++ {
		if suppressed[i] {
			continue
		}
		keep = append(keep, cands[i])

		for j := i + 1; j < len(cands); j++ {
			if suppressed[j] {
				continue
			}
			if classAware && cands[i].ClassID != cands[j].ClassID {
				continue
			}
			if IoU(cands[i], cands[j]) > iouThresh {
				suppressed[j] = true
			}
		}
	}
	return keep
}
