package tracking

import "errors"

var (
	// ErrInvalidInput 输入数据不合法，例如张量长度与锚框布局不符、标签数量不足
	ErrInvalidInput = errors.New("输入数据不合法")
	// ErrConfiguration 配置参数不合理，在构造时拒绝
	ErrConfiguration = errors.New("配置参数不合法")
)
