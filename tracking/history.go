package tracking

// ring 定长环形缓冲区，写满后覆盖最旧的元素
type ring[T any] struct {
	items []T
	head  int // 下一个写入位置
	size  int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{items: make([]T, capacity)}
}

func (r *ring[T]) Push(v T) {
	r.items[r.head] = v
	r.head = (r.head + 1) % len(r.items)
	if r.size < len(r.items) {
		r.size++
	}
}

func (r *ring[T]) Len() int {
	return r.size
}

// At 按时间顺序取元素，0 为最旧
func (r *ring[T]) At(i int) T {
	start := (r.head - r.size + len(r.items)) % len(r.items)
	return r.items[(start+i)%len(r.items)]
}

// Latest 最近写入的元素，调用方保证非空
func (r *ring[T]) Latest() *T {
	return &r.items[(r.head-1+len(r.items))%len(r.items)]
}

// Slice 按时间顺序拷贝全部元素
func (r *ring[T]) Slice() []T {
	out := make([]T, r.size)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}
