package tracking

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestRingDropsOldest(t *testing.T) {
	r := newRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{3, 4, 5}, r.Slice())
	assert.Equal(t, 5, *r.Latest())
	assert.Equal(t, 3, r.At(0))
}

func TestRingPartial(t *testing.T) {
	r := newRing[string](4)
	r.Push("a")
	r.Push("b")
	assert.Equal(t, []string{"a", "b"}, r.Slice())
	assert.Equal(t, "b", *r.Latest())
}

func TestRingMinimumCapacity(t *testing.T) {
	r := newRing[int](0)
	r.Push(1)
	r.Push(2)
	assert.Equal(t, []int{2}, r.Slice())
}
