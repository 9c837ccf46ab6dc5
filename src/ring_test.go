package gmr1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func samples(n int) []Sample {
	out := make([]Sample, n)
	for i := range out {
		out[i] = Sample{I: float32(i), Q: float32(-i)}
	}
	return out
}

func Test_ring_append_and_window(t *testing.T) {
	r := NewRing(8)
	n := r.Append(samples(5))
	assert.Equal(t, 5, n)
	assert.Equal(t, int64(0), r.Start())
	assert.Equal(t, int64(5), r.Tail())

	w := r.Window(2)
	assert.Len(t, w, 3)
	assert.Equal(t, float32(2), w[0].I)
}

func Test_ring_append_bounded_by_free(t *testing.T) {
	r := NewRing(4)
	n := r.Append(samples(10))
	assert.Equal(t, 4, n)
	assert.Equal(t, 0, r.Free())
}

func Test_ring_advance_drops_consumed_prefix(t *testing.T) {
	r := NewRing(8)
	r.Append(samples(6))
	r.Advance(4)
	assert.Equal(t, int64(4), r.Start())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 6, r.Free())
}

func Test_ring_advance_clips_to_tail(t *testing.T) {
	r := NewRing(8)
	r.Append(samples(3))
	r.Advance(100)
	assert.Equal(t, r.Tail(), r.Start())
	assert.Equal(t, 0, r.Len())
}

func Test_ring_window_out_of_bounds_panics(t *testing.T) {
	r := NewRing(8)
	r.Append(samples(3))
	assert.Panics(t, func() { r.Window(-1) })
	assert.Panics(t, func() { r.Window(4) })
}

func Test_ring_advance_before_start_panics(t *testing.T) {
	r := NewRing(8)
	r.Append(samples(3))
	r.Advance(2)
	assert.Panics(t, func() { r.Advance(0) })
}
