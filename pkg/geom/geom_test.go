package geom

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want float64
	}{
		{"identical", NewBox(0, 0, 10, 10), NewBox(0, 0, 10, 10), 1},
		{"disjoint", NewBox(0, 0, 10, 10), NewBox(20, 20, 30, 30), 0},
		{"touching", NewBox(0, 0, 10, 10), NewBox(10, 0, 20, 10), 0},
		{"half", NewBox(0, 0, 10, 10), NewBox(5, 0, 15, 10), 50.0 / 150.0},
		{"contained", NewBox(0, 0, 10, 10), NewBox(0, 0, 5, 10), 0.5},
		{"degenerate", NewBox(0, 0, 0, 10), NewBox(0, 0, 10, 10), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, IoU(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, IoU(tt.b, tt.a), 1e-9)
		})
	}
}

func TestFromCXCYWH(t *testing.T) {
	b := FromCXCYWH(50, 40, 20, 10)
	assert.Equal(t, NewBox(40, 35, 60, 45), b)

	cx, cy, w, h := b.CXCYWH()
	assert.Equal(t, []float64{50, 40, 20, 10}, []float64{cx, cy, w, h})

	negative := FromCXCYWH(10, 10, -4, -2)
	assert.Equal(t, 0.0, negative.Width())
	assert.Equal(t, 0.0, negative.Height())
	assert.True(t, negative.Empty())
}

func TestRectRoundTrip(t *testing.T) {
	r := image.Rect(3, 4, 30, 40)
	assert.Equal(t, r, FromRect(r).Rect())
	assert.Equal(t, image.Rect(1, 2, 3, 4), NewBox(0.6, 1.6, 2.6, 3.6).Rect())
}

func TestClamp(t *testing.T) {
	b := NewBox(-10, -5, 120, 90).Clamp(100, 80)
	assert.Equal(t, NewBox(0, 0, 100, 80), b)
}
