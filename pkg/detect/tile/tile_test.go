package tile

import (
	"image"
	"testing"

	"github.com/Robogera/crowd/pkg/geom"
	"github.com/Robogera/crowd/pkg/object"
	"github.com/stretchr/testify/assert"
)

func TestGridSmallFrame(t *testing.T) {
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 320, 240)}, Grid(320, 240, 640, 640, 0.2))
	assert.Empty(t, Grid(0, 240, 640, 640, 0.2))
}

func TestGridCoversFrame(t *testing.T) {
	rects := Grid(1920, 1080, 640, 640, 0.2)
	// x: 0 512 1024 1280, y: 0 440
	assert.Len(t, rects, 8)
	frame := image.Rect(0, 0, 1920, 1080)
	covered := image.Rectangle{}
	for _, r := range rects {
		assert.True(t, r.In(frame), "%v", r)
		assert.Equal(t, 640, r.Dx())
		assert.Equal(t, 640, r.Dy())
		covered = covered.Union(r)
	}
	assert.Equal(t, frame, covered)
	assert.Equal(t, image.Rect(1280, 440, 1920, 1080), rects[len(rects)-1])
}

func TestGridNoOverlap(t *testing.T) {
	rects := Grid(1280, 640, 640, 640, 0)
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 640, 640), image.Rect(640, 0, 1280, 640)}, rects)
}

func d(x, conf float64, class int) object.Detection {
	return object.Detection{Box: geom.NewBox(x, 0, x+100, 100), Confidence: conf, Class: class}
}

func TestMerge(t *testing.T) {
	dets := []object.Detection{
		d(0, 0.6, 0),
		d(5, 0.9, 0),
		// other class at the same place survives
		d(5, 0.5, 1),
		d(400, 0.7, 0),
	}
	got := Merge(dets, 0.5)
	assert.Equal(t, []object.Detection{dets[1], dets[3], dets[2]}, got)
}

func TestMergeTies(t *testing.T) {
	dets := []object.Detection{d(0, 0.8, 0), d(2, 0.8, 0)}
	assert.Equal(t, []object.Detection{dets[0]}, Merge(dets, 0.5))
	assert.Empty(t, Merge(nil, 0.5))
}
