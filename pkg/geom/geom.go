package geom

import (
	"image"
	"math"
)

// Axis aligned bounding box in pixel coordinates
type Box struct {
	X1, Y1, X2, Y2 float64
}

func NewBox(x1, y1, x2, y2 float64) Box {
	return Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Builds a box from its center and dimensions. Negative
// dimensions are clamped to zero so the box stays well-formed
func FromCXCYWH(cx, cy, w, h float64) Box {
	w, h = max(w, 0), max(h, 0)
	return Box{
		X1: cx - w/2,
		Y1: cy - h/2,
		X2: cx + w/2,
		Y2: cy + h/2,
	}
}

func FromRect(r image.Rectangle) Box {
	return Box{
		X1: float64(r.Min.X),
		Y1: float64(r.Min.Y),
		X2: float64(r.Max.X),
		Y2: float64(r.Max.Y),
	}
}

func (b Box) Width() float64  { return b.X2 - b.X1 }
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

func (b Box) Area() float64 {
	if b.Empty() {
		return 0
	}
	return b.Width() * b.Height()
}

func (b Box) Empty() bool {
	return !(b.X2 > b.X1 && b.Y2 > b.Y1)
}

func (b Box) Finite() bool {
	for _, v := range [4]float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (b Box) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

func (b Box) CXCYWH() (cx, cy, w, h float64) {
	cx, cy = b.Center()
	return cx, cy, b.Width(), b.Height()
}

func (b Box) Translate(dx, dy float64) Box {
	return Box{b.X1 + dx, b.Y1 + dy, b.X2 + dx, b.Y2 + dy}
}

func (b Box) Intersect(o Box) Box {
	r := Box{
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
		X2: min(b.X2, o.X2),
		Y2: min(b.Y2, o.Y2),
	}
	if r.Empty() {
		return Box{}
	}
	return r
}

// Clamps the box to the [0, w]x[0, h] frame
func (b Box) Clamp(w, h float64) Box {
	return Box{
		X1: math.Min(math.Max(b.X1, 0), w),
		Y1: math.Min(math.Max(b.Y1, 0), h),
		X2: math.Min(math.Max(b.X2, 0), w),
		Y2: math.Min(math.Max(b.Y2, 0), h),
	}
}

// Rounded integer rectangle for drawing
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(b.X1)),
		int(math.Round(b.Y1)),
		int(math.Round(b.X2)),
		int(math.Round(b.Y2)),
	)
}

// Intersection over union, 0 for disjoint or degenerate boxes
func IoU(a, b Box) float64 {
	inter := a.Intersect(b).Area()
	if inter <= 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
