package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Robogera/crowd/pkg/config"
	"github.com/Robogera/crowd/pkg/object"
	"github.com/muesli/gamut"
	"gocv.io/x/gocv"
)

// degrees between the colours of consecutive ids
const hue_step = 153

var base_color = color.RGBA{255, 0, 0, 255}

type Renderer struct {
	cfg   config.RenderConfig
	names []string
	// colours are cached per id, a hue walk of id steps is not free
	palette map[uint64]color.RGBA
}

func NewRenderer(cfg config.RenderConfig, names []string) *Renderer {
	return &Renderer{
		cfg:     cfg,
		names:   names,
		palette: make(map[uint64]color.RGBA),
	}
}

// Stable colour for a track id, the walk start depends on the seed
func (r *Renderer) Color(id uint64) color.RGBA {
	if c, ok := r.palette[id]; ok {
		return c
	}
	offset := int((r.cfg.Seed + id*hue_step) % 360)
	c := toRGBA(gamut.HueOffset(base_color, offset))
	r.palette[id] = c
	return c
}

func toRGBA(c color.Color) color.RGBA {
	red, green, blue, _ := c.RGBA()
	return color.RGBA{uint8(red >> 8), uint8(green >> 8), uint8(blue >> 8), 255}
}

func (r *Renderer) Label(t object.Tracked) string {
	name := fmt.Sprintf("class %d", t.Class)
	if t.Class >= 0 && t.Class < len(r.names) && r.names[t.Class] != "" {
		name = r.names[t.Class]
	}
	return fmt.Sprintf("#%d %s %.2f", t.ID, name, t.Confidence)
}

// Draws tracks (and trails when given) on a copy of frame.
// The caller owns the returned Mat
func (r *Renderer) Draw(frame gocv.Mat, tracks []object.Tracked, trails *Trails) gocv.Mat {
	out := frame.Clone()
	if trails != nil {
		for _, t := range tracks {
			r.drawTrail(&out, trails.Points(t.ID), r.Color(t.ID))
		}
	}
	for _, t := range tracks {
		c := r.Color(t.ID)
		rect := t.Box.Rect()
		if t.Predicted {
			r.drawCross(&out, rect, c)
			continue
		}
		gocv.Rectangle(&out, rect, c, r.cfg.Thickness)
		r.drawLabel(&out, rect.Min, r.Label(t), c)
	}
	return out
}

func (r *Renderer) drawLabel(m *gocv.Mat, at image.Point, text string, c color.RGBA) {
	pad := r.cfg.TextPadding
	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, r.cfg.TextScale, 1)
	top := max(at.Y-size.Y-2*pad, 0)
	background := image.Rect(at.X, top, at.X+size.X+2*pad, top+size.Y+2*pad)
	gocv.Rectangle(m, background, c, -1)
	gocv.PutText(m, text, image.Pt(at.X+pad, top+size.Y+pad), gocv.FontHersheySimplex, r.cfg.TextScale, color.RGBA{255, 255, 255, 255}, 1)
}

func (r *Renderer) drawTrail(m *gocv.Mat, points []image.Point, c color.RGBA) {
	for i := 1; i < len(points); i++ {
		gocv.Line(m, points[i-1], points[i], c, max(r.cfg.Thickness-1, 1))
	}
}

// lost tracks are drawn as a cross at the predicted centre
func (r *Renderer) drawCross(m *gocv.Mat, rect image.Rectangle, c color.RGBA) {
	centre := image.Pt((rect.Min.X+rect.Max.X)/2, (rect.Min.Y+rect.Max.Y)/2)
	d := max(min(rect.Dx(), rect.Dy())/6, 3)
	gocv.Line(m, centre.Add(image.Pt(-d, -d)), centre.Add(image.Pt(d, d)), c, 1)
	gocv.Line(m, centre.Add(image.Pt(-d, d)), centre.Add(image.Pt(d, -d)), c, 1)
}
