package detect

import (
	"github.com/Robogera/crowd/pkg/config"
	"github.com/Robogera/crowd/pkg/detect/tile"
	"github.com/Robogera/crowd/pkg/object"
	"gocv.io/x/gocv"
)

// Runs the inner detector on overlapping slices of the frame and
// merges the results. Small objects in large frames survive the
// downscale to the network input this way
type Sliced struct {
	inner Detector
	cfg   config.SlicingConfig
}

func NewSliced(inner Detector, cfg config.SlicingConfig) *Sliced {
	return &Sliced{inner: inner, cfg: cfg}
}

func (s *Sliced) Detect(img gocv.Mat) ([]object.Detection, error) {
	var all []object.Detection
	for _, rect := range tile.Grid(img.Cols(), img.Rows(), s.cfg.Width, s.cfg.Height, s.cfg.Overlap) {
		dets, err := func() ([]object.Detection, error) {
			region := img.Region(rect)
			defer region.Close()
			return s.inner.Detect(region)
		}()
		if err != nil {
			return nil, err
		}
		for _, d := range dets {
			d.Box = d.Box.Translate(float64(rect.Min.X), float64(rect.Min.Y))
			all = append(all, d)
		}
	}
	return tile.Merge(all, float64(s.cfg.IoUThreshold)), nil
}

func (s *Sliced) Close() error {
	return s.inner.Close()
}
