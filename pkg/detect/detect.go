package detect

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Robogera/crowd/pkg/config"
	"github.com/Robogera/crowd/pkg/object"
	"gocv.io/x/gocv"
)

var (
	ERR_DETECTION        error = errors.New("Detection failed")
	ERR_BAD_MODEL        error = errors.New("Can't load model")
	ERR_CANT_SET_BACKEND error = errors.New("Can't set backend")
	ERR_CANT_SET_TARGET  error = errors.New("Can't set target")
)

// Maps one frame to the objects found in it. Boxes are
// in frame pixel coordinates
type Detector interface {
	Detect(img gocv.Mat) ([]object.Detection, error)
	Close() error
}

// Whole-frame or sliced YOLO depending on cfg, wrapped in a Guard
func New(cfg *config.ConfigFile, logger *slog.Logger) (Detector, error) {
	yolo, err := NewYOLO(cfg.Model, logger)
	if err != nil {
		return nil, err
	}
	var detector Detector = yolo
	if cfg.Slicing.Enabled {
		detector = NewSliced(yolo, cfg.Slicing)
		logger.Info("Sliced inference enabled",
			"slice", fmt.Sprintf("%dx%d", cfg.Slicing.Width, cfg.Slicing.Height),
			"overlap", cfg.Slicing.Overlap)
	}
	return &Guard{Detector: detector}, nil
}

// Turns panics from the cgo side into ERR_DETECTION so the
// caller can skip the frame instead of crashing
type Guard struct {
	Detector
}

func (g *Guard) Detect(img gocv.Mat) (dets []object.Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			dets = nil
			err = fmt.Errorf("recovered from panic %v: %w", r, ERR_DETECTION)
		}
	}()
	dets, err = g.Detector.Detect(img)
	if err != nil && !errors.Is(err, ERR_DETECTION) {
		err = fmt.Errorf("%w: %w", ERR_DETECTION, err)
	}
	return dets, err
}
