package detect

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/Robogera/crowd/pkg/config"
	"github.com/Robogera/crowd/pkg/detect/tile"
	"github.com/Robogera/crowd/pkg/geom"
	"github.com/Robogera/crowd/pkg/gset"
	"github.com/Robogera/crowd/pkg/object"
	"gocv.io/x/gocv"
)

// Single pass YOLOv5/v8 style detector on the OpenCV dnn module
type YOLO struct {
	net                gocv.Net
	output_layer_names []string
	params             gocv.ImageToBlobParams
	cfg                config.ModelConfig
	// empty keeps every class
	keep *gset.Set[int]
}

func NewYOLO(cfg config.ModelConfig, logger *slog.Logger) (*YOLO, error) {
	var net gocv.Net

	switch cfg.Format {
	case config.ModelCaffe.Value:
		net = gocv.ReadNetFromCaffe(cfg.ConfigPath, cfg.Path)
	case config.ModelONNX.Value:
		net = gocv.ReadNetFromONNX(cfg.Path)
	case config.ModelOpenVINO.Value:
		net = gocv.ReadNet(cfg.Path, cfg.ConfigPath)
	default:
		return nil, fmt.Errorf("model format %q: %w", cfg.Format, ERR_BAD_MODEL)
	}

	if net.Empty() {
		return nil, fmt.Errorf("can't read %s: %w", cfg.Path, ERR_BAD_MODEL)
	}

	output_layer_names := outputLayerNames(&net)
	if len(output_layer_names) == 0 {
		net.Close()
		return nil, fmt.Errorf("no output layers in %s: %w", cfg.Path, ERR_BAD_MODEL)
	}
	logger.Debug("Model info", "model", cfg.Path, "output layers", output_layer_names)

	backend, target := gocv.NetBackendDefault, gocv.NetTargetCPU
	switch cfg.Device {
	case config.DeviceGPU.Value:
		backend, target = gocv.NetBackendCUDA, gocv.NetTargetCUDA
	case config.DeviceVPU.Value:
		backend, target = gocv.NetBackendOpenVINO, gocv.NetTargetVPU
	}
	if err := net.SetPreferableBackend(backend); err != nil {
		net.Close()
		return nil, fmt.Errorf("%w: %w", ERR_CANT_SET_BACKEND, err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		net.Close()
		return nil, fmt.Errorf("%w: %w", ERR_CANT_SET_TARGET, err)
	}

	keep := gset.New(cfg.KeepClasses...)
	logger.Debug("Class filter", "keep", keep.String())

	return &YOLO{
		net:                net,
		output_layer_names: output_layer_names,
		params: gocv.NewImageToBlobParams(
			cfg.ScaleFactor,
			image.Pt(cfg.Width, cfg.Height),
			gocv.NewScalar(0, 0, 0, 0),
			true,
			gocv.MatTypeCV32F,
			gocv.DataLayoutNCHW,
			gocv.PaddingModeLetterbox,
			gocv.NewScalar(114, 114, 114, 0),
		),
		cfg:  cfg,
		keep: keep,
	}, nil
}

func outputLayerNames(net *gocv.Net) []string {
	var output_layer_names []string
	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		name := layer.GetName()
		if name != "_input" {
			output_layer_names = append(output_layer_names, name)
		}
	}
	return output_layer_names
}

func (y *YOLO) Detect(img gocv.Mat) ([]object.Detection, error) {
	if img.Empty() {
		return nil, fmt.Errorf("empty frame: %w", ERR_DETECTION)
	}

	blob := gocv.BlobFromImageWithParams(img, y.params)
	defer blob.Close()

	y.net.SetInput(blob, "")

	outputs := y.net.ForwardLayers(y.output_layer_names)
	defer func() {
		for _, output := range outputs {
			output.Close()
		}
	}()
	if len(outputs) == 0 {
		return nil, fmt.Errorf("network produced no outputs: %w", ERR_DETECTION)
	}

	// ultralytics exports are [1, 4+classes, boxes], we want a row per box
	if y.cfg.Transpose {
		gocv.TransposeND(outputs[0], []int{0, 2, 1}, &outputs[0])
	}

	var rects []image.Rectangle
	var confidences []float32
	var classes []int

	for _, output := range outputs {
		output_2d := output.Reshape(1, output.Size()[1])
		cols := output_2d.Cols()
		for i := 0; i < output_2d.Rows(); i++ {
			func() {
				row := output_2d.RowRange(i, i+1)
				defer row.Close()
				// values at 4:cols are the class scores
				scores := row.ColRange(4, cols)
				defer scores.Close()
				_, confidence, _, class_id := gocv.MinMaxLoc(scores)
				if confidence < y.cfg.ConfidenceThreshold {
					return
				}
				if y.keep.Len() > 0 && !y.keep.Contains(class_id.X) {
					return
				}
				// 0 and 1 are the box centre, 2 and 3 its size
				cx, cy := row.GetFloatAt(0, 0), row.GetFloatAt(0, 1)
				half_w, half_h := row.GetFloatAt(0, 2)/2.0, row.GetFloatAt(0, 3)/2.0
				rects = append(rects, image.Rect(
					int(cx-half_w), int(cy-half_h),
					int(cx+half_w), int(cy+half_h)))
				confidences = append(confidences, confidence)
				classes = append(classes, class_id.X)
			}()
		}
		output_2d.Close()
	}

	if len(rects) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(rects, confidences, y.cfg.ConfidenceThreshold, y.cfg.NMSThreshold)
	if len(indices) == 0 {
		return nil, nil
	}
	kept := make([]image.Rectangle, len(indices))
	for i, j := range indices {
		kept[i] = rects[j]
	}
	kept = y.params.BlobRectsToImageRects(kept, image.Pt(img.Cols(), img.Rows()))

	w, h := float64(img.Cols()), float64(img.Rows())
	dets := make([]object.Detection, 0, len(kept))
	for i, j := range indices {
		box := geom.FromRect(kept[i]).Clamp(w, h)
		if box.Empty() {
			continue
		}
		dets = append(dets, object.Detection{
			Box:        box,
			Class:      classes[j],
			Confidence: float64(confidences[j]),
		})
	}
	// NMSBoxes is class agnostic, overlapping objects of
	// different classes may have been merged
	return tile.Merge(dets, float64(y.cfg.NMSThreshold)), nil
}

func (y *YOLO) Close() error {
	return y.net.Close()
}
