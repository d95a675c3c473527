package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Robogera/crowd/pkg/stream"
	"gocv.io/x/gocv"
)

const (
	KindFile   = "file"
	KindWebcam = "webcam"
	KindIPC    = "ipc"
	KindImages = "images"
)

// Mats returned by Decode belong to the caller
type Decoder struct {
	capture *gocv.VideoCapture
	meta    stream.Metadata
	live    bool
}

func Open(kind, path string, device int) (*Decoder, error) {
	var capture *gocv.VideoCapture
	var err error

	switch kind {
	case KindFile:
		capture, err = gocv.VideoCaptureFile(path)
	case KindWebcam:
		capture, err = gocv.VideoCaptureDevice(device)
	case KindIPC:
		capture, err = gocv.OpenVideoCapture(path)
	default:
		return nil, fmt.Errorf("unknown input kind %q: %w", kind, stream.ERR_SOURCE_UNAVAILABLE)
	}
	if err != nil {
		return nil, fmt.Errorf("can't open %s %q: %w: %w", kind, path, stream.ERR_SOURCE_UNAVAILABLE, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%s %q not opened: %w", kind, path, stream.ERR_SOURCE_UNAVAILABLE)
	}

	frame_count := int(capture.Get(gocv.VideoCaptureFrameCount))
	if frame_count < 0 || kind != KindFile {
		frame_count = 0
	}
	return &Decoder{
		capture: capture,
		meta: stream.Metadata{
			Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
			Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
			FPS:        capture.Get(gocv.VideoCaptureFPS),
			FrameCount: frame_count,
		},
		live: kind != KindFile,
	}, nil
}

func (d *Decoder) Decode() (gocv.Mat, error) {
	img := gocv.NewMat()
	if !d.capture.Read(&img) {
		img.Close()
		if d.live {
			return gocv.Mat{}, fmt.Errorf("live stream read failed: %w", stream.ERR_SOURCE_UNAVAILABLE)
		}
		return gocv.Mat{}, io.EOF
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, stream.ERR_EMPTY_FRAME
	}
	return img, nil
}

func (d *Decoder) Metadata() stream.Metadata { return d.meta }

func (d *Decoder) Close() error {
	return d.capture.Close()
}

// Plays a directory of still images in name order, used to replay
// frames dumped from a problematic run
type ImageDecoder struct {
	names []string
	next  int
	meta  stream.Metadata
}

func OpenImages(dir string, fps float64) (*ImageDecoder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("can't read image folder %q: %w: %w", dir, stream.ERR_SOURCE_UNAVAILABLE, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".jpg" || ext == ".jpeg" || ext == ".png") {
			names = append(names, filepath.Join(dir, e.Name()))
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no images in %q: %w", dir, stream.ERR_SOURCE_UNAVAILABLE)
	}
	slices.Sort(names)

	first := gocv.IMRead(names[0], gocv.IMReadColor)
	defer first.Close()
	if first.Empty() {
		return nil, fmt.Errorf("can't decode %q: %w", names[0], stream.ERR_SOURCE_UNAVAILABLE)
	}
	return &ImageDecoder{
		names: names,
		meta: stream.Metadata{
			Width:      first.Cols(),
			Height:     first.Rows(),
			FPS:        fps,
			FrameCount: len(names),
		},
	}, nil
}

func (d *ImageDecoder) Decode() (gocv.Mat, error) {
	if d.next >= len(d.names) {
		return gocv.Mat{}, io.EOF
	}
	img := gocv.IMRead(d.names[d.next], gocv.IMReadColor)
	d.next++
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, stream.ERR_EMPTY_FRAME
	}
	return img, nil
}

func (d *ImageDecoder) Metadata() stream.Metadata { return d.meta }

func (d *ImageDecoder) Close() error { return nil }

func Release(m gocv.Mat) {
	m.Close()
}
