package sink

import (
	"fmt"

	aviwriter "github.com/ivanlebron/mjpeg-go"
	"gocv.io/x/gocv"
)

// Motion JPEG AVI written in pure Go, works on OpenCV builds
// without any video codec
type AVISink struct {
	writer  aviwriter.AviWriter
	path    string
	quality int
	frames  int
}

func NewAVISink(path string, fps float64, width, height, quality int) (*AVISink, error) {
	writer, err := aviwriter.New(path, int32(width), int32(height), int32(max(fps, 1)))
	if err != nil {
		return nil, fmt.Errorf("can't create %s: %w: %w", path, ERR_SINK_WRITE, err)
	}
	return &AVISink{writer: writer, path: path, quality: quality}, nil
}

func (s *AVISink) Write(img gocv.Mat) error {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), s.quality})
	if err != nil {
		return fmt.Errorf("can't encode frame %d: %w: %w", s.frames, ERR_SINK_WRITE, err)
	}
	defer buf.Close()
	if err := s.writer.AddFrame(buf.GetBytes()); err != nil {
		return fmt.Errorf("frame %d to %s: %w: %w", s.frames, s.path, ERR_SINK_WRITE, err)
	}
	s.frames++
	return nil
}

func (s *AVISink) Close() error {
	return s.writer.Close()
}
