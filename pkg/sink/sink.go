package sink

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var (
	ERR_SINK_WRITE error = errors.New("Can't write to sink")
)

// Consumer of rendered frames. Write does not take ownership of img
type Sink interface {
	Write(img gocv.Mat) error
	Close() error
}

// Writes through gocv's VideoWriter, container and codec follow
// the output file extension and fourcc
type VideoSink struct {
	writer *gocv.VideoWriter
	path   string
	frames int
}

func NewVideoSink(path, codec string, fps float64, width, height int) (*VideoSink, error) {
	writer, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("can't open %s: %w: %w", path, ERR_SINK_WRITE, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("%s not opened with codec %s: %w", path, codec, ERR_SINK_WRITE)
	}
	return &VideoSink{writer: writer, path: path}, nil
}

func (s *VideoSink) Write(img gocv.Mat) error {
	if err := s.writer.Write(img); err != nil {
		return fmt.Errorf("frame %d to %s: %w: %w", s.frames, s.path, ERR_SINK_WRITE, err)
	}
	s.frames++
	return nil
}

func (s *VideoSink) Close() error {
	return s.writer.Close()
}

// Fans every frame out to all sinks, the first failure wins
type Multi []Sink

func (m Multi) Write(img gocv.Mat) error {
	for _, s := range m {
		if err := s.Write(img); err != nil {
			return err
		}
	}
	return nil
}

// Closes every sink even if some fail
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
