package main

import (
	"log/slog"
	"time"

	"github.com/Robogera/crowd/pkg/gsma"
	"github.com/Robogera/crowd/pkg/tracker"
)

const fps_window = 30

// Per-run counters, logged every stat period by the processor
type Statistics struct {
	frames           uint64
	detection_errors uint64
	total_frames     int
	started          time.Time
	frame_time       *gsma.SMA[float64]
}

func newStatistics(total_frames int) *Statistics {
	// fps_window is a constant above the minimum capacity
	frame_time, _ := gsma.NewSMA[float64](fps_window)
	return &Statistics{
		total_frames: total_frames,
		started:      time.Now(),
		frame_time:   frame_time,
	}
}

func (s *Statistics) Frame(took time.Duration) {
	s.frames++
	s.frame_time.Recalc(took.Seconds())
}

func (s *Statistics) FPS() float64 {
	avg := s.frame_time.Show()
	if avg <= 0 {
		return 0
	}
	return 1 / avg
}

func (s *Statistics) Log(logger *slog.Logger, tr tracker.Stats, buffered int) {
	args := []any{
		"frames processed", s.frames,
		"frames per second", s.FPS(),
		"confirmed", tr.Confirmed,
		"lost", tr.Lost,
		"tentative", tr.Tentative,
		"dropped detections", tr.Dropped,
		"detection errors", s.detection_errors,
		"buffered", buffered,
	}
	if s.total_frames > 0 {
		args = append(args, "total frames", s.total_frames,
			"progress", float64(s.frames)/float64(s.total_frames))
	}
	logger.Info("Stats", args...)
}
