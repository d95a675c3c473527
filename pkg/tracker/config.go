package tracker

import (
	"errors"
	"fmt"
	"math"

	"github.com/Robogera/crowd/pkg/assoc"
	"github.com/Robogera/crowd/pkg/ghung"
)

var (
	ERR_BAD_CONFIG error = errors.New("Bad tracker configuration")
)

const (
	SolverJV        = "jv"
	SolverHungarian = "hungarian"
	SolverGreedy    = "greedy"
)

type Config struct {
	// Detections at or above this confidence may spawn tracks
	ActivationThreshold float64
	// Detections below this confidence are ignored entirely
	LowThreshold float64
	// Minimum IoU between a predicted track box and a detection
	MatchingThreshold float64
	// Frames a lost track survives, expressed for a 30 fps video
	LostTrackBuffer int
	FrameRate       float64
	// Consecutive matched frames before a tentative track is
	// confirmed. 1 confirms on creation
	MinConsecutiveFrames int
	// Emit lost tracks at their predicted position
	ReportLost bool
	Solver     string
}

func DefaultConfig() Config {
	return Config{
		ActivationThreshold:  0.25,
		LowThreshold:         0.1,
		MatchingThreshold:    0.8,
		LostTrackBuffer:      30,
		FrameRate:            30,
		MinConsecutiveFrames: 2,
		ReportLost:           false,
		Solver:               SolverJV,
	}
}

func (c Config) Validate() error {
	in_unit := func(v float64) bool { return !math.IsNaN(v) && v >= 0 && v <= 1 }
	switch {
	case !in_unit(c.ActivationThreshold):
		return fmt.Errorf("activation threshold %.3f not in [0,1]: %w", c.ActivationThreshold, ERR_BAD_CONFIG)
	case !in_unit(c.LowThreshold) || c.LowThreshold > c.ActivationThreshold:
		return fmt.Errorf("low threshold %.3f not in [0,%.3f]: %w", c.LowThreshold, c.ActivationThreshold, ERR_BAD_CONFIG)
	case !in_unit(c.MatchingThreshold):
		return fmt.Errorf("matching threshold %.3f not in [0,1]: %w", c.MatchingThreshold, ERR_BAD_CONFIG)
	case c.LostTrackBuffer < 1:
		return fmt.Errorf("lost track buffer %d < 1: %w", c.LostTrackBuffer, ERR_BAD_CONFIG)
	case c.MinConsecutiveFrames < 1:
		return fmt.Errorf("min consecutive frames %d < 1: %w", c.MinConsecutiveFrames, ERR_BAD_CONFIG)
	case math.IsNaN(c.FrameRate) || c.FrameRate < 0:
		return fmt.Errorf("frame rate %.3f: %w", c.FrameRate, ERR_BAD_CONFIG)
	}
	if _, err := NewSolver(c.Solver); err != nil {
		return err
	}
	return nil
}

// Lost track buffer scaled to the actual frame rate
func (c Config) MaxLost() int {
	if c.FrameRate <= 0 {
		return max(c.LostTrackBuffer, 1)
	}
	return max(int(c.FrameRate/30*float64(c.LostTrackBuffer)), 1)
}

func NewSolver(name string) (assoc.Solver, error) {
	switch name {
	case SolverJV, "":
		return ghung.JV{}, nil
	case SolverHungarian:
		return ghung.Hungarian{}, nil
	case SolverGreedy:
		return assoc.Greedy{}, nil
	}
	return nil, fmt.Errorf("unknown solver %q: %w", name, ERR_BAD_CONFIG)
}
