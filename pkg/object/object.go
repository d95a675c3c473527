package object

import (
	"errors"
	"fmt"
	"math"

	"github.com/Robogera/crowd/pkg/geom"
)

var (
	ERR_INVALID_DETECTION error = errors.New("Invalid detection")
)

// Single detector output for one frame
type Detection struct {
	Box        geom.Box
	Class      int
	Confidence float64
}

func (d Detection) Validate() error {
	if !d.Box.Finite() {
		return fmt.Errorf("non-finite box %v: %w", d.Box, ERR_INVALID_DETECTION)
	}
	if d.Box.Width() <= 0 || d.Box.Height() <= 0 {
		return fmt.Errorf("box %v has non-positive size: %w", d.Box, ERR_INVALID_DETECTION)
	}
	if math.IsNaN(d.Confidence) || d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %.4f out of [0,1]: %w", d.Confidence, ERR_INVALID_DETECTION)
	}
	return nil
}

type State uint8

const (
	Tentative State = iota
	Confirmed
	Lost
	Removed
)

func (s State) String() string {
	switch s {
	case Tentative:
		return "tentative"
	case Confirmed:
		return "confirmed"
	case Lost:
		return "lost"
	case Removed:
		return "removed"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Detection annotated with the identity of the track it belongs to.
// Predicted is set when the box comes from motion extrapolation of a
// lost track rather than from this frame's detector output
type Tracked struct {
	Detection
	ID        uint64
	State     State
	Predicted bool
}
