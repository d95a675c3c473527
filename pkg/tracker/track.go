package tracker

import (
	"github.com/Robogera/crowd/pkg/geom"
	"github.com/Robogera/crowd/pkg/kalman"
	"github.com/Robogera/crowd/pkg/object"
)

type Track struct {
	id         uint64
	state      object.State
	filter     *kalman.Filter
	confidence float64
	// consecutive matched frames
	hits int
	// frames since the last match
	age int
	// majority vote over the classes of matched detections
	class       int
	class_votes map[int]int
	first_frame uint64
	last_frame  uint64
}

func newTrack(id uint64, det object.Detection, frame uint64) *Track {
	return &Track{
		id:          id,
		state:       object.Tentative,
		filter:      kalman.NewFilter(det.Box),
		confidence:  det.Confidence,
		hits:        1,
		age:         0,
		class:       det.Class,
		class_votes: map[int]int{det.Class: 1},
		first_frame: frame,
		last_frame:  frame,
	}
}

func (t *Track) predict() {
	if t.state == object.Lost {
		t.filter.Freeze()
	}
	t.filter.Predict()
}

func (t *Track) update(det object.Detection, frame uint64) {
	if err := t.filter.Update(det.Box); err != nil {
		// start over from the measurement, the identity survives
		t.filter = kalman.NewFilter(det.Box)
	}
	t.confidence = det.Confidence
	t.hits++
	t.age = 0
	t.last_frame = frame
	t.vote(det.Class)
}

// Ties keep the current label
func (t *Track) vote(class int) {
	t.class_votes[class]++
	if class != t.class && t.class_votes[class] > t.class_votes[t.class] {
		t.class = class
	}
}

func (t *Track) miss() {
	t.hits = 0
	t.age++
}

func (t *Track) Box() geom.Box { return t.filter.Box() }

// Read-only copy of a track
type Snapshot struct {
	ID         uint64
	State      object.State
	Box        geom.Box
	Class      int
	Confidence float64
	Hits       int
	Age        int
	VX, VY     float64
	FirstFrame uint64
	LastFrame  uint64
}

func (t *Track) snapshot() Snapshot {
	vx, vy := t.filter.Velocity()
	return Snapshot{
		ID:         t.id,
		State:      t.state,
		Box:        t.Box(),
		Class:      t.class,
		Confidence: t.confidence,
		Hits:       t.hits,
		Age:        t.age,
		VX:         vx,
		VY:         vy,
		FirstFrame: t.first_frame,
		LastFrame:  t.last_frame,
	}
}
