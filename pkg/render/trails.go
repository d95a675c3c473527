package render

import (
	"image"
	"slices"

	"github.com/Robogera/crowd/pkg/gring"
	"github.com/Robogera/crowd/pkg/object"
)

// Recent box centres per track id
type Trails struct {
	points int
	// frames an id may go unseen before its trail is dropped
	max_idle  uint64
	frame     uint64
	rings     map[uint64]*gring.Ring[image.Point]
	last_seen map[uint64]uint64
}

func NewTrails(points int, max_idle uint64) *Trails {
	return &Trails{
		points:    max(points, 1),
		max_idle:  max_idle,
		rings:     make(map[uint64]*gring.Ring[image.Point]),
		last_seen: make(map[uint64]uint64),
	}
}

func (t *Trails) Update(tracks []object.Tracked) {
	t.frame++
	for _, track := range tracks {
		ring, ok := t.rings[track.ID]
		if !ok {
			ring = gring.NewRing[image.Point](t.points)
			t.rings[track.ID] = ring
		}
		cx, cy := track.Box.Center()
		ring.Push(image.Pt(int(cx), int(cy)))
		t.last_seen[track.ID] = t.frame
	}
	for id, seen := range t.last_seen {
		if t.frame-seen > t.max_idle {
			delete(t.rings, id)
			delete(t.last_seen, id)
		}
	}
}

// Newest first, nil for unknown ids
func (t *Trails) Points(id uint64) []image.Point {
	ring, ok := t.rings[id]
	if !ok {
		return nil
	}
	return slices.Collect(ring.All())
}

func (t *Trails) Len() int { return len(t.rings) }
