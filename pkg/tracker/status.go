package tracker

import (
	"fmt"

	"github.com/Robogera/crowd/pkg/geom"
)

// What happened to a track during one update
type Status interface {
	String() string
}

type StatusSpawned struct {
	id  uint64
	box geom.Box
}

func (s StatusSpawned) String() string {
	return fmt.Sprintf("#%d spawned at (%.1f, %.1f, %.1f, %.1f)", s.id, s.box.X1, s.box.Y1, s.box.X2, s.box.Y2)
}

type StatusMatched struct {
	id    uint64
	det   int
	iou   float64
	stage string
}

func (s StatusMatched) String() string {
	return fmt.Sprintf("#%d matched detection %d in stage %s, iou %.4f", s.id, s.det, s.stage, s.iou)
}

type StatusConfirmed struct {
	id uint64
}

func (s StatusConfirmed) String() string {
	return fmt.Sprintf("#%d confirmed", s.id)
}

type StatusRecovered struct {
	id       uint64
	lost_for int
}

func (s StatusRecovered) String() string {
	return fmt.Sprintf("#%d recovered after %d frames", s.id, s.lost_for)
}

type StatusLost struct {
	id uint64
}

func (s StatusLost) String() string {
	return fmt.Sprintf("#%d lost", s.id)
}

type StatusDiscarded struct {
	id uint64
}

func (s StatusDiscarded) String() string {
	return fmt.Sprintf("#%d discarded: tentative track missed", s.id)
}

type StatusRemoved struct {
	id  uint64
	age int
}

func (s StatusRemoved) String() string {
	return fmt.Sprintf("#%d removed: lost for %d frames", s.id, s.age)
}
