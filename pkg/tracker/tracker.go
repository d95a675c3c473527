package tracker

import (
	"log/slog"
	"slices"

	"github.com/Robogera/crowd/pkg/assoc"
	"github.com/Robogera/crowd/pkg/geom"
	"github.com/Robogera/crowd/pkg/object"
)

// Multi-object tracker. Not safe for concurrent use,
// Update is expected to be called once per frame in order
type Tracker struct {
	cfg      Config
	logger   *slog.Logger
	solver   assoc.Solver
	max_lost int
	// ordered by id
	tracks  []*Track
	next_id uint64
	frame   uint64
	dropped uint64
	events  []Status
}

type Stats struct {
	Frame     uint64
	Tentative int
	Confirmed int
	Lost      int
	Dropped   uint64
	NextID    uint64
}

func NewTracker(cfg Config, logger *slog.Logger) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	solver, err := NewSolver(cfg.Solver)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		cfg:      cfg,
		logger:   logger.With("component", "tracker"),
		solver:   solver,
		max_lost: cfg.MaxLost(),
		next_id:  1,
	}, nil
}

// candidate detection with its index in the caller's slice
type candidate struct {
	index int
	det   object.Detection
}

// Consumes one frame worth of detections and returns the ones
// that belong to confirmed tracks, annotated with the track id
func (tr *Tracker) Update(dets []object.Detection) []object.Tracked {
	tr.frame++
	tr.events = tr.events[:0]

	var high, low []candidate
	for ind, det := range dets {
		if err := det.Validate(); err != nil {
			tr.dropped++
			tr.logger.Debug("Dropping detection", "frame", tr.frame, "index", ind, "error", err)
			continue
		}
		switch {
		case det.Confidence >= tr.cfg.ActivationThreshold:
			high = append(high, candidate{ind, det})
		case det.Confidence >= tr.cfg.LowThreshold:
			low = append(low, candidate{ind, det})
		}
	}

	for _, track := range tr.tracks {
		track.predict()
	}

	// track index -> detection index in dets
	matched := make(map[int]int, len(tr.tracks))

	all := make([]int, len(tr.tracks))
	for i := range all {
		all[i] = i
	}
	spawn := tr.cascade("A", all, high, matched)

	var remaining []int
	for ind, track := range tr.tracks {
		if _, ok := matched[ind]; ok {
			continue
		}
		if track.state == object.Confirmed || track.state == object.Lost {
			remaining = append(remaining, ind)
		}
	}
	// leftovers of the low confidence stage never spawn tracks
	tr.cascade("B", remaining, low, matched)

	for ind, track := range tr.tracks {
		if _, ok := matched[ind]; ok {
			continue
		}
		tr.unmatched(track)
	}

	// detection index -> confirmed track that claimed it
	claimed := make(map[int]*Track, len(matched)+len(spawn))
	for ind, det_ind := range matched {
		if tr.tracks[ind].state == object.Confirmed {
			claimed[det_ind] = tr.tracks[ind]
		}
	}
	for _, cand := range spawn {
		if track := tr.spawn(cand.det); track.state == object.Confirmed {
			claimed[cand.index] = track
		}
	}

	output := make([]object.Tracked, 0, len(claimed))
	for det_ind, det := range dets {
		track, ok := claimed[det_ind]
		if !ok {
			continue
		}
		det.Class = track.class
		output = append(output, object.Tracked{
			Detection: det,
			ID:        track.id,
			State:     track.state,
		})
	}

	if tr.cfg.ReportLost {
		for _, track := range tr.tracks {
			if track.state != object.Lost {
				continue
			}
			output = append(output, object.Tracked{
				Detection: object.Detection{
					Box:        track.Box(),
					Class:      track.class,
					Confidence: track.confidence,
				},
				ID:        track.id,
				State:     track.state,
				Predicted: true,
			})
		}
	}

	tr.tracks = slices.DeleteFunc(tr.tracks, func(t *Track) bool {
		return t.state == object.Removed
	})

	for _, event := range tr.events {
		tr.logger.Debug("Track", "frame", tr.frame, "status", event.String())
	}
	return output
}

// Matches the given tracks against the candidates, updates the
// matched tracks and returns the unmatched candidates
func (tr *Tracker) cascade(stage string, track_inds []int, cands []candidate, matched map[int]int) []candidate {
	if len(cands) == 0 {
		return nil
	}
	track_boxes := make([]geom.Box, len(track_inds))
	for i, ind := range track_inds {
		track_boxes[i] = tr.tracks[ind].Box()
	}
	det_boxes := make([]geom.Box, len(cands))
	for i, cand := range cands {
		det_boxes[i] = cand.det.Box
	}

	pairs, _, unmatched_dets := assoc.Match(track_boxes, det_boxes, tr.cfg.MatchingThreshold, tr.solver)
	for _, pair := range pairs {
		ind := track_inds[pair.Track]
		cand := cands[pair.Det]
		tr.events = append(tr.events, StatusMatched{
			id:    tr.tracks[ind].id,
			det:   cand.index,
			iou:   geom.IoU(track_boxes[pair.Track], cand.det.Box),
			stage: stage,
		})
		tr.matched(tr.tracks[ind], cand.det)
		matched[ind] = cand.index
	}

	leftovers := make([]candidate, 0, len(unmatched_dets))
	for _, ind := range unmatched_dets {
		leftovers = append(leftovers, cands[ind])
	}
	return leftovers
}

func (tr *Tracker) matched(track *Track, det object.Detection) {
	lost_for := track.age
	track.update(det, tr.frame)
	switch track.state {
	case object.Tentative:
		if track.hits >= tr.cfg.MinConsecutiveFrames {
			track.state = object.Confirmed
			tr.events = append(tr.events, StatusConfirmed{id: track.id})
		}
	case object.Lost:
		track.state = object.Confirmed
		tr.events = append(tr.events, StatusRecovered{id: track.id, lost_for: lost_for})
	}
}

func (tr *Tracker) unmatched(track *Track) {
	track.miss()
	switch track.state {
	case object.Tentative:
		track.state = object.Removed
		tr.events = append(tr.events, StatusDiscarded{id: track.id})
	case object.Confirmed:
		track.state = object.Lost
		tr.events = append(tr.events, StatusLost{id: track.id})
		fallthrough
	case object.Lost:
		if track.age > tr.max_lost {
			track.state = object.Removed
			tr.events = append(tr.events, StatusRemoved{id: track.id, age: track.age})
		}
	}
}

func (tr *Tracker) spawn(det object.Detection) *Track {
	track := newTrack(tr.next_id, det, tr.frame)
	tr.next_id++
	tr.events = append(tr.events, StatusSpawned{id: track.id, box: det.Box})
	if tr.cfg.MinConsecutiveFrames <= 1 {
		track.state = object.Confirmed
		tr.events = append(tr.events, StatusConfirmed{id: track.id})
	}
	tr.tracks = append(tr.tracks, track)
	return track
}

// Snapshots of every live track ordered by id
func (tr *Tracker) Tracks() []Snapshot {
	snapshots := make([]Snapshot, 0, len(tr.tracks))
	for _, track := range tr.tracks {
		snapshots = append(snapshots, track.snapshot())
	}
	return snapshots
}

// Status log of the last update
func (tr *Tracker) Events() []Status {
	return slices.Clone(tr.events)
}

func (tr *Tracker) Stats() Stats {
	stats := Stats{
		Frame:   tr.frame,
		Dropped: tr.dropped,
		NextID:  tr.next_id,
	}
	for _, track := range tr.tracks {
		switch track.state {
		case object.Tentative:
			stats.Tentative++
		case object.Confirmed:
			stats.Confirmed++
		case object.Lost:
			stats.Lost++
		}
	}
	return stats
}

func (tr *Tracker) Frame() uint64 { return tr.frame }

// Drops every track. Ids keep increasing so an id is
// never handed out twice by the same tracker
func (tr *Tracker) Reset() {
	tr.tracks = nil
	tr.frame = 0
	tr.events = tr.events[:0]
}
