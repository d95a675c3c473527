package assoc

import (
	"math/rand/v2"
	"testing"

	"github.com/Robogera/crowd/pkg/geom"
	"github.com/Robogera/crowd/pkg/ghung"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var solvers = map[string]Solver{
	"jv":        ghung.JV{},
	"hungarian": ghung.Hungarian{},
	"greedy":    Greedy{},
}

func box(x, y, side float64) geom.Box {
	return geom.NewBox(x, y, x+side, y+side)
}

func TestMatchShifted(t *testing.T) {
	tracks := []geom.Box{box(0, 0, 100), box(300, 0, 100), box(600, 0, 100)}
	// shuffled and shifted by 3%
	dets := []geom.Box{box(603, 3, 100), box(3, 3, 100), box(303, 3, 100)}
	for name, s := range solvers {
		t.Run(name, func(t *testing.T) {
			pairs, ut, ud := Match(tracks, dets, 0.8, s)
			want := []Pair{{0, 1}, {1, 2}, {2, 0}}
			if diff := cmp.Diff(want, pairs); diff != "" {
				t.Fatalf("pairs (-want +got):\n%s", diff)
			}
			assert.Empty(t, ut)
			assert.Empty(t, ud)
		})
	}
}

func TestMatchThreshold(t *testing.T) {
	tracks := []geom.Box{box(0, 0, 100)}
	// IoU ~0.54, optimal but below threshold
	dets := []geom.Box{box(30, 0, 100)}
	for name, s := range solvers {
		t.Run(name, func(t *testing.T) {
			pairs, ut, ud := Match(tracks, dets, 0.8, s)
			assert.Empty(t, pairs)
			assert.Equal(t, []int{0}, ut)
			assert.Equal(t, []int{0}, ud)

			pairs, _, _ = Match(tracks, dets, 0.5, s)
			assert.Equal(t, []Pair{{0, 0}}, pairs)
		})
	}
}

func TestMatchTieBreak(t *testing.T) {
	for name, s := range map[string]Solver{"jv": ghung.JV{}, "greedy": Greedy{}} {
		t.Run(name, func(t *testing.T) {
			// identical detections, the lower index wins
			pairs, _, ud := Match([]geom.Box{box(0, 0, 50)}, []geom.Box{box(1, 0, 50), box(1, 0, 50)}, 0.5, s)
			assert.Equal(t, []Pair{{0, 0}}, pairs)
			assert.Equal(t, []int{1}, ud)

			// identical tracks and detections pair up in order
			same := []geom.Box{box(0, 0, 50), box(0, 0, 50)}
			pairs, _, _ = Match(same, same, 0.5, s)
			assert.Equal(t, []Pair{{0, 0}, {1, 1}}, pairs)
		})
	}
}

func TestMatchEmpty(t *testing.T) {
	pairs, ut, ud := Match(nil, []geom.Box{box(0, 0, 10)}, 0.5, ghung.JV{})
	assert.Empty(t, pairs)
	assert.Empty(t, ut)
	assert.Equal(t, []int{0}, ud)

	pairs, ut, ud = Match([]geom.Box{box(0, 0, 10), box(50, 50, 10)}, nil, 0.5, ghung.JV{})
	assert.Empty(t, pairs)
	assert.Equal(t, []int{0, 1}, ut)
	assert.Empty(t, ud)
}

func TestMatchOptimalOverGreedy(t *testing.T) {
	// greedy grabs the best single pair and strands the second track
	tracks := []geom.Box{geom.NewBox(0, 0, 100, 100), geom.NewBox(6, 0, 106, 100)}
	dets := []geom.Box{geom.NewBox(2, 0, 102, 100), geom.NewBox(-8, 0, 92, 100)}

	pairs, ut, _ := Match(tracks, dets, 0.8, ghung.JV{})
	assert.Equal(t, []Pair{{0, 1}, {1, 0}}, pairs)
	assert.Empty(t, ut)

	pairs, ut, _ = Match(tracks, dets, 0.8, Greedy{})
	assert.Equal(t, []Pair{{0, 0}}, pairs)
	assert.Equal(t, []int{1}, ut)
}

func TestMatchDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	var tracks, dets []geom.Box
	for range 30 {
		x, y := rng.Float64()*1000, rng.Float64()*1000
		tracks = append(tracks, box(x, y, 40))
		dets = append(dets, box(x+rng.Float64()*4, y+rng.Float64()*4, 40))
	}
	first, _, _ := Match(tracks, dets, 0.5, ghung.JV{})
	for range 10 {
		again, _, _ := Match(tracks, dets, 0.5, ghung.JV{})
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("non-deterministic (-first +again):\n%s", diff)
		}
	}
}

func BenchmarkMatch(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	var tracks, dets []geom.Box
	for range 200 {
		x, y := rng.Float64()*1920, rng.Float64()*1080
		tracks = append(tracks, box(x, y, 30))
		dets = append(dets, box(x+rng.Float64()*3, y+rng.Float64()*3, 30))
	}
	b.ResetTimer()
	for range b.N {
		Match(tracks, dets, 0.5, ghung.JV{})
	}
}
