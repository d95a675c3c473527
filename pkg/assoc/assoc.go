package assoc

import (
	"cmp"
	"slices"

	"github.com/Robogera/crowd/pkg/geom"
	"github.com/Robogera/crowd/pkg/ghung"
	"github.com/Robogera/crowd/pkg/gmat"
)

// Optimal (or not) assignment over a rectangular cost matrix.
// Solve returns the assigned column for each row or -1.
// Costs >= ghung.Forbidden must never be assigned
type Solver interface {
	Solve(cost [][]float64) []int
}

type Pair struct{ Track, Det int }

// Orders otherwise equal costs so earlier tracks take
// lower detection indices
const tie_bias = 1e-12

// Matches predicted track boxes against detection boxes by IoU.
// Pairs below the threshold are never matched. Returned index
// slices are ascending
func Match(tracks, dets []geom.Box, threshold float64, solver Solver) (pairs []Pair, unmatched_tracks, unmatched_dets []int) {
	if len(tracks) > 0 && len(dets) > 0 {
		pairs = match(tracks, dets, threshold, solver)
	}

	matched_tracks := make([]bool, len(tracks))
	matched_dets := make([]bool, len(dets))
	for _, pair := range pairs {
		matched_tracks[pair.Track] = true
		matched_dets[pair.Det] = true
	}
	for ind, matched := range matched_tracks {
		if !matched {
			unmatched_tracks = append(unmatched_tracks, ind)
		}
	}
	for ind, matched := range matched_dets {
		if !matched {
			unmatched_dets = append(unmatched_dets, ind)
		}
	}
	return pairs, unmatched_tracks, unmatched_dets
}

func match(tracks, dets []geom.Box, threshold float64, solver Solver) []Pair {
	rows, cols := len(tracks), len(dets)
	iou_mat := gmat.NewMat[float64](rows, cols)
	for row := range rows {
		for col := range cols {
			iou_mat.Set(row, col, geom.IoU(tracks[row], dets[col]))
		}
	}

	validity_mat := gmat.Map(
		iou_mat,
		func(v float64, r, c int) bool {
			return v > 0 && v >= threshold
		})

	// rows and columns without a single valid edge
	// can't be matched, drop them before solving
	var dead_rows, dead_cols []int
	for ind_r, vec := range validity_mat.Vectors(gmat.Horizontal) {
		if !anyTrue(vec) {
			dead_rows = append(dead_rows, ind_r)
		}
	}
	for ind_c, vec := range validity_mat.Vectors(gmat.Vertical) {
		if !anyTrue(vec) {
			dead_cols = append(dead_cols, ind_c)
		}
	}

	data, kept_rows, kept_cols := iou_mat.
		Mask(gmat.Horizontal, dead_rows...).
		Mask(gmat.Vertical, dead_cols...).
		To2d()
	if len(kept_rows) == 0 || len(kept_cols) == 0 {
		return nil
	}

	cost := make([][]float64, len(data))
	for r, row := range data {
		cost[r] = make([]float64, len(row))
		for c, iou := range row {
			if !validity_mat.At(kept_rows[r], kept_cols[c]) {
				cost[r][c] = ghung.Forbidden
				continue
			}
			cost[r][c] = 1 - iou + tie_bias*float64(kept_cols[c]*(rows-kept_rows[r]))
		}
	}

	var pairs []Pair
	for r, c := range solver.Solve(cost) {
		if c < 0 || c >= len(kept_cols) {
			continue
		}
		track, det := kept_rows[r], kept_cols[c]
		if !validity_mat.At(track, det) {
			continue
		}
		pairs = append(pairs, Pair{Track: track, Det: det})
	}
	slices.SortFunc(pairs, func(a, b Pair) int { return cmp.Compare(a.Track, b.Track) })
	return pairs
}

func anyTrue(vec gmat.Vector[bool]) bool {
	for _, value := range vec.All() {
		if value {
			return true
		}
	}
	return false
}

// Picks the globally cheapest remaining pair until none is left.
// Fast but not optimal
type Greedy struct{}

func (Greedy) Solve(cost [][]float64) []int {
	type edge struct {
		r, c int
		cost float64
	}
	var edges []edge
	for r, row := range cost {
		for c, v := range row {
			if v < ghung.Forbidden {
				edges = append(edges, edge{r, c, v})
			}
		}
	}
	slices.SortStableFunc(edges, func(a, b edge) int {
		return cmp.Or(
			cmp.Compare(a.cost, b.cost),
			cmp.Compare(a.r, b.r),
			cmp.Compare(a.c, b.c),
		)
	})

	res := make([]int, len(cost))
	for i := range res {
		res[i] = -1
	}
	used_cols := make(map[int]bool)
	for _, e := range edges {
		if res[e.r] >= 0 || used_cols[e.c] {
			continue
		}
		res[e.r] = e.c
		used_cols[e.c] = true
	}
	return res
}
