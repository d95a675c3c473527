package tile

import (
	"cmp"
	"image"
	"math"
	"slices"

	"github.com/Robogera/crowd/pkg/geom"
	"github.com/Robogera/crowd/pkg/object"
)

// Covers a w x h frame with slices of at most sw x sh. Neighbouring
// slices share overlap*size pixels, the last slice in a row or column
// is shifted back to end exactly on the frame border
func Grid(w, h, sw, sh int, overlap float64) []image.Rectangle {
	if w <= 0 || h <= 0 {
		return nil
	}
	xs := starts(w, sw, overlap)
	ys := starts(h, sh, overlap)
	rects := make([]image.Rectangle, 0, len(xs)*len(ys))
	for _, y := range ys {
		for _, x := range xs {
			rects = append(rects, image.Rect(x, y, min(x+sw, w), min(y+sh, h)))
		}
	}
	return rects
}

func starts(size, slice int, overlap float64) []int {
	if slice <= 0 || slice >= size {
		return []int{0}
	}
	step := max(int(math.Round(float64(slice)*(1-overlap))), 1)
	var out []int
	for s := 0; ; s += step {
		if s+slice >= size {
			out = append(out, size-slice)
			break
		}
		out = append(out, s)
	}
	return out
}

// Class-aware non-maximum suppression. Highest confidence wins,
// the result is ordered by confidence, ties by input order
func Merge(dets []object.Detection, iou_threshold float64) []object.Detection {
	order := make([]int, len(dets))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(dets[b].Confidence, dets[a].Confidence)
	})

	kept := make([]object.Detection, 0, len(dets))
	for _, ind := range order {
		candidate := dets[ind]
		suppressed := false
		for _, k := range kept {
			if k.Class == candidate.Class && geom.IoU(k.Box, candidate.Box) > iou_threshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, candidate)
		}
	}
	return kept
}
