package ghung

import (
	"math"
	"slices"

	hung "github.com/arthurkushman/go-hungarian"
)

// Costs at or above Forbidden are never reported as assignments
const Forbidden = 1e6

// Kuhn-Munkres with row/column potentials (Jonker-Volgenant flavour).
// Deterministic for a given input
type JV struct{}

// Solve returns assignment[r] = column for every row r of the cost
// matrix, or -1 when the row is unassigned or only forbidden columns remain
func (JV) Solve(cost [][]float64) []int {
	n, m := dims(cost)
	if n == 0 {
		return nil
	}
	if m == 0 {
		return unassigned(n)
	}

	dim := max(n, m)
	c := pad(cost, dim)

	const inf = math.MaxFloat64 / 2

	// 1-indexed, column 0 is virtual
	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	p := make([]int, dim+1)
	way := make([]int, dim+1)
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0
		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 {
				break
			}
			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	row_assign := unassigned(dim)
	for j := 1; j <= dim; j++ {
		if p[j] > 0 {
			row_assign[p[j]-1] = j - 1
		}
	}
	return trim(cost, row_assign, n, m)
}

// Wrapper around github.com/arthurkushman/go-hungarian. The library
// reduces the matrix heuristically and may return partial or costlier
// assignments, those are replaced by the JV solution
type Hungarian struct{}

func (Hungarian) Solve(cost [][]float64) []int {
	n, m := dims(cost)
	if n == 0 {
		return nil
	}
	if m == 0 {
		return unassigned(n)
	}
	dim := max(n, m)
	ass := hung.SolveMin(pad(cost, dim))

	row_assign := unassigned(dim)
	// map iteration order is random, walk the rows in order
	rows := make([]int, 0, len(ass))
	for r := range ass {
		rows = append(rows, r)
	}
	slices.Sort(rows)
	for _, r := range rows {
		cols := make([]int, 0, len(ass[r]))
		for c := range ass[r] {
			cols = append(cols, c)
		}
		if len(cols) == 0 || r >= dim {
			continue
		}
		row_assign[r] = slices.Min(cols)
	}
	res := trim(cost, row_assign, n, m)

	reference := JV{}.Solve(cost)
	if !feasible(res, m) {
		return reference
	}
	res_pairs, res_cost := summary(cost, res)
	ref_pairs, ref_cost := summary(cost, reference)
	if res_pairs != ref_pairs || res_cost > ref_cost+1e-9 {
		return reference
	}
	return res
}

// every column used at most once
func feasible(assign []int, m int) bool {
	used := make([]bool, m)
	for _, c := range assign {
		if c < 0 {
			continue
		}
		if c >= m || used[c] {
			return false
		}
		used[c] = true
	}
	return true
}

func summary(cost [][]float64, assign []int) (pairs int, sum float64) {
	for r, c := range assign {
		if c >= 0 {
			pairs++
			sum += cost[r][c]
		}
	}
	return pairs, sum
}

func dims(cost [][]float64) (int, int) {
	if len(cost) == 0 {
		return 0, 0
	}
	return len(cost), len(cost[0])
}

func unassigned(n int) []int {
	res := make([]int, n)
	for i := range res {
		res[i] = -1
	}
	return res
}

// Square copy of cost padded with Forbidden
func pad(cost [][]float64, dim int) [][]float64 {
	c := make([][]float64, dim)
	for i := range dim {
		c[i] = make([]float64, dim)
		for j := range dim {
			if i < len(cost) && j < len(cost[i]) {
				c[i][j] = min(cost[i][j], Forbidden)
			} else {
				c[i][j] = Forbidden
			}
		}
	}
	return c
}

// Cuts the padded assignment back to n rows and drops
// padding and forbidden pairs
func trim(cost [][]float64, row_assign []int, n, m int) []int {
	res := unassigned(n)
	for i := range n {
		col := row_assign[i]
		if col < 0 || col >= m || cost[i][col] >= Forbidden {
			continue
		}
		res[i] = col
	}
	return res
}
