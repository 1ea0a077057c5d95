package hull

import (
	"context"
	"fmt"

	"github.com/hupe1980/hullmap/internal/linalg"
)

// Exhaustive enumerates every d-subset of the input and keeps those whose
// hyperplane supports the whole point set. Cost is O(C(n, d)·n); it is meant
// for small inputs and as a correctness reference.
//
// Coplanar hull faces with more than d points are split into the simplices
// that contain no other on-plane point, which may overlap.
type Exhaustive struct {
	Tolerance float64
}

const cancelCheckInterval = 1024

// Build implements Builder.
func (e Exhaustive) Build(ctx context.Context, points [][]float64) ([]Facet, error) {
	d, err := dimension(points)
	if err != nil {
		return nil, err
	}
	if linalg.AffineRank(points) < d {
		return nil, fmt.Errorf("%w: affine rank below %d", ErrDegenerateHull, d)
	}
	tol := e.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	reps := representatives(points, tol)
	if len(reps) <= d {
		return nil, fmt.Errorf("%w: %d distinct points in %d dimensions", ErrDegenerateHull, len(reps), d)
	}
	isRep := make(map[int]bool, len(reps))
	for _, r := range reps {
		isRep[r] = true
	}

	var facets []Facet
	comb := make([]int, d)
	for i := range comb {
		comb[i] = i
	}
	verts := make([][]float64, d)

	for iter := 0; ; iter++ {
		if iter%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		positions := make([]int, d)
		for i, c := range comb {
			positions[i] = reps[c]
			verts[i] = points[reps[c]]
		}

		if f, ok := supporting(points, positions, verts, isRep, tol); ok {
			facets = append(facets, f)
		}

		if !nextCombination(comb, len(reps)) {
			break
		}
	}

	if len(facets) == 0 {
		return nil, fmt.Errorf("%w: no supporting hyperplanes", ErrDegenerateHull)
	}
	return facets, nil
}

// supporting reports whether the simplex spanned by verts is a hull facet.
func supporting(points [][]float64, positions []int, verts [][]float64, isRep map[int]bool, tol float64) (Facet, bool) {
	normal, offset, err := linalg.Hyperplane(verts)
	if err != nil {
		return Facet{}, false
	}

	inCombo := make(map[int]bool, len(positions))
	for _, p := range positions {
		inCombo[p] = true
	}

	var above, below bool
	var onPlane []int
	for j, p := range points {
		dist := offset
		for k, n := range normal {
			dist += n * p[k]
		}
		switch {
		case dist > tol:
			above = true
		case dist < -tol:
			below = true
		case !inCombo[j] && isRep[j]:
			onPlane = append(onPlane, j)
		}
		if above && below {
			return Facet{}, false
		}
	}

	if above {
		for k := range normal {
			normal[k] = -normal[k]
		}
		offset = -offset
	}

	for _, j := range onPlane {
		b, err := linalg.Solve(verts, points[j])
		if err != nil {
			continue
		}
		if w, _ := b.MinWeight(); w >= -tol {
			return Facet{}, false
		}
	}

	return Facet{Positions: positions, Normal: normal, Offset: offset}, true
}

// representatives returns the first index of every distinct point.
func representatives(points [][]float64, tol float64) []int {
	var reps []int
	for i, p := range points {
		dup := false
		for _, r := range reps {
			if equalWithin(p, points[r], tol) {
				dup = true
				break
			}
		}
		if !dup {
			reps = append(reps, i)
		}
	}
	return reps
}

func equalWithin(a, b []float64, tol float64) bool {
	for i := range a {
		if d := a[i] - b[i]; d > tol || d < -tol {
			return false
		}
	}
	return true
}

// nextCombination advances comb to the next k-combination of [0, n) in
// lexicographic order.
func nextCombination(comb []int, n int) bool {
	k := len(comb)
	i := k - 1
	for i >= 0 && comb[i] == n-k+i {
		i--
	}
	if i < 0 {
		return false
	}
	comb[i]++
	for j := i + 1; j < k; j++ {
		comb[j] = comb[j-1] + 1
	}
	return true
}
