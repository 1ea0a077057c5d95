package hull

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Monotone builds 2-D hulls with Andrew's monotone chain algorithm.
// Collinear boundary points are dropped, so every facet is a maximal edge.
type Monotone struct {
	Tolerance float64
}

func cross(o, a, b []float64) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// Build implements Builder.
func (m Monotone) Build(ctx context.Context, points [][]float64) ([]Facet, error) {
	d, err := dimension(points)
	if err != nil {
		return nil, err
	}
	if d != 2 {
		return nil, fmt.Errorf("hull: monotone chain requires 2-D input, got %d-D", d)
	}
	tol := m.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := points[order[i]], points[order[j]]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chain := func(seq []int) []int {
		var out []int
		for _, i := range seq {
			for len(out) >= 2 && cross(points[out[len(out)-2]], points[out[len(out)-1]], points[i]) <= tol {
				out = out[:len(out)-1]
			}
			out = append(out, i)
		}
		return out
	}

	lower := chain(order)
	reversed := make([]int, len(order))
	for i, j := range order {
		reversed[len(order)-1-i] = j
	}
	upper := chain(reversed)

	// Counter-clockwise ring without repeated endpoints.
	ring := append(lower[:len(lower)-1:len(lower)-1], upper[:len(upper)-1]...)
	if len(ring) < 3 {
		return nil, fmt.Errorf("%w: collinear input", ErrDegenerateHull)
	}

	facets := make([]Facet, 0, len(ring))
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]
		p, q := points[a], points[b]
		dx, dy := q[0]-p[0], q[1]-p[1]
		norm := math.Hypot(dx, dy)

		// Outward normal of a counter-clockwise edge is its right-hand perpendicular.
		nx, ny := dy/norm, -dx/norm
		facets = append(facets, Facet{
			Positions: []int{a, b},
			Normal:    []float64{nx, ny},
			Offset:    -(nx*p[0] + ny*p[1]),
		})
	}
	return facets, nil
}
