package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHyperplaneDistance(t *testing.T) {
	// y = 0.5 line with outward normal pointing down.
	h := Hyperplane{Normal: []float64{0, -1}, Offset: 0.5}

	assert.InDelta(t, 0.0, h.Distance([]float64{0.3, 0.5}), 1e-12)
	assert.Greater(t, h.Distance([]float64{0.3, 0.0}), 0.0)
	assert.Less(t, h.Distance([]float64{0.3, 1.0}), 0.0)
}

func TestPointCloneAndProject(t *testing.T) {
	p := Point{0.1, 0.2, -3}

	c := p.Clone()
	c[0] = 9
	assert.Equal(t, 0.1, p[0])

	proj := p.Project(2)
	assert.Equal(t, Point{0.1, 0.2}, proj)
	assert.Equal(t, 2, cap(proj))
	assert.Equal(t, "(0.1, 0.2, -3)", p.String())
}

func TestFacetString(t *testing.T) {
	f := Facet{Vertices: []PointID{3, 7}}
	assert.Equal(t, "Facet[3 7]", f.String())
}
