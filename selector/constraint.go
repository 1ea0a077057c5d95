package selector

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/hullmap/model"
)

var (
	// ErrNoEnergyAxis is returned when a potential is requested from a facet
	// whose hyperplane has no trailing energy axis.
	ErrNoEnergyAxis = errors.New("selector: facet has no energy axis")
	// ErrInvalidComponent is returned for a component index outside the system.
	ErrInvalidComponent = errors.New("selector: invalid component")
)

// Constraint is a half-space test on a quantity derived from a facet at the
// target composition.
type Constraint interface {
	Admits(f model.Facet, target []float64) (bool, error)
}

// ConstraintFunc adapts a function to the Constraint interface.
type ConstraintFunc func(f model.Facet, target []float64) (bool, error)

// Admits implements Constraint.
func (fn ConstraintFunc) Admits(f model.Facet, target []float64) (bool, error) {
	return fn(f, target)
}

// Op is the direction of a bound.
type Op int

const (
	// LessEqual admits values at or below the bound.
	LessEqual Op = iota
	// GreaterEqual admits values at or above the bound.
	GreaterEqual
)

func (o Op) String() string {
	switch o {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

func (o Op) holds(v, bound float64) bool {
	if o == GreaterEqual {
		return v >= bound
	}
	return v <= bound
}

// Potentials returns the chemical potentials read off the facet's tangent
// hyperplane for a system with m independent composition coordinates.
//
// The hyperplane must live in (x_1..x_m, G) space. Component 0 is the
// balance component (the plane's value at x = 0); component i is the
// plane's value at the pure-i corner x = e_i.
func Potentials(h model.Hyperplane, m int) ([]float64, error) {
	if len(h.Normal) != m+1 {
		return nil, fmt.Errorf("%w: normal has %d coordinates, want %d", ErrNoEnergyAxis, len(h.Normal), m+1)
	}
	nG := h.Normal[m]
	if nG == 0 {
		return nil, fmt.Errorf("%w: vertical facet", ErrNoEnergyAxis)
	}

	mu := make([]float64, m+1)
	mu[0] = -h.Offset / nG
	for i := 1; i <= m; i++ {
		mu[i] = mu[0] - h.Normal[i-1]/nG
	}
	return mu, nil
}

// ChemicalPotential bounds the chemical potential of one component.
type ChemicalPotential struct {
	Component int
	Op        Op
	Bound     float64
}

// Admits implements Constraint.
func (c ChemicalPotential) Admits(f model.Facet, target []float64) (bool, error) {
	mu, err := Potentials(f.Plane, len(target))
	if err != nil {
		return false, err
	}
	if c.Component < 0 || c.Component >= len(mu) {
		return false, fmt.Errorf("%w: %d of %d", ErrInvalidComponent, c.Component, len(mu))
	}
	return c.Op.holds(mu[c.Component], c.Bound), nil
}

// Activity bounds the activity a = exp((μ − μ°)/RT) of one component.
type Activity struct {
	Component int
	Op        Op
	Bound     float64
	// Reference is the reference-state potential μ°.
	Reference float64
	// RT is the gas constant times temperature, in the energy unit of the hull.
	RT float64
}

// Admits implements Constraint.
func (a Activity) Admits(f model.Facet, target []float64) (bool, error) {
	if a.RT <= 0 {
		return false, fmt.Errorf("selector: activity constraint needs RT > 0, got %g", a.RT)
	}
	mu, err := Potentials(f.Plane, len(target))
	if err != nil {
		return false, err
	}
	if a.Component < 0 || a.Component >= len(mu) {
		return false, fmt.Errorf("%w: %d of %d", ErrInvalidComponent, a.Component, len(mu))
	}
	act := math.Exp((mu[a.Component] - a.Reference) / a.RT)
	return a.Op.holds(act, a.Bound), nil
}
