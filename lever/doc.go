// Package lever recovers phase fractions on a selected facet by the lever
// rule and attaches each vertex's phase and internal coordinates.
//
// The target composition x satisfies x = Σ w_i v_i with Σ w_i = 1, where v_i
// are the facet vertices projected to composition space. The weights w_i are
// the phase fractions. A facet whose vertices are affinely dependent yields a
// *SingularSystemError; a target outside the facet yields an
// *InfeasibleWeightsError.
//
// Usage:
//
//	s := lever.New(ledger, index, lever.WithEpsilon(1e-9))
//	verts, err := s.Solve(facet, target)
//	if errors.Is(err, lever.ErrInfeasibleWeights) {
//	    // target is not inside this facet
//	}
package lever
