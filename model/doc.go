// Package model defines core types used throughout hullmap.
//
// # Identity Types
//
//   - PointID: Ledger-wide, monotonically increasing sample identifier (uint64)
//   - PhaseID: Identity of the phase that contributed a sample (string)
//
// # Geometry Types
//
//   - Point: Immutable coordinate vector (internal or global space)
//   - Hyperplane: Supporting hyperplane of a hull facet (Normal·p + Offset = 0)
//   - Facet: Hull facet expressed as vertex PointIDs plus its hyperplane
//   - Candidate: Facet that survived constraint filtering
//
// Facets and candidates never own coordinates. Every coordinate lookup goes
// back through the ledger by PointID.
package model
