// Package hull defines the convex hull builder contract consumed by hullmap
// and ships two reference builders.
//
// A Builder receives the dense, positional sequence of global points and
// returns facets naming vertex positions within that sequence. Positions are
// translated back to PointIDs through a Table, which is the identity unless
// points were excluded from the hull input.
//
// # Built-in Builders
//
//   - Monotone: Andrew's monotone chain for 2-D input (binary systems), O(n log n)
//   - Exhaustive: brute-force facet enumeration in any dimension for small inputs
//   - Auto: Monotone for 2-D input, Exhaustive otherwise
//
// Production callers with large higher-dimensional point sets should plug in
// a qhull-class implementation of Builder.
//
// An empty or degenerate point set (affine rank below the dimensionality)
// yields ErrDegenerateHull.
package hull
