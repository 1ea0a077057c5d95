// Package testutil provides testing utilities for hullmap.
//
// This package is intended for use in tests and examples only.
// It provides synthetic phase samplers and helpers for checking
// equilibrium results.
//
// # Synthetic Phases
//
//	liquid := testutil.Binary{ID: "LIQUID", G1: 0.2, RT: 1, Points: 40}
//	fcc := testutil.Compound{ID: "FCC_A1", X: 0.5, G: -1}
//	m.Populate(ctx, liquid, fcc)
//
// # Checking Results
//
//	res, _ := m.Solve(ctx, []float64{0.3})
//	testutil.FractionSum(res)    // 1
//	testutil.Composition(res, 1) // [0.3]
package testutil
