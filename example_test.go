package hullmap_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hupe1980/hullmap"
	"github.com/hupe1980/hullmap/blobstore"
	"github.com/hupe1980/hullmap/selector"
	"github.com/hupe1980/hullmap/testutil"
)

// Example demonstrates a two-phase lever rule on a binary system.
func Example() {
	ctx := context.Background()

	m, err := hullmap.New(2) // x_B and Gibbs energy
	if err != nil {
		log.Fatal(err)
	}

	m.AddPhase(ctx, "ALPHA", []hullmap.Sample{
		{Internal: []float64{1, 0}, Global: []float64{0.2, -1}},
	})
	m.AddPhase(ctx, "BETA", []hullmap.Sample{
		{Internal: []float64{0, 1}, Global: []float64{0.8, -1}},
	})
	m.AddPhase(ctx, "LIQUID", []hullmap.Sample{
		{Internal: []float64{0.5, 0.5}, Global: []float64{0.5, 0}},
	})

	if _, err := m.BuildHull(ctx); err != nil {
		log.Fatal(err)
	}

	res, err := m.Solve(ctx, []float64{0.35})
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range res {
		fmt.Printf("%s %.2f\n", r.Phase, r.Fraction)
	}
	// Output:
	// ALPHA 0.75
	// BETA 0.25
}

// ExampleMap_Populate samples phases in parallel and merges them in order.
func ExampleMap_Populate() {
	ctx := context.Background()

	m, _ := hullmap.New(2)
	spans, err := m.Populate(ctx,
		testutil.Binary{ID: "LIQUID", RT: 1, Points: 20},
		testutil.Compound{ID: "AB", X: 0.5, G: -1},
	)
	if err != nil {
		log.Fatal(err)
	}
	for _, s := range spans {
		fmt.Printf("%s [%d, %d)\n", s.Phase, s.Start, s.End)
	}
	// Output:
	// LIQUID [0, 21)
	// AB [21, 22)
}

// ExampleMap_Solve_activity restricts equilibrium to facets where the
// chemical potential of the first component stays below a bound.
func ExampleMap_Solve_activity() {
	ctx := context.Background()

	m, _ := hullmap.New(2)
	m.AddPhase(ctx, "A", testutil.Points([]float64{0, 0}, []float64{0.5, -1}, []float64{1, 0}))
	m.BuildHull(ctx)

	res, _ := m.Solve(ctx, []float64{0.5},
		selector.ChemicalPotential{Component: 0, Op: selector.LessEqual, Bound: -1})
	fmt.Println(testutil.Describe(res))
	// Output: [A@1=1.000 A@2=0.000]
}

// ExampleWithDiagnostics archives failing passes for later replay.
func ExampleWithDiagnostics() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	m, _ := hullmap.New(2, hullmap.WithDiagnostics(store))
	m.AddPhase(ctx, "A", testutil.Points([]float64{0, 0}, []float64{1, 0}))

	_, err := m.BuildHull(ctx)
	fmt.Println(errors.Is(err, hullmap.ErrDegenerateHull))

	names, _ := store.List(ctx, "diagnostics/")
	fmt.Println(names)
	// Output:
	// true
	// [diagnostics/pass-000000-degenerate.hmap]
}
