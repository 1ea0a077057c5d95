// Package linalg holds the small dense solves shared by the hull builders,
// the candidate selector and the lever solver.
package linalg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// DefaultRankTolerance is the relative singular-value cutoff used for rank
// decisions.
const DefaultRankTolerance = 1e-10

var (
	// ErrSingular is returned when vertices are affinely dependent.
	ErrSingular = errors.New("linalg: affinely dependent vertices")
	// ErrShape is returned for inconsistent input dimensions.
	ErrShape = errors.New("linalg: inconsistent dimensions")
	// ErrInfeasible is returned when no non-negative combination reaches the target.
	ErrInfeasible = errors.New("linalg: no non-negative combination")
)

// SingularError carries the singular values of a rank-deficient system.
type SingularError struct {
	Rank   int
	Want   int
	Values []float64
}

func (e *SingularError) Error() string {
	return fmt.Sprintf("linalg: rank %d < %d (singular values %v)", e.Rank, e.Want, e.Values)
}

func (e *SingularError) Unwrap() error { return ErrSingular }

// Barycentric is the affine decomposition of a target over a vertex set.
type Barycentric struct {
	// Weights has one entry per vertex and sums to 1 up to Residual.
	Weights []float64
	// Residual is the Euclidean norm of the system residual.
	Residual float64
	// Values are the singular values of the system matrix, descending.
	Values []float64
}

// MinWeight returns the smallest weight and its position.
func (b Barycentric) MinWeight() (float64, int) {
	minW, at := math.Inf(1), -1
	for i, w := range b.Weights {
		if w < minW {
			minW, at = w, i
		}
	}
	return minW, at
}

// system builds [v_0 .. v_k-1; 1 .. 1] and [target; 1] using the first
// len(target) coordinates of each vertex.
func system(vertices [][]float64, target []float64) (*mat.Dense, *mat.VecDense, error) {
	m, k := len(target), len(vertices)
	if k == 0 {
		return nil, nil, fmt.Errorf("%w: no vertices", ErrShape)
	}

	a := mat.NewDense(m+1, k, nil)
	for c, v := range vertices {
		if len(v) < m {
			return nil, nil, fmt.Errorf("%w: vertex %d has %d coordinates, target has %d", ErrShape, c, len(v), m)
		}
		for r := 0; r < m; r++ {
			a.Set(r, c, v[r])
		}
		a.Set(m, c, 1)
	}

	b := mat.NewVecDense(m+1, nil)
	for r, t := range target {
		b.SetVec(r, t)
	}
	b.SetVec(m, 1)
	return a, b, nil
}

func rankOf(values []float64, tol float64) int {
	if len(values) == 0 || values[0] == 0 {
		return 0
	}
	rank := 0
	for _, s := range values {
		if s > tol*values[0] {
			rank++
		}
	}
	return rank
}

// Solve computes the barycentric weights of target with respect to vertices
// (projected to len(target) coordinates). The system is solved exactly when
// square and in the least-squares sense when tall. Wide or rank-deficient
// systems return a *SingularError.
func Solve(vertices [][]float64, target []float64) (Barycentric, error) {
	a, b, err := system(vertices, target)
	if err != nil {
		return Barycentric{}, err
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDNone); !ok {
		return Barycentric{}, &SingularError{Want: len(vertices)}
	}
	values := svd.Values(nil)
	if rank := rankOf(values, DefaultRankTolerance); rank < len(vertices) {
		return Barycentric{Values: values}, &SingularError{Rank: rank, Want: len(vertices), Values: values}
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		// A condition warning still yields a solution; the rank check above
		// already rejected genuinely singular systems.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return Barycentric{Values: values}, err
		}
	}

	var r mat.VecDense
	r.MulVec(a, &x)
	r.SubVec(&r, b)

	weights := make([]float64, len(vertices))
	for i := range weights {
		weights[i] = x.AtVec(i)
	}

	return Barycentric{
		Weights:  weights,
		Residual: mat.Norm(&r, 2),
		Values:   values,
	}, nil
}

// Feasible decides by linear programming whether target is a non-negative
// combination of vertices with weights summing to 1. It works for any
// number of vertices, including more than len(target)+1.
func Feasible(vertices [][]float64, target []float64, tol float64) ([]float64, error) {
	a, b, err := system(vertices, target)
	if err != nil {
		return nil, err
	}

	// The simplex method rejects all-zero rows; a zero row is either trivially
	// satisfied or makes the problem infeasible.
	rows, k := a.Dims()
	var keep []int
	for r := 0; r < rows; r++ {
		if mat.Norm(a.RowView(r), math.Inf(1)) > tol {
			keep = append(keep, r)
			continue
		}
		if math.Abs(b.AtVec(r)) > tol {
			return nil, ErrInfeasible
		}
	}

	reduced := mat.NewDense(len(keep), k, nil)
	rhs := make([]float64, len(keep))
	for i, r := range keep {
		reduced.SetRow(i, mat.Row(nil, r, a))
		rhs[i] = b.AtVec(r)
	}

	c := make([]float64, k)
	_, x, err := lp.Simplex(c, reduced, rhs, tol, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return nil, ErrInfeasible
		}
		return nil, fmt.Errorf("linalg: simplex: %w", err)
	}
	return x, nil
}

// Hyperplane returns the unit normal and offset of the hyperplane through d
// points in d dimensions (normal·p + offset = 0). The orientation is
// arbitrary. Affinely dependent points return a *SingularError.
func Hyperplane(points [][]float64) ([]float64, float64, error) {
	d := len(points)
	if d == 0 {
		return nil, 0, fmt.Errorf("%w: no points", ErrShape)
	}

	m := mat.NewDense(d, d+1, nil)
	for i, p := range points {
		if len(p) != d {
			return nil, 0, fmt.Errorf("%w: point %d has %d coordinates, want %d", ErrShape, i, len(p), d)
		}
		for j, v := range p {
			m.Set(i, j, v)
		}
		m.Set(i, d, 1)
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return nil, 0, &SingularError{Want: d}
	}
	values := svd.Values(nil)
	if rank := rankOf(values, DefaultRankTolerance); rank < d {
		return nil, 0, &SingularError{Rank: rank, Want: d, Values: values}
	}

	var v mat.Dense
	svd.VTo(&v)

	// The right singular vector of the missing (zero) singular value spans
	// the null space.
	normal := make([]float64, d)
	var norm float64
	for j := 0; j < d; j++ {
		normal[j] = v.At(j, d)
		norm += normal[j] * normal[j]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil, 0, &SingularError{Rank: d - 1, Want: d, Values: values}
	}

	offset := v.At(d, d) / norm
	for j := range normal {
		normal[j] /= norm
	}
	return normal, offset, nil
}

// AffineRank returns the dimension of the affine hull of points.
func AffineRank(points [][]float64) int {
	n := len(points)
	if n <= 1 {
		return 0
	}
	d := len(points[0])

	m := mat.NewDense(n-1, d, nil)
	for i := 1; i < n; i++ {
		for j := 0; j < d; j++ {
			m.Set(i-1, j, points[i][j]-points[0][j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDNone); !ok {
		return 0
	}
	return rankOf(svd.Values(nil), DefaultRankTolerance)
}
