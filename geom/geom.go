// Package geom defines the geometry adaptor contract external callers
// implement to let orthotree index their own point and box types, plus
// the predicates derived from that contract.
package geom

import "math"

// Scalar is the coordinate type used by a tree. Real-valued coordinate
// types are supported; integers would make canonical-depth arithmetic
// (§4.C) ambiguous at the grid boundary.
type Scalar interface {
	~float32 | ~float64
}

// Adaptor reads and writes the components of a caller point type P and
// the corner points of a caller box type B, for a fixed dimension
// count D. All other predicates (BoxesOverlap, BoxContainsPoint, ...)
// are derived from these primitives; implementations never need more.
type Adaptor[P, B any, S Scalar] interface {
	// Dim returns the number of dimensions, 0 < Dim() <= 63.
	Dim() int

	// PointComp returns component i of p, i in [0, Dim()).
	PointComp(p P, i int) S

	// SetPointComp sets component i of p.
	SetPointComp(p *P, i int, v S)

	// BoxMin and BoxMax return the corner points of b.
	BoxMin(b B) P
	BoxMax(b B) P

	// SetBoxMin and SetBoxMax write the corner points of b.
	SetBoxMin(b *B, p P)
	SetBoxMax(b *B, p P)
}

// NewPoint builds a zero point and sets its components from comps.
func NewPoint[P, B any, S Scalar](a Adaptor[P, B, S], comps []S) P {
	var p P
	for i, c := range comps {
		a.SetPointComp(&p, i, c)
	}
	return p
}

// NewBox builds a zero box with the given min/max corners.
func NewBox[P, B any, S Scalar](a Adaptor[P, B, S], min, max P) B {
	var b B
	a.SetBoxMin(&b, min)
	a.SetBoxMax(&b, max)
	return b
}

// EqualWithEpsilon reports whether a and b differ by no more than
// epsilon. Mirrors the teacher's dagaz.EqualWithEpsilon, generalized
// from float32 xyz components to any Scalar.
func EqualWithEpsilon[S Scalar](a, b S, epsilon float64) bool {
	return math.Abs(float64(a-b)) <= epsilon
}

// InRangeWithEpsilon reports whether value lies in [min-epsilon,
// max+epsilon]. Mirrors the teacher's dagaz.InRangeWithEpsilon.
func InRangeWithEpsilon[S Scalar](value, min, max S, epsilon float64) bool {
	return float64(value)+epsilon >= float64(min) && float64(value)-epsilon <= float64(max)
}

// PointEqual reports whether p and q have identical components.
func PointEqual[P, B any, S Scalar](a Adaptor[P, B, S], p, q P) bool {
	for i := 0; i < a.Dim(); i++ {
		if a.PointComp(p, i) != a.PointComp(q, i) {
			return false
		}
	}
	return true
}

// BoxesOverlap reports whether boxes x and y intersect, including
// touching at a boundary. Used for cell-vs-query node pruning, where
// a conservative inclusive test is required: a node must never be
// pruned away when its cell only touches the query at a boundary, or
// an entity sitting right at that boundary would be missed.
func BoxesOverlap[P, B any, S Scalar](a Adaptor[P, B, S], x, y B) bool {
	xMin, xMax := a.BoxMin(x), a.BoxMax(x)
	yMin, yMax := a.BoxMin(y), a.BoxMax(y)
	for i := 0; i < a.Dim(); i++ {
		if a.PointComp(xMin, i) > a.PointComp(yMax, i) || a.PointComp(xMax, i) < a.PointComp(yMin, i) {
			return false
		}
	}
	return true
}

// BoxesOverlapStrict reports whether boxes x and y intersect over a
// positive volume, excluding boundary-only touches. Used for
// entity-level overlap tests (collision detection, range search),
// where two boxes merely touching at a corner or edge do not count as
// colliding.
func BoxesOverlapStrict[P, B any, S Scalar](a Adaptor[P, B, S], x, y B) bool {
	xMin, xMax := a.BoxMin(x), a.BoxMax(x)
	yMin, yMax := a.BoxMin(y), a.BoxMax(y)
	for i := 0; i < a.Dim(); i++ {
		if a.PointComp(xMin, i) >= a.PointComp(yMax, i) || a.PointComp(xMax, i) <= a.PointComp(yMin, i) {
			return false
		}
	}
	return true
}

// BoxContainsBox reports whether outer fully contains inner.
func BoxContainsBox[P, B any, S Scalar](a Adaptor[P, B, S], outer, inner B) bool {
	oMin, oMax := a.BoxMin(outer), a.BoxMax(outer)
	iMin, iMax := a.BoxMin(inner), a.BoxMax(inner)
	for i := 0; i < a.Dim(); i++ {
		if a.PointComp(iMin, i) < a.PointComp(oMin, i) || a.PointComp(iMax, i) > a.PointComp(oMax, i) {
			return false
		}
	}
	return true
}

// BoxContainsPoint reports whether b contains point p (inclusive of
// its boundary).
func BoxContainsPoint[P, B any, S Scalar](a Adaptor[P, B, S], b B, p P) bool {
	bMin, bMax := a.BoxMin(b), a.BoxMax(b)
	for i := 0; i < a.Dim(); i++ {
		c := a.PointComp(p, i)
		if c < a.PointComp(bMin, i) || c > a.PointComp(bMax, i) {
			return false
		}
	}
	return true
}

// CombineBox returns the smallest box enclosing both x and y.
func CombineBox[P, B any, S Scalar](a Adaptor[P, B, S], x, y B) B {
	xMin, xMax := a.BoxMin(x), a.BoxMax(x)
	yMin, yMax := a.BoxMin(y), a.BoxMax(y)
	var min, max P
	for i := 0; i < a.Dim(); i++ {
		lo := a.PointComp(xMin, i)
		if v := a.PointComp(yMin, i); v < lo {
			lo = v
		}
		hi := a.PointComp(xMax, i)
		if v := a.PointComp(yMax, i); v > hi {
			hi = v
		}
		a.SetPointComp(&min, i, lo)
		a.SetPointComp(&max, i, hi)
	}
	return NewBox(a, min, max)
}

// SquaredDistance returns the squared Euclidean distance between p and q.
func SquaredDistance[P, B any, S Scalar](a Adaptor[P, B, S], p, q P) float64 {
	var sum float64
	for i := 0; i < a.Dim(); i++ {
		d := float64(a.PointComp(p, i) - a.PointComp(q, i))
		sum += d * d
	}
	return sum
}

// SquaredDistanceToBox returns the squared Euclidean distance from p
// to the nearest point of box b (0 if p is inside b). Used as the
// admissible lower-bound distance in k-nearest-neighbor search.
func SquaredDistanceToBox[P, B any, S Scalar](a Adaptor[P, B, S], p P, b B) float64 {
	bMin, bMax := a.BoxMin(b), a.BoxMax(b)
	var sum float64
	for i := 0; i < a.Dim(); i++ {
		c := float64(a.PointComp(p, i))
		lo := float64(a.PointComp(bMin, i))
		hi := float64(a.PointComp(bMax, i))
		var d float64
		if c < lo {
			d = lo - c
		} else if c > hi {
			d = c - hi
		}
		sum += d * d
	}
	return sum
}

// PointPlaneSide classifies where a point sits relative to the
// hyperplane defined by normal·x = offset, within tolerance tol. A
// point never straddles a plane, so the result is always -1 or +1
// except within tol of the plane, where it is 0.
func PointPlaneSide[P, B any, S Scalar](a Adaptor[P, B, S], p P, normal []float64, offset, tol float64) int {
	var dot float64
	for i := 0; i < a.Dim(); i++ {
		dot += normal[i] * float64(a.PointComp(p, i))
	}
	dot -= offset
	switch {
	case dot < -tol:
		return -1
	case dot > tol:
		return 1
	default:
		return 0
	}
}

// PlaneSide classifies where a box sits relative to the hyperplane
// defined by normal·x = offset, within tolerance tol:
// -1 entirely negative, +1 entirely positive, 0 straddling.
func PlaneSide[P, B any, S Scalar](a Adaptor[P, B, S], b B, normal []float64, offset, tol float64) int {
	bMin, bMax := a.BoxMin(b), a.BoxMax(b)
	var lo, hi float64
	for i := 0; i < a.Dim(); i++ {
		n := normal[i]
		minC := float64(a.PointComp(bMin, i))
		maxC := float64(a.PointComp(bMax, i))
		if n >= 0 {
			lo += n * minC
			hi += n * maxC
		} else {
			lo += n * maxC
			hi += n * minC
		}
	}
	lo -= offset
	hi -= offset
	switch {
	case hi < -tol:
		return -1
	case lo > tol:
		return 1
	default:
		return 0
	}
}
