package orthotree

import (
	"math"
	"sort"
	"sync"

	"github.com/gridkit/orthotree/geom"
	"github.com/gridkit/orthotree/gridmap"
	"github.com/gridkit/orthotree/locode"
	"github.com/gridkit/orthotree/nodetable"
)

// RangeSearch collects the ids of every point whose cell intersects
// query and which itself lies inside query (spec §4.H). points is
// indexed by entity id, mirroring the Core query convention (the tree
// owns no entity memory). fullyContained is accepted for symmetry
// with the box-tree overload but has no effect: a point has no
// extent, so "contained" and "overlapping" coincide.
func (t *PointTree[P, B, S]) RangeSearch(points []P, query B, fullyContained bool) []int {
	instrumentQuery("RangeSearch")
	seen := make(map[int]bool)
	var out []int
	t.VisitNodes(
		func(code locode.Code, _ *nodetable.Node) bool {
			cell := gridmap.CellBox(t.world, code)
			return geom.BoxesOverlap(t.adaptor, cell, query)
		},
		func(_ locode.Code, node *nodetable.Node) {
			for _, id := range node.EntityIDs {
				if seen[id] || id < 0 || id >= len(points) {
					continue
				}
				if geom.BoxContainsPoint(t.adaptor, query, points[id]) {
					seen[id] = true
					out = append(out, id)
				}
			}
		},
	)
	sort.Ints(out)
	return out
}

// PickSearch returns the ids of points equal to query (spec §4.H: "a
// point contains" the queried point iff it coincides with it).
func (t *PointTree[P, B, S]) PickSearch(points []P, query P) []int {
	instrumentQuery("PickSearch")
	leaf := gridmap.EncodePoint(t.world, query)
	var out []int
	dim := t.adaptor.Dim()
	for d := locode.Depth(dim, leaf); d >= 0; d-- {
		anc := locode.AncestorAtDepth(dim, leaf, d)
		node, ok := t.table.Get(anc)
		if !ok {
			continue
		}
		for _, id := range node.EntityIDs {
			if id < 0 || id >= len(points) {
				continue
			}
			if geom.PointEqual(t.adaptor, points[id], query) {
				out = append(out, id)
			}
		}
	}
	sort.Ints(out)
	return out
}

// RayIntersectedAll returns every point within tol of the ray
// origin+s*dir (s >= 0), with per-entity parameter distances,
// ascending.
func (t *PointTree[P, B, S]) RayIntersectedAll(points []P, origin, dir P, tol float64) []RayHit {
	instrumentQuery("RayIntersectedAll")
	var hits []RayHit
	t.VisitNodes(
		func(code locode.Code, _ *nodetable.Node) bool {
			return true // point cells have no extent to slab-test; every node is cheap to visit
		},
		func(_ locode.Code, node *nodetable.Node) {
			for _, id := range node.EntityIDs {
				if id < 0 || id >= len(points) {
					continue
				}
				s, perp := pointToRayParams(t.adaptor, origin, dir, points[id])
				if s >= 0 && perp <= tol {
					hits = append(hits, RayHit{ID: id, Distance: s})
				}
			}
		},
	)
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	return hits
}

// RayIntersectedFirst is RayIntersectedAll narrowed to the single
// nearest hit.
func (t *PointTree[P, B, S]) RayIntersectedFirst(points []P, origin, dir P, tol float64) (RayHit, bool) {
	hits := t.RayIntersectedAll(points, origin, dir, tol)
	if len(hits) == 0 {
		return RayHit{}, false
	}
	return hits[0], true
}

func pointToRayParams[P, B any, S geom.Scalar](a geom.Adaptor[P, B, S], origin, dir, p P) (s, perpDist float64) {
	dim := a.Dim()
	var dot, dirSq float64
	for i := 0; i < dim; i++ {
		d := float64(a.PointComp(dir, i))
		v := float64(a.PointComp(p, i)) - float64(a.PointComp(origin, i))
		dot += d * v
		dirSq += d * d
	}
	if dirSq == 0 {
		return 0, math.Sqrt(geom.SquaredDistance(a, origin, p))
	}
	s = dot / dirSq
	var closestSq float64
	for i := 0; i < dim; i++ {
		d := float64(a.PointComp(dir, i))
		v := float64(a.PointComp(p, i)) - float64(a.PointComp(origin, i))
		diff := v - s*d
		closestSq += diff * diff
	}
	return s, math.Sqrt(closestSq)
}

// PlaneSearch returns the ids of points lying within tol of the
// hyperplane normal·x = offset.
func (t *PointTree[P, B, S]) PlaneSearch(points []P, normal []float64, offset, tol float64) []int {
	instrumentQuery("PlaneSearch")
	var out []int
	for id, p := range points {
		if geom.PointPlaneSide(t.adaptor, p, normal, offset, tol) == 0 {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// PlanePositiveSegmentation returns the ids of points on the positive
// side of, or on, the hyperplane.
func (t *PointTree[P, B, S]) PlanePositiveSegmentation(points []P, normal []float64, offset, tol float64) []int {
	instrumentQuery("PlanePositiveSegmentation")
	var out []int
	for id, p := range points {
		if geom.PointPlaneSide(t.adaptor, p, normal, offset, tol) >= 0 {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// FrustumCulling returns the ids of points on the positive side of
// every plane in planes.
func (t *PointTree[P, B, S]) FrustumCulling(points []P, planes []Plane, tol float64) []int {
	instrumentQuery("FrustumCulling")
	var out []int
	for id, p := range points {
		inside := true
		for _, pl := range planes {
			if geom.PointPlaneSide(t.adaptor, p, pl.Normal, pl.Offset, tol) < 0 {
				inside = false
				break
			}
		}
		if inside {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// Plane is a hyperplane normal·x = offset, used by
// PlaneIntersection/PlanePositiveSegmentation/FrustumCulling.
type Plane struct {
	Normal []float64
	Offset float64
}

// RayHit is one entity intersected by a ray, with its distance along
// the ray's parameter.
type RayHit struct {
	ID       int
	Distance float64
}

// --- Box tree query engine ---

// RangeSearch collects the ids of boxes whose cell intersects query
// (spec §4.H), filtered by the fully_contained flag: when true, only
// boxes fully inside query are kept; when false, any overlap counts.
func (t *BoxTree[P, B, S]) RangeSearch(boxes []B, query B, fullyContained bool) []int {
	instrumentQuery("RangeSearch")
	seen := make(map[int]bool)
	var out []int
	t.VisitNodes(
		func(code locode.Code, _ *nodetable.Node) bool {
			cell := gridmap.CellBox(t.world, code)
			return geom.BoxesOverlap(t.adaptor, cell, query)
		},
		func(_ locode.Code, node *nodetable.Node) {
			for _, id := range node.EntityIDs {
				if seen[id] || id < 0 || id >= len(boxes) {
					continue
				}
				ok := geom.BoxesOverlapStrict(t.adaptor, boxes[id], query)
				if ok && fullyContained {
					ok = geom.BoxContainsBox(t.adaptor, query, boxes[id])
				}
				if ok {
					seen[id] = true
					out = append(out, id)
				}
			}
		},
	)
	sort.Ints(out)
	return out
}

// PickSearch returns the ids of boxes containing query.
func (t *BoxTree[P, B, S]) PickSearch(boxes []B, query P) []int {
	instrumentQuery("PickSearch")
	seen := make(map[int]bool)
	var out []int
	t.VisitNodes(
		func(code locode.Code, _ *nodetable.Node) bool {
			cell := gridmap.CellBox(t.world, code)
			return geom.BoxContainsPoint(t.adaptor, cell, query)
		},
		func(_ locode.Code, node *nodetable.Node) {
			for _, id := range node.EntityIDs {
				if seen[id] || id < 0 || id >= len(boxes) {
					continue
				}
				if geom.BoxContainsPoint(t.adaptor, boxes[id], query) {
					seen[id] = true
					out = append(out, id)
				}
			}
		},
	)
	sort.Ints(out)
	return out
}

// Pair is an ordered pair of colliding entity ids, Lo < Hi.
type Pair struct {
	Lo, Hi int
}

// CollisionDetection (a.k.a. SelfConflict) returns every pair of boxes
// that overlap, deduplicated by (min id, max id) — necessary once
// AdditionalSplitDepth replicates an entity into more than one node
// (spec §4.G/§4.H). The sequential and parallel-unsequenced execution
// modes produce the same deterministic, id-pair-sorted output; the
// parallel mode only changes the order nodes are scanned in.
func (t *BoxTree[P, B, S]) CollisionDetection(boxes []B, exec Execution) []Pair {
	instrumentQuery("CollisionDetection")
	codes := t.table.Codes()

	scan := func(code locode.Code) []Pair {
		node, ok := t.table.Get(code)
		if !ok {
			return nil
		}
		var pairs []Pair
		owned := node.EntityIDs
		for i := 0; i < len(owned); i++ {
			for j := i + 1; j < len(owned); j++ {
				if boxesOverlapByID(t.adaptor, boxes, owned[i], owned[j]) {
					pairs = append(pairs, orderedPair(owned[i], owned[j]))
				}
			}
		}
		dim := t.adaptor.Dim()
		for anc := code; anc != locode.Root; {
			anc = locode.Parent(dim, anc)
			ancNode, ok := t.table.Get(anc)
			if !ok {
				continue
			}
			for _, a := range owned {
				for _, b := range ancNode.EntityIDs {
					// Split-depth replication can place the same id in
					// an ancestor too; an entity never collides with itself.
					if a != b && boxesOverlapByID(t.adaptor, boxes, a, b) {
						pairs = append(pairs, orderedPair(a, b))
					}
				}
			}
		}
		return pairs
	}

	var all []Pair
	if exec == ParallelUnsequenced && len(codes) > 0 {
		results := make([][]Pair, len(codes))
		var wg sync.WaitGroup
		for i, code := range codes {
			wg.Add(1)
			go func(i int, code locode.Code) {
				defer wg.Done()
				results[i] = scan(code)
			}(i, code)
		}
		wg.Wait()
		for _, r := range results {
			all = append(all, r...)
		}
	} else {
		for _, code := range codes {
			all = append(all, scan(code)...)
		}
	}

	seen := make(map[Pair]bool, len(all))
	out := make([]Pair, 0, len(all))
	for _, p := range all {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lo != out[j].Lo {
			return out[i].Lo < out[j].Lo
		}
		return out[i].Hi < out[j].Hi
	})
	return out
}

func boxesOverlapByID[P, B any, S geom.Scalar](a geom.Adaptor[P, B, S], boxes []B, i, j int) bool {
	if i < 0 || j < 0 || i >= len(boxes) || j >= len(boxes) {
		return false
	}
	return geom.BoxesOverlapStrict(a, boxes[i], boxes[j])
}

func orderedPair(a, b int) Pair {
	if a < b {
		return Pair{Lo: a, Hi: b}
	}
	return Pair{Lo: b, Hi: a}
}

// RayIntersectedAll visits, breadth-first in child-index order, every
// node whose cell passes raySlabTest, and returns every box that
// itself passes raySlabTest (ray origin + s*dir, s >= 0), sorted by
// entry parameter, nearest first. Children are not visited in ray
// order; the ordering comes from the final sort.
func (t *BoxTree[P, B, S]) RayIntersectedAll(boxes []B, origin, dir P, tol float64) []RayHit {
	instrumentQuery("RayIntersectedAll")
	seen := make(map[int]bool)
	var hits []RayHit
	t.VisitNodes(
		func(code locode.Code, _ *nodetable.Node) bool {
			cell := gridmap.CellBox(t.world, code)
			_, ok := raySlabTest(t.adaptor, cell, origin, dir, tol)
			return ok
		},
		func(_ locode.Code, node *nodetable.Node) {
			for _, id := range node.EntityIDs {
				if seen[id] || id < 0 || id >= len(boxes) {
					continue
				}
				if s, ok := raySlabTest(t.adaptor, boxes[id], origin, dir, tol); ok {
					seen[id] = true
					hits = append(hits, RayHit{ID: id, Distance: s})
				}
			}
		},
	)
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	return hits
}

// RayIntersectedFirst is RayIntersectedAll narrowed to the nearest hit.
func (t *BoxTree[P, B, S]) RayIntersectedFirst(boxes []B, origin, dir P, tol float64) (RayHit, bool) {
	hits := t.RayIntersectedAll(boxes, origin, dir, tol)
	if len(hits) == 0 {
		return RayHit{}, false
	}
	return hits[0], true
}

// raySlabTest is the classic per-axis slab test for ray/box
// intersection, generalized to D dimensions (grounded on the AABB
// broad-phase ray queries in jakecoffman-cp's bb.go SegmentQuery).
// Returns the entry parameter s and whether the ray hits the box
// within [−tol, +inf).
func raySlabTest[P, B any, S geom.Scalar](a geom.Adaptor[P, B, S], b B, origin, dir P, tol float64) (float64, bool) {
	bMin, bMax := a.BoxMin(b), a.BoxMax(b)
	tMin, tMax := math.Inf(-1), math.Inf(1)
	for i := 0; i < a.Dim(); i++ {
		o := float64(a.PointComp(origin, i))
		d := float64(a.PointComp(dir, i))
		lo := float64(a.PointComp(bMin, i))
		hi := float64(a.PointComp(bMax, i))
		if math.Abs(d) < 1e-12 {
			if o < lo-tol || o > hi+tol {
				return 0, false
			}
			continue
		}
		t1, t2 := (lo-o)/d, (hi-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < -tol {
		return 0, false
	}
	if tMin < 0 {
		tMin = 0
	}
	return tMin, true
}

// PlaneIntersection returns the ids of boxes that straddle the
// hyperplane (spec §4.H).
func (t *BoxTree[P, B, S]) PlaneIntersection(boxes []B, normal []float64, offset, tol float64) []int {
	return t.planeQuery(boxes, normal, offset, tol, 0)
}

// PlanePositiveSegmentation returns the ids of boxes entirely on, or
// straddling onto, the positive side of the hyperplane.
func (t *BoxTree[P, B, S]) PlanePositiveSegmentation(boxes []B, normal []float64, offset, tol float64) []int {
	return t.planeQuery(boxes, normal, offset, tol, 1)
}

// mode: 0 = straddling only, 1 = positive-or-straddling.
func (t *BoxTree[P, B, S]) planeQuery(boxes []B, normal []float64, offset, tol float64, mode int) []int {
	instrumentQuery("PlaneQuery")
	seen := make(map[int]bool)
	var out []int
	t.VisitNodes(
		func(code locode.Code, _ *nodetable.Node) bool {
			cell := gridmap.CellBox(t.world, code)
			side := geom.PlaneSide(t.adaptor, cell, normal, offset, tol)
			if mode == 0 {
				return side == 0
			}
			return side >= 0
		},
		func(_ locode.Code, node *nodetable.Node) {
			for _, id := range node.EntityIDs {
				if seen[id] || id < 0 || id >= len(boxes) {
					continue
				}
				side := geom.PlaneSide(t.adaptor, boxes[id], normal, offset, tol)
				keep := side == 0
				if mode == 1 {
					keep = side >= 0
				}
				if keep {
					seen[id] = true
					out = append(out, id)
				}
			}
		},
	)
	sort.Ints(out)
	return out
}

// FrustumCulling returns the ids of boxes that intersect the
// conjunction of positive-segmentations of every plane in planes
// (spec §4.H).
func (t *BoxTree[P, B, S]) FrustumCulling(boxes []B, planes []Plane, tol float64) []int {
	instrumentQuery("FrustumCulling")
	seen := make(map[int]bool)
	var out []int
	t.VisitNodes(
		func(code locode.Code, _ *nodetable.Node) bool {
			cell := gridmap.CellBox(t.world, code)
			for _, pl := range planes {
				if geom.PlaneSide(t.adaptor, cell, pl.Normal, pl.Offset, tol) < 0 {
					return false
				}
			}
			return true
		},
		func(_ locode.Code, node *nodetable.Node) {
			for _, id := range node.EntityIDs {
				if seen[id] || id < 0 || id >= len(boxes) {
					continue
				}
				inside := true
				for _, pl := range planes {
					if geom.PlaneSide(t.adaptor, boxes[id], pl.Normal, pl.Offset, tol) < 0 {
						inside = false
						break
					}
				}
				if inside {
					seen[id] = true
					out = append(out, id)
				}
			}
		},
	)
	sort.Ints(out)
	return out
}
