// Package gridmap maps world-space points and boxes onto the integer
// grid coordinates used by locode, given a world bounding box and a
// maximum depth (spec §4.C).
package gridmap

import (
	"math"
	"math/bits"

	"github.com/aukilabs/go-tooling/pkg/logs"

	"github.com/gridkit/orthotree/geom"
	"github.com/gridkit/orthotree/locode"
)

// World holds the bounding box that every indexed entity is measured
// against, plus the max depth its uniform subdivision is carried to.
type World[P, B any, S geom.Scalar] struct {
	Adaptor  geom.Adaptor[P, B, S]
	Box      B
	MaxDepth int
}

// ComputeBoxFromPoints returns the smallest box enclosing pts. Used
// when the caller does not supply a world box for a point build.
func ComputeBoxFromPoints[P, B any, S geom.Scalar](a geom.Adaptor[P, B, S], pts []P) B {
	dim := a.Dim()
	min := make([]S, dim)
	max := make([]S, dim)
	for i, p := range pts {
		for j := 0; j < dim; j++ {
			c := a.PointComp(p, j)
			if i == 0 || c < min[j] {
				min[j] = c
			}
			if i == 0 || c > max[j] {
				max[j] = c
			}
		}
	}
	return geom.NewBox(a, geom.NewPoint(a, min), geom.NewPoint(a, max))
}

// ComputeBoxFromBoxes returns the smallest box enclosing boxes.
func ComputeBoxFromBoxes[P, B any, S geom.Scalar](a geom.Adaptor[P, B, S], boxes []B) B {
	if len(boxes) == 0 {
		var b B
		return b
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = geom.CombineBox(a, out, b)
	}
	return out
}

// ToGridCoords maps world point p to its grid coordinates at depth
// MaxDepth, clamped to [0, 2^MaxDepth - 1] per dimension (spec §4.C;
// also the "OutOfDomainGeometry" recovery of spec §7: points outside
// the world box are clamped to the nearest edge cell, never
// discarded).
func ToGridCoords[P, B any, S geom.Scalar](w World[P, B, S], p P) []uint64 {
	dim := w.Adaptor.Dim()
	min := w.Adaptor.BoxMin(w.Box)
	max := w.Adaptor.BoxMax(w.Box)
	limit := uint64(1)<<uint(w.MaxDepth) - 1
	out := make([]uint64, dim)
	clamped := false
	for i := 0; i < dim; i++ {
		lo := float64(w.Adaptor.PointComp(min, i))
		hi := float64(w.Adaptor.PointComp(max, i))
		extent := hi - lo
		var g float64
		if extent <= 0 {
			g = 0
		} else {
			g = math.Floor((float64(w.Adaptor.PointComp(p, i)) - lo) / extent * float64(uint64(1)<<uint(w.MaxDepth)))
		}
		gi := clamp(g, 0, float64(limit))
		if gi != g {
			clamped = true
		}
		out[i] = uint64(gi)
	}
	if clamped {
		logs.Debug("point lies outside the world box, clamping to the nearest edge cell")
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EncodePoint maps world point p directly to its leaf location code at
// depth MaxDepth.
func EncodePoint[P, B any, S geom.Scalar](w World[P, B, S], p P) locode.Code {
	coords := ToGridCoords(w, p)
	return locode.Encode(w.Adaptor.Dim(), coords, w.MaxDepth)
}

// CanonicalCode returns the code of the smallest tree cell that fully
// contains box b (spec §4.C/§4.G "canonical node"): the grid
// coordinates of both corners are mapped at MaxDepth, then the code is
// truncated to the depth at which both corners still fall inside the
// same cell.
func CanonicalCode[P, B any, S geom.Scalar](w World[P, B, S], b B) locode.Code {
	dim := w.Adaptor.Dim()
	gMin := ToGridCoords(w, w.Adaptor.BoxMin(b))
	gMax := ToGridCoords(w, w.Adaptor.BoxMax(b))

	// canonical depth = MaxDepth - ceil(log2(max_i(gMax_i XOR gMin_i) + 1))
	var maxXor uint64
	for i := 0; i < dim; i++ {
		x := gMax[i] ^ gMin[i]
		if x > maxXor {
			maxXor = x
		}
	}
	depth := w.MaxDepth
	if maxXor != 0 {
		shrink := bits.Len64(maxXor)
		depth = w.MaxDepth - shrink
		if depth < 0 {
			depth = 0
		}
	}
	coords := make([]uint64, dim)
	for i := 0; i < dim; i++ {
		coords[i] = gMin[i] >> uint(w.MaxDepth-depth)
	}
	return locode.Encode(dim, coords, depth)
}

// CellBox reconstructs the world-space box of the cell identified by
// code c, given the world box and max depth (spec §3's "optional
// cached box ... reconstructable from code + world box").
func CellBox[P, B any, S geom.Scalar](w World[P, B, S], c locode.Code) B {
	dim := w.Adaptor.Dim()
	coords, depth := locode.Decode(dim, c)
	min := w.Adaptor.BoxMin(w.Box)
	max := w.Adaptor.BoxMax(w.Box)

	var minP, maxP P
	for i := 0; i < dim; i++ {
		lo := float64(w.Adaptor.PointComp(min, i))
		hi := float64(w.Adaptor.PointComp(max, i))
		extent := hi - lo
		cellsAtDepth := float64(uint64(1) << uint(depth))
		cellSize := extent / cellsAtDepth
		cellLo := lo + float64(coords[i])*cellSize
		cellHi := cellLo + cellSize
		w.Adaptor.SetPointComp(&minP, i, S(cellLo))
		w.Adaptor.SetPointComp(&maxP, i, S(cellHi))
	}
	return geom.NewBox(w.Adaptor, minP, maxP)
}
