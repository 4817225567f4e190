// Package locode implements the location-code algebra: encoding a grid
// cell at a given depth into a single self-delimiting integer via
// bit-interleaved Morton order, and the parent/child/ancestor
// arithmetic over that encoding.
//
// The Morton interleave itself is grounded on the bit-expansion trick
// in other_examples/VoxelsPlace-VOPL's morton3D (expand-and-or per
// dimension), generalized here from a fixed 3 dimensions to a runtime
// dimension count.
package locode

import "math/bits"

// MaxDim is the hard ceiling on dimension count (spec §1/§4.B).
const MaxDim = 63

// MaxDepth is the hard ceiling on tree depth (spec §1/§4.B).
const MaxDepth = 10

// Code is a self-delimiting location code: D bits per level, one level
// per depth step, plus a sentinel bit at position D*depth marking the
// code's length. A uint64 is wide enough for every legal (D, depth)
// combination, since the contract requires D*MaxDepth <= 63.
type Code uint64

// Root is the code of the (depth-0) root cell.
const Root Code = 1

// Encode interleaves D grid coordinates, each `depth` bits wide, into a
// single Code. coords[j] contributes bit k (0-indexed from the
// coarsest level) to level (depth-1-k)'s j-th bit within that level's
// D-bit group, most-significant-dimension-first, per spec §4.B's
// tie-break rule: child index i's bit j is 1 iff the cell lies in the
// upper half along dimension j.
func Encode(dim int, coords []uint64, depth int) Code {
	code := Root
	for level := depth - 1; level >= 0; level-- {
		var childIdx uint64
		for j := dim - 1; j >= 0; j-- {
			bit := (coords[j] >> uint(level)) & 1
			childIdx = (childIdx << 1) | bit
		}
		code = Code(uint64(code)<<uint(dim) | childIdx)
	}
	return code
}

// Decode inverts Encode, returning the grid coordinates and depth
// encoded in c.
func Decode(dim int, c Code) (coords []uint64, depth int) {
	depth = Depth(dim, c)
	coords = make([]uint64, dim)
	v := uint64(c) &^ (uint64(1) << uint(dim*depth))
	for level := 0; level < depth; level++ {
		childIdx := v & ((uint64(1) << uint(dim)) - 1)
		v >>= uint(dim)
		for j := 0; j < dim; j++ {
			bit := (childIdx >> uint(j)) & 1
			coords[j] |= bit << uint(level)
		}
	}
	return coords, depth
}

// Depth returns the number of levels encoded in c: the bit-length of
// c's meaningful prefix (everything below the sentinel bit) divided by
// dim.
func Depth(dim int, c Code) int {
	// bits.Len returns 1 + index of the highest set bit; the sentinel
	// bit is that highest set bit, so the prefix below it is
	// (bits.Len-1) bits wide.
	return (bits.Len64(uint64(c)) - 1) / dim
}

// Parent strips the last dim bits from c, i.e. moves up one level.
// Parent(Root) is Root (the root has no parent; callers must check
// depth before calling).
func Parent(dim int, c Code) Code {
	return Code(uint64(c) >> uint(dim))
}

// Child appends child index i (0 <= i < 2^dim) to c, i.e. descends one
// level into the i-th child cell.
func Child(dim int, c Code, i uint64) Code {
	return Code(uint64(c)<<uint(dim) | i)
}

// ChildCount is 2^dim, the number of children a node may have.
func ChildCount(dim int) int {
	return 1 << uint(dim)
}

// IsAncestor reports whether a is a strict or non-strict prefix of b,
// i.e. a's cell contains or equals b's cell.
func IsAncestor(dim int, a, b Code) bool {
	da, db := Depth(dim, a), Depth(dim, b)
	if da > db {
		return false
	}
	shift := uint((db - da) * dim)
	return Code(uint64(b)>>shift) == a
}

// CommonAncestor returns the longest code that is a prefix of both a
// and b.
func CommonAncestor(dim int, a, b Code) Code {
	da, db := Depth(dim, a), Depth(dim, b)
	for da > db {
		a = Parent(dim, a)
		da--
	}
	for db > da {
		b = Parent(dim, b)
		db--
	}
	for a != b {
		a = Parent(dim, a)
		b = Parent(dim, b)
		da--
	}
	return a
}

// AncestorAtDepth returns the prefix of c at the given depth (depth <=
// Depth(dim, c)).
func AncestorAtDepth(dim int, c Code, depth int) Code {
	d := Depth(dim, c)
	for d > depth {
		c = Parent(dim, c)
		d--
	}
	return c
}

// ChildIndexAtDepth returns the child index (0 <= i < 2^dim) that was
// appended to reach depth `depth` along c's ancestor chain. depth must
// be in [1, Depth(dim, c)].
func ChildIndexAtDepth(dim int, c Code, depth int) uint64 {
	anc := AncestorAtDepth(dim, c, depth)
	mask := uint64(ChildCount(dim)) - 1
	return uint64(anc) & mask
}

// Less implements the total order from spec §3: depth-major, then
// lexicographic — which is simply numeric order of the sentinel-bit
// form, since a shallower code is always numerically smaller than any
// of its descendants and Morton interleaving preserves lexicographic
// order of siblings.
func Less(a, b Code) bool {
	return a < b
}
