// Package orthotree implements an N-dimensional linear orthotree: a
// flat, map-backed quadtree/octree/etc. generalization that indexes
// caller-supplied points or boxes under Morton location codes. See
// locode, gridmap and nodetable for the pieces it is built from.
package orthotree

import (
	"github.com/gridkit/orthotree/geom"
	"github.com/gridkit/orthotree/gridmap"
	"github.com/gridkit/orthotree/locode"
	"github.com/gridkit/orthotree/nodetable"
)

// Execution selects how the point-tree bulk builder (NewPointTree) and
// CollisionDetection dispatch their internal work. NewBoxTree always
// builds sequentially and ignores it.
type Execution int

const (
	Sequential Execution = iota
	ParallelUnsequenced
)

const (
	defaultMaxDepth             = 8
	defaultMaxElementsPerNode   = 11
	defaultAdditionalSplitDepth = 2
)

// Options configures a tree build. MaxDepth and MaxElementsPerNode
// coerce a zero value to a documented default rather than rejecting
// it; only a MaxDepth that is explicitly out of range is an error.
// AdditionalSplitDepth is a pointer instead, since 0 is itself a
// meaningful, spec-observable configuration (invariant 4: k=0 places
// a box at exactly its canonical node) and must be distinguishable
// from "unspecified, use the default".
type Options[P, B any, S geom.Scalar] struct {
	MaxDepth             int
	MaxElementsPerNode   int
	AdditionalSplitDepth *int // box trees only; nil uses the default
	Execution            Execution
	WorldBox             *B // nil computes the box from the input span
}

func (o Options[P, B, S]) normalized() Options[P, B, S] {
	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}
	if o.MaxElementsPerNode <= 0 {
		o.MaxElementsPerNode = defaultMaxElementsPerNode
	}
	if o.AdditionalSplitDepth == nil {
		k := defaultAdditionalSplitDepth
		o.AdditionalSplitDepth = &k
	}
	return o
}

// base holds everything shared between the point and box tree
// flavors: the world mapping, the node table, and the id-to-owning-code
// side-index used by the edit ops.
type base[P, B any, S geom.Scalar] struct {
	adaptor              geom.Adaptor[P, B, S]
	world                gridmap.World[P, B, S]
	table                *nodetable.Table
	maxElementsPerNode   int
	additionalSplitDepth int
	// owner maps an entity id to the code(s) it was indexed under. For
	// a point tree this is always a single full-resolution leaf code
	// (the entity's geometry at MaxDepth, fixed for its lifetime, never
	// the node that currently owns it, since bulk collapse and demotion
	// keep moving that); for a box tree it is every node the box was
	// replicated into.
	owner map[int][]locode.Code
}

func validate[P, B any, S geom.Scalar](adaptor geom.Adaptor[P, B, S], opts Options[P, B, S]) error {
	dim := adaptor.Dim()
	if opts.MaxDepth > locode.MaxDepth || dim*opts.MaxDepth > 63 {
		return errMisconfiguredDepth(opts.MaxDepth, dim)
	}
	// nodetable.ChildMask is two uint64 words: it can only represent
	// the 2^dim child indices of a node up to dim == 7 (2^7 == 128).
	// Wider dimensions are otherwise legal under the Code ceiling above
	// but would silently drop child bits, so they're rejected here
	// instead.
	if dim > nodetable.MaxChildMaskDim {
		return errDimTooWide(dim)
	}
	return nil
}

func checkWorldBox[P, B any, S geom.Scalar](adaptor geom.Adaptor[P, B, S], box B) error {
	min, max := adaptor.BoxMin(box), adaptor.BoxMax(box)
	for i := 0; i < adaptor.Dim(); i++ {
		if adaptor.PointComp(max, i) <= adaptor.PointComp(min, i) {
			return errDegenerateWorldBox(i)
		}
	}
	return nil
}

// Len returns the number of nodes currently in the tree.
func (b *base[P, B, S]) Len() int {
	return b.table.Len()
}

// Stats is a read-only snapshot of the tree's internal shape, in the
// spirit of a debug-info dump: node count, the deepest depth in use,
// total owned-entity count, and a per-depth histogram of node counts.
type Stats struct {
	NodeCount     int
	MaxDepthInUse int
	EntityCount   int
	NodesPerDepth map[int]int
}

func (b *base[P, B, S]) stats() Stats {
	s := Stats{NodesPerDepth: make(map[int]int)}
	dim := b.adaptor.Dim()
	b.table.Range(func(c locode.Code, n *nodetable.Node) {
		s.NodeCount++
		d := locode.Depth(dim, c)
		s.NodesPerDepth[d]++
		if d > s.MaxDepthInUse {
			s.MaxDepthInUse = d
		}
		s.EntityCount += len(n.EntityIDs)
	})
	return s
}

// VisitNodes performs a breadth-first traversal of the tree, starting
// at the root. selector decides whether a node's subtree is worth
// descending into; procedure is invoked on every accepted node.
func (b *base[P, B, S]) VisitNodes(selector func(locode.Code, *nodetable.Node) bool, procedure func(locode.Code, *nodetable.Node)) {
	if !b.table.Has(locode.Root) {
		return
	}
	queue := []locode.Code{locode.Root}
	dim := b.adaptor.Dim()
	for len(queue) > 0 {
		code := queue[0]
		queue = queue[1:]
		node, ok := b.table.Get(code)
		if !ok {
			continue
		}
		if !selector(code, node) {
			continue
		}
		procedure(code, node)
		for _, i := range node.Children.Indices(locode.ChildCount(dim)) {
			queue = append(queue, locode.Child(dim, code, i))
		}
	}
}

// VisitNodesInDFS is VisitNodes with depth-first order.
func (b *base[P, B, S]) VisitNodesInDFS(selector func(locode.Code, *nodetable.Node) bool, procedure func(locode.Code, *nodetable.Node)) {
	dim := b.adaptor.Dim()
	var walk func(code locode.Code)
	walk = func(code locode.Code) {
		node, ok := b.table.Get(code)
		if !ok {
			return
		}
		if !selector(code, node) {
			return
		}
		procedure(code, node)
		for _, i := range node.Children.Indices(locode.ChildCount(dim)) {
			walk(locode.Child(dim, code, i))
		}
	}
	walk(locode.Root)
}

// PointTree indexes a span of points, one owner node per entity.
type PointTree[P, B any, S geom.Scalar] struct {
	base[P, B, S]
}

// BoxTree indexes a span of boxes at their canonical node, optionally
// replicated into descendant cells up to AdditionalSplitDepth levels.
type BoxTree[P, B any, S geom.Scalar] struct {
	base[P, B, S]
}

func (t *PointTree[P, B, S]) Len() int     { return t.base.Len() }
func (t *PointTree[P, B, S]) Stats() Stats { return t.base.stats() }

func (t *BoxTree[P, B, S]) Len() int     { return t.base.Len() }
func (t *BoxTree[P, B, S]) Stats() Stats { return t.base.stats() }
