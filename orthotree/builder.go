package orthotree

import (
	"runtime"
	"sort"
	"sync"

	"github.com/gridkit/orthotree/geom"
	"github.com/gridkit/orthotree/gridmap"
	"github.com/gridkit/orthotree/locode"
	"github.com/gridkit/orthotree/nodetable"
)

type codeEntry struct {
	code locode.Code
	id   int
}

// NewPointTree bulk-builds a point tree over points (spec §4.E/§4.F).
// ids[i] is the entity identifier for points[i]; pass nil to use the
// slice index itself as the id.
func NewPointTree[P, B any, S geom.Scalar](adaptor geom.Adaptor[P, B, S], points []P, ids []int, opts Options[P, B, S]) (*PointTree[P, B, S], error) {
	opts = opts.normalized()
	if err := validate(adaptor, opts); err != nil {
		return nil, err
	}

	worldBox := resolveWorldBox(adaptor, opts.WorldBox, func() B {
		return gridmap.ComputeBoxFromPoints(adaptor, points)
	})
	if err := checkWorldBox(adaptor, worldBox); err != nil {
		return nil, err
	}

	world := gridmap.World[P, B, S]{Adaptor: adaptor, Box: worldBox, MaxDepth: opts.MaxDepth}
	entries := computeEntryCodes(len(points), opts.Execution, ids, func(i int) locode.Code {
		return gridmap.EncodePoint(world, points[i])
	})
	sort.SliceStable(entries, func(i, j int) bool { return locode.Less(entries[i].code, entries[j].code) })

	t := &PointTree[P, B, S]{base: base[P, B, S]{
		adaptor:            adaptor,
		world:              world,
		table:              nodetable.New(adaptor.Dim()),
		maxElementsPerNode: opts.MaxElementsPerNode,
		owner:              make(map[int][]locode.Code, len(points)),
	}}
	placePoints(adaptor.Dim(), t.table, t.owner, entries, 0, opts.MaxDepth, opts.MaxElementsPerNode)
	instrumentNodeCount(t.Len())
	return t, nil
}

// NewBoxTree bulk-builds a box tree over boxes (spec §4.E/§4.G).
func NewBoxTree[P, B any, S geom.Scalar](adaptor geom.Adaptor[P, B, S], boxes []B, ids []int, opts Options[P, B, S]) (*BoxTree[P, B, S], error) {
	opts = opts.normalized()
	if err := validate(adaptor, opts); err != nil {
		return nil, err
	}

	worldBox := resolveWorldBox(adaptor, opts.WorldBox, func() B {
		return gridmap.ComputeBoxFromBoxes(adaptor, boxes)
	})
	if err := checkWorldBox(adaptor, worldBox); err != nil {
		return nil, err
	}

	world := gridmap.World[P, B, S]{Adaptor: adaptor, Box: worldBox, MaxDepth: opts.MaxDepth}
	t := &BoxTree[P, B, S]{base: base[P, B, S]{
		adaptor:              adaptor,
		world:                world,
		table:                nodetable.New(adaptor.Dim()),
		maxElementsPerNode:   opts.MaxElementsPerNode,
		additionalSplitDepth: *opts.AdditionalSplitDepth,
		owner:                make(map[int][]locode.Code, len(boxes)),
	}}

	for i, b := range boxes {
		id := i
		if ids != nil {
			id = ids[i]
		}
		canonical := gridmap.CanonicalCode(world, b)
		t.replicate(canonical, b, id, 0)
	}
	instrumentNodeCount(t.Len())
	return t, nil
}

func resolveWorldBox[P, B any, S geom.Scalar](adaptor geom.Adaptor[P, B, S], supplied *B, compute func() B) B {
	if supplied != nil {
		return *supplied
	}
	return compute()
}

// computeEntryCodes fills in one codeEntry per item, sequentially or
// by fanning the per-item code function out across worker goroutines
// (spec §5's parallel-unsequenced execution mode). The fold-into-table
// and sort steps that follow always run sequentially: no third-party
// parallel-sort primitive exists anywhere in the retrieval pack, so
// parallelism is confined to the embarrassingly-parallel code
// computation step.
func computeEntryCodes(n int, exec Execution, ids []int, codeOf func(i int) locode.Code) []codeEntry {
	entries := make([]codeEntry, n)
	idOf := func(i int) int {
		if ids != nil {
			return ids[i]
		}
		return i
	}

	if exec != ParallelUnsequenced || n == 0 {
		for i := 0; i < n; i++ {
			entries[i] = codeEntry{code: codeOf(i), id: idOf(i)}
		}
		return entries
	}

	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				entries[i] = codeEntry{code: codeOf(i), id: idOf(i)}
			}
		}(start, end)
	}
	wg.Wait()
	return entries
}

// placePoints folds sorted entries into the node table, implementing
// both the streaming-merge fold (spec §4.E step 4) and the
// no-split-for-small-node collapse (invariant 5) in one recursive
// bucketing pass: a span of entries sharing a common prefix is placed
// directly at that prefix's node once its size drops to m or fewer, or
// once MaxDepth is reached, instead of being split further.
func placePoints(dim int, table *nodetable.Table, owner map[int][]locode.Code, entries []codeEntry, depth, maxDepth, m int) {
	if len(entries) == 0 {
		return
	}
	if len(entries) <= m || depth == maxDepth {
		code := locode.AncestorAtDepth(dim, entries[0].code, depth)
		node := table.GetOrCreate(code)
		for _, e := range entries {
			node.AddEntity(e.id)
			owner[e.id] = append(owner[e.id], e.code)
		}
		return
	}

	start := 0
	for start < len(entries) {
		childIdx := locode.ChildIndexAtDepth(dim, entries[start].code, depth+1)
		end := start + 1
		for end < len(entries) && locode.ChildIndexAtDepth(dim, entries[end].code, depth+1) == childIdx {
			end++
		}
		placePoints(dim, table, owner, entries[start:end], depth+1, maxDepth, m)
		start = end
	}
}

// replicate places id at code and, while within the box tree's
// additional split depth, recurses into every child cell that
// overlaps b (spec §4.G).
func (t *BoxTree[P, B, S]) replicate(code locode.Code, b B, id int, k int) {
	node := t.table.GetOrCreate(code)
	node.AddEntity(id)
	t.owner[id] = append(t.owner[id], code)

	dim := t.adaptor.Dim()
	depth := locode.Depth(dim, code)
	if k >= t.additionalSplitDepth || depth >= t.world.MaxDepth {
		return
	}
	for i := uint64(0); i < uint64(locode.ChildCount(dim)); i++ {
		childCode := locode.Child(dim, code, i)
		childBox := gridmap.CellBox(t.world, childCode)
		if geom.BoxesOverlap(t.adaptor, childBox, b) {
			t.replicate(childCode, b, id, k+1)
		}
	}
}
