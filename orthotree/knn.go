package orthotree

import (
	"container/heap"

	"github.com/gridkit/orthotree/geom"
	"github.com/gridkit/orthotree/gridmap"
	"github.com/gridkit/orthotree/locode"
)

// knnItem is either a node awaiting expansion or a concrete entity
// candidate, ordered by ascending lower-bound distance (spec §4.F).
type knnItem struct {
	distance float64
	id       int // valid only when isEntity
	code     locode.Code
	isEntity bool
}

type knnQueue []knnItem

func (q knnQueue) Len() int { return len(q) }
func (q knnQueue) Less(i, j int) bool {
	if q[i].distance != q[j].distance {
		return q[i].distance < q[j].distance
	}
	// Tie-break: entities before nodes, then ascending id, matching
	// spec §4.F/§8's "lower entity id first" rule.
	if q[i].isEntity != q[j].isEntity {
		return q[i].isEntity
	}
	return q[i].id < q[j].id
}
func (q knnQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *knnQueue) Push(x any)        { *q = append(*q, x.(knnItem)) }
func (q *knnQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Neighbor is one result of GetNearestNeighbors, nearest first.
type Neighbor struct {
	ID       int
	Distance float64
}

// GetNearestNeighbors returns the k points nearest to q (spec §4.F).
// Implemented as a priority-queue expansion ordered by ascending
// lower-bound distance: a node's lower bound is its cell box's
// squared distance to q, so it is never popped before a candidate
// entity that is provably closer. points is indexed by entity id.
func (t *PointTree[P, B, S]) GetNearestNeighbors(points []P, q P, k int) []Neighbor {
	instrumentQuery("GetNearestNeighbors")
	if k <= 0 || !t.table.Has(locode.Root) {
		return nil
	}

	pq := &knnQueue{{distance: 0, code: locode.Root}}
	heap.Init(pq)

	var best []Neighbor
	dim := t.adaptor.Dim()
	for pq.Len() > 0 {
		item := heap.Pop(pq).(knnItem)
		if len(best) >= k && item.distance > best[len(best)-1].Distance {
			break
		}
		if item.isEntity {
			best = insertNeighborSorted(best, Neighbor{ID: item.id, Distance: item.distance}, k)
			continue
		}
		node, ok := t.table.Get(item.code)
		if !ok {
			continue
		}
		for _, id := range node.EntityIDs {
			if id < 0 || id >= len(points) {
				continue
			}
			d := geom.SquaredDistance(t.adaptor, q, points[id])
			heap.Push(pq, knnItem{distance: d, id: id, isEntity: true})
		}
		for _, i := range node.Children.Indices(locode.ChildCount(dim)) {
			childCode := locode.Child(dim, item.code, i)
			childBox := gridmap.CellBox(t.world, childCode)
			d := geom.SquaredDistanceToBox(t.adaptor, q, childBox)
			heap.Push(pq, knnItem{distance: d, code: childCode})
		}
	}
	return best
}

func insertNeighborSorted(best []Neighbor, n Neighbor, k int) []Neighbor {
	i := 0
	for i < len(best) && (best[i].Distance < n.Distance || (best[i].Distance == n.Distance && best[i].ID < n.ID)) {
		i++
	}
	best = append(best, Neighbor{})
	copy(best[i+1:], best[i:])
	best[i] = n
	if len(best) > k {
		best = best[:k]
	}
	return best
}

// GetNearestNeighbors for a box tree ranks candidates by squared
// distance to the nearest point of their box (0 when q lies inside
// it), generalizing the point-tree algorithm above. This is a
// supplemented feature: spec §4.F describes GetNearestNeighbors only
// for point trees, but the same priority-queue expansion applies
// verbatim once the per-entity distance metric is box-aware.
func (t *BoxTree[P, B, S]) GetNearestNeighbors(boxes []B, q P, k int) []Neighbor {
	instrumentQuery("GetNearestNeighbors")
	if k <= 0 || !t.table.Has(locode.Root) {
		return nil
	}

	pq := &knnQueue{{distance: 0, code: locode.Root}}
	heap.Init(pq)

	var best []Neighbor
	dim := t.adaptor.Dim()
	seen := make(map[int]bool)
	for pq.Len() > 0 {
		item := heap.Pop(pq).(knnItem)
		if len(best) >= k && item.distance > best[len(best)-1].Distance {
			break
		}
		if item.isEntity {
			if seen[item.id] {
				continue
			}
			seen[item.id] = true
			best = insertNeighborSorted(best, Neighbor{ID: item.id, Distance: item.distance}, k)
			continue
		}
		node, ok := t.table.Get(item.code)
		if !ok {
			continue
		}
		for _, id := range node.EntityIDs {
			if id < 0 || id >= len(boxes) {
				continue
			}
			d := geom.SquaredDistanceToBox(t.adaptor, q, boxes[id])
			heap.Push(pq, knnItem{distance: d, id: id, isEntity: true})
		}
		for _, i := range node.Children.Indices(locode.ChildCount(dim)) {
			childCode := locode.Child(dim, item.code, i)
			childBox := gridmap.CellBox(t.world, childCode)
			d := geom.SquaredDistanceToBox(t.adaptor, q, childBox)
			heap.Push(pq, knnItem{distance: d, code: childCode})
		}
	}
	return best
}
