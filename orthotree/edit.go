package orthotree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"

	"github.com/gridkit/orthotree/gridmap"
	"github.com/gridkit/orthotree/locode"
)

const ErrTypeMissingEntityOnEdit = "orthotree.missing_entity_on_edit"

func warnMissingEntity(op string, id int) {
	logs.Warn(errors.New("edit op refers to an id not present in the tree").
		WithType(ErrTypeMissingEntityOnEdit).
		WithTag("op", op).
		WithTag("id", id))
}

// Insert adds a new point entity (spec §4.I). If the bucket it lands
// in now exceeds MaxElementsPerNode, its owned entities are demoted
// into their respective child cells.
func (t *PointTree[P, B, S]) Insert(id int, p P) {
	t.table.GetOrCreate(locode.Root)

	dim := t.adaptor.Dim()
	leaf := gridmap.EncodePoint(t.world, p)

	code := locode.Root
	depth := 0
	for depth < t.world.MaxDepth {
		node, _ := t.table.Get(code)
		childIdx := locode.ChildIndexAtDepth(dim, leaf, depth+1)
		if !node.Children.Has(childIdx) {
			break
		}
		code = locode.Child(dim, code, childIdx)
		depth++
	}

	node := t.table.GetOrCreate(code)
	node.AddEntity(id)
	t.owner[id] = []locode.Code{leaf}

	t.demote(code)
	instrumentNodeCount(t.Len())
}

// demote redistributes an over-full node's owned entities into child
// cells when depth allows (spec §4.I's demotion rule), recursing into
// any child that itself ends up over-full.
func (t *PointTree[P, B, S]) demote(code locode.Code) {
	node, ok := t.table.Get(code)
	if !ok {
		return
	}
	dim := t.adaptor.Dim()
	depth := locode.Depth(dim, code)
	if len(node.EntityIDs) <= t.maxElementsPerNode || depth >= t.world.MaxDepth {
		return
	}

	ids := append([]int(nil), node.EntityIDs...)
	for _, id := range ids {
		node.RemoveEntity(id)
	}

	touched := map[locode.Code]struct{}{}
	for _, id := range ids {
		// owner[id][0] is the entity's permanent full-resolution leaf
		// code, never the node that currently owns it, so no owner
		// update is needed here: only the owning node changes.
		leaf := t.owner[id][0]
		childIdx := locode.ChildIndexAtDepth(dim, leaf, depth+1)
		childCode := locode.Child(dim, code, childIdx)
		child := t.table.GetOrCreate(childCode)
		child.AddEntity(id)
		touched[childCode] = struct{}{}
	}
	for childCode := range touched {
		t.demote(childCode)
	}
}

// Erase removes an entity by id (spec §4.I). It reports
// MissingEntityOnEdit and leaves the tree unchanged if id is absent.
func (t *PointTree[P, B, S]) Erase(id int) bool {
	codes, ok := t.owner[id]
	if !ok || len(codes) == 0 {
		warnMissingEntity("Erase", id)
		return false
	}
	leaf := codes[0]
	if !t.eraseAlongPath(leaf, id) {
		warnMissingEntity("Erase", id)
		return false
	}
	delete(t.owner, id)
	instrumentNodeCount(t.Len())
	return true
}

func (t *PointTree[P, B, S]) eraseAlongPath(leaf locode.Code, id int) bool {
	dim := t.adaptor.Dim()
	maxD := locode.Depth(dim, leaf)
	for d := 0; d <= maxD; d++ {
		anc := locode.AncestorAtDepth(dim, leaf, d)
		node, ok := t.table.Get(anc)
		if !ok {
			continue
		}
		if node.RemoveEntity(id) {
			t.table.DeleteCascade(anc)
			return true
		}
	}
	return false
}

// Update replaces id's geometry (spec §4.I): Erase followed by
// Insert, with no intermediate state observable by any concurrent
// query (callers must still provide the exclusive-access guarantee
// spec §5 requires of all edits).
func (t *PointTree[P, B, S]) Update(id int, p P) {
	t.Erase(id)
	t.Insert(id, p)
}

// UpdateIndexes bulk-renames owner ids (spec §4.I), for callers that
// compact their entity array and need the tree's ids to track.
func (t *PointTree[P, B, S]) UpdateIndexes(idMap map[int]int) {
	dim := t.adaptor.Dim()
	newOwner := make(map[int][]locode.Code, len(t.owner))
	for oldID, codes := range t.owner {
		newID, renamed := idMap[oldID]
		if !renamed {
			newID = oldID
		}
		if renamed && len(codes) > 0 {
			// codes[0] is the full-resolution leaf, not the owning node:
			// the id is owned by that leaf or one of its ancestors.
			leaf := codes[0]
			for d := locode.Depth(dim, leaf); d >= 0; d-- {
				if node, ok := t.table.Get(locode.AncestorAtDepth(dim, leaf, d)); ok && node.RemoveEntity(oldID) {
					node.AddEntity(newID)
					break
				}
			}
		}
		newOwner[newID] = codes
	}
	t.owner = newOwner
}

// Insert adds a new box entity (spec §4.I/§4.G): places it at its
// canonical node and replicates into overlapping descendants up to
// AdditionalSplitDepth.
func (t *BoxTree[P, B, S]) Insert(id int, b B) {
	canonical := gridmap.CanonicalCode(t.world, b)
	t.replicate(canonical, b, id, 0)
	instrumentNodeCount(t.Len())
}

// Erase removes a box entity from every node it was replicated into.
func (t *BoxTree[P, B, S]) Erase(id int) bool {
	codes, ok := t.owner[id]
	if !ok || len(codes) == 0 {
		warnMissingEntity("Erase", id)
		return false
	}
	for _, code := range codes {
		if node, ok := t.table.Get(code); ok {
			node.RemoveEntity(id)
			t.table.DeleteCascade(code)
		}
	}
	delete(t.owner, id)
	instrumentNodeCount(t.Len())
	return true
}

// Update replaces id's box geometry: Erase followed by Insert.
func (t *BoxTree[P, B, S]) Update(id int, b B) {
	t.Erase(id)
	t.Insert(id, b)
}

// UpdateIndexes bulk-renames owner ids across every node a box was
// replicated into.
func (t *BoxTree[P, B, S]) UpdateIndexes(idMap map[int]int) {
	newOwner := make(map[int][]locode.Code, len(t.owner))
	for oldID, codes := range t.owner {
		newID, renamed := idMap[oldID]
		if !renamed {
			newID = oldID
		}
		for _, code := range codes {
			if node, ok := t.table.Get(code); ok && renamed {
				node.RemoveEntity(oldID)
				node.AddEntity(newID)
			}
		}
		newOwner[newID] = codes
	}
	t.owner = newOwner
}
