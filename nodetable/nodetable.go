// Package nodetable implements the flat associative node table (spec
// §3 "Node table" / "Node record"): a mapping from location code to
// node record, keyed directly by the code rather than by child
// pointers.
//
// The per-node child-mask bitset is grounded on
// other_examples/gaissmai-bart's fastNode bitset.BitSet256 per-node
// children bitmap, narrowed here to two uint64 words (128 bits) since
// that covers every dimension this package can actually build a tree
// for: MaxChildMaskDim caps dim at 7 (2^7 == 128 child indices), well
// above the dim <= 6 that covers every realistic case.
package nodetable

import (
	"sort"

	"github.com/gridkit/orthotree/locode"
)

// MaxChildMaskDim is the largest dim ChildMask can represent: 2^dim
// child indices must fit in the 128 bits split across Lo and Hi.
const MaxChildMaskDim = 7

// ChildMask is a bitset over the 2^D possible child indices of a node,
// for D up to MaxChildMaskDim. A single uint64 holds up to 64 bits;
// dims above 6 need the high word, covered by Hi.
type ChildMask struct {
	Lo uint64
	Hi uint64
}

// Set marks child index i as present.
func (m *ChildMask) Set(i uint64) {
	if i < 64 {
		m.Lo |= 1 << i
	} else {
		m.Hi |= 1 << (i - 64)
	}
}

// Clear marks child index i as absent.
func (m *ChildMask) Clear(i uint64) {
	if i < 64 {
		m.Lo &^= 1 << i
	} else {
		m.Hi &^= 1 << (i - 64)
	}
}

// Has reports whether child index i is present.
func (m ChildMask) Has(i uint64) bool {
	if i < 64 {
		return m.Lo&(1<<i) != 0
	}
	return m.Hi&(1<<(i-64)) != 0
}

// Empty reports whether no child bits are set.
func (m ChildMask) Empty() bool {
	return m.Lo == 0 && m.Hi == 0
}

// Indices returns the set child indices in ascending order.
func (m ChildMask) Indices(childCount int) []uint64 {
	out := make([]uint64, 0, childCount)
	for i := 0; i < childCount; i++ {
		if m.Has(uint64(i)) {
			out = append(out, uint64(i))
		}
	}
	return out
}

// Node is the record stored for each location code present in the
// table: spec §3's "child_mask" plus "entity_ids".
type Node struct {
	Children  ChildMask
	EntityIDs []int
}

// AddEntity appends id to the node's owned entity list. Order of
// insertion is preserved (spec §3 invariant 6: stable space-filling
// traversal).
func (n *Node) AddEntity(id int) {
	n.EntityIDs = append(n.EntityIDs, id)
}

// RemoveEntity removes the first occurrence of id. Reports whether it
// was present.
func (n *Node) RemoveEntity(id int) bool {
	for i, e := range n.EntityIDs {
		if e == id {
			n.EntityIDs = append(n.EntityIDs[:i], n.EntityIDs[i+1:]...)
			return true
		}
	}
	return false
}

// Table is the flat code-keyed node table. A plain Go map suffices for
// every legal dimension: the Code ceiling (D*MaxDepth <= 63) always
// fits a 64-bit key, so the sorted-vector alternative spec §9 allows
// for wider codes is never needed (see DESIGN.md's Open Question
// resolution).
type Table struct {
	Dim   int
	nodes map[locode.Code]*Node
}

// New creates an empty table for the given dimension count.
func New(dim int) *Table {
	return &Table{Dim: dim, nodes: make(map[locode.Code]*Node)}
}

// Len returns the number of nodes currently in the table.
func (t *Table) Len() int {
	return len(t.nodes)
}

// Get returns the node at c, if present.
func (t *Table) Get(c locode.Code) (*Node, bool) {
	n, ok := t.nodes[c]
	return n, ok
}

// GetOrCreate returns the node at c, creating it (and linking it into
// its parent's child mask, recursively creating ancestors as needed)
// if absent. Mirrors spec §3 invariant 2: every non-root code's parent
// is present with the corresponding child-mask bit set.
func (t *Table) GetOrCreate(c locode.Code) *Node {
	if n, ok := t.nodes[c]; ok {
		return n
	}
	n := &Node{}
	t.nodes[c] = n
	if c != locode.Root {
		parent := locode.Parent(t.Dim, c)
		childIdx := uint64(c) & (uint64(locode.ChildCount(t.Dim)) - 1)
		pn := t.GetOrCreate(parent)
		pn.Children.Set(childIdx)
	}
	return n
}

// Delete removes the node at c outright, without touching its parent's
// child mask or cascading. Callers needing the cascading-delete
// semantics of spec §4.I's Erase use DeleteCascade.
func (t *Table) Delete(c locode.Code) {
	delete(t.nodes, c)
}

// DeleteCascade removes the (now-empty, childless) node at c and
// clears the corresponding bit in its parent's child mask, then
// repeats for the parent if it too becomes empty and childless. Used
// by Erase (spec §4.I).
func (t *Table) DeleteCascade(c locode.Code) {
	for {
		n, ok := t.nodes[c]
		if !ok {
			return
		}
		if len(n.EntityIDs) > 0 || !n.Children.Empty() {
			return
		}
		if c == locode.Root {
			delete(t.nodes, c)
			return
		}
		delete(t.nodes, c)
		parent := locode.Parent(t.Dim, c)
		childIdx := uint64(c) & (uint64(locode.ChildCount(t.Dim)) - 1)
		pn, ok := t.nodes[parent]
		if !ok {
			return
		}
		pn.Children.Clear(childIdx)
		c = parent
	}
}

// Has reports whether a node exists at c.
func (t *Table) Has(c locode.Code) bool {
	_, ok := t.nodes[c]
	return ok
}

// Range calls f for every (code, node) pair in the table. Iteration
// order is unspecified, matching Go map semantics; callers that need
// the stable space-filling order of spec §3 invariant 6 should collect
// codes and sort them with locode.Less.
func (t *Table) Range(f func(c locode.Code, n *Node)) {
	for c, n := range t.nodes {
		f(c, n)
	}
}

// Codes returns every code in the table, in ascending (depth-major,
// space-filling) order.
func (t *Table) Codes() []locode.Code {
	out := make([]locode.Code, 0, len(t.nodes))
	for c := range t.nodes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return locode.Less(out[i], out[j]) })
	return out
}
