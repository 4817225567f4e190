package locode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	dim := 3
	depth := 4
	coords := []uint64{5, 9, 1}
	c := Encode(dim, coords, depth)

	gotCoords, gotDepth := Decode(dim, c)
	require.Equal(t, depth, gotDepth)
	require.Equal(t, coords, gotCoords)
}

func TestRootDepthZero(t *testing.T) {
	require.Equal(t, 0, Depth(3, Root))
}

func TestParentChildRoundTrip(t *testing.T) {
	dim := 2
	c := Encode(dim, []uint64{2, 3}, 3)
	child := Child(dim, c, 1)
	require.Equal(t, c, Parent(dim, child))
	require.Equal(t, Depth(dim, c)+1, Depth(dim, child))
}

func TestIsAncestor(t *testing.T) {
	dim := 2
	root := Root
	c := Encode(dim, []uint64{2, 3}, 3)
	require.True(t, IsAncestor(dim, root, c))
	require.True(t, IsAncestor(dim, c, c))
	require.False(t, IsAncestor(dim, c, root))

	parent := Parent(dim, c)
	require.True(t, IsAncestor(dim, parent, c))

	sibling := Encode(dim, []uint64{0, 0}, 3)
	require.False(t, IsAncestor(dim, sibling, c))
}

func TestCommonAncestor(t *testing.T) {
	dim := 2
	a := Encode(dim, []uint64{6, 6}, 3) // 110,110
	b := Encode(dim, []uint64{6, 4}, 3) // 110,100
	anc := CommonAncestor(dim, a, b)
	require.True(t, IsAncestor(dim, anc, a))
	require.True(t, IsAncestor(dim, anc, b))

	// anc must be the deepest common prefix: one level deeper should
	// no longer be common to both.
	deeper := Child(dim, anc, ChildIndexAtDepth(dim, a, Depth(dim, anc)+1))
	require.True(t, IsAncestor(dim, deeper, a))
	require.False(t, IsAncestor(dim, deeper, b))
}

func TestTotalOrderIsDepthMajor(t *testing.T) {
	dim := 2
	shallow := Encode(dim, []uint64{1, 1}, 1)
	deep := Encode(dim, []uint64{0, 0}, 2)
	require.True(t, Less(shallow, deep), "a shallower code must sort before any deeper code")
}

func TestChildIndexAtDepthMatchesChild(t *testing.T) {
	dim := 3
	c := Encode(dim, []uint64{5, 2, 7}, 4)
	for d := 1; d <= 4; d++ {
		idx := ChildIndexAtDepth(dim, c, d)
		anc := AncestorAtDepth(dim, c, d)
		require.Equal(t, anc, Child(dim, AncestorAtDepth(dim, c, d-1), idx))
	}
}

func TestChildCount(t *testing.T) {
	require.Equal(t, 4, ChildCount(2))
	require.Equal(t, 8, ChildCount(3))
}
