package orthotree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridkit/orthotree/gridmap"
	"github.com/gridkit/orthotree/locode"
)

func buildTestBoxTree(t *testing.T, boxes []box2, k int) *BoxTree[point2, box2, float64] {
	tree, err := NewBoxTree[point2, box2, float64](adaptor2{}, boxes, nil, Options[point2, box2, float64]{
		MaxDepth:             4,
		AdditionalSplitDepth: &k,
		WorldBox:             boxPtr(worldBox2(0, 0, 16, 16)),
	})
	require.NoError(t, err)
	return tree
}

func TestBoxTreeAdditionalSplitDepthZeroDisablesReplication(t *testing.T) {
	boxes := []box2{worldBox2(1, 1, 2, 2)}

	zero := 0
	tree, err := NewBoxTree[point2, box2, float64](adaptor2{}, boxes, nil, Options[point2, box2, float64]{
		MaxDepth:             4,
		AdditionalSplitDepth: &zero,
		WorldBox:             boxPtr(worldBox2(0, 0, 16, 16)),
	})
	require.NoError(t, err)
	require.Equal(t, []locode.Code{gridmap.CanonicalCode(tree.world, boxes[0])}, tree.owner[0],
		"k=0 must place the box at exactly its canonical node, with no replication")

	withDefault := buildTestBoxTree(t, boxes, 2)
	require.Greater(t, len(withDefault.owner[0]), 1,
		"a non-zero split depth replicates into overlapping descendants")
}

func TestBoxTreeRangeSearchExcludesBoundaryTouchingBox(t *testing.T) {
	boxes := []box2{
		worldBox2(2, 0, 3, 1), // only touches the query box at x=2
		worldBox2(0, 0, 1, 1), // inside the query box, overlapping it over a positive area
	}
	tree := buildTestBoxTree(t, boxes, 1)

	got := tree.RangeSearch(boxes, worldBox2(0, 0, 2, 2), false)
	require.Equal(t, []int{1}, got, "a box that only touches the query at a boundary does not overlap")
}

func TestBoxTreeBuildAndRangeSearch(t *testing.T) {
	boxes := []box2{
		worldBox2(1, 1, 2, 2),
		worldBox2(9, 9, 10, 10),
		worldBox2(0, 0, 15, 15), // large box straddling most of the world
	}
	tree := buildTestBoxTree(t, boxes, 1)
	require.True(t, tree.Len() > 0)

	got := tree.RangeSearch(boxes, worldBox2(0, 0, 3, 3), false)
	require.Contains(t, got, 0)
	require.Contains(t, got, 2)
	require.NotContains(t, got, 1)
}

func TestBoxTreeFullyContainedFlag(t *testing.T) {
	boxes := []box2{
		worldBox2(1, 1, 2, 2),
		worldBox2(0, 0, 15, 15),
	}
	tree := buildTestBoxTree(t, boxes, 1)

	got := tree.RangeSearch(boxes, worldBox2(0, 0, 4, 4), true)
	require.Equal(t, []int{0}, got, "the large box is not fully contained in the small query box")
}

func TestBoxTreePickSearch(t *testing.T) {
	boxes := []box2{worldBox2(1, 1, 3, 3), worldBox2(9, 9, 10, 10)}
	tree := buildTestBoxTree(t, boxes, 1)

	got := tree.PickSearch(boxes, point2{2, 2})
	require.Equal(t, []int{0}, got)
}

func TestBoxTreeCollisionDetection(t *testing.T) {
	boxes := []box2{
		worldBox2(0, 0, 2, 2),
		worldBox2(1, 1, 3, 3),
		worldBox2(10, 10, 11, 11),
	}
	tree := buildTestBoxTree(t, boxes, 1)

	pairs := tree.CollisionDetection(boxes, Sequential)
	require.Equal(t, []Pair{{Lo: 0, Hi: 1}}, pairs)

	parallelPairs := tree.CollisionDetection(boxes, ParallelUnsequenced)
	require.Equal(t, pairs, parallelPairs, "sequential and parallel modes agree on the final sorted output")
}

func TestBoxTreeRayIntersectedAll(t *testing.T) {
	boxes := []box2{
		worldBox2(4, 4, 6, 6),
		worldBox2(10, 4, 12, 6),
		worldBox2(4, 10, 6, 12), // off the ray's path
	}
	tree := buildTestBoxTree(t, boxes, 1)

	hits := tree.RayIntersectedAll(boxes, point2{0, 5}, point2{1, 0}, 1e-6)
	require.Len(t, hits, 2)
	require.Equal(t, 0, hits[0].ID)
	require.Equal(t, 1, hits[1].ID)

	first, ok := tree.RayIntersectedFirst(boxes, point2{0, 5}, point2{1, 0}, 1e-6)
	require.True(t, ok)
	require.Equal(t, 0, first.ID)
}

func TestBoxTreePlaneQueries(t *testing.T) {
	boxes := []box2{
		worldBox2(1, 1, 2, 2),   // entirely left of x=5
		worldBox2(4, 1, 6, 2),   // straddles x=5
		worldBox2(9, 9, 10, 10), // entirely right of x=5
	}
	tree := buildTestBoxTree(t, boxes, 1)
	normal := []float64{1, 0}

	straddling := tree.PlaneIntersection(boxes, normal, 5, 1e-9)
	require.Equal(t, []int{1}, straddling)

	positive := tree.PlanePositiveSegmentation(boxes, normal, 5, 1e-9)
	require.Equal(t, []int{1, 2}, positive)
}

func TestBoxTreeFrustumCulling(t *testing.T) {
	boxes := []box2{
		worldBox2(5, 5, 6, 6),   // inside [2,8]x[2,8]
		worldBox2(0, 0, 1, 1),   // outside
		worldBox2(9, 9, 10, 10), // outside
	}
	tree := buildTestBoxTree(t, boxes, 1)

	planes := []Plane{
		{Normal: []float64{1, 0}, Offset: 2},
		{Normal: []float64{-1, 0}, Offset: -8},
		{Normal: []float64{0, 1}, Offset: 2},
		{Normal: []float64{0, -1}, Offset: -8},
	}
	got := tree.FrustumCulling(boxes, planes, 1e-9)
	require.Equal(t, []int{0}, got)
}

func TestBoxTreeInsertEraseUpdate(t *testing.T) {
	boxes := []box2{worldBox2(1, 1, 2, 2)}
	tree := buildTestBoxTree(t, boxes, 1)

	tree.Insert(1, worldBox2(9, 9, 10, 10))
	got := tree.PickSearch([]box2{worldBox2(1, 1, 2, 2), worldBox2(9, 9, 10, 10)}, point2{9.5, 9.5})
	require.Equal(t, []int{1}, got)

	require.True(t, tree.Erase(1))
	require.False(t, tree.Erase(1))

	tree.Update(0, worldBox2(12, 12, 13, 13))
	got = tree.PickSearch([]box2{worldBox2(12, 12, 13, 13)}, point2{12.5, 12.5})
	require.Equal(t, []int{0}, got)
}

func TestBoxTreeGetNearestNeighbors(t *testing.T) {
	boxes := []box2{
		worldBox2(0, 0, 1, 1),
		worldBox2(10, 10, 11, 11),
	}
	tree := buildTestBoxTree(t, boxes, 1)

	got := tree.GetNearestNeighbors(boxes, point2{0.5, 0.5}, 1)
	require.Len(t, got, 1)
	require.Equal(t, 0, got[0].ID)
}
