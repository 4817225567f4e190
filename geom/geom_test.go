package geom_test

import (
	"testing"

	"github.com/gridkit/orthotree/geom"
	"github.com/stretchr/testify/require"
)

type point2 struct{ x, y float64 }
type box2 struct{ min, max point2 }

type adaptor2 struct{}

func (adaptor2) Dim() int                                  { return 2 }
func (adaptor2) PointComp(p point2, i int) float64         { return [2]float64{p.x, p.y}[i] }
func (adaptor2) SetPointComp(p *point2, i int, v float64) {
	switch i {
	case 0:
		p.x = v
	case 1:
		p.y = v
	}
}
func (adaptor2) BoxMin(b box2) point2         { return b.min }
func (adaptor2) BoxMax(b box2) point2         { return b.max }
func (adaptor2) SetBoxMin(b *box2, p point2)  { b.min = p }
func (adaptor2) SetBoxMax(b *box2, p point2)  { b.max = p }

func TestBoxesOverlap(t *testing.T) {
	a := adaptor2{}
	b1 := box2{point2{0, 0}, point2{1, 1}}
	b2 := box2{point2{0.5, 0.5}, point2{2, 2}}
	b3 := box2{point2{5, 5}, point2{6, 6}}

	require.True(t, geom.BoxesOverlap[point2, box2, float64](a, b1, b2))
	require.False(t, geom.BoxesOverlap[point2, box2, float64](a, b1, b3))

	touching := box2{point2{1, 0}, point2{2, 1}}
	require.True(t, geom.BoxesOverlap[point2, box2, float64](a, b1, touching),
		"inclusive overlap counts boundary touches")
}

func TestBoxesOverlapStrict(t *testing.T) {
	a := adaptor2{}
	b1 := box2{point2{0, 0}, point2{1, 1}}
	overlapping := box2{point2{0.5, 0.5}, point2{2, 2}}
	touching := box2{point2{1, 0}, point2{2, 1}}

	require.True(t, geom.BoxesOverlapStrict[point2, box2, float64](a, b1, overlapping))
	require.False(t, geom.BoxesOverlapStrict[point2, box2, float64](a, b1, touching),
		"boxes that only touch at a boundary do not strictly overlap")
}

func TestBoxContainsBoxAndPoint(t *testing.T) {
	a := adaptor2{}
	outer := box2{point2{0, 0}, point2{10, 10}}
	inner := box2{point2{1, 1}, point2{2, 2}}
	require.True(t, geom.BoxContainsBox[point2, box2, float64](a, outer, inner))
	require.False(t, geom.BoxContainsBox[point2, box2, float64](a, inner, outer))

	require.True(t, geom.BoxContainsPoint[point2, box2, float64](a, outer, point2{5, 5}))
	require.False(t, geom.BoxContainsPoint[point2, box2, float64](a, inner, point2{5, 5}))
}

func TestCombineBox(t *testing.T) {
	a := adaptor2{}
	b1 := box2{point2{0, 0}, point2{1, 1}}
	b2 := box2{point2{-1, 2}, point2{0.5, 3}}
	c := geom.CombineBox[point2, box2, float64](a, b1, b2)
	require.Equal(t, point2{-1, 0}, c.min)
	require.Equal(t, point2{1, 3}, c.max)
}

func TestSquaredDistanceToBox(t *testing.T) {
	a := adaptor2{}
	b := box2{point2{0, 0}, point2{1, 1}}

	require.Equal(t, 0.0, geom.SquaredDistanceToBox[point2, box2, float64](a, point2{0.5, 0.5}, b))
	require.Equal(t, 1.0, geom.SquaredDistanceToBox[point2, box2, float64](a, point2{2, 0.5}, b))
}

func TestPlaneSide(t *testing.T) {
	a := adaptor2{}
	b := box2{point2{0, 0}, point2{1, 1}}
	normal := []float64{1, 0}

	require.Equal(t, 1, geom.PlaneSide[point2, box2, float64](a, b, normal, -1, 1e-9))
	require.Equal(t, -1, geom.PlaneSide[point2, box2, float64](a, b, normal, 2, 1e-9))
	require.Equal(t, 0, geom.PlaneSide[point2, box2, float64](a, b, normal, 0.5, 1e-9))
}
