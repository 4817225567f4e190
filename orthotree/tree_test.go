package orthotree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// pointN/boxN/adaptorN are a variable-dimension geometry, used only to
// exercise the build-time dimension ceiling: adaptor2 in
// helpers_test.go is fixed at dim 2.
type pointN []float64
type boxN struct{ min, max pointN }

type adaptorN struct{ dim int }

func (a adaptorN) Dim() int                               { return a.dim }
func (adaptorN) PointComp(p pointN, i int) float64         { return p[i] }
func (adaptorN) SetPointComp(p *pointN, i int, v float64)  { (*p)[i] = v }
func (adaptorN) BoxMin(b boxN) pointN                      { return b.min }
func (adaptorN) BoxMax(b boxN) pointN                      { return b.max }
func (adaptorN) SetBoxMin(b *boxN, p pointN)               { b.min = p }
func (adaptorN) SetBoxMax(b *boxN, p pointN)               { b.max = p }

func TestNewPointTreeRejectsDimBeyondChildMaskWidth(t *testing.T) {
	dim := 8 // 2^8 child indices exceeds the 128-bit ChildMask
	a := adaptorN{dim: dim}
	points := []pointN{make(pointN, dim), make(pointN, dim)}
	worldMin, worldMax := make(pointN, dim), make(pointN, dim)
	for i := 0; i < dim; i++ {
		worldMax[i] = 16
	}

	_, err := NewPointTree[pointN, boxN, float64](a, points, nil, Options[pointN, boxN, float64]{
		MaxDepth: 4,
		WorldBox: &boxN{worldMin, worldMax},
	})
	require.Error(t, err)
}

func TestNewPointTreeAcceptsDimAtChildMaskWidth(t *testing.T) {
	dim := 7 // 2^7 == 128 child indices, exactly the ChildMask width
	a := adaptorN{dim: dim}
	p0, p1 := make(pointN, dim), make(pointN, dim)
	worldMin, worldMax := make(pointN, dim), make(pointN, dim)
	for i := 0; i < dim; i++ {
		worldMax[i] = 16
	}

	tree, err := NewPointTree[pointN, boxN, float64](a, []pointN{p0, p1}, nil, Options[pointN, boxN, float64]{
		MaxDepth: 2,
		WorldBox: &boxN{worldMin, worldMax},
	})
	require.NoError(t, err)
	require.True(t, tree.Len() > 0)
}
