package orthotree

type point2 struct{ x, y float64 }
type box2 struct{ min, max point2 }

type adaptor2 struct{}

func (adaptor2) Dim() int                          { return 2 }
func (adaptor2) PointComp(p point2, i int) float64 { return [2]float64{p.x, p.y}[i] }
func (adaptor2) SetPointComp(p *point2, i int, v float64) {
	switch i {
	case 0:
		p.x = v
	case 1:
		p.y = v
	}
}
func (adaptor2) BoxMin(b box2) point2        { return b.min }
func (adaptor2) BoxMax(b box2) point2        { return b.max }
func (adaptor2) SetBoxMin(b *box2, p point2) { b.min = p }
func (adaptor2) SetBoxMax(b *box2, p point2) { b.max = p }

func worldBox2(minX, minY, maxX, maxY float64) box2 {
	return box2{point2{minX, minY}, point2{maxX, maxY}}
}
