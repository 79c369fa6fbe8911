package minutiae

import (
	"github.com/high-horse/fpextract/enhance"
	"github.com/high-horse/fpextract/primitives"
)

// grid is the detector's private working copy of the ridge map.
type grid struct {
	width, height int
	px            []bool
}

func newGrid(s *enhance.Skeleton) *grid {
	g := &grid{width: s.Width, height: s.Height, px: make([]bool, len(s.Ridge))}
	for i, r := range s.Ridge {
		g.px[i] = r && s.Mask[i]
	}
	return g
}

func (g *grid) at(p primitives.Point) bool {
	return p.In(g.width, g.height) && g.px[p.Offset(g.width)]
}

func (g *grid) set(p primitives.Point, v bool) { g.px[p.Offset(g.width)] = v }

func (g *grid) point(offset int) primitives.Point {
	return primitives.Point{X: offset % g.width, Y: offset / g.width}
}

// ring returns the 8 neighbours of p in primitives.Neighbors order.
func (g *grid) ring(p primitives.Point) (r [8]bool) {
	for i, d := range primitives.Neighbors {
		r[i] = g.at(p.Plus(d))
	}
	return r
}

// crossings counts background-to-ridge transitions around p, which is the
// number of distinct ridge branches leaving p. It is 1 at an ending, 2 along
// a ridge and 3 at a bifurcation.
func crossings(r [8]bool) int {
	n := 0
	for i := range r {
		if !r[i] && r[(i+1)%8] {
			n++
		}
	}
	return n
}

func neighborCount(r [8]bool) int {
	n := 0
	for _, v := range r {
		if v {
			n++
		}
	}
	return n
}

func (g *grid) crossingsAt(p primitives.Point) int { return crossings(g.ring(p)) }

// branches groups the ridge neighbours of p into runs of adjacent ring
// positions and returns one first-step pixel per run, preferring the 4-neighbour.
func (g *grid) branches(p primitives.Point) []primitives.Point {
	r := g.ring(p)
	start := -1
	for i := range r {
		if !r[i] {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	var out []primitives.Point
	best := -1
	flush := func() {
		if best >= 0 {
			out = append(out, p.Plus(primitives.Neighbors[best]))
			best = -1
		}
	}
	for k := 1; k <= 8; k++ {
		i := (start + k) % 8
		if !r[i] {
			flush()
			continue
		}
		if best < 0 || (best%2 == 1 && i%2 == 0) {
			best = i
		}
	}
	flush()
	return out
}
