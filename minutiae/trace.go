package minutiae

import (
	"golang.org/x/exp/slices"

	"github.com/high-horse/fpextract/primitives"
)

// trace walks the ridge from start through first for at most limit pixels and
// returns the pixels visited after start. The walk stops early on reaching an
// ending or a junction, or when no unvisited ridge pixel remains. Offsets in
// exclude are never entered.
func (g *grid) trace(start, first primitives.Point, limit int, exclude []int) []primitives.Point {
	seen := append([]int{start.Offset(g.width), first.Offset(g.width)}, exclude...)
	path := []primitives.Point{first}
	prev, cur := start, first
	for len(path) < limit {
		if g.crossingsAt(cur) != 2 {
			break
		}
		next, ok := g.step(prev, cur, seen)
		if !ok {
			break
		}
		seen = append(seen, next.Offset(g.width))
		path = append(path, next)
		prev, cur = cur, next
	}
	return path
}

// step picks the next pixel after cur. Junctions win so that walks do not
// slip past them; otherwise the candidate farthest from prev is taken, which
// skips the inner corner of staircase diagonals.
func (g *grid) step(prev, cur primitives.Point, seen []int) (primitives.Point, bool) {
	var best primitives.Point
	bestDist, found := -1, false
	for _, d := range primitives.Neighbors {
		c := cur.Plus(d)
		if !g.at(c) || slices.Contains(seen, c.Offset(g.width)) {
			continue
		}
		if g.crossingsAt(c) >= 3 {
			return c, true
		}
		if dist := c.DistanceSq(prev); dist > bestDist {
			best, bestDist, found = c, dist, true
		}
	}
	return best, found
}
