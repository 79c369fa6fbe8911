package minutiae

import "github.com/high-horse/fpextract/primitives"

// thin reduces ridges to one-pixel-wide 8-connected lines with the
// Zhang–Suen algorithm. Ring indices: 0 N, 2 E, 4 S, 6 W.
func thin(g *grid) {
	var remove []int
	for {
		changed := false
		for pass := 0; pass < 2; pass++ {
			remove = remove[:0]
			for i, on := range g.px {
				if on && deletable(g.ring(g.point(i)), pass) {
					remove = append(remove, i)
				}
			}
			for _, i := range remove {
				g.px[i] = false
			}
			changed = changed || len(remove) > 0
		}
		if !changed {
			return
		}
	}
}

func deletable(r [8]bool, pass int) bool {
	b := neighborCount(r)
	if b < 2 || b > 6 || crossings(r) != 1 {
		return false
	}
	n, e, s, w := r[0], r[2], r[4], r[6]
	if pass == 0 {
		return !(n && e && s) && !(e && s && w)
	}
	return !(n && e && w) && !(n && s && w)
}

// removeFragments erases 8-connected ridge components with fewer than
// minPixels pixels. Components are flooded breadth-first with an explicit
// queue; visited is indexed by flat offset.
func removeFragments(g *grid, minPixels int) {
	if minPixels <= 1 {
		return
	}
	visited := make([]bool, len(g.px))
	var component []int
	for i, on := range g.px {
		if !on || visited[i] {
			continue
		}
		component = component[:0]
		q := newQueue()
		q.push(i)
		visited[i] = true
		for !q.empty() {
			cur := q.pop()
			component = append(component, cur)
			p := g.point(cur)
			for _, d := range primitives.Neighbors {
				np := p.Plus(d)
				if !g.at(np) {
					continue
				}
				if j := np.Offset(g.width); !visited[j] {
					visited[j] = true
					q.push(j)
				}
			}
		}
		if len(component) < minPixels {
			for _, j := range component {
				g.px[j] = false
			}
		}
	}
}

// pruneSpurs erases endings whose ridge reaches a junction within maxLength
// pixels, along with the pixels leading to the junction.
func pruneSpurs(g *grid, maxLength int) {
	if maxLength <= 0 {
		return
	}
	var endings []primitives.Point
	for i, on := range g.px {
		if !on {
			continue
		}
		if p := g.point(i); g.crossingsAt(p) == 1 {
			endings = append(endings, p)
		}
	}
	for _, p := range endings {
		if !g.at(p) || g.crossingsAt(p) != 1 {
			continue
		}
		first := g.branches(p)
		if len(first) != 1 {
			continue
		}
		path := g.trace(p, first[0], maxLength, nil)
		last := path[len(path)-1]
		if g.crossingsAt(last) < 3 {
			continue
		}
		g.set(p, false)
		for _, q := range path[:len(path)-1] {
			g.set(q, false)
		}
	}
}
