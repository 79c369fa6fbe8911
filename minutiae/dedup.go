package minutiae

import (
	"github.com/emirpasic/gods/queues/priorityqueue"

	"github.com/high-horse/fpextract/primitives"
)

// byQuality orders higher quality first and falls back to canonical order,
// so the dequeue order is total and reproducible.
func byQuality(a, b interface{}) int {
	ma, mb := a.(Minutia), b.(Minutia)
	switch {
	case ma.Quality > mb.Quality:
		return -1
	case ma.Quality < mb.Quality:
		return 1
	}
	return Compare(ma, mb)
}

// deduplicate keeps minutiae greedily from best to worst, dropping any
// candidate closer than sqrt(distSq) to a kept one with a direction within
// maxAngle. Every kept pair therefore satisfies the merge invariant.
func deduplicate(found []Minutia, distSq, maxAngle float64) []Minutia {
	q := priorityqueue.NewWith(byQuality)
	for _, m := range found {
		q.Enqueue(m)
	}

	kept := make([]Minutia, 0, len(found))
	for !q.Empty() {
		v, _ := q.Dequeue()
		m := v.(Minutia)
		if !conflicts(kept, m, distSq, maxAngle) {
			kept = append(kept, m)
		}
	}
	return kept
}

func conflicts(kept []Minutia, m Minutia, distSq, maxAngle float64) bool {
	for _, k := range kept {
		if float64(k.Position().DistanceSq(m.Position())) < distSq &&
			primitives.AngleDistance(k.Direction, m.Direction) < maxAngle {
			return true
		}
	}
	return false
}

// Conflict reports whether two minutiae are close enough in position and
// direction to be merged under the given thresholds.
func Conflict(a, b Minutia, distance, maxAngle float64) bool {
	return conflicts([]Minutia{a}, b, primitives.Sq(distance), maxAngle)
}
