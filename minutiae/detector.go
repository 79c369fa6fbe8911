package minutiae

import (
	"math"

	"golang.org/x/exp/slices"

	"github.com/high-horse/fpextract/config"
	"github.com/high-horse/fpextract/enhance"
	"github.com/high-horse/fpextract/primitives"
)

// Detector extracts canonical minutiae from a skeleton.
type Detector struct {
	cfg *config.Config
}

func NewDetector(cfg *config.Config) *Detector {
	return &Detector{cfg: cfg}
}

// params are the detector lengths converted to pixels at the skeleton's
// resolution.
type params struct {
	minRidge    int
	spur        int
	trace       int
	margin      int
	mergeDistSq float64
	mergeAngle  float64
}

func (d *Detector) params(resolution float64) params {
	mc := d.cfg.Minutiae
	px := func(v float64) float64 { return d.cfg.Scale(v, resolution) }
	merge := px(mc.MergeDistance)
	return params{
		minRidge:    int(math.Ceil(px(mc.MinRidgeLength))),
		spur:        int(math.Round(px(mc.SpurLength))),
		trace:       max(1, int(math.Round(px(mc.TraceLength)))),
		margin:      int(math.Ceil(px(mc.BorderMargin))),
		mergeDistSq: merge * merge,
		mergeAngle:  d.cfg.MergeAngleRadians(),
	}
}

// Detect thins the skeleton if needed, cleans it, classifies every ridge
// pixel by its branch count, drops minutiae near the mask boundary, merges
// near-duplicates and returns the result in canonical order. An empty result
// is valid.
func (d *Detector) Detect(s *enhance.Skeleton) []Minutia {
	if s == nil || s.Width <= 0 || s.Height <= 0 {
		return nil
	}
	p := d.params(s.Resolution)

	g := newGrid(s)
	if !s.Thin {
		thin(g)
	}
	removeFragments(g, p.minRidge)
	pruneSpurs(g, p.spur)

	var found []Minutia
	for i, on := range g.px {
		if !on {
			continue
		}
		pt := g.point(i)
		var (
			m  Minutia
			ok bool
		)
		switch g.crossingsAt(pt) {
		case 1:
			m, ok = g.ending(pt, p.trace)
		case 3:
			m, ok = g.bifurcation(pt, p.trace)
		}
		if !ok || nearBoundary(s, pt, p.margin) {
			continue
		}
		m.Quality = primitives.SnapQuality(s.QualityAt(pt.X, pt.Y) * m.Quality)
		m.Direction = primitives.SnapDirection(m.Direction)
		found = append(found, m)
	}

	kept := deduplicate(found, p.mergeDistSq, p.mergeAngle)
	slices.SortFunc(kept, Compare)
	return kept
}

// ending points from the traced ridge toward the termination. Its
// provisional quality is the fraction of the trace length achieved.
func (g *grid) ending(pt primitives.Point, limit int) (Minutia, bool) {
	first := g.branches(pt)
	if len(first) != 1 {
		return Minutia{}, false
	}
	path := g.trace(pt, first[0], limit, nil)
	end := path[len(path)-1]
	return Minutia{
		X:         pt.X,
		Y:         pt.Y,
		Direction: end.Angle(pt),
		Type:      Ending,
		Quality:   math.Min(1, float64(len(path))/float64(limit)),
	}, true
}

// bifurcation traces the three branches. The two closest in direction are the
// fork; the remaining one is the stem, and the direction points from the stem
// through the split.
func (g *grid) bifurcation(pt primitives.Point, limit int) (Minutia, bool) {
	first := g.branches(pt)
	if len(first) != 3 {
		return Minutia{}, false
	}
	exclude := make([]int, len(first))
	for i, f := range first {
		exclude[i] = f.Offset(g.width)
	}

	var angles [3]float64
	shortest := limit
	for i, f := range first {
		path := g.trace(pt, f, limit, exclude)
		angles[i] = pt.Angle(path[len(path)-1])
		shortest = min(shortest, len(path))
	}

	stem, closest := 0, math.Inf(1)
	for i := 0; i < 3; i++ {
		j, k := (i+1)%3, (i+2)%3
		if d := primitives.AngleDistance(angles[j], angles[k]); d < closest {
			stem, closest = i, d
		}
	}
	return Minutia{
		X:         pt.X,
		Y:         pt.Y,
		Direction: primitives.NormalizeAngle(angles[stem] + math.Pi),
		Type:      Bifurcation,
		Quality:   float64(shortest) / float64(limit),
	}, true
}

// nearBoundary reports whether any pixel within margin of p is background
// or outside the image.
func nearBoundary(s *enhance.Skeleton, p primitives.Point, margin int) bool {
	for dy := -margin; dy <= margin; dy++ {
		for dx := -margin; dx <= margin; dx++ {
			if dx*dx+dy*dy > margin*margin {
				continue
			}
			if !s.InMask(p.X+dx, p.Y+dy) {
				return true
			}
		}
	}
	return false
}
