// Package enhance applies orientation- and frequency-tuned contextual
// filtering and binarizes the result into a ridge map.
package enhance

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/high-horse/fpextract/config"
	"github.com/high-horse/fpextract/fault"
	"github.com/high-horse/fpextract/imaging"
	"github.com/high-horse/fpextract/internal/parallel"
	"github.com/high-horse/fpextract/ridge"
)

type Enhancer struct {
	cfg *config.Config
}

func NewEnhancer(cfg *config.Config) *Enhancer {
	return &Enhancer{cfg: cfg}
}

// Enhance filters every foreground pixel with the Gabor kernel matching its
// block's orientation and frequency. A pixel is ridge when the response is
// negative, ridges being darker than valleys.
func (e *Enhancer) Enhance(g *imaging.PixelGrid, f *ridge.Field) (*Skeleton, error) {
	if g == nil || f == nil {
		return nil, fault.Invalid(fault.StageEnhance, "missing pixel grid or ridge field")
	}
	if g.Width() != f.Width || g.Height() != f.Height {
		return nil, fault.Invalid(fault.StageEnhance, "grid is %dx%d but field covers %dx%d", g.Width(), g.Height(), f.Width, f.Height)
	}

	w, h := g.Width(), g.Height()
	workers := e.cfg.WorkerCount()
	sigma := math.Max(1, e.cfg.Scale(e.cfg.Enhancement.Sigma, g.Resolution()))

	b := newBank(e.cfg.Enhancement.Orientations, sigma)
	for i, m := range f.Mask {
		if m {
			b.add(b.key(f.Orientation[i], f.Frequency[i]))
		}
	}

	norm := normalize(g, f, workers)

	s := &Skeleton{
		Width:      w,
		Height:     h,
		Resolution: g.Resolution(),
		Ridge:      make([]bool, w*h),
		Mask:       make([]bool, w*h),
		BlockSize:  f.BlockSize,
		BlocksX:    f.BlocksX,
		BlocksY:    f.BlocksY,
		Quality:    append([]float64(nil), f.Coherence...),
	}

	parallel.Rows(h, workers, func(lo, hi int) {
		for y := lo; y < hi; y++ {
			for x := 0; x < w; x++ {
				bi := f.BlockOf(x, y)
				if !f.Mask[bi] {
					continue
				}
				i := y*w + x
				s.Mask[i] = true
				k := b.get(b.key(f.Orientation[bi], f.Frequency[bi]))
				s.Ridge[i] = convolve(norm, w, h, x, y, k) < 0
			}
		}
	})
	return s, nil
}

// normalize rescales every block to zero mean and unit deviation. Flat blocks
// become zero.
func normalize(g *imaging.PixelGrid, f *ridge.Field, workers int) []float64 {
	w := g.Width()
	out := make([]float64, w*g.Height())
	parallel.Rows(f.BlocksY, workers, func(lo, hi int) {
		var values []float64
		for by := lo; by < hi; by++ {
			for bx := 0; bx < f.BlocksX; bx++ {
				x0, y0, x1, y1 := f.Bounds(bx, by)
				values = values[:0]
				for y := y0; y < y1; y++ {
					for x := x0; x < x1; x++ {
						values = append(values, g.At(x, y))
					}
				}
				mean, std := stat.MeanStdDev(values, nil)
				if len(values) < 2 || !(std > 0) {
					continue
				}
				for y := y0; y < y1; y++ {
					for x := x0; x < x1; x++ {
						out[y*w+x] = (g.At(x, y) - mean) / std
					}
				}
			}
		}
	})
	return out
}

func convolve(img []float64, w, h, x, y int, k kernel) float64 {
	var sum float64
	r := k.radius
	for v := -r; v <= r; v++ {
		py := min(max(y+v, 0), h-1)
		row := img[py*w:]
		kr := k.weights[(v+r)*k.size:]
		for u := -r; u <= r; u++ {
			px := min(max(x+u, 0), w-1)
			sum += kr[u+r] * row[px]
		}
	}
	return sum
}
