package ridge

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/high-horse/fpextract/config"
	"github.com/high-horse/fpextract/fault"
	"github.com/high-horse/fpextract/imaging"
	"github.com/high-horse/fpextract/internal/parallel"
	"github.com/high-horse/fpextract/primitives"
)

// Estimator computes a Field from a PixelGrid.
type Estimator struct {
	cfg *config.Config
}

func NewEstimator(cfg *config.Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// blockStats is the unsmoothed measurement of one block. (vx, vy) is the
// doubled-angle ridge vector scaled by coherence.
type blockStats struct {
	foreground bool
	vx, vy     float64
	coherence  float64
}

// Estimate measures every block, segments, smooths orientation, then
// estimates and smooths frequency. Each step finishes before the next starts.
func (e *Estimator) Estimate(g *imaging.PixelGrid) (*Field, error) {
	if g == nil {
		return nil, fault.Invalid(fault.StageField, "nil pixel grid")
	}
	res := g.Resolution()
	bs := max(4, int(math.Round(e.cfg.Scale(float64(e.cfg.Field.BlockSize), res))))
	f := newField(g.Width(), g.Height(), bs)
	workers := e.cfg.WorkerCount()

	gx, gy := sobel(g, workers)

	raw := make([]blockStats, f.BlocksX*f.BlocksY)
	parallel.Rows(f.BlocksY, workers, func(lo, hi int) {
		buf := make([]float64, 0, bs*bs)
		for by := lo; by < hi; by++ {
			for bx := 0; bx < f.BlocksX; bx++ {
				raw[f.Index(bx, by)] = e.measure(g, gx, gy, f, bx, by, &buf)
			}
		}
	})

	vote(f, raw)
	smoothOrientation(f, raw, e.cfg.Field.SmoothingRadius, workers)

	fmin, fmax := e.frequencyRange(res)
	rawFreq := make([]float64, len(f.Frequency))
	parallel.Rows(f.BlocksY, workers, func(lo, hi int) {
		est := newFrequencyEstimator(2*bs, fmin, fmax)
		for by := lo; by < hi; by++ {
			for bx := 0; bx < f.BlocksX; bx++ {
				i := f.Index(bx, by)
				if f.Mask[i] {
					rawFreq[i] = est.estimate(g, f, bx, by)
				}
			}
		}
	})
	smoothFrequency(f, rawFreq, e.cfg.Field.SmoothingRadius, fmin, fmax, workers)

	return f, nil
}

// frequencyRange converts the configured period range to cycles per pixel at
// the grid resolution. Periods below 2 px cannot be represented.
func (e *Estimator) frequencyRange(res float64) (fmin, fmax float64) {
	minPeriod := math.Max(2, e.cfg.Scale(e.cfg.Field.MinPeriod, res))
	maxPeriod := math.Max(minPeriod+1, e.cfg.Scale(e.cfg.Field.MaxPeriod, res))
	return 1 / maxPeriod, 1 / minPeriod
}

func (e *Estimator) measure(g *imaging.PixelGrid, gx, gy []float64, f *Field, bx, by int, buf *[]float64) blockStats {
	x0, y0, x1, y1 := f.Bounds(bx, by)
	if (x1-x0)*(y1-y0) < 4 {
		return blockStats{}
	}

	values := (*buf)[:0]
	var sxx, sxy, energy float64
	w := g.Width()
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			values = append(values, g.At(x, y))
			dx, dy := gx[y*w+x], gy[y*w+x]
			sxx += dx*dx - dy*dy
			sxy += 2 * dx * dy
			energy += dx*dx + dy*dy
		}
	}
	*buf = values

	_, variance := stat.MeanVariance(values, nil)
	if math.Sqrt(variance) < e.cfg.Field.MinContrast || energy == 0 {
		return blockStats{}
	}

	// The ridge runs perpendicular to the gradient, which adds π to the
	// doubled angle and flips the vector.
	vx, vy := -sxx/energy, -sxy/energy
	return blockStats{
		foreground: true,
		vx:         vx,
		vy:         vy,
		coherence:  primitives.Clamp(math.Hypot(vx, vy), 0, 1),
	}
}

// sobel returns the horizontal and vertical Sobel gradients of g.
func sobel(g *imaging.PixelGrid, workers int) (gx, gy []float64) {
	w, h := g.Width(), g.Height()
	gx = make([]float64, w*h)
	gy = make([]float64, w*h)
	parallel.Rows(h, workers, func(lo, hi int) {
		for y := lo; y < hi; y++ {
			for x := 0; x < w; x++ {
				nw, n, ne := g.Clamped(x-1, y-1), g.Clamped(x, y-1), g.Clamped(x+1, y-1)
				west, east := g.Clamped(x-1, y), g.Clamped(x+1, y)
				sw, s, se := g.Clamped(x-1, y+1), g.Clamped(x, y+1), g.Clamped(x+1, y+1)
				gx[y*w+x] = (ne + 2*east + se) - (nw + 2*west + sw)
				gy[y*w+x] = (sw + 2*s + se) - (nw + 2*n + ne)
			}
		}
	})
	return gx, gy
}
