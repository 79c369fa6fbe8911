package ridge

import (
	"github.com/high-horse/fpextract/internal/parallel"
	"github.com/high-horse/fpextract/primitives"
)

// vote builds the mask from raw measurements, dropping foreground blocks whose
// in-bounds 3×3 neighbourhood is not mostly foreground. Background blocks are
// never promoted.
func vote(f *Field, raw []blockStats) {
	for by := 0; by < f.BlocksY; by++ {
		for bx := 0; bx < f.BlocksX; bx++ {
			i := f.Index(bx, by)
			if !raw[i].foreground {
				continue
			}
			fg, total := 0, 0
			for ny := by - 1; ny <= by+1; ny++ {
				for nx := bx - 1; nx <= bx+1; nx++ {
					if nx < 0 || ny < 0 || nx >= f.BlocksX || ny >= f.BlocksY {
						continue
					}
					total++
					if raw[f.Index(nx, ny)].foreground {
						fg++
					}
				}
			}
			f.Mask[i] = 2*fg > total
		}
	}
	for i, m := range f.Mask {
		if m {
			f.Coherence[i] = raw[i].coherence
		}
	}
}

// smoothOrientation averages doubled-angle vectors of foreground blocks within
// radius. Magnitudes carry coherence, so confident blocks dominate.
func smoothOrientation(f *Field, raw []blockStats, radius, workers int) {
	parallel.Rows(f.BlocksY, workers, func(lo, hi int) {
		for by := lo; by < hi; by++ {
			for bx := 0; bx < f.BlocksX; bx++ {
				i := f.Index(bx, by)
				if !f.Mask[i] {
					continue
				}
				var sx, sy float64
				forNeighbors(f, bx, by, radius, func(j int) {
					sx += raw[j].vx
					sy += raw[j].vy
				})
				theta, ok := primitives.VectorOrientation(sx, sy)
				if !ok {
					theta, _ = primitives.VectorOrientation(raw[i].vx, raw[i].vy)
				}
				f.Orientation[i] = theta
			}
		}
	})
}

// smoothFrequency replaces each foreground frequency by the mean over
// foreground neighbours within radius, clamped into [fmin, fmax].
func smoothFrequency(f *Field, raw []float64, radius int, fmin, fmax float64, workers int) {
	parallel.Rows(f.BlocksY, workers, func(lo, hi int) {
		for by := lo; by < hi; by++ {
			for bx := 0; bx < f.BlocksX; bx++ {
				i := f.Index(bx, by)
				if !f.Mask[i] {
					continue
				}
				var sum float64
				n := 0
				forNeighbors(f, bx, by, radius, func(j int) {
					sum += raw[j]
					n++
				})
				f.Frequency[i] = primitives.Clamp(sum/float64(n), fmin, fmax)
			}
		}
	})
}

// forNeighbors calls fn with the index of every foreground block within the
// square radius around (bx, by), including the block itself.
func forNeighbors(f *Field, bx, by, radius int, fn func(j int)) {
	for ny := max(0, by-radius); ny <= min(f.BlocksY-1, by+radius); ny++ {
		for nx := max(0, bx-radius); nx <= min(f.BlocksX-1, bx+radius); nx++ {
			if j := f.Index(nx, ny); f.Mask[j] {
				fn(j)
			}
		}
	}
}
