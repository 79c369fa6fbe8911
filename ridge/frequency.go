package ridge

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/high-horse/fpextract/imaging"
	"github.com/high-horse/fpextract/primitives"
)

// frequencyEstimator finds the dominant spatial frequency of the oriented
// intensity profile across a block. It owns its FFT buffers and must not be
// shared between goroutines.
type frequencyEstimator struct {
	length     int
	fmin, fmax float64
	fft        *fourier.FFT
	signature  []float64
	coeffs     []complex128
}

func newFrequencyEstimator(length int, fmin, fmax float64) *frequencyEstimator {
	length = max(length, 8)
	return &frequencyEstimator{
		length:    length,
		fmin:      fmin,
		fmax:      fmax,
		fft:       fourier.NewFFT(length),
		signature: make([]float64, length),
		coeffs:    make([]complex128, length/2+1),
	}
}

// estimate samples a window of 2·block across the ridges, averages it along
// the ridge direction and picks the strongest admissible FFT bin.
func (e *frequencyEstimator) estimate(g *imaging.PixelGrid, f *Field, bx, by int) float64 {
	x0, y0, x1, y1 := f.Bounds(bx, by)
	cx := float64(x0+x1-1) / 2
	cy := float64(y0+y1-1) / 2

	theta := f.Orientation[f.Index(bx, by)]
	tx, ty := math.Cos(theta), math.Sin(theta)
	nx, ny := -ty, tx
	width := f.BlockSize

	var mean float64
	for k := range e.signature {
		s := float64(k) - float64(e.length)/2 + 0.5
		var sum float64
		for j := 0; j < width; j++ {
			d := float64(j) - float64(width-1)/2
			sum += g.Bilinear(cx+s*nx+d*tx, cy+s*ny+d*ty)
		}
		e.signature[k] = sum / float64(width)
		mean += e.signature[k]
	}
	mean /= float64(e.length)
	for k := range e.signature {
		e.signature[k] -= mean
	}

	e.coeffs = e.fft.Coefficients(e.coeffs, e.signature)

	n := float64(e.length)
	lo := max(1, int(math.Floor(e.fmin*n)))
	hi := min(len(e.coeffs)-1, int(math.Ceil(e.fmax*n)))
	best, bestMag := -1, 0.0
	for k := lo; k <= hi; k++ {
		if m := cmplx.Abs(e.coeffs[k]); m > bestMag {
			best, bestMag = k, m
		}
	}
	if best < 0 {
		return (e.fmin + e.fmax) / 2
	}

	peak := float64(best)
	if best > 0 && best < len(e.coeffs)-1 {
		a := cmplx.Abs(e.coeffs[best-1])
		c := cmplx.Abs(e.coeffs[best+1])
		if denom := a - 2*bestMag + c; denom != 0 {
			peak += primitives.Clamp(0.5*(a-c)/denom, -0.5, 0.5)
		}
	}
	return primitives.Clamp(peak/n, e.fmin, e.fmax)
}
