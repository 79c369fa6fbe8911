package enhance

import "math"

type kernelKey struct {
	orientation int // bin index
	period      int // pixels
}

// kernel is a square, zero-mean, even-symmetric Gabor filter.
type kernel struct {
	radius  int
	size    int
	weights []float64
}

// gaborKernel builds a filter that responds to ridges running along theta
// with the given period. The cosine runs across the ridges and the Gaussian
// window is isotropic with deviation sigma. The DC component is removed in
// proportion to the window so flat regions respond with zero.
func gaborKernel(theta float64, period int, sigma float64, radius int) kernel {
	size := 2*radius + 1
	k := kernel{radius: radius, size: size, weights: make([]float64, size*size)}
	window := make([]float64, size*size)
	nx, ny := -math.Sin(theta), math.Cos(theta)

	var sum, wsum float64
	for v := -radius; v <= radius; v++ {
		for u := -radius; u <= radius; u++ {
			i := (v+radius)*size + u + radius
			g := math.Exp(-float64(u*u+v*v) / (2 * sigma * sigma))
			across := float64(u)*nx + float64(v)*ny
			window[i] = g
			k.weights[i] = g * math.Cos(2*math.Pi*across/float64(period))
			sum += k.weights[i]
			wsum += g
		}
	}
	dc := sum / wsum
	for i := range k.weights {
		k.weights[i] -= dc * window[i]
	}
	return k
}

// bank is a read-only set of kernels built before filtering starts.
type bank struct {
	bins    int
	sigma   float64
	radius  int
	kernels map[kernelKey]kernel
}

func newBank(bins int, sigma float64) *bank {
	return &bank{
		bins:    bins,
		sigma:   sigma,
		radius:  int(math.Ceil(3 * sigma)),
		kernels: make(map[kernelKey]kernel),
	}
}

// key quantizes an orientation in [0, π) and a frequency in cycles/px.
func (b *bank) key(orientation, frequency float64) kernelKey {
	bin := int(math.Round(orientation/math.Pi*float64(b.bins))) % b.bins
	period := max(2, int(math.Round(1/frequency)))
	return kernelKey{orientation: bin, period: period}
}

// add builds the kernel for k if absent. Not safe for concurrent use.
func (b *bank) add(k kernelKey) {
	if _, ok := b.kernels[k]; ok {
		return
	}
	theta := float64(k.orientation) * math.Pi / float64(b.bins)
	b.kernels[k] = gaborKernel(theta, k.period, b.sigma, b.radius)
}

func (b *bank) get(k kernelKey) kernel { return b.kernels[k] }
