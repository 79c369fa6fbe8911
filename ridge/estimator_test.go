package ridge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/high-horse/fpextract/config"
	"github.com/high-horse/fpextract/imaging"
)

// stripes renders a cosine ridge pattern whose intensity varies along the
// direction normal (radians) with the given period in pixels.
func stripes(w, h int, period, normal float64, region func(x, y int) bool) []float64 {
	pix := make([]float64, w*h)
	cn, sn := math.Cos(normal), math.Sin(normal)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if region != nil && !region(x, y) {
				pix[y*w+x] = 0.5
				continue
			}
			p := float64(x)*cn + float64(y)*sn
			pix[y*w+x] = 0.5 + 0.5*math.Cos(2*math.Pi*p/period)
		}
	}
	return pix
}

func grid(t *testing.T, w, h int, pix []float64) *imaging.PixelGrid {
	t.Helper()
	g, err := imaging.NewPixelGrid(w, h, 500, pix)
	require.NoError(t, err)
	return g
}

func estimate(t *testing.T, g *imaging.PixelGrid) *Field {
	t.Helper()
	f, err := NewEstimator(config.Default()).Estimate(g)
	require.NoError(t, err)
	return f
}

// orientationError is the undirected distance between two orientations.
func orientationError(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), math.Pi)
	return math.Min(d, math.Pi-d)
}

func TestVerticalRidges(t *testing.T) {
	f := estimate(t, grid(t, 128, 128, stripes(128, 128, 10, 0, nil)))

	require.Equal(t, 8, f.BlocksX)
	require.Equal(t, 8, f.BlocksY)
	assert.Equal(t, 64, f.ForegroundBlocks())
	for by := 2; by < 6; by++ {
		for bx := 2; bx < 6; bx++ {
			i := f.Index(bx, by)
			assert.Less(t, orientationError(f.Orientation[i], math.Pi/2), 0.05, "block %d,%d", bx, by)
			assert.InDelta(t, 0.1, f.Frequency[i], 0.015, "block %d,%d", bx, by)
			assert.Greater(t, f.Coherence[i], 0.8)
		}
	}
}

func TestHorizontalRidges(t *testing.T) {
	f := estimate(t, grid(t, 96, 96, stripes(96, 96, 8, math.Pi/2, nil)))

	for i, m := range f.Mask {
		require.True(t, m)
		assert.GreaterOrEqual(t, f.Orientation[i], 0.0)
		assert.Less(t, f.Orientation[i], math.Pi)
		assert.Less(t, orientationError(f.Orientation[i], 0), 0.1)
	}
}

func TestSmoothingAcrossOrientationWrap(t *testing.T) {
	// Ridges at +3° on the left and -3° (177°) on the right. A naive mean of
	// 3° and 177° would produce 90° at the seam.
	deg := math.Pi / 180
	w, h := 128, 128
	left := stripes(w, h, 9, 93*deg, nil)
	right := stripes(w, h, 9, 87*deg, nil)
	pix := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				pix[y*w+x] = left[y*w+x]
			} else {
				pix[y*w+x] = right[y*w+x]
			}
		}
	}
	f := estimate(t, grid(t, w, h, pix))

	for by := 1; by < f.BlocksY-1; by++ {
		for bx := 1; bx < f.BlocksX-1; bx++ {
			i := f.Index(bx, by)
			require.True(t, f.Mask[i])
			assert.Less(t, orientationError(f.Orientation[i], 0), 10*deg, "block %d,%d: %v", bx, by, f.Orientation[i])
		}
	}
}

func TestUniformImageIsBackground(t *testing.T) {
	pix := make([]float64, 64*64)
	for i := range pix {
		pix[i] = 0.7
	}
	f := estimate(t, grid(t, 64, 64, pix))

	assert.Zero(t, f.ForegroundBlocks())
	for i := range f.Mask {
		assert.Equal(t, Undefined, f.Orientation[i])
		assert.Equal(t, Undefined, f.Frequency[i])
		assert.Zero(t, f.Coherence[i])
	}
}

func TestSegmentation(t *testing.T) {
	pix := stripes(128, 64, 10, 0, func(x, y int) bool { return x < 64 })
	f := estimate(t, grid(t, 128, 64, pix))

	for by := 0; by < f.BlocksY; by++ {
		for bx := 0; bx < f.BlocksX; bx++ {
			assert.Equal(t, bx < 4, f.Mask[f.Index(bx, by)], "block %d,%d", bx, by)
		}
	}
	assert.True(t, f.Foreground(10, 10))
	assert.False(t, f.Foreground(100, 10))
	assert.Equal(t, Undefined, f.OrientationAt(100, 10))
	assert.NotEqual(t, Undefined, f.FrequencyAt(10, 10))
}

func TestIsolatedBlockIsDropped(t *testing.T) {
	pix := stripes(80, 80, 8, 0, func(x, y int) bool {
		return x >= 32 && x < 48 && y >= 32 && y < 48
	})
	f := estimate(t, grid(t, 80, 80, pix))
	assert.Zero(t, f.ForegroundBlocks())
}

func TestFrequencyIsClamped(t *testing.T) {
	cfg := config.Default()
	f, err := NewEstimator(cfg).Estimate(grid(t, 128, 128, stripes(128, 128, 40, 0, nil)))
	require.NoError(t, err)

	for i, m := range f.Mask {
		if !m {
			continue
		}
		assert.GreaterOrEqual(t, f.Frequency[i], 1/cfg.Field.MaxPeriod-1e-12)
		assert.LessOrEqual(t, f.Frequency[i], 1/cfg.Field.MinPeriod+1e-12)
	}
}

func TestResultIndependentOfWorkers(t *testing.T) {
	g := grid(t, 100, 90, stripes(100, 90, 9, 0.7, nil))

	one := config.Default()
	one.Workers = 1
	many := config.Default()
	many.Workers = 7

	a, err := NewEstimator(one).Estimate(g)
	require.NoError(t, err)
	b, err := NewEstimator(many).Estimate(g)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBlockSizeScalesWithResolution(t *testing.T) {
	g, err := imaging.NewPixelGrid(64, 64, 250, stripes(64, 64, 5, 0, nil))
	require.NoError(t, err)
	f, err := NewEstimator(config.Default()).Estimate(g)
	require.NoError(t, err)

	assert.Equal(t, 8, f.BlockSize)
	x0, y0, x1, y1 := f.Bounds(7, 7)
	assert.Equal(t, []int{56, 56, 64, 64}, []int{x0, y0, x1, y1})
}
