// Package imaging decodes raster buffers into normalized grayscale grids.
package imaging

import (
	"math"

	"github.com/high-horse/fpextract/fault"
	"github.com/high-horse/fpextract/primitives"
)

// PixelGrid is an immutable row-major grayscale image with a physical
// resolution. Intensities are in [0,1], 0 being black.
type PixelGrid struct {
	width, height int
	resolution    float64
	pix           []float64
}

// NewPixelGrid copies pix into a new grid.
func NewPixelGrid(width, height int, resolution float64, pix []float64) (*PixelGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, fault.Newf(fault.ErrDecode, fault.StageDecode, "empty %dx%d image", width, height)
	}
	if len(pix) != width*height {
		return nil, fault.Newf(fault.ErrDecode, fault.StageDecode, "%d samples for a %dx%d image", len(pix), width, height)
	}
	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return nil, fault.Invalid(fault.StageDecode, "resolution %v is not a finite positive number", resolution)
	}
	cp := make([]float64, len(pix))
	copy(cp, pix)
	return &PixelGrid{width: width, height: height, resolution: resolution, pix: cp}, nil
}

func (g *PixelGrid) Width() int          { return g.width }
func (g *PixelGrid) Height() int         { return g.height }
func (g *PixelGrid) Resolution() float64 { return g.resolution }

// At returns the intensity at (x, y), which must be inside the grid.
func (g *PixelGrid) At(x, y int) float64 { return g.pix[y*g.width+x] }

// Clamped returns the intensity at (x, y) with coordinates clamped to the
// grid edges.
func (g *PixelGrid) Clamped(x, y int) float64 {
	x = primitives.Clamp(x, 0, g.width-1)
	y = primitives.Clamp(y, 0, g.height-1)
	return g.pix[y*g.width+x]
}

// Bilinear samples the grid at a sub-pixel position, clamping at the edges.
func (g *PixelGrid) Bilinear(x, y float64) float64 {
	x = primitives.Clamp(x, 0, float64(g.width-1))
	y = primitives.Clamp(y, 0, float64(g.height-1))
	x0, y0 := int(x), int(y)
	fx, fy := x-float64(x0), y-float64(y0)
	a := g.Clamped(x0, y0)
	b := g.Clamped(x0+1, y0)
	c := g.Clamped(x0, y0+1)
	d := g.Clamped(x0+1, y0+1)
	top := a + (b-a)*fx
	bottom := c + (d-c)*fx
	return top + (bottom-top)*fy
}

// Row returns a copy of row y.
func (g *PixelGrid) Row(y int) []float64 {
	row := make([]float64, g.width)
	copy(row, g.pix[y*g.width:(y+1)*g.width])
	return row
}
