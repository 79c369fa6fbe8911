package imaging

// Resample scales g to width×height with bilinear interpolation, sampling at
// pixel centres, and labels the result with the given resolution.
func Resample(g *PixelGrid, width, height int, resolution float64) *PixelGrid {
	if width == g.width && height == g.height {
		return &PixelGrid{width: width, height: height, resolution: resolution, pix: g.pix}
	}
	sx := float64(g.width) / float64(width)
	sy := float64(g.height) / float64(height)
	pix := make([]float64, width*height)
	for y := 0; y < height; y++ {
		fy := (float64(y)+0.5)*sy - 0.5
		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)*sx - 0.5
			pix[y*width+x] = g.Bilinear(fx, fy)
		}
	}
	return &PixelGrid{width: width, height: height, resolution: resolution, pix: pix}
}
