// Package ridge estimates block-wise ridge orientation, ridge frequency and
// the foreground mask of a fingerprint image.
package ridge

// Undefined is stored in the orientation and frequency of background blocks.
const Undefined = -1.0

// Field holds per-block ridge estimates over a Width×Height pixel grid.
// Orientation is undirected, in [0, π), measured with atan2 in image
// coordinates. Frequency is in cycles per pixel.
type Field struct {
	Width, Height    int
	BlockSize        int
	BlocksX, BlocksY int

	Orientation []float64
	Frequency   []float64
	Coherence   []float64
	Mask        []bool
}

func newField(width, height, blockSize int) *Field {
	bx := (width + blockSize - 1) / blockSize
	by := (height + blockSize - 1) / blockSize
	n := bx * by
	f := &Field{
		Width:       width,
		Height:      height,
		BlockSize:   blockSize,
		BlocksX:     bx,
		BlocksY:     by,
		Orientation: make([]float64, n),
		Frequency:   make([]float64, n),
		Coherence:   make([]float64, n),
		Mask:        make([]bool, n),
	}
	for i := range f.Orientation {
		f.Orientation[i] = Undefined
		f.Frequency[i] = Undefined
	}
	return f
}

// Index returns the flat index of block (bx, by).
func (f *Field) Index(bx, by int) int { return by*f.BlocksX + bx }

// BlockOf returns the flat index of the block containing pixel (x, y).
func (f *Field) BlockOf(x, y int) int { return f.Index(x/f.BlockSize, y/f.BlockSize) }

// Bounds returns the pixel rectangle [x0,x1)×[y0,y1) covered by block
// (bx, by), clipped to the image.
func (f *Field) Bounds(bx, by int) (x0, y0, x1, y1 int) {
	x0, y0 = bx*f.BlockSize, by*f.BlockSize
	x1, y1 = min(x0+f.BlockSize, f.Width), min(y0+f.BlockSize, f.Height)
	return
}

func (f *Field) Foreground(x, y int) bool       { return f.Mask[f.BlockOf(x, y)] }
func (f *Field) OrientationAt(x, y int) float64 { return f.Orientation[f.BlockOf(x, y)] }
func (f *Field) FrequencyAt(x, y int) float64   { return f.Frequency[f.BlockOf(x, y)] }

// ForegroundBlocks counts blocks in the mask.
func (f *Field) ForegroundBlocks() int {
	n := 0
	for _, m := range f.Mask {
		if m {
			n++
		}
	}
	return n
}
