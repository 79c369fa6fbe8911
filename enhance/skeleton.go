package enhance

// Skeleton is the binarized ridge map handed to minutiae detection. Ridge
// and Mask are row-major per pixel; Quality is per block of BlockSize pixels.
// A Skeleton is not modified after it is produced.
type Skeleton struct {
	Width, Height int
	Resolution    float64

	Ridge []bool
	Mask  []bool
	// Thin is set when ridges are already one pixel wide.
	Thin bool

	BlockSize        int
	BlocksX, BlocksY int
	Quality          []float64
}

// NewSkeleton returns an empty skeleton whose mask covers the whole image,
// with a single block of quality 1.
func NewSkeleton(width, height int, resolution float64) *Skeleton {
	mask := make([]bool, width*height)
	for i := range mask {
		mask[i] = true
	}
	return &Skeleton{
		Width:      width,
		Height:     height,
		Resolution: resolution,
		Ridge:      make([]bool, width*height),
		Mask:       mask,
		BlockSize:  max(width, height, 1),
		BlocksX:    1,
		BlocksY:    1,
		Quality:    []float64{1},
	}
}

func (s *Skeleton) Index(x, y int) int { return y*s.Width + x }

func (s *Skeleton) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.Width && y < s.Height
}

// IsRidge reports whether (x, y) is a ridge pixel; outside the image is not.
func (s *Skeleton) IsRidge(x, y int) bool {
	return s.In(x, y) && s.Ridge[s.Index(x, y)]
}

// InMask reports whether (x, y) is foreground; outside the image is not.
func (s *Skeleton) InMask(x, y int) bool {
	return s.In(x, y) && s.Mask[s.Index(x, y)]
}

// QualityAt returns the block quality around (x, y).
func (s *Skeleton) QualityAt(x, y int) float64 {
	bx := min(x/s.BlockSize, s.BlocksX-1)
	by := min(y/s.BlockSize, s.BlocksY-1)
	return s.Quality[by*s.BlocksX+bx]
}

// RidgeCount counts ridge pixels.
func (s *Skeleton) RidgeCount() int {
	n := 0
	for _, r := range s.Ridge {
		if r {
			n++
		}
	}
	return n
}
