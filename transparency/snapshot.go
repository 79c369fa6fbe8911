package transparency

import (
	"github.com/high-horse/fpextract/enhance"
	"github.com/high-horse/fpextract/imaging"
	"github.com/high-horse/fpextract/minutiae"
	"github.com/high-horse/fpextract/primitives"
	"github.com/high-horse/fpextract/ridge"
)

// ImageSnapshot is the decoded grid with intensities quantized to bytes.
type ImageSnapshot struct {
	Width      int     `cbor:"width"`
	Height     int     `cbor:"height"`
	Resolution float64 `cbor:"resolution"`
	Pixels     []byte  `cbor:"pixels"`
}

func SnapshotImage(g *imaging.PixelGrid) ImageSnapshot {
	s := ImageSnapshot{
		Width:      g.Width(),
		Height:     g.Height(),
		Resolution: g.Resolution(),
		Pixels:     make([]byte, 0, g.Width()*g.Height()),
	}
	for y := 0; y < g.Height(); y++ {
		for _, v := range g.Row(y) {
			s.Pixels = append(s.Pixels, primitives.QuantizeQuality(v))
		}
	}
	return s
}

// FieldSnapshot is the block grid of the ridge field.
type FieldSnapshot struct {
	BlockSize   int       `cbor:"blockSize"`
	BlocksX     int       `cbor:"blocksX"`
	BlocksY     int       `cbor:"blocksY"`
	Orientation []float32 `cbor:"orientation"`
	Frequency   []float32 `cbor:"frequency"`
	Coherence   []float32 `cbor:"coherence"`
	Mask        []bool    `cbor:"mask"`
}

func SnapshotField(f *ridge.Field) FieldSnapshot {
	return FieldSnapshot{
		BlockSize:   f.BlockSize,
		BlocksX:     f.BlocksX,
		BlocksY:     f.BlocksY,
		Orientation: narrow(f.Orientation),
		Frequency:   narrow(f.Frequency),
		Coherence:   narrow(f.Coherence),
		Mask:        f.Mask,
	}
}

func narrow(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// SkeletonSnapshot stores ridge and mask pixels as bitmaps, one bit per
// pixel, most significant bit first.
type SkeletonSnapshot struct {
	Width  int    `cbor:"width"`
	Height int    `cbor:"height"`
	Ridge  []byte `cbor:"ridge"`
	Mask   []byte `cbor:"mask"`
}

func SnapshotSkeleton(s *enhance.Skeleton) SkeletonSnapshot {
	return SkeletonSnapshot{
		Width:  s.Width,
		Height: s.Height,
		Ridge:  pack(s.Ridge),
		Mask:   pack(s.Mask),
	}
}

func pack(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

// MinutiaSnapshot is one detected minutia.
type MinutiaSnapshot struct {
	X         int     `cbor:"x"`
	Y         int     `cbor:"y"`
	Direction float64 `cbor:"direction"`
	Type      string  `cbor:"type"`
	Quality   float64 `cbor:"quality"`
}

func SnapshotMinutiae(ms []minutiae.Minutia) []MinutiaSnapshot {
	out := make([]MinutiaSnapshot, len(ms))
	for i, m := range ms {
		out[i] = MinutiaSnapshot{X: m.X, Y: m.Y, Direction: m.Direction, Type: m.Type.String(), Quality: m.Quality}
	}
	return out
}
