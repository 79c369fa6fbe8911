package imaging

import (
	"bytes"
	"image"
	"image/color"
	"math"

	// Registered raster formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/spakin/netpbm"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pkg/errors"

	"github.com/high-horse/fpextract/config"
	"github.com/high-horse/fpextract/fault"
)

// Options carries per-image decoding choices. The zero value supplies no
// resolution override.
type Options struct {
	dpi    float64
	hasDPI bool
}

// WithDPI returns a copy of o that overrides the image resolution. The value
// is validated by Decode.
func (o Options) WithDPI(dpi float64) Options {
	o.dpi, o.hasDPI = dpi, true
	return o
}

// DPI returns the override and whether one was supplied.
func (o Options) DPI() (float64, bool) { return o.dpi, o.hasDPI }

// Decoder turns encoded image buffers into PixelGrids.
type Decoder struct {
	cfg *config.Config
}

func NewDecoder(cfg *config.Config) *Decoder {
	return &Decoder{cfg: cfg}
}

// Decode parses data, resolves its resolution (override, then embedded
// metadata, then the configured default) and, when normalization is enabled,
// resamples it to the target resolution.
func (d *Decoder) Decode(data []byte, opts Options) (*PixelGrid, error) {
	resolution, err := d.resolve(data, opts)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fault.Newf(fault.ErrDecode, fault.StageDecode, "empty buffer")
	}

	rc := d.cfg.Resolution
	resample := rc.Normalize && math.Abs(resolution-rc.Target) > 1e-6

	// the declared size is checked before any pixel buffer is allocated
	hdr, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fault.New(fault.ErrDecode, fault.StageDecode, errors.Wrap(err, "decode image header"))
	}
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return nil, fault.Newf(fault.ErrDecode, fault.StageDecode, "%s image has no pixels", format)
	}
	if err := checkSize(hdr.Width, hdr.Height, resolution, resample, rc); err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fault.New(fault.ErrDecode, fault.StageDecode, errors.Wrap(err, "decode image"))
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fault.Newf(fault.ErrDecode, fault.StageDecode, "%s image has no pixels", format)
	}
	if err := checkSize(b.Dx(), b.Dy(), resolution, resample, rc); err != nil {
		return nil, err
	}

	grid, err := NewPixelGrid(b.Dx(), b.Dy(), resolution, toIntensity(img))
	if err != nil {
		return nil, err
	}
	if resample {
		w, h := scaledSize(grid.width, grid.height, rc.Target/resolution)
		grid = Resample(grid, w, h, rc.Target)
	}
	return grid, nil
}

// checkSize rejects images whose working size, after any resampling to the
// target resolution, exceeds the configured bound.
func checkSize(w, h int, resolution float64, resample bool, rc config.ResolutionConfig) error {
	if !resample {
		if w > rc.MaxDimension || h > rc.MaxDimension {
			return fault.Newf(fault.ErrDecode, fault.StageDecode, "%dx%d image exceeds %d px", w, h, rc.MaxDimension)
		}
		return nil
	}
	sw, sh := scaledSize(w, h, rc.Target/resolution)
	if sw > rc.MaxDimension || sh > rc.MaxDimension {
		return fault.Newf(fault.ErrDecode, fault.StageDecode,
			"%dx%d image at %v DPI exceeds %d px at %v DPI", w, h, resolution, rc.MaxDimension, rc.Target)
	}
	return nil
}

func (d *Decoder) resolve(data []byte, opts Options) (float64, error) {
	if dpi, ok := opts.DPI(); ok {
		if !(dpi > 0) || math.IsInf(dpi, 0) {
			return 0, fault.Invalid(fault.StageDecode, "resolution override %v is not a finite positive number", dpi)
		}
		return dpi, nil
	}
	if dpi, ok := EmbeddedDPI(data); ok {
		return dpi, nil
	}
	return d.cfg.Resolution.Default, nil
}

// toIntensity converts any image to row-major luminance in [0,1].
func toIntensity(img image.Image) []float64 {
	b := img.Bounds()
	w := b.Dx()
	pix := make([]float64, w*b.Dy())

	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
			for x, v := range row {
				pix[y*w+x] = float64(v) / 255
			}
		}
		return pix
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			pix[(y-b.Min.Y)*w+(x-b.Min.X)] = float64(c.Y) / 0xFFFF
		}
	}
	return pix
}

// FromGray builds a grid from an in-memory grayscale image.
func FromGray(img *image.Gray, resolution float64) (*PixelGrid, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fault.Newf(fault.ErrDecode, fault.StageDecode, "image has no pixels")
	}
	return NewPixelGrid(b.Dx(), b.Dy(), resolution, toIntensity(img))
}

func scaledSize(w, h int, factor float64) (int, int) {
	sw := int(math.Round(float64(w) * factor))
	sh := int(math.Round(float64(h) * factor))
	return max(sw, 1), max(sh, 1)
}
