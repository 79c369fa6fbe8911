package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/jtejido/go-wsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/high-horse/fpextract/config"
	"github.com/high-horse/fpextract/fault"
)

func gradientImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x * 255) / (w - 1))})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// withPHYs inserts a pHYs chunk right after IHDR.
func withPHYs(t *testing.T, data []byte, dpi float64) []byte {
	t.Helper()
	ppm := uint32(math.Round(dpi * inchesPerMeter))
	body := make([]byte, 9)
	binary.BigEndian.PutUint32(body[0:4], ppm)
	binary.BigEndian.PutUint32(body[4:8], ppm)
	body[8] = 1

	chunk := make([]byte, 0, 21)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(body)))
	chunk = append(chunk, "pHYs"...)
	chunk = append(chunk, body...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	ihdrEnd := len(pngSignature) + 8 + 13 + 4
	out := append([]byte{}, data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...)
}

func TestDecodeGrayPNG(t *testing.T) {
	d := NewDecoder(config.Default())
	g, err := d.Decode(encodePNG(t, gradientImage(8, 4)), Options{})
	require.NoError(t, err)

	assert.Equal(t, 8, g.Width())
	assert.Equal(t, 4, g.Height())
	assert.Equal(t, 500.0, g.Resolution())
	assert.Equal(t, 0.0, g.At(0, 2))
	assert.Equal(t, 1.0, g.At(7, 2))
	assert.Len(t, g.Row(1), 8)
}

func TestDecodeEmbeddedResolution(t *testing.T) {
	data := withPHYs(t, encodePNG(t, gradientImage(40, 20)), 250)

	dpi, ok := EmbeddedDPI(data)
	require.True(t, ok)
	assert.InDelta(t, 250, dpi, 0.05)

	normalized, err := NewDecoder(config.Default()).Decode(data, Options{})
	require.NoError(t, err)
	assert.Equal(t, 80, normalized.Width())
	assert.Equal(t, 40, normalized.Height())
	assert.Equal(t, 500.0, normalized.Resolution())

	cfg := config.Default()
	cfg.Resolution.Normalize = false
	native, err := NewDecoder(cfg).Decode(data, Options{})
	require.NoError(t, err)
	assert.Equal(t, 40, native.Width())
	assert.InDelta(t, 250, native.Resolution(), 0.05)
}

func TestDecodeOverrideWins(t *testing.T) {
	data := withPHYs(t, encodePNG(t, gradientImage(40, 20)), 250)

	g, err := NewDecoder(config.Default()).Decode(data, Options{}.WithDPI(500))
	require.NoError(t, err)
	assert.Equal(t, 40, g.Width())
	assert.Equal(t, 20, g.Height())

	g, err = NewDecoder(config.Default()).Decode(data, Options{}.WithDPI(1000))
	require.NoError(t, err)
	assert.Equal(t, 20, g.Width())
	assert.Equal(t, 10, g.Height())
}

func TestDecodeRejectsBadOverride(t *testing.T) {
	data := encodePNG(t, gradientImage(8, 4))
	for _, dpi := range []float64{0, -500, math.NaN(), math.Inf(1)} {
		_, err := NewDecoder(config.Default()).Decode(data, Options{}.WithDPI(dpi))
		assert.ErrorIs(t, err, fault.ErrInvalidConfiguration, "dpi %v", dpi)
	}
}

func TestDecodeRejectsCorruptInput(t *testing.T) {
	valid := encodePNG(t, gradientImage(32, 32))
	cases := map[string][]byte{
		"empty":     nil,
		"truncated": valid[:len(valid)/2],
		"text":      []byte("definitely not an image"),
		"header":    valid[:8],
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			g, err := NewDecoder(config.Default()).Decode(data, Options{})
			assert.Nil(t, g)
			assert.ErrorIs(t, err, fault.ErrDecode)
			assert.Equal(t, fault.StageDecode, fault.StageOf(err))
		})
	}
}

func TestDecodeRejectsOversizedImage(t *testing.T) {
	cfg := config.Default()
	cfg.Resolution.MaxDimension = 16
	_, err := NewDecoder(cfg).Decode(encodePNG(t, gradientImage(32, 8)), Options{})
	assert.ErrorIs(t, err, fault.ErrDecode)

	// upscaling past the limit is caught before resampling
	_, err = NewDecoder(cfg).Decode(encodePNG(t, gradientImage(10, 10)), Options{}.WithDPI(100))
	assert.ErrorIs(t, err, fault.ErrDecode)
}

// withDeclaredSize rewrites the IHDR dimensions of a PNG, leaving the pixel
// data untouched.
func withDeclaredSize(data []byte, w, h uint32) []byte {
	out := append([]byte{}, data...)
	ihdr := len(pngSignature)
	binary.BigEndian.PutUint32(out[ihdr+8:], w)
	binary.BigEndian.PutUint32(out[ihdr+12:], h)
	binary.BigEndian.PutUint32(out[ihdr+21:], crc32.ChecksumIEEE(out[ihdr+4:ihdr+21]))
	return out
}

func TestDecodeRejectsHugeDeclaredImage(t *testing.T) {
	data := withDeclaredSize(encodePNG(t, gradientImage(2, 1)), 9000, 9000)

	hdr, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 9000, hdr.Width)

	g, err := NewDecoder(config.Default()).Decode(data, Options{})
	assert.Nil(t, g)
	assert.ErrorIs(t, err, fault.ErrDecode)
	assert.Contains(t, err.Error(), "9000x9000 image exceeds 4000 px")

	_, err = NewDecoder(config.Default()).Decode(data, Options{}.WithDPI(250))
	assert.ErrorIs(t, err, fault.ErrDecode)
	assert.Contains(t, err.Error(), "at 250 DPI exceeds")
}

func TestDecodeWSQ(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wsq.Encode(&buf, gradientImage(128, 96), nil))

	hdr, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "wsq", format)
	assert.Equal(t, 128, hdr.Width)
	assert.Equal(t, 96, hdr.Height)

	g, err := NewDecoder(config.Default()).Decode(buf.Bytes(), Options{}.WithDPI(500))
	require.NoError(t, err)
	assert.Equal(t, 128, g.Width())
	assert.Equal(t, 96, g.Height())
	assert.Less(t, g.At(4, 48), 0.2)
	assert.Greater(t, g.At(123, 48), 0.8)

	_, err = decodeWSQConfig(bytes.NewReader([]byte{0xff, 0xa0, 0xff, 0xd8}))
	assert.Error(t, err)
}

func TestDecodeColorImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 255, 255, 255})
	img.Set(1, 0, color.RGBA{0, 0, 0, 255})

	g, err := NewDecoder(config.Default()).Decode(encodePNG(t, img), Options{})
	require.NoError(t, err)
	assert.InDelta(t, 1, g.At(0, 0), 1e-9)
	assert.InDelta(t, 0, g.At(1, 0), 1e-9)
}

func TestDecodeOtherFormats(t *testing.T) {
	src := gradientImage(16, 8)

	var b bytes.Buffer
	require.NoError(t, bmp.Encode(&b, src))
	var tf bytes.Buffer
	require.NoError(t, tiff.Encode(&tf, src, nil))
	pgm := append([]byte("P5\n4 2\n255\n"), 0, 85, 170, 255, 255, 170, 85, 0)

	cases := map[string]struct {
		data []byte
		w, h int
	}{
		"bmp":  {b.Bytes(), 16, 8},
		"tiff": {tf.Bytes(), 16, 8},
		"pgm":  {pgm, 4, 2},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			g, err := NewDecoder(config.Default()).Decode(c.data, Options{}.WithDPI(500))
			require.NoError(t, err)
			assert.Equal(t, c.w, g.Width())
			assert.Equal(t, c.h, g.Height())
			assert.InDelta(t, 0, g.At(0, 0), 1e-9)
		})
	}
}

func TestEmbeddedDPIHeaders(t *testing.T) {
	jfif := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 1, 1, 1, 0x01, 0xF4, 0x01, 0xF4, 0, 0}
	dpi, ok := EmbeddedDPI(jfif)
	require.True(t, ok)
	assert.Equal(t, 500.0, dpi)

	jfif[13] = 2 // dots per centimetre
	dpi, ok = EmbeddedDPI(jfif)
	require.True(t, ok)
	assert.InDelta(t, 1270, dpi, 1e-9)

	bmpHeader := make([]byte, 54)
	copy(bmpHeader, "BM")
	binary.LittleEndian.PutUint32(bmpHeader[38:], 19685)
	dpi, ok = EmbeddedDPI(bmpHeader)
	require.True(t, ok)
	assert.InDelta(t, 500, dpi, 0.01)

	_, ok = EmbeddedDPI(encodePNG(t, gradientImage(4, 4)))
	assert.False(t, ok, "png without pHYs")
	_, ok = EmbeddedDPI([]byte("GIF89a"))
	assert.False(t, ok)
}

func TestResample(t *testing.T) {
	g, err := NewPixelGrid(2, 1, 250, []float64{0, 1})
	require.NoError(t, err)

	up := Resample(g, 4, 2, 500)
	assert.Equal(t, 4, up.Width())
	assert.Equal(t, 2, up.Height())
	assert.Equal(t, 500.0, up.Resolution())
	assert.Equal(t, 0.0, up.At(0, 0))
	assert.InDelta(t, 0.25, up.At(1, 1), 1e-12)
	assert.InDelta(t, 0.75, up.At(2, 0), 1e-12)
	assert.Equal(t, 1.0, up.At(3, 0))
}

func TestNewPixelGridValidates(t *testing.T) {
	_, err := NewPixelGrid(0, 1, 500, nil)
	assert.ErrorIs(t, err, fault.ErrDecode)
	_, err = NewPixelGrid(2, 2, 500, []float64{1})
	assert.ErrorIs(t, err, fault.ErrDecode)
	_, err = NewPixelGrid(1, 1, -1, []float64{1})
	assert.ErrorIs(t, err, fault.ErrInvalidConfiguration)

	pix := []float64{0.5}
	g, err := NewPixelGrid(1, 1, 500, pix)
	require.NoError(t, err)
	pix[0] = 0
	assert.Equal(t, 0.5, g.At(0, 0), "grid owns a copy")
}
