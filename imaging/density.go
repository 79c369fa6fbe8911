package imaging

import (
	"bytes"
	"encoding/binary"
)

const inchesPerMeter = 39.37007874015748

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	jfifID       = []byte("JFIF\x00")
)

// EmbeddedDPI extracts the horizontal resolution stored in the image header,
// if any. PNG pHYs, JPEG JFIF APP0 and BMP info headers are understood.
func EmbeddedDPI(data []byte) (float64, bool) {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		return pngDPI(data[len(pngSignature):])
	case len(data) > 2 && data[0] == 0xFF && data[1] == 0xD8:
		return jfifDPI(data[2:])
	case bytes.HasPrefix(data, []byte("BM")):
		return bmpDPI(data)
	}
	return 0, false
}

func pngDPI(chunks []byte) (float64, bool) {
	for len(chunks) >= 12 {
		n := int(binary.BigEndian.Uint32(chunks[:4]))
		kind := string(chunks[4:8])
		if n < 0 || len(chunks) < 12+n {
			return 0, false
		}
		body := chunks[8 : 8+n]
		switch kind {
		case "pHYs":
			if n < 9 || body[8] != 1 { // unit 1 is the metre
				return 0, false
			}
			ppm := binary.BigEndian.Uint32(body[:4])
			if ppm == 0 {
				return 0, false
			}
			return float64(ppm) / inchesPerMeter, true
		case "IDAT", "IEND":
			// pHYs must precede the image data
			return 0, false
		}
		chunks = chunks[12+n:]
	}
	return 0, false
}

func jfifDPI(segments []byte) (float64, bool) {
	// APP0 must directly follow SOI in a JFIF stream.
	if len(segments) < 4 || segments[0] != 0xFF || segments[1] != 0xE0 {
		return 0, false
	}
	n := int(binary.BigEndian.Uint16(segments[2:4]))
	if n < 14 || len(segments) < 2+n {
		return 0, false
	}
	body := segments[4 : 2+n]
	if !bytes.HasPrefix(body, jfifID) {
		return 0, false
	}
	units := body[7]
	x := float64(binary.BigEndian.Uint16(body[8:10]))
	if x == 0 {
		return 0, false
	}
	switch units {
	case 1:
		return x, true
	case 2:
		return x * 2.54, true
	}
	return 0, false
}

func bmpDPI(data []byte) (float64, bool) {
	// 14-byte file header, then BITMAPINFOHEADER with biXPelsPerMeter at 24
	if len(data) < 42 {
		return 0, false
	}
	ppm := int32(binary.LittleEndian.Uint32(data[38:42]))
	if ppm <= 0 {
		return 0, false
	}
	return float64(ppm) / inchesPerMeter, true
}
