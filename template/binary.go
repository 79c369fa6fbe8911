package template

import (
	"encoding/binary"
	"math"

	"github.com/high-horse/fpextract/fault"
	"github.com/high-horse/fpextract/minutiae"
	"github.com/high-horse/fpextract/primitives"
)

// Magic opens every binary template.
const Magic = "FPMT"

const (
	headerSize      = 16
	recordSize      = 8
	resolutionScale = 100 // stored as hundredths of DPI
)

var order = binary.BigEndian

// Encode serializes t into the fixed-width binary layout. Minutiae are
// written in canonical order, so equal templates encode to equal bytes.
func Encode(t *Template) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	ms := canonical(t.Minutiae)

	b := make([]byte, headerSize+recordSize*len(ms))
	copy(b, Magic)
	order.PutUint16(b[4:], uint16(t.Version))
	order.PutUint16(b[6:], uint16(t.Width))
	order.PutUint16(b[8:], uint16(t.Height))
	order.PutUint32(b[10:], uint32(math.Round(t.Resolution*resolutionScale)))
	order.PutUint16(b[14:], uint16(len(ms)))

	for i, m := range ms {
		r := b[headerSize+recordSize*i:]
		order.PutUint16(r[0:], uint16(m.X))
		order.PutUint16(r[2:], uint16(m.Y))
		order.PutUint16(r[4:], primitives.QuantizeDirection(m.Direction))
		r[6] = byte(m.Type)
		r[7] = primitives.QuantizeQuality(m.Quality)
	}
	return b, nil
}

// Decode parses a binary template. Malformed input fails with
// fault.ErrDecode.
func Decode(b []byte) (*Template, error) {
	if len(b) < headerSize {
		return nil, fault.Newf(fault.ErrDecode, fault.StageTemplate, "%d bytes is shorter than the header", len(b))
	}
	if string(b[:4]) != Magic {
		return nil, fault.Newf(fault.ErrDecode, fault.StageTemplate, "bad magic %q", b[:4])
	}
	if v := order.Uint16(b[4:]); v != Version {
		return nil, fault.Newf(fault.ErrDecode, fault.StageTemplate, "unsupported version %d", v)
	}

	t := &Template{
		Version:    Version,
		Width:      int(order.Uint16(b[6:])),
		Height:     int(order.Uint16(b[8:])),
		Resolution: float64(order.Uint32(b[10:])) / resolutionScale,
	}
	count := int(order.Uint16(b[14:]))
	if want := headerSize + recordSize*count; len(b) != want {
		return nil, fault.Newf(fault.ErrDecode, fault.StageTemplate, "%d minutiae need %d bytes, got %d", count, want, len(b))
	}

	t.Minutiae = make([]minutiae.Minutia, count)
	for i := range t.Minutiae {
		r := b[headerSize+recordSize*i:]
		t.Minutiae[i] = minutiae.Minutia{
			X:         int(order.Uint16(r[0:])),
			Y:         int(order.Uint16(r[2:])),
			Direction: primitives.DequantizeDirection(order.Uint16(r[4:])),
			Type:      minutiae.Type(r[6]),
			Quality:   primitives.DequantizeQuality(r[7]),
		}
	}
	if p := t.check(); p != "" {
		return nil, fault.Newf(fault.ErrDecode, fault.StageTemplate, "%s", p)
	}
	return t, nil
}
