package template

import (
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/high-horse/fpextract/fault"
	"github.com/high-horse/fpextract/minutiae"
	"github.com/high-horse/fpextract/primitives"
)

// persistent is the CBOR map layout. Directions are radians measured
// clockwise on screen; types are one letter per minutia, E or B.
type persistent struct {
	Version    int       `cbor:"version"`
	Width      int       `cbor:"width"`
	Height     int       `cbor:"height"`
	Resolution float64   `cbor:"resolution"`
	PositionsX []int     `cbor:"positionsX"`
	PositionsY []int     `cbor:"positionsY"`
	Directions []float32 `cbor:"directions"`
	Types      string    `cbor:"types"`
	Qualities  []byte    `cbor:"qualities"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}).DecMode(); err != nil {
		panic(err)
	}
}

var typeCodes = map[minutiae.Type]byte{minutiae.Ending: 'E', minutiae.Bifurcation: 'B'}

// EncodeCBOR serializes t as a deterministic CBOR map.
func EncodeCBOR(t *Template) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	ms := canonical(t.Minutiae)

	p := persistent{
		Version:    t.Version,
		Width:      t.Width,
		Height:     t.Height,
		Resolution: t.Resolution,
		PositionsX: make([]int, len(ms)),
		PositionsY: make([]int, len(ms)),
		Directions: make([]float32, len(ms)),
		Qualities:  make([]byte, len(ms)),
	}
	var types strings.Builder
	for i, m := range ms {
		p.PositionsX[i] = m.X
		p.PositionsY[i] = m.Y
		p.Directions[i] = float32(m.Direction)
		p.Qualities[i] = primitives.QuantizeQuality(m.Quality)
		types.WriteByte(typeCodes[m.Type])
	}
	p.Types = types.String()

	b, err := encMode.Marshal(p)
	if err != nil {
		return nil, fault.New(fault.ErrEncoding, fault.StageEncode, errors.Wrap(err, "marshal cbor"))
	}
	return b, nil
}

// DecodeCBOR parses a CBOR template. Directions are snapped back onto the
// 16-bit grid. Older documents without qualities decode with quality 1.
func DecodeCBOR(b []byte) (*Template, error) {
	var p persistent
	if err := decMode.Unmarshal(b, &p); err != nil {
		return nil, fault.New(fault.ErrDecode, fault.StageTemplate, errors.Wrap(err, "unmarshal cbor"))
	}
	n := len(p.PositionsX)
	if len(p.PositionsY) != n || len(p.Directions) != n || len(p.Types) != n ||
		(p.Qualities != nil && len(p.Qualities) != n) {
		return nil, fault.Newf(fault.ErrDecode, fault.StageTemplate, "field lengths disagree")
	}

	t := &Template{
		Version:    p.Version,
		Width:      p.Width,
		Height:     p.Height,
		Resolution: p.Resolution,
		Minutiae:   make([]minutiae.Minutia, n),
	}
	for i := range t.Minutiae {
		m := minutiae.Minutia{
			X:         p.PositionsX[i],
			Y:         p.PositionsY[i],
			Direction: primitives.SnapDirection(float64(p.Directions[i])),
			Quality:   1,
		}
		switch p.Types[i] {
		case 'E':
			m.Type = minutiae.Ending
		case 'B':
			m.Type = minutiae.Bifurcation
		default:
			return nil, fault.Newf(fault.ErrDecode, fault.StageTemplate, "unknown minutia type %q", p.Types[i])
		}
		if p.Qualities != nil {
			m.Quality = primitives.DequantizeQuality(p.Qualities[i])
		}
		t.Minutiae[i] = m
	}
	if p := t.check(); p != "" {
		return nil, fault.Newf(fault.ErrDecode, fault.StageTemplate, "%s", p)
	}
	return t, nil
}
