// Package template holds the extraction result and its two serialized forms:
// a compact fixed-width binary layout and a CBOR map compatible with
// SourceAFIS-style consumers.
package template

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/high-horse/fpextract/fault"
	"github.com/high-horse/fpextract/minutiae"
)

// Version is the only format version this package writes or reads.
const Version = 1

// Template is a set of minutiae together with the geometry of the image they
// were found in. Coordinates and Resolution are in the same units.
type Template struct {
	Version    int
	Width      int
	Height     int
	Resolution float64
	Minutiae   []minutiae.Minutia
}

// New returns a template of the current version holding a canonically
// ordered copy of ms.
func New(width, height int, resolution float64, ms []minutiae.Minutia) *Template {
	return &Template{
		Version:    Version,
		Width:      width,
		Height:     height,
		Resolution: resolution,
		Minutiae:   canonical(ms),
	}
}

func canonical(ms []minutiae.Minutia) []minutiae.Minutia {
	sorted := slices.Clone(ms)
	slices.SortFunc(sorted, minutiae.Compare)
	return sorted
}

// Validate checks everything the encoders rely on. A failure means the
// template was assembled incorrectly and is reported as fault.ErrEncoding.
func (t *Template) Validate() error {
	if p := t.check(); p != "" {
		return fault.Newf(fault.ErrEncoding, fault.StageEncode, "%s", p)
	}
	return nil
}

// check describes the first reason t cannot be serialized, or returns "".
func (t *Template) check() string {
	switch {
	case t == nil:
		return "nil template"
	case t.Version != Version:
		return fmt.Sprintf("unsupported version %d", t.Version)
	case t.Width < 1 || t.Width > math.MaxUint16 || t.Height < 1 || t.Height > math.MaxUint16:
		return fmt.Sprintf("dimensions %dx%d outside 1..%d", t.Width, t.Height, math.MaxUint16)
	case !(t.Resolution > 0) || t.Resolution*resolutionScale > math.MaxUint32:
		return fmt.Sprintf("resolution %v not encodable", t.Resolution)
	case len(t.Minutiae) > math.MaxUint16:
		return fmt.Sprintf("%d minutiae exceed %d", len(t.Minutiae), math.MaxUint16)
	}
	for i, m := range t.Minutiae {
		if p := t.problem(m); p != "" {
			return fmt.Sprintf("minutia %d %v: %s", i, m, p)
		}
	}
	return ""
}

func (t *Template) problem(m minutiae.Minutia) string {
	switch {
	case m.X < 0 || m.Y < 0 || m.X >= t.Width || m.Y >= t.Height:
		return "position outside the image"
	case !(m.Direction >= 0 && m.Direction < 2*math.Pi):
		return "direction outside [0, 2π)"
	case m.Type != minutiae.Ending && m.Type != minutiae.Bifurcation:
		return "unknown type"
	case !(m.Quality >= 0 && m.Quality <= 1):
		return "quality outside [0, 1]"
	}
	return ""
}

// Equal reports whether two templates describe the same minutiae in the same
// geometry.
func (t *Template) Equal(o *Template) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Version == o.Version && t.Width == o.Width && t.Height == o.Height &&
		t.Resolution == o.Resolution && slices.Equal(t.Minutiae, o.Minutiae)
}
