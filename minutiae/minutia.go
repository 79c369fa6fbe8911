// Package minutiae locates ridge endings and bifurcations on a ridge
// skeleton.
package minutiae

import (
	"fmt"

	"github.com/high-horse/fpextract/primitives"
)

// Type distinguishes ridge endings from bifurcations.
type Type uint8

const (
	Ending Type = iota
	Bifurcation
)

func (t Type) String() string {
	switch t {
	case Ending:
		return "ending"
	case Bifurcation:
		return "bifurcation"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Minutia is a ridge feature. Direction is in [0, 2π), measured with atan2 in
// image coordinates (y down). Endings point away from the ridge they
// terminate; bifurcations point from the stem into the split.
type Minutia struct {
	X, Y      int
	Direction float64
	Type      Type
	Quality   float64
}

func (m Minutia) Position() primitives.Point { return primitives.Point{X: m.X, Y: m.Y} }

func (m Minutia) String() string {
	return fmt.Sprintf("%s(%d,%d %.3f q%.2f)", m.Type, m.X, m.Y, m.Direction, m.Quality)
}

// Compare orders minutiae canonically by Y, X, Direction, Type, Quality.
func Compare(a, b Minutia) int {
	switch {
	case a.Y != b.Y:
		return cmpOrdered(a.Y, b.Y)
	case a.X != b.X:
		return cmpOrdered(a.X, b.X)
	case a.Direction != b.Direction:
		return cmpOrdered(a.Direction, b.Direction)
	case a.Type != b.Type:
		return cmpOrdered(a.Type, b.Type)
	}
	return cmpOrdered(a.Quality, b.Quality)
}

func cmpOrdered[T int | float64 | Type](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
