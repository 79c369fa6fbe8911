package primitives

import "math"

// Point is an integer pixel position.
type Point struct {
	X, Y int
}

func (p Point) Plus(o Point) Point  { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Minus(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }

// LengthSq is the squared Euclidean length of p seen as a vector.
func (p Point) LengthSq() int { return p.X*p.X + p.Y*p.Y }

// DistanceSq is the squared Euclidean distance between p and o.
func (p Point) DistanceSq(o Point) int { return p.Minus(o).LengthSq() }

// Angle is the direction of the vector from p to o in [0, 2π).
func (p Point) Angle(o Point) float64 {
	return NormalizeAngle(math.Atan2(float64(o.Y-p.Y), float64(o.X-p.X)))
}

// Offset returns the flat row-major index of p in a grid of the given width.
func (p Point) Offset(width int) int { return p.Y*width + p.X }

// In reports whether p lies inside a width×height grid.
func (p Point) In(width, height int) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < width && p.Y < height
}

// Neighbors lists the 8-ring around a pixel clockwise from north, y down.
var Neighbors = [8]Point{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}
