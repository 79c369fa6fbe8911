package primitives

import "math"

const (
	Pi2 = 2 * math.Pi

	// DirectionBits is the width of a quantized minutia direction.
	DirectionBits  = 16
	directionSteps = 1 << DirectionBits
	qualitySteps   = 255
)

// NormalizeAngle maps a to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, Pi2)
	if a < 0 {
		a += Pi2
	}
	if a >= Pi2 {
		a = 0
	}
	return a
}

// NormalizeOrientation maps an undirected angle to [0, π).
func NormalizeOrientation(a float64) float64 {
	a = math.Mod(a, math.Pi)
	if a < 0 {
		a += math.Pi
	}
	if a >= math.Pi {
		a = 0
	}
	return a
}

// AngleDistance is the unsigned circular distance between two directions, in
// [0, π].
func AngleDistance(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > math.Pi {
		d = Pi2 - d
	}
	return d
}

// OrientationVector returns the doubled-angle unit vector of an undirected
// orientation. Sums of these vectors average angles that wrap at π.
func OrientationVector(theta float64) (x, y float64) {
	return math.Cos(2 * theta), math.Sin(2 * theta)
}

// VectorOrientation converts a summed doubled-angle vector back to an
// orientation in [0, π). ok is false for a zero vector.
func VectorOrientation(x, y float64) (theta float64, ok bool) {
	if x == 0 && y == 0 {
		return 0, false
	}
	return NormalizeOrientation(math.Atan2(y, x) / 2), true
}

// MeanOrientation averages undirected orientations with optional weights
// (nil means equal weights).
func MeanOrientation(thetas, weights []float64) (float64, bool) {
	var sx, sy float64
	for i, t := range thetas {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		x, y := OrientationVector(t)
		sx += w * x
		sy += w * y
	}
	return VectorOrientation(sx, sy)
}

// QuantizeDirection maps a direction to its 16-bit code.
func QuantizeDirection(a float64) uint16 {
	q := math.Round(NormalizeAngle(a) / Pi2 * directionSteps)
	return uint16(int64(q) % directionSteps)
}

// DequantizeDirection maps a 16-bit code back to radians.
func DequantizeDirection(q uint16) float64 {
	return float64(q) * Pi2 / directionSteps
}

// SnapDirection rounds a direction onto the quantization grid so that
// encoding it is lossless.
func SnapDirection(a float64) float64 {
	return DequantizeDirection(QuantizeDirection(a))
}

// QuantizeQuality maps a quality in [0,1] to a byte.
func QuantizeQuality(q float64) uint8 {
	return uint8(math.Round(Clamp(q, 0, 1) * qualitySteps))
}

// DequantizeQuality maps a quality byte back to [0,1].
func DequantizeQuality(q uint8) float64 {
	return float64(q) / qualitySteps
}

// SnapQuality rounds a quality onto the byte grid.
func SnapQuality(q float64) float64 {
	return DequantizeQuality(QuantizeQuality(q))
}
