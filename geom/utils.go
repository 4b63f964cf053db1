package geom

import "math"

func Abs(v Element) Element {
	return Element(math.Abs(float64(v)))
}

func Min(a, b Element) Element {
	if a < b {
		return a
	}
	return b
}

func Max(a, b Element) Element {
	if a > b {
		return a
	}
	return b
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) Element {
	return Element(deg * math.Pi / 180)
}
