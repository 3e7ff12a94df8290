package math

import (
	"image"

	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Abs returns the absolute value of a signed number.
func Abs[T constraints.Signed | constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Rect builds an image.Rectangle from a position and a size.
func Rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

// Intersect returns the intersection of a and b and whether it is non-empty.
func Intersect(a, b image.Rectangle) (image.Rectangle, bool) {
	r := a.Intersect(b)
	return r, !r.Empty()
}

// Mod folds an integer into [0, size).
func Mod(value, size int) int {
	if size <= 0 {
		return value
	}
	r := value % size
	if r < 0 {
		r += size
	}
	return r
}
