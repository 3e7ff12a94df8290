package math

import (
	"image"
	gomath "math"
)

// Vector is a 2D position or offset in world or screen space.
type Vector struct {
	X, Y float32
}

func NewVector(x, y float32) Vector {
	return Vector{X: x, Y: y}
}

func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector) Scale(s float32) Vector {
	return Vector{X: v.X * s, Y: v.Y * s}
}

func (v Vector) FloorIntX() int {
	return int(gomath.Floor(float64(v.X)))
}

func (v Vector) FloorIntY() int {
	return int(gomath.Floor(float64(v.Y)))
}

// Point converts the vector into a floored integer point.
func (v Vector) Point() image.Point {
	return image.Pt(v.FloorIntX(), v.FloorIntY())
}

// Lerp moves v toward target by the fraction t.
func (v Vector) Lerp(target Vector, t float32) Vector {
	t = Clamp(t, 0, 1)
	return Vector{
		X: v.X + (target.X-v.X)*t,
		Y: v.Y + (target.Y-v.Y)*t,
	}
}

// Wrap folds a coordinate into [0, size).
func Wrap(value, size float32) float32 {
	if size <= 0 {
		return value
	}
	r := float32(gomath.Mod(float64(value), float64(size)))
	if r < 0 {
		r += size
	}
	return r
}
