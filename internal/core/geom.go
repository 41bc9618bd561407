// Package core provides the geometry primitives shared by the simulation and
// the controller console. It has no external dependencies so game logic stays
// pure and testable.
package core

// Rect is an axis-aligned bounding box in playfield pixels.
type Rect struct {
	X, Y int // Top-left corner
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge (exclusive).
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge (exclusive).
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Intersects reports whether the two rectangles overlap.
// Touching edges do not count as an overlap.
func (r Rect) Intersects(other Rect) bool {
	if r.X >= other.Right() || other.X >= r.Right() {
		return false
	}
	if r.Y >= other.Bottom() || other.Y >= r.Bottom() {
		return false
	}
	return true
}

// Scale maps the rectangle from a playfield of size (fromW, fromH) onto a grid
// of size (toW, toH). Non-empty rectangles keep at least one cell.
func (r Rect) Scale(fromW, fromH, toW, toH int) Rect {
	if fromW <= 0 || fromH <= 0 {
		return Rect{}
	}
	out := Rect{
		X: r.X * toW / fromW,
		Y: r.Y * toH / fromH,
		W: r.W * toW / fromW,
		H: r.H * toH / fromH,
	}
	if r.W > 0 && out.W == 0 {
		out.W = 1
	}
	if r.H > 0 && out.H == 0 {
		out.H = 1
	}
	return out
}

// Clamp restricts a value to be within [lo, hi].
func Clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
