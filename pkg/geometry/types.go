// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the axis-aligned box area.
func (r RectInt) Area() int {
	return r.Width * r.Height
}

// Center returns the box center using integer division. Adjacency tests use
// the box center rather than the pixel centroid so results stay deterministic
// for identical boxes regardless of raster content.
func (r RectInt) Center() Point2D {
	return Point2D{
		X: float64(r.X + r.Width/2),
		Y: float64(r.Y + r.Height/2),
	}
}

// Union returns the minimal enclosing rectangle of both rectangles.
func (r RectInt) Union(other RectInt) RectInt {
	x := min(r.X, other.X)
	y := min(r.Y, other.Y)
	x2 := max(r.X+r.Width, other.X+other.Width)
	y2 := max(r.Y+r.Height, other.Y+other.Height)
	return RectInt{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Pad expands the rectangle outward by p pixels on every side, clamped to the
// raster bounds [0,w)x[0,h).
func (r RectInt) Pad(p, w, h int) RectInt {
	x1 := max(0, r.X-p)
	y1 := max(0, r.Y-p)
	x2 := min(w, r.X+r.Width+p)
	y2 := min(h, r.Y+r.Height+p)
	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Shrink contracts the rectangle inward by p pixels on every side. A collapsed
// result has non-positive width or height.
func (r RectInt) Shrink(p int) RectInt {
	return RectInt{X: r.X + p, Y: r.Y + p, Width: r.Width - 2*p, Height: r.Height - 2*p}
}

// Empty reports whether the rectangle has no area.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects returns true if this rectangle intersects with another.
func (r RectInt) Intersects(other RectInt) bool {
	return r.X < other.X+other.Width && r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height && r.Y+r.Height > other.Y
}
