// Package canvas holds the coordinate model shared by the placement editor and the signer canvas:
// page-relative percentages, legacy fixed-point coordinates, field sizes and page ordering.
package canvas

import "math"

// Reference page in PDF points (A4). Legacy fixed-point coordinates and field sizes are
// expressed against it.
const (
	ReferenceWidth  = 595.0
	ReferenceHeight = 842.0
)

// pctUpperBound tolerates float noise just above 1 in stored percentages.
const pctUpperBound = 1.0001

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Clamp01 bounds v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ToPercent converts an absolute pointer position into canvas-relative percentages.
func ToPercent(pointer Point, canvas Rect) Point {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return Point{}
	}
	return Point{
		X: Clamp01((pointer.X - canvas.X) / canvas.Width),
		Y: Clamp01((pointer.Y - canvas.Y) / canvas.Height),
	}
}
