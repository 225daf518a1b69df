package canvas

import "esign-canvas/internal/domain/entity"

// Size of each field type on the reference page, in points.
var fieldSizes = map[entity.FieldType]Point{
	entity.FieldSignature: {X: 150, Y: 60},
	entity.FieldCheckbox:  {X: 18, Y: 18},
	entity.FieldText:      {X: 140, Y: 24},
	entity.FieldDate:      {X: 140, Y: 24},
	entity.FieldName:      {X: 160, Y: 22},
	entity.FieldEmail:     {X: 160, Y: 22},
	entity.FieldPhone:     {X: 160, Y: 22},
}

// FieldSize returns the reference size of t, falling back to the text size.
func FieldSize(t entity.FieldType) Point {
	if s, ok := fieldSizes[t]; ok {
		return s
	}
	return fieldSizes[entity.FieldText]
}

// FieldRect is the pixel rectangle of a field of type t anchored (top-left) at c
// on a w×h canvas. Sizes scale with the canvas width.
func FieldRect(t entity.FieldType, c Coordinate, w, h float64) Rect {
	origin := c.ToPixels(w, h)
	size := FieldSize(t)
	scale := w / ReferenceWidth
	return Rect{X: origin.X, Y: origin.Y, Width: size.X * scale, Height: size.Y * scale}
}

// PercentRect is FieldRect expressed as fractions of the canvas, for absolute overlays.
func PercentRect(t entity.FieldType, c Coordinate, w, h float64) Rect {
	r := FieldRect(t, c, w, h)
	if w <= 0 || h <= 0 {
		return Rect{}
	}
	return Rect{X: r.X / w, Y: r.Y / h, Width: r.Width / w, Height: r.Height / h}
}
