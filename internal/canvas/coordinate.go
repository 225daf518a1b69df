package canvas

import "encoding/json"

// CoordinateKind tags how a stored coordinate is interpreted.
type CoordinateKind string

const (
	KindPercentage CoordinateKind = "percentage"
	KindFixedPoint CoordinateKind = "fixed_point"
)

// Coordinate is either a page-relative percentage or a legacy fixed-point position
// on the reference page. It is resolved once when tabs are loaded.
type Coordinate struct {
	Kind CoordinateKind
	X    float64
	Y    float64
}

func Percentage(x, y float64) Coordinate {
	return Coordinate{Kind: KindPercentage, X: x, Y: y}
}

func FixedPoint(x, y float64) Coordinate {
	return Coordinate{Kind: KindFixedPoint, X: x, Y: y}
}

// ResolveCoordinate classifies a stored (x, y): both within [0, 1.0001] means percentage.
func ResolveCoordinate(x, y float64) Coordinate {
	if x >= 0 && x <= pctUpperBound && y >= 0 && y <= pctUpperBound {
		return Percentage(x, y)
	}
	return FixedPoint(x, y)
}

// Percent returns the coordinate as page-relative percentages.
func (c Coordinate) Percent() Point {
	if c.Kind == KindFixedPoint {
		return Point{X: c.X / ReferenceWidth, Y: c.Y / ReferenceHeight}
	}
	return Point{X: c.X, Y: c.Y}
}

// ToPixels maps the coordinate onto a canvas of w×h pixels.
func (c Coordinate) ToPixels(w, h float64) Point {
	p := c.Percent()
	return Point{X: p.X * w, Y: p.Y * h}
}

type coordinateJSON struct {
	Kind CoordinateKind `json:"kind"`
	X    float64        `json:"x"`
	Y    float64        `json:"y"`
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal(coordinateJSON{Kind: c.Kind, X: c.X, Y: c.Y})
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var raw coordinateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind == "" {
		*c = ResolveCoordinate(raw.X, raw.Y)
		return nil
	}
	*c = Coordinate{Kind: raw.Kind, X: raw.X, Y: raw.Y}
	return nil
}
