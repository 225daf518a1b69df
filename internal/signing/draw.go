package signing

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"esign-canvas/internal/canvas"
)

var (
	colorUnsigned = color.NRGBA{R: 0xDC, G: 0x26, B: 0x26, A: 0xFF}
	colorActive   = color.NRGBA{R: 0x25, G: 0x63, B: 0xEB, A: 0xFF}
	colorSigned   = color.NRGBA{R: 0x16, G: 0xA3, B: 0x4A, A: 0xFF}
	colorInk      = color.NRGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xFF}
	colorDisplay  = color.NRGBA{R: 0x3B, G: 0x82, B: 0xF6, A: 0x33}
	colorBoxEdge  = color.NRGBA{R: 0x4B, G: 0x55, B: 0x63, A: 0xFF}
)

// fillPolygon fills a closed polygon given in dst pixel coordinates.
func fillPolygon(dst draw.Image, pts []canvas.Point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	minX, minY, maxX, maxY := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	z, area := rasterizerFor(dst, minX, minY, maxX, maxY)
	if z == nil {
		return
	}
	ox, oy := float64(area.Min.X), float64(area.Min.Y)
	z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	z.ClosePath()
	z.Draw(dst, area, image.NewUniform(c), image.Point{})
}

// rasterizerFor returns a rasterizer covering only the given bounds, so shapes on
// large pages do not allocate a full-page coverage buffer.
func rasterizerFor(dst draw.Image, minX, minY, maxX, maxY float64) (*vector.Rasterizer, image.Rectangle) {
	area := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	area = area.Intersect(dst.Bounds())
	if area.Empty() {
		return nil, area
	}
	return vector.NewRasterizer(area.Dx(), area.Dy()), area
}

// strokeSegment draws a line of the given width with round joins.
func strokeSegment(dst draw.Image, a, b canvas.Point, width float64, c color.Color) {
	half := width / 2
	dx, dy := b.X-a.X, b.Y-a.Y
	if l := math.Hypot(dx, dy); l > 0 {
		nx, ny := -dy/l*half, dx/l*half
		fillPolygon(dst, []canvas.Point{
			{X: a.X + nx, Y: a.Y + ny},
			{X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		}, c)
	}
	fillDisc(dst, a, half, c)
	fillDisc(dst, b, half, c)
}

func fillDisc(dst draw.Image, center canvas.Point, r float64, c color.Color) {
	const sides = 12
	pts := make([]canvas.Point, sides)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / sides
		pts[i] = canvas.Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)}
	}
	fillPolygon(dst, pts, c)
}

// fillRoundedRect fills r with corners of radius rad.
func fillRoundedRect(dst draw.Image, r canvas.Rect, rad float64, c color.Color) {
	rad = math.Min(rad, math.Min(r.Width, r.Height)/2)
	z, area := rasterizerFor(dst, r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	if z == nil {
		return
	}
	x0, y0 := float32(r.X-float64(area.Min.X)), float32(r.Y-float64(area.Min.Y))
	x1, y1 := x0+float32(r.Width), y0+float32(r.Height)
	k := float32(rad)

	z.MoveTo(x0+k, y0)
	z.LineTo(x1-k, y0)
	z.QuadTo(x1, y0, x1, y0+k)
	z.LineTo(x1, y1-k)
	z.QuadTo(x1, y1, x1-k, y1)
	z.LineTo(x0+k, y1)
	z.QuadTo(x0, y1, x0, y1-k)
	z.LineTo(x0, y0+k)
	z.QuadTo(x0, y0, x0+k, y0)
	z.ClosePath()
	z.Draw(dst, area, image.NewUniform(c), image.Point{})
}

// dashedRect outlines r with dashes along each edge.
func dashedRect(dst draw.Image, r canvas.Rect, thickness float64, c color.Color) {
	const dash, gap = 6.0, 4.0
	src := image.NewUniform(c)
	hline := func(y float64) {
		for x := r.X; x < r.X+r.Width; x += dash + gap {
			end := math.Min(x+dash, r.X+r.Width)
			draw.Draw(dst, pixelRect(x, y, end, y+thickness), src, image.Point{}, draw.Over)
		}
	}
	vline := func(x float64) {
		for y := r.Y; y < r.Y+r.Height; y += dash + gap {
			end := math.Min(y+dash, r.Y+r.Height)
			draw.Draw(dst, pixelRect(x, y, x+thickness, end), src, image.Point{}, draw.Over)
		}
	}
	hline(r.Y)
	hline(r.Y + r.Height - thickness)
	vline(r.X)
	vline(r.X + r.Width - thickness)
}

func fillRect(dst draw.Image, r canvas.Rect, c color.Color) {
	draw.Draw(dst, pixelRect(r.X, r.Y, r.X+r.Width, r.Y+r.Height), image.NewUniform(c), image.Point{}, draw.Over)
}

// drawLabel writes text left-aligned and vertically centered in r, clipped to r.
func drawLabel(dst *image.RGBA, r canvas.Rect, text string, c color.Color) {
	clip := pixelRect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Intersect(dst.Bounds())
	if clip.Empty() || text == "" {
		return
	}
	face := basicfont.Face7x13
	sub, ok := dst.SubImage(clip).(*image.RGBA)
	if !ok {
		return
	}
	m := face.Metrics()
	textHeight := (m.Ascent + m.Descent).Ceil()
	baseline := clip.Min.Y + (clip.Dy()-textHeight)/2 + m.Ascent.Ceil()
	d := font.Drawer{
		Dst:  sub,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(clip.Min.X+3, baseline),
	}
	d.DrawString(text)
}

// pasteScaled draws src scaled into r.
func pasteScaled(dst draw.Image, r canvas.Rect, src image.Image) {
	draw.ApproxBiLinear.Scale(dst, pixelRect(r.X, r.Y, r.X+r.Width, r.Y+r.Height), src, src.Bounds(), draw.Over, nil)
}

func pixelRect(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x1)), int(math.Round(y1)))
}
