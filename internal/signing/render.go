package signing

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"esign-canvas/internal/canvas"
	"esign-canvas/internal/domain/entity"
)

// Overlay positions a live input over the canvas, in percent of the canvas size.
type Overlay struct {
	TabID    string           `json:"tabId"`
	Type     entity.FieldType `json:"type"`
	Left     float64          `json:"left"`
	Top      float64          `json:"top"`
	Width    float64          `json:"width"`
	Height   float64          `json:"height"`
	Value    string           `json:"value"`
	Font     string           `json:"font,omitempty"`
	FontSize string           `json:"fontSize,omitempty"`
}

// HitRect is a clickable field area in canvas pixels.
type HitRect struct {
	TabID    string      `json:"tabId"`
	Strategy Strategy    `json:"strategy"`
	Rect     canvas.Rect `json:"rect"`
}

// RenderInput selects the page to render and the canvas width in pixels.
type RenderInput struct {
	State *State
	Page  int
	Width int
}

// RenderResult is a baked page.
type RenderResult struct {
	PNG      []byte    `json:"-"`
	Page     int       `json:"page"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Overlays []Overlay `json:"overlays"`
	HitRects []HitRect `json:"hitRects"`
}

// maxAspect bounds the raster height to this multiple of the maximum width.
const maxAspect = 2

// Renderer bakes the signer's fields into page rasters.
type Renderer struct {
	defaultWidth int
	maxWidth     int
}

// NewRenderer returns a renderer that draws at defaultWidth when no width is requested
// and never allocates a raster wider than maxWidth.
func NewRenderer(defaultWidth, maxWidth int) *Renderer {
	if defaultWidth <= 0 {
		defaultWidth = int(canvas.ReferenceWidth * 2)
	}
	if maxWidth <= 0 {
		maxWidth = int(canvas.ReferenceWidth * 4)
	}
	if defaultWidth > maxWidth {
		defaultWidth = maxWidth
	}
	return &Renderer{defaultWidth: defaultWidth, maxWidth: maxWidth}
}

// size returns the raster dimensions for a requested width over a page of sb.
func (r *Renderer) size(requested int, sb image.Rectangle) (int, int) {
	width := requested
	if width <= 0 {
		width = r.defaultWidth
	}
	if width > r.maxWidth {
		width = r.maxWidth
	}
	height := int(math.Round(float64(sb.Dy()) * float64(width) / float64(sb.Dx())))
	if limit := r.maxWidth * maxAspect; height > limit {
		width = int(math.Max(1, math.Floor(float64(width)*float64(limit)/float64(height))))
		height = limit
	}
	return width, max(height, 1)
}

// Render draws the page raster scaled to the requested width and bakes the signer's
// own fields of that page on top. Editable fields are returned as overlays instead.
// Rendering stops with ctx.Err() when ctx is cancelled.
func (r *Renderer) Render(ctx context.Context, in RenderInput) (*RenderResult, error) {
	s := in.State
	if in.Page < 1 || in.Page > s.PageCount() {
		return nil, entity.NewValidationError(entity.CodeNoPages, fmt.Sprintf("page %d is out of range", in.Page))
	}
	base, err := decodeRaster(s.Pages[in.Page-1].DocumentS3Path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page %d: %w", in.Page, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sb := base.Bounds()
	width, height := r.size(in.Width, sb)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), base, sb, draw.Over, nil)

	w, h := float64(width), float64(height)
	res := &RenderResult{Page: in.Page, Width: width, Height: height, Overlays: []Overlay{}, HitRects: []HitRect{}}

	for _, t := range s.OwnedOnPage(in.Page) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rect := canvas.FieldRect(t.TabType, t.Coord, w, h)
		scale := w / canvas.ReferenceWidth

		switch t.Strategy {
		case BakedCheckbox:
			bakeCheckbox(dst, rect, scale, s.Checkboxes[t.TabID])
		case BakedSignature:
			if err := bakeSignature(dst, rect, scale, s, t); err != nil {
				return nil, err
			}
		case BakedDisplay:
			fillRect(dst, rect, colorDisplay)
			drawLabel(dst, rect, s.DisplayValue(t), colorInk)
		case DOMOverlay:
			pct := canvas.PercentRect(t.TabType, t.Coord, w, h)
			res.Overlays = append(res.Overlays, Overlay{
				TabID:    t.TabID,
				Type:     t.TabType,
				Left:     pct.X * 100,
				Top:      pct.Y * 100,
				Width:    pct.Width * 100,
				Height:   pct.Height * 100,
				Value:    s.TextValues[t.TabID],
				Font:     t.Font,
				FontSize: t.FontSize,
			})
		}
		if t.Strategy.Clickable() {
			res.HitRects = append(res.HitRects, HitRect{TabID: t.TabID, Strategy: t.Strategy, Rect: rect})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode page %d: %w", in.Page, err)
	}
	res.PNG = buf.Bytes()
	return res, nil
}

func bakeCheckbox(dst *image.RGBA, r canvas.Rect, scale float64, checked bool) {
	radius := 3 * scale
	border := math.Max(1, 1.5*scale)
	fillRoundedRect(dst, r, radius, colorBoxEdge)
	inner := canvas.Rect{X: r.X + border, Y: r.Y + border, Width: r.Width - 2*border, Height: r.Height - 2*border}
	fillRoundedRect(dst, inner, math.Max(0, radius-border), color.White)
	if !checked {
		return
	}
	a := canvas.Point{X: r.X + r.Width*0.22, Y: r.Y + r.Height*0.52}
	b := canvas.Point{X: r.X + r.Width*0.42, Y: r.Y + r.Height*0.72}
	c := canvas.Point{X: r.X + r.Width*0.78, Y: r.Y + r.Height*0.30}
	stroke := math.Max(1.5, 2*scale)
	strokeSegment(dst, a, b, stroke, colorSigned)
	strokeSegment(dst, b, c, stroke, colorSigned)
}

// SignatureColor is the placeholder border color of a signature field:
// blue while active, green once signed, red otherwise.
func SignatureColor(s *State, t Tab) color.NRGBA {
	switch {
	case s.ActiveTab == t.TabID:
		return colorActive
	case s.IsSigned(t):
		return colorSigned
	default:
		return colorUnsigned
	}
}

func bakeSignature(dst *image.RGBA, r canvas.Rect, scale float64, s *State, t Tab) error {
	if art, ok := s.Signatures[t.TabID]; ok && art.IsSigned && art.DataURL != "" {
		ink, err := decodeDataURL(art.DataURL)
		if err != nil {
			return fmt.Errorf("failed to draw signature %s: %w", t.TabID, err)
		}
		pasteScaled(dst, r, ink)
	}
	dashedRect(dst, r, math.Max(1, 1.5*scale), SignatureColor(s, t))
	return nil
}

func decodeRaster(b64 string) (image.Image, error) {
	if b64 == "" {
		// blank reference page
		return image.NewRGBA(image.Rect(0, 0, int(canvas.ReferenceWidth), int(canvas.ReferenceHeight))), nil
	}
	raw, err := base64.StdEncoding.DecodeString(StripDataURL(b64))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, errors.New("empty page image")
	}
	return img, nil
}

// RenderGuard keeps at most one render in flight per canvas key. Starting a render
// cancels the previous render for the same key.
type RenderGuard struct {
	mu      sync.Mutex
	seq     uint64
	running map[string]renderTicket
}

type renderTicket struct {
	id     uint64
	cancel context.CancelFunc
}

func NewRenderGuard() *RenderGuard {
	return &RenderGuard{running: map[string]renderTicket{}}
}

// Begin returns a context for a new render of key and a func that must be called when
// the render finishes.
func (g *RenderGuard) Begin(parent context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	if prev, ok := g.running[key]; ok {
		prev.cancel()
	}
	g.seq++
	id := g.seq
	g.running[key] = renderTicket{id: id, cancel: cancel}
	g.mu.Unlock()

	return ctx, func() {
		cancel()
		g.mu.Lock()
		if cur, ok := g.running[key]; ok && cur.id == id {
			delete(g.running, key)
		}
		g.mu.Unlock()
	}
}

// InFlight is the number of renders currently registered.
func (g *RenderGuard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.running)
}
