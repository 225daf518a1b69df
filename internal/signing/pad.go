package signing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"esign-canvas/internal/canvas"
)

const (
	pngDataURLPrefix = "data:image/png;base64,"

	defaultPadWidth  = 500
	defaultPadHeight = 200
	inkWidth         = 2.5
)

// SignaturePad collects freehand strokes in pad pixel coordinates.
type SignaturePad struct {
	Width   int              `json:"width"`
	Height  int              `json:"height"`
	Strokes [][]canvas.Point `json:"strokes,omitempty"`
}

func NewSignaturePad(width, height int) SignaturePad {
	if width <= 0 || height <= 0 {
		width, height = defaultPadWidth, defaultPadHeight
	}
	return SignaturePad{Width: width, Height: height}
}

// AddStroke appends one pointer-down..pointer-up stroke. Empty strokes are ignored.
func (p *SignaturePad) AddStroke(points []canvas.Point) {
	if len(points) == 0 {
		return
	}
	stroke := make([]canvas.Point, len(points))
	copy(stroke, points)
	p.Strokes = append(p.Strokes, stroke)
}

func (p *SignaturePad) IsEmpty() bool {
	for _, s := range p.Strokes {
		if len(s) > 0 {
			return false
		}
	}
	return true
}

func (p *SignaturePad) Clear() {
	p.Strokes = nil
}

// Image rasterizes the ink on a transparent background.
func (p *SignaturePad) Image() *image.NRGBA {
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 {
		w, h = defaultPadWidth, defaultPadHeight
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for _, stroke := range p.Strokes {
		if len(stroke) == 1 {
			fillDisc(img, stroke[0], inkWidth/2, colorInk)
			continue
		}
		for i := 1; i < len(stroke); i++ {
			strokeSegment(img, stroke[i-1], stroke[i], inkWidth, colorInk)
		}
	}
	return img
}

// DataURL encodes the ink as a PNG data URL.
func (p *SignaturePad) DataURL() (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.Image()); err != nil {
		return "", fmt.Errorf("failed to encode signature: %w", err)
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// StripDataURL returns the raw base64 payload of a data URL.
func StripDataURL(v string) string {
	if !strings.HasPrefix(v, "data:") {
		return v
	}
	if _, payload, ok := strings.Cut(v, ","); ok {
		return payload
	}
	return v
}

func decodeDataURL(v string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(StripDataURL(v))
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature data: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature image: %w", err)
	}
	return img, nil
}
