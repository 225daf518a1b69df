// Package raster turns uploaded documents into the PNG page images that are submitted to the
// backend and shown as editor previews.
package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"esign-canvas/internal/canvas"
	"esign-canvas/internal/config"
	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/domain/repository"
	"esign-canvas/internal/editor"
)

const (
	mediaPDF  = "application/pdf"
	mediaPNG  = "image/png"
	mediaJPEG = "image/jpeg"

	maxParallel = 4
)

// ErrUnsupportedMedia is returned for sources that are neither PDF nor PNG/JPEG.
var ErrUnsupportedMedia = errors.New("unsupported media type")

var Module = fx.Module("raster",
	fx.Provide(NewRasterizer),
)

// Converter rasterizes PDFs. The backend conversion endpoint satisfies it.
type Converter interface {
	ConvertPDF(ctx context.Context, caller entity.Caller, req entity.ConvertRequest) (*entity.ConvertResponse, error)
}

type Rasterizer struct {
	converter Converter
	scale     float64
	logger    *zap.Logger
}

func NewRasterizer(cfg *config.Config, backend repository.BackendRepository, logger *zap.Logger) *Rasterizer {
	return New(backend, cfg.Render.Scale, logger)
}

func New(converter Converter, scale float64, logger *zap.Logger) *Rasterizer {
	if scale <= 0 {
		scale = 2
	}
	return &Rasterizer{converter: converter, scale: scale, logger: logger}
}

// Rasterize returns one PNG page per document page, in document order.
// Pre-rasterized pages are reused as they are; otherwise the sources are rasterized
// concurrently and concatenated in upload order.
func (r *Rasterizer) Rasterize(ctx context.Context, caller entity.Caller, sources []entity.PageSource, pages []entity.DocPage) ([]editor.PageRaster, error) {
	if len(pages) > 0 {
		return reusePages(pages), nil
	}

	results := make([][]editor.PageRaster, len(sources))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallel)

	for i, src := range sources {
		eg.Go(func() error {
			out, err := r.rasterizeSource(gctx, caller, src)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Filename, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to rasterize document: %w", err)
	}

	var out []editor.PageRaster
	for _, res := range results {
		out = append(out, res...)
	}

	r.logger.Debug("Document rasterized",
		zap.Int("sources", len(sources)),
		zap.Int("pages", len(out)),
	)
	return out, nil
}

// PageCount counts the pages of the sources without rasterizing them.
func (r *Rasterizer) PageCount(sources []entity.PageSource) (int, error) {
	total := 0
	for _, src := range sources {
		switch mediaType(src) {
		case mediaPDF:
			data, err := decodeBase64(src.Data)
			if err != nil {
				return 0, err
			}
			n, err := countPDFPages(data)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", src.Filename, err)
			}
			total += n
		case mediaPNG, mediaJPEG:
			total++
		default:
			return 0, fmt.Errorf("%s: %w", src.Filename, ErrUnsupportedMedia)
		}
	}
	return total, nil
}

func (r *Rasterizer) rasterizeSource(ctx context.Context, caller entity.Caller, src entity.PageSource) ([]editor.PageRaster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := decodeBase64(src.Data)
	if err != nil {
		return nil, err
	}

	switch mediaType(src) {
	case mediaPDF:
		return r.rasterizePDF(ctx, caller, src, data)
	case mediaPNG, mediaJPEG:
		page, err := ScaleImage(data, r.scale)
		if err != nil {
			return nil, err
		}
		return []editor.PageRaster{{
			Filename:  pageFilename(src.Filename, 1),
			PNGBase64: base64.StdEncoding.EncodeToString(page),
		}}, nil
	default:
		return nil, ErrUnsupportedMedia
	}
}

func (r *Rasterizer) rasterizePDF(ctx context.Context, caller entity.Caller, src entity.PageSource, data []byte) ([]editor.PageRaster, error) {
	count, err := countPDFPages(data)
	if err != nil {
		return nil, err
	}

	resp, err := r.converter.ConvertPDF(ctx, caller, entity.ConvertRequest{
		Filename:  src.Filename,
		PDFBase64: base64.StdEncoding.EncodeToString(data),
		Scale:     r.scale,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Pages) != count {
		return nil, fmt.Errorf("converter returned %d pages for a %d page PDF", len(resp.Pages), count)
	}

	out := make([]editor.PageRaster, count)
	for i, p := range resp.Pages {
		out[i] = editor.PageRaster{Filename: pageFilename(src.Filename, i+1), PNGBase64: p}
	}
	return out, nil
}

func countPDFPages(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("invalid PDF: %w", err)
	}
	if n == 0 {
		return 0, errors.New("PDF has no pages")
	}
	return n, nil
}

// ScaleImage decodes a PNG or JPEG and re-encodes it as PNG scaled by factor.
func ScaleImage(data []byte, factor float64) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := src.Bounds()
	w := int(float64(b.Dx())*factor + 0.5)
	h := int(float64(b.Dy())*factor + 0.5)
	if w < 1 || h < 1 {
		return nil, errors.New("image has no area")
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func reusePages(pages []entity.DocPage) []editor.PageRaster {
	sorted := canvas.SortPages(pages)
	out := make([]editor.PageRaster, len(sorted))
	for i, p := range sorted {
		name := p.Filename
		if name == "" {
			name = fmt.Sprintf("page-%d.png", i+1)
		}
		out[i] = editor.PageRaster{Filename: name, PNGBase64: p.DocumentS3Path}
	}
	return out
}

func mediaType(src entity.PageSource) string {
	mt := strings.ToLower(strings.TrimSpace(src.MediaType))
	if mt != "" {
		if mt == "image/jpg" {
			return mediaJPEG
		}
		return mt
	}
	switch strings.ToLower(filepath.Ext(src.Filename)) {
	case ".pdf":
		return mediaPDF
	case ".png":
		return mediaPNG
	case ".jpg", ".jpeg":
		return mediaJPEG
	}
	return ""
}

func pageFilename(name string, page int) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "page"
	}
	return fmt.Sprintf("%s-%d.png", base, page)
}

func decodeBase64(v string) ([]byte, error) {
	if _, rest, ok := strings.Cut(v, ";base64,"); ok {
		v = rest
	}
	data, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 document: %w", err)
	}
	return data, nil
}
