// Package render draws detections over the source image for display.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/anime-shed/waste-inspector-go/internal/catalog"
	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

const (
	maskAlpha      = 0.45
	outlineWidth   = 2
	ContentTypePNG = "image/png"
)

// Palette assigns each category a fixed color spread evenly around the hue wheel
type Palette struct {
	colors []color.NRGBA
}

// NewPalette builds the palette for cat
func NewPalette(cat *catalog.Catalog) *Palette {
	n := cat.Len()
	colors := make([]color.NRGBA, n)
	for i := 0; i < n; i++ {
		c := colorful.Hsv(float64(i)*360/float64(n), 0.75, 0.95)
		r, g, b := c.RGB255()
		colors[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return &Palette{colors: colors}
}

// Color returns the color for a class index
func (p *Palette) Color(class int) (color.NRGBA, error) {
	if class < 0 || class >= len(p.colors) {
		return color.NRGBA{}, apperrors.NewCategoryIndexError(class, len(p.colors))
	}
	return p.colors[class], nil
}

// Renderer draws annotated images
type Renderer struct {
	palette  *Palette
	maxWidth int
}

// NewRenderer creates a renderer. Output wider than maxWidth is downscaled;
// maxWidth <= 0 keeps the source size.
func NewRenderer(cat *catalog.Catalog, maxWidth int) *Renderer {
	return &Renderer{palette: NewPalette(cat), maxWidth: maxWidth}
}

// Annotate overlays masks and box outlines from outputs onto a copy of img
func (r *Renderer) Annotate(img image.Image, outputs []models.InferenceOutput) (*image.NRGBA, error) {
	canvas := imaging.Clone(img)

	for _, out := range outputs {
		for i, box := range out.Boxes {
			c, err := r.palette.Color(box.Class)
			if err != nil {
				return nil, err
			}
			if i < len(out.Masks) {
				overlayMask(canvas, out.Masks[i], c)
			}
			outline(canvas, box, c)
		}
	}

	if r.maxWidth > 0 && canvas.Bounds().Dx() > r.maxWidth {
		canvas = imaging.Resize(canvas, r.maxWidth, 0, imaging.Lanczos)
	}
	return canvas, nil
}

// AnnotatePNG renders and encodes in one step
func (r *Renderer) AnnotatePNG(img image.Image, outputs []models.InferenceOutput) ([]byte, error) {
	annotated, err := r.Annotate(img, outputs)
	if err != nil {
		return nil, err
	}
	return EncodePNG(annotated)
}

// EncodePNG encodes img as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// overlayMask blends c over every image pixel whose mask cell is on. The
// mask is stretched to the canvas when the resolutions differ.
func overlayMask(canvas *image.NRGBA, mask models.Mask, c color.NRGBA) {
	mw, mh := mask.Size()
	if mw == 0 || mh == 0 {
		return
	}
	b := canvas.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		my := y * mh / h
		for x := 0; x < w; x++ {
			if !mask.At(x*mw/w, my) {
				continue
			}
			px := canvas.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			canvas.SetNRGBA(b.Min.X+x, b.Min.Y+y, blend(px, c, maskAlpha))
		}
	}
}

func blend(dst, src color.NRGBA, alpha float64) color.NRGBA {
	mix := func(d, s uint8) uint8 {
		return uint8(math.Round(float64(d)*(1-alpha) + float64(s)*alpha))
	}
	return color.NRGBA{R: mix(dst.R, src.R), G: mix(dst.G, src.G), B: mix(dst.B, src.B), A: dst.A}
}

// outline draws the box border clipped to the canvas. Coordinates are
// clamped to just outside the canvas first, so a box reaching far past the
// image costs no more than one covering it. Non-finite boxes are skipped.
func outline(canvas *image.NRGBA, box models.Box, c color.NRGBA) {
	for _, v := range []float64{box.X1, box.Y1, box.X2, box.Y2} {
		if math.IsNaN(v) {
			return
		}
	}

	b := canvas.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	x1, x2 := ordered(clampCoord(box.X1, w), clampCoord(box.X2, w))
	y1, y2 := ordered(clampCoord(box.Y1, h), clampCoord(box.Y2, h))
	rect := image.Rect(int(x1), int(y1), int(math.Ceil(x2)), int(math.Ceil(y2))).Add(b.Min)

	visible := rect.Intersect(b)
	if visible.Empty() {
		return
	}
	for t := 0; t < outlineWidth; t++ {
		for x := visible.Min.X; x < visible.Max.X; x++ {
			setClipped(canvas, x, rect.Min.Y+t, c)
			setClipped(canvas, x, rect.Max.Y-1-t, c)
		}
		for y := visible.Min.Y; y < visible.Max.Y; y++ {
			setClipped(canvas, rect.Min.X+t, y, c)
			setClipped(canvas, rect.Max.X-1-t, y, c)
		}
	}
}

// clampCoord limits v to [-outlineWidth, size+outlineWidth]. An edge at
// either limit draws nothing, same as one further out.
func clampCoord(v, size float64) float64 {
	return math.Max(-outlineWidth, math.Min(v, size+outlineWidth))
}

func setClipped(canvas *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(canvas.Bounds()) {
		canvas.SetNRGBA(x, y, c)
	}
}

func ordered(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}
