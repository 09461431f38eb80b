// Package raster draws a shaded preview of a terrain and its contours.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/MeKo-Tech/topomap/internal/contour"
	"github.com/MeKo-Tech/topomap/internal/heightfield"
	"github.com/disintegration/gift"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Style controls how the preview is drawn.
type Style struct {
	Size       int     // canvas width in pixels; height follows the terrain aspect
	Blur       float32 // Gaussian sigma applied to the tint, 0 disables
	LineWidth  int
	IndexEvery int // every n-th level is drawn one pixel wider, 0 disables
	LineColor  color.NRGBA
	LoopFill   color.NRGBA
}

// DefaultStyle returns the stock preview style.
func DefaultStyle() Style {
	return Style{
		Size:       512,
		Blur:       0.8,
		LineWidth:  1,
		IndexEvery: 5,
		LineColor:  color.NRGBA{R: 92, G: 60, B: 31, A: 255},
		LoopFill:   color.NRGBA{R: 255, G: 255, B: 255, A: 28},
	}
}

type Renderer struct {
	grid    *heightfield.Grid
	style   Style
	stats   heightfield.Stats
	canvasW int
	canvasH int
}

// NewRenderer prepares a renderer for g. A non-positive size falls back to
// the default.
func NewRenderer(g *heightfield.Grid, style Style) *Renderer {
	if style.Size <= 0 {
		style.Size = DefaultStyle().Size
	}
	if style.LineWidth <= 0 {
		style.LineWidth = 1
	}
	h := int(math.Round(float64(style.Size) * g.Height() / g.Width()))
	if h < 1 {
		h = 1
	}
	return &Renderer{
		grid:    g,
		style:   style,
		stats:   g.Stats(),
		canvasW: style.Size,
		canvasH: h,
	}
}

// Bounds returns the canvas rectangle.
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.canvasW, r.canvasH)
}

// Render draws the tinted terrain with the set's contours on top.
// s may be nil.
func (r *Renderer) Render(s *contour.Set) *image.NRGBA {
	dst := r.Tint()
	if s == nil {
		return dst
	}

	for _, c := range s.All() {
		if c.Loop {
			r.fillLoop(dst, c)
		}
	}

	lines := image.NewAlpha(dst.Bounds())
	for i, z := range s.Levels() {
		w := r.style.LineWidth
		if r.style.IndexEvery > 0 && i%r.style.IndexEvery == 0 {
			w++
		}
		for _, c := range s.At(z) {
			r.strokeContour(lines, c, w)
		}
	}
	draw.DrawMask(dst, dst.Bounds(), image.NewUniform(r.style.LineColor), image.Point{}, lines, image.Point{}, draw.Over)
	return dst
}

// Tint colours every pixel by the bilinearly sampled height, then blurs.
func (r *Renderer) Tint() *image.NRGBA {
	img := image.NewNRGBA(r.Bounds())
	for y := 0; y < r.canvasH; y++ {
		for x := 0; x < r.canvasW; x++ {
			z := r.sample(float64(x)+0.5, float64(y)+0.5)
			img.SetNRGBA(x, y, hypsometric(r.normalize(z)))
		}
	}

	if r.style.Blur <= 0 {
		return img
	}
	g := gift.New(gift.GaussianBlur(r.style.Blur))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

func (r *Renderer) normalize(z float64) float64 {
	span := r.stats.Max - r.stats.Min
	if span <= 0 {
		return 0.5
	}
	return (z - r.stats.Min) / span
}

// sample returns the bilinear height under canvas pixel (px, py).
func (r *Renderer) sample(px, py float64) float64 {
	last := float64(r.grid.Size() - 1)
	gx := clamp(px/float64(r.canvasW)*last, 0, last)
	gy := clamp(py/float64(r.canvasH)*last, 0, last)

	x0, y0 := int(gx), int(gy)
	x1, y1 := min(x0+1, int(last)), min(y0+1, int(last))
	fx, fy := gx-float64(x0), gy-float64(y0)

	top := lerp(r.grid.Z(x0, y0), r.grid.Z(x1, y0), fx)
	bottom := lerp(r.grid.Z(x0, y1), r.grid.Z(x1, y1), fx)
	return lerp(top, bottom, fy)
}

func (r *Renderer) fillLoop(dst *image.NRGBA, c contour.Contour) {
	if len(c.Points) < 3 {
		return
	}

	ras := vector.NewRasterizer(r.canvasW, r.canvasH)
	for i, p := range c.Points {
		x, y := r.worldToPx(p.X, p.Y)
		if i == 0 {
			ras.MoveTo(float32(x), float32(y))
		} else {
			ras.LineTo(float32(x), float32(y))
		}
	}
	ras.ClosePath()
	ras.Draw(dst, dst.Bounds(), image.NewUniform(r.style.LoopFill), image.Point{})
}

func (r *Renderer) strokeContour(dst *image.Alpha, c contour.Contour, width int) {
	pts := c.Points
	if c.Loop && len(pts) > 2 {
		pts = append(pts[:len(pts):len(pts)], pts[0])
	}
	if len(pts) == 1 {
		x, y := r.worldToPx(pts[0].X, pts[0].Y)
		r.drawDisc(dst, x, y, float64(width)/2)
		return
	}

	radius := float64(width) / 2.0
	step := 0.75
	for i := 0; i < len(pts)-1; i++ {
		x0, y0 := r.worldToPx(pts[i].X, pts[i].Y)
		x1, y1 := r.worldToPx(pts[i+1].X, pts[i+1].Y)

		dx := x1 - x0
		dy := y1 - y0
		segLen := math.Hypot(dx, dy)
		if segLen == 0 {
			r.drawDisc(dst, x0, y0, radius)
			continue
		}

		steps := int(math.Ceil(segLen / step))
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			r.drawDisc(dst, x0+dx*t, y0+dy*t, radius)
		}
	}
}

func (r *Renderer) drawDisc(dst *image.Alpha, cx, cy float64, radius float64) {
	minX := max(int(math.Floor(cx-radius)), 0)
	maxX := min(int(math.Ceil(cx+radius)), r.canvasW-1)
	minY := max(int(math.Floor(cy-radius)), 0)
	maxY := min(int(math.Ceil(cy+radius)), r.canvasH-1)

	r2 := radius * radius
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := (float64(x) + 0.5) - cx
			dy := (float64(y) + 0.5) - cy
			if dx*dx+dy*dy <= r2 {
				dst.Pix[dst.PixOffset(x, y)] = 255
			}
		}
	}
}

// worldToPx maps terrain world coordinates to canvas pixels. +Y is up in
// world space and down on the canvas.
func (r *Renderer) worldToPx(x, y float64) (float64, float64) {
	u := (x/(r.grid.Width()/2) + 1) / 2
	v := (1 - y/(r.grid.Height()/2)) / 2
	return u * float64(r.canvasW), v * float64(r.canvasH)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}

// WritePNG writes img to path.
func WritePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview %s: %w", path, err)
	}
	defer file.Close()

	return EncodePNG(file, img)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
