package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// statusFont renders the status text. Face7x13 keeps the surface free of
// font-file loading.
var statusFont = basicfont.Face7x13

// ImageSurface implements the player's draw calls on top of an in-memory
// RGBA image. It backs both the MJPEG broadcast output and the X11 window,
// which blits the finished image to the server.
type ImageSurface struct {
	img *image.RGBA
}

// NewImageSurface creates a surface of the given size
func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Resize reallocates the backing image when the size changed
func (s *ImageSurface) Resize(width, height int) {
	if s.img.Bounds().Dx() == width && s.img.Bounds().Dy() == height {
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Bounds returns the drawable area
func (s *ImageSurface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// Image returns the backing image
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

// Clear fills the whole surface with the given color
func (s *ImageSurface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// DrawImage draws img scaled to fill dst using nearest-neighbor sampling
func (s *ImageSurface) DrawImage(img *image.RGBA, dst image.Rectangle) {
	dst = dst.Intersect(s.img.Bounds())
	if dst.Empty() {
		return
	}

	sb := img.Bounds()
	dw, dh := dst.Dx(), dst.Dy()
	for dy := 0; dy < dh; dy++ {
		sy := sb.Min.Y + dy*sb.Dy()/dh
		for dx := 0; dx < dw; dx++ {
			sx := sb.Min.X + dx*sb.Dx()/dw
			s.img.SetRGBA(dst.Min.X+dx, dst.Min.Y+dy, img.RGBAAt(sx, sy))
		}
	}
}

// DrawText draws a single line of text with its top-left at the given point
func (s *ImageSurface) DrawText(text string, at image.Point) {
	dc := gg.NewContextForRGBA(s.img)
	dc.SetFontFace(statusFont)
	dc.SetColor(color.White)
	dc.DrawString(text, float64(at.X), float64(at.Y+statusFont.Ascent))
}

// StrokeRect outlines the rectangle with a one-pixel line
func (s *ImageSurface) StrokeRect(r image.Rectangle, c color.Color) {
	r = r.Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		s.img.Set(x, r.Min.Y, c)
		s.img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		s.img.Set(r.Min.X, y, c)
		s.img.Set(r.Max.X-1, y, c)
	}
}
