package render_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/bartonlees/aforge/internal/render"
)

func TestImageSurfaceResize(t *testing.T) {
	s := render.NewImageSurface(100, 50)
	if got := s.Bounds(); got != image.Rect(0, 0, 100, 50) {
		t.Fatalf("bounds = %v", got)
	}

	before := s.Image()
	s.Resize(100, 50)
	if s.Image() != before {
		t.Error("resize to the same size must keep the backing image")
	}

	s.Resize(200, 80)
	if got := s.Bounds(); got != image.Rect(0, 0, 200, 80) {
		t.Errorf("bounds after resize = %v", got)
	}
}

func TestImageSurfaceClear(t *testing.T) {
	s := render.NewImageSurface(10, 10)
	s.Clear(color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff})

	want := color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}
	for _, pt := range []image.Point{{0, 0}, {9, 9}, {5, 3}} {
		if got := s.Image().RGBAAt(pt.X, pt.Y); got != want {
			t.Errorf("pixel %v = %v, want %v", pt, got, want)
		}
	}
}

func TestDrawImageScales(t *testing.T) {
	s := render.NewImageSurface(20, 20)

	// 2x2 source with distinct quadrant colors
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	red := color.RGBA{R: 0xff, A: 0xff}
	green := color.RGBA{G: 0xff, A: 0xff}
	blue := color.RGBA{B: 0xff, A: 0xff}
	white := color.RGBA{0xff, 0xff, 0xff, 0xff}
	src.SetRGBA(0, 0, red)
	src.SetRGBA(1, 0, green)
	src.SetRGBA(0, 1, blue)
	src.SetRGBA(1, 1, white)

	s.DrawImage(src, image.Rect(0, 0, 20, 20))

	img := s.Image()
	if got := img.RGBAAt(2, 2); got != red {
		t.Errorf("top-left quadrant = %v, want %v", got, red)
	}
	if got := img.RGBAAt(17, 2); got != green {
		t.Errorf("top-right quadrant = %v, want %v", got, green)
	}
	if got := img.RGBAAt(2, 17); got != blue {
		t.Errorf("bottom-left quadrant = %v, want %v", got, blue)
	}
	if got := img.RGBAAt(17, 17); got != white {
		t.Errorf("bottom-right quadrant = %v, want %v", got, white)
	}
}

func TestDrawImageClipsToSurface(t *testing.T) {
	s := render.NewImageSurface(10, 10)
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))

	// destinations outside the surface must not panic
	s.DrawImage(src, image.Rect(-5, -5, 30, 30))
	s.DrawImage(src, image.Rect(50, 50, 60, 60))
}

func TestStrokeRect(t *testing.T) {
	s := render.NewImageSurface(10, 10)
	c := color.RGBA{R: 0xff, A: 0xff}
	s.StrokeRect(image.Rect(2, 2, 8, 8), c)

	img := s.Image()
	edges := []image.Point{{2, 2}, {7, 2}, {2, 7}, {7, 7}, {4, 2}, {2, 4}, {7, 4}, {4, 7}}
	for _, pt := range edges {
		if got := img.RGBAAt(pt.X, pt.Y); got != c {
			t.Errorf("edge pixel %v = %v, want %v", pt, got, c)
		}
	}

	// interior untouched
	if got := img.RGBAAt(4, 4); got != (color.RGBA{}) {
		t.Errorf("interior pixel = %v, want zero", got)
	}
}

func TestDrawTextLeavesMark(t *testing.T) {
	s := render.NewImageSurface(100, 20)
	s.Clear(color.Black)
	s.DrawText("connecting...", image.Point{X: 5, Y: 5})

	// at least some pixels must now be non-black
	img := s.Image()
	changed := false
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("DrawText drew nothing")
	}
}
