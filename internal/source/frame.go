package source

import (
	"image"
	"image/draw"
	"time"
)

// Frame is a single decoded video frame.
//
// A frame is immutable once it has been handed off for presentation: nobody
// writes the pixel data after publication, which is what lets the consumer
// side read it without holding a lock. Code that needs a private, writable
// copy takes one with Clone().
type Frame struct {
	// Image holds the decoded RGBA pixels
	Image *image.RGBA

	// Timestamp is the source-side capture time
	Timestamp time.Time
}

// NewFrame wraps an RGBA image in a frame stamped with the current time
func NewFrame(img *image.RGBA) *Frame {
	return &Frame{Image: img, Timestamp: time.Now()}
}

// Width returns the frame width in pixels
func (f *Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels
func (f *Frame) Height() int {
	return f.Image.Bounds().Dy()
}

// Size returns the frame dimensions as a point
func (f *Frame) Size() image.Point {
	return image.Pt(f.Width(), f.Height())
}

// Clone returns a deep copy of the frame with its own pixel buffer
func (f *Frame) Clone() *Frame {
	img := image.NewRGBA(f.Image.Bounds())
	draw.Draw(img, img.Bounds(), f.Image, f.Image.Bounds().Min, draw.Src)
	return &Frame{Image: img, Timestamp: f.Timestamp}
}
