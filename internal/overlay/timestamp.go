package overlay

import (
	"image/color"
	"sync"

	"github.com/bartonlees/aforge/internal/source"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// TimestampWidget stamps the frame's capture time into a corner box
type TimestampWidget struct {
	mu      sync.Mutex
	enabled bool
	format  string
}

// NewTimestampWidget creates a timestamp widget using the given time layout
// (time.Package layout string; empty means "15:04:05.000")
func NewTimestampWidget(format string) *TimestampWidget {
	if format == "" {
		format = "15:04:05.000"
	}
	return &TimestampWidget{enabled: true, format: format}
}

// Name returns the widget type name
func (w *TimestampWidget) Name() string {
	return "timestamp"
}

// IsEnabled returns whether the widget should be rendered
func (w *TimestampWidget) IsEnabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled
}

// SetEnabled sets whether the widget should be rendered
func (w *TimestampWidget) SetEnabled(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enabled = enabled
}

// Render stamps the capture time into the frame's bottom-left corner
func (w *TimestampWidget) Render(frame *source.Frame) {
	w.mu.Lock()
	format := w.format
	w.mu.Unlock()

	text := frame.Timestamp.Format(format)
	face := basicfont.Face7x13

	width := font7x13Width(text)
	height := face.Height + 4
	x := 4.0
	y := float64(frame.Height() - height - 4)

	dc := gg.NewContextForRGBA(frame.Image)
	dc.SetRGBA(0, 0, 0, 0.6)
	dc.DrawRectangle(x, y, float64(width+8), float64(height))
	dc.Fill()
	dc.SetColor(color.White)
	dc.SetFontFace(face)
	dc.DrawString(text, x+4, y+float64(face.Ascent)+2)
}

// font7x13Width returns the pixel width of text in the fixed 7x13 face
func font7x13Width(text string) int {
	return 7 * len(text)
}
