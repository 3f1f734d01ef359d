package player

import (
	"image"
	"image/color"
)

// connectingText is shown while the source is running but no frame has
// arrived yet and no error has been reported.
const connectingText = "connecting..."

// Surface receives the draw calls issued during Render. Implementations
// draw into whatever backs the control's area: an in-memory image, an X11
// window, an encoder input.
type Surface interface {
	// Bounds returns the drawable area of the control
	Bounds() image.Rectangle

	// DrawImage draws img scaled to fill dst
	DrawImage(img *image.RGBA, dst image.Rectangle)

	// DrawText draws a single line of status text with its top-left at the
	// given point
	DrawText(text string, at image.Point)

	// StrokeRect outlines the rectangle with a one-pixel line
	StrokeRect(r image.Rectangle, c color.Color)
}

// Host owns the surface the player presents into. Bounds is called with
// the player's internal lock held, so a Host must answer it from its own
// state without calling back into the player. Invalidate schedules a
// repaint; it must not paint synchronously.
type Host interface {
	// Bounds returns the client area available to the control
	Bounds() image.Rectangle

	// Invalidate marks the control's area as needing a repaint
	Invalidate()
}

// Render is the redraw entry point, invoked by the host whenever the
// control's area needs repainting. It takes a consistent snapshot of the
// frame slot under the lock and draws with the lock released; published
// frames are immutable, so the source can keep delivering while the host
// paints.
//
// What gets drawn, in order of precedence: the border rectangle always;
// then the current frame when one is held and no error is recorded; else,
// while the source is running, the error text or the connecting indicator.
// An error preempts a previously displayed frame for as long as it stands.
func (p *Player) Render(s Surface) {
	p.mu.Lock()
	frame, lastErr := p.slot.snapshot()
	running := p.src != nil && p.src.IsRunning()
	border := p.borderColor
	p.mu.Unlock()

	bounds := s.Bounds()
	s.StrokeRect(bounds, border)

	switch {
	case frame != nil && lastErr == "":
		s.DrawImage(frame.Image, bounds.Inset(borderWidth))
	case running:
		text := lastErr
		if text == "" {
			text = connectingText
		}
		s.DrawText(text, bounds.Min.Add(image.Pt(5, 5)))
	}
}
