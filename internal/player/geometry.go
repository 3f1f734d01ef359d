package player

import "image"

const (
	// Fallback geometry used until the first frame reveals the source size
	fallbackWidth  = 320
	fallbackHeight = 240

	// borderWidth is the one-pixel frame drawn around the presented image.
	// It is added to each edge, so the control is two pixels wider and
	// taller than the frame it presents.
	borderWidth = 1
)

// fitToHost computes the control rectangle for a frame of the given size
// centered within the host bounds. A zero or negative frame size falls back
// to 320x240. The computation is pure: identical inputs always produce the
// identical rectangle.
func fitToHost(frame image.Point, host image.Rectangle) image.Rectangle {
	if frame.X <= 0 || frame.Y <= 0 {
		frame = image.Pt(fallbackWidth, fallbackHeight)
	}

	w := frame.X + 2*borderWidth
	h := frame.Y + 2*borderWidth
	x := host.Min.X + (host.Dx()-w)/2
	y := host.Min.Y + (host.Dy()-h)/2

	return image.Rect(x, y, x+w, y+h)
}

// updateLayoutLocked recomputes the control rectangle from the last observed
// frame size and the host bounds. Caller must hold p.mu.
func (p *Player) updateLayoutLocked() {
	if p.host == nil {
		p.layout = image.Rectangle{}
		return
	}
	if !p.autoSize {
		p.layout = p.host.Bounds()
		return
	}
	p.layout = fitToHost(p.frameSize, p.host.Bounds())
}

// Layout returns the control rectangle last computed by the geometry policy.
// Hosts that honor auto-sizing apply it after attach, first frame and
// resize events. The zero rectangle means no host is attached yet.
func (p *Player) Layout() image.Rectangle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.layout
}

// HostResized recomputes the geometry against the host's new bounds and
// schedules a repaint. Hosts call this whenever their client area changes.
func (p *Player) HostResized() {
	p.mu.Lock()
	p.updateLayoutLocked()
	host := p.host
	p.mu.Unlock()

	if host != nil {
		host.Invalidate()
	}
}
