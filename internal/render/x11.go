package render

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bartonlees/aforge/internal/logger"
	"github.com/bartonlees/aforge/internal/player"
)

// Window is an X11 window hosting a player. It pumps the X event loop,
// forwarding expose events to the player's Render entry point and resize
// notifications to HostResized, and blits the rendered surface back to the
// server.
type Window struct {
	conn    *xgb.Conn
	screen  *xproto.ScreenInfo
	win     xproto.Window
	gc      xproto.Gcontext
	player  *player.Player
	surface *ImageSurface

	mu     sync.Mutex
	width  int
	height int

	dirty  chan struct{}
	stopCh chan struct{}
}

// regionSurface restricts the player's drawing to the control rectangle
// computed by the geometry policy. Draw calls land at absolute coordinates
// in the backing image, so overriding Bounds is all it takes.
type regionSurface struct {
	*ImageSurface
	region image.Rectangle
}

func (s regionSurface) Bounds() image.Rectangle {
	return s.region
}

// NewWindow creates and maps an X11 window of the given size
func NewWindow(title string, width, height int, p *player.Player) (*Window, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	winID, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create window ID: %w", err)
	}

	mask := uint32(xproto.CwBackPixel | xproto.CwEventMask)
	values := []uint32{
		0x000000,
		xproto.EventMaskExposure | xproto.EventMaskStructureNotify,
	}
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		winID,
		screen.Root,
		0, 0,
		uint16(width), uint16(height),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		mask,
		values,
	).Check()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := &Window{
		conn:    conn,
		screen:  screen,
		win:     winID,
		player:  p,
		surface: NewImageSurface(width, height),
		width:   width,
		height:  height,
		dirty:   make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}

	if err := w.setTitle(title); err != nil {
		logger.WithComponent("x11-window").Warn().Err(err).Msg("Failed to set window title")
	}

	if err := xproto.MapWindowChecked(conn, winID).Check(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to map window: %w", err)
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create graphics context: %w", err)
	}
	w.gc = gc
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(winID), 0, nil).Check(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create GC: %w", err)
	}
	conn.Sync()

	logger.WithComponent("x11-window").Info().
		Int("width", width).
		Int("height", height).
		Uint32("window_id", uint32(winID)).
		Msg("Window created")
	return w, nil
}

// Bounds returns the window's current client area. Answered from cached
// state so the player may call it with its lock held.
func (w *Window) Bounds() image.Rectangle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return image.Rect(0, 0, w.width, w.height)
}

// Invalidate schedules a repaint on the event loop
func (w *Window) Invalidate() {
	select {
	case w.dirty <- struct{}{}:
	default:
	}
}

// Run pumps the X event loop until the window is destroyed or Close is
// called. It blocks the calling goroutine.
func (w *Window) Run() error {
	events := make(chan xgb.Event, 16)
	go func() {
		defer close(events)
		for {
			ev, err := w.conn.WaitForEvent()
			if ev == nil && err == nil {
				return // connection closed
			}
			if err != nil {
				logger.WithComponent("x11-window").Debug().Err(err).Msg("X event error")
				continue
			}
			select {
			case events <- ev:
			case <-w.stopCh:
				return
			}
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return nil
		case <-w.dirty:
			w.repaint()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch e := ev.(type) {
			case xproto.ExposeEvent:
				if e.Count == 0 {
					w.repaint()
				}
			case xproto.ConfigureNotifyEvent:
				w.mu.Lock()
				resized := w.width != int(e.Width) || w.height != int(e.Height)
				w.width = int(e.Width)
				w.height = int(e.Height)
				w.mu.Unlock()
				if resized {
					w.player.HostResized()
				}
			case xproto.DestroyNotifyEvent:
				return nil
			}
		}
	}
}

// Close shuts the event loop down and destroys the window
func (w *Window) Close() {
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	xproto.FreeGC(w.conn, w.gc)
	xproto.DestroyWindow(w.conn, w.win)
	w.conn.Sync()
	w.conn.Close()
}

// repaint renders the player into the control rectangle and blits the
// result to the window.
func (w *Window) repaint() {
	w.mu.Lock()
	width, height := w.width, w.height
	w.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}

	w.surface.Resize(width, height)
	w.surface.Clear(color.Black)

	region := w.player.Layout()
	if region.Empty() {
		region = image.Rect(0, 0, width, height)
	}
	w.player.Render(regionSurface{ImageSurface: w.surface, region: region})

	if err := w.putImage(w.surface.Image()); err != nil {
		logger.WithComponent("x11-window").Error().Err(err).Msg("Failed to put image")
	}
}

// putImage converts the rendered RGBA image to the server's BGRx layout and
// uploads it to the window.
func (w *Window) putImage(img *image.RGBA) error {
	bounds := img.Bounds()
	imgWidth := bounds.Dx()
	imgHeight := bounds.Dy()

	depth := w.screen.RootDepth
	setup := xproto.Setup(w.conn)

	var bitsPerPixel, scanlinePad uint8
	for _, format := range setup.PixmapFormats {
		if format.Depth == depth {
			bitsPerPixel = format.BitsPerPixel
			scanlinePad = format.ScanlinePad
			break
		}
	}
	if bitsPerPixel == 0 {
		return fmt.Errorf("no pixmap format for depth %d", depth)
	}

	bytesPerPixel := int(bitsPerPixel) / 8
	if bytesPerPixel != 4 {
		return fmt.Errorf("unsupported bits per pixel: %d", bitsPerPixel)
	}
	padBytes := int(scanlinePad) / 8
	stride := ((imgWidth*bytesPerPixel + padBytes - 1) / padBytes) * padBytes

	data := make([]byte, stride*imgHeight)
	for y := 0; y < imgHeight; y++ {
		srcRow := y * img.Stride
		dstRow := y * stride
		for x := 0; x < imgWidth; x++ {
			src := srcRow + x*4
			dst := dstRow + x*4
			data[dst] = img.Pix[src+2]   // B
			data[dst+1] = img.Pix[src+1] // G
			data[dst+2] = img.Pix[src]   // R
			data[dst+3] = 0
		}
	}

	err := xproto.PutImageChecked(
		w.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(w.win),
		w.gc,
		uint16(imgWidth),
		uint16(imgHeight),
		0, 0,
		0,
		depth,
		data,
	).Check()
	if err != nil {
		return fmt.Errorf("failed to put image: %w", err)
	}
	w.conn.Sync()
	return nil
}

func (w *Window) setTitle(title string) error {
	titleAtom, err := w.atom("_NET_WM_NAME")
	if err != nil {
		return err
	}
	utf8Atom, err := w.atom("UTF8_STRING")
	if err != nil {
		return err
	}
	return xproto.ChangePropertyChecked(
		w.conn,
		xproto.PropModeReplace,
		w.win,
		titleAtom,
		utf8Atom,
		8,
		uint32(len(title)),
		[]byte(title),
	).Check()
}

func (w *Window) atom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(w.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}
