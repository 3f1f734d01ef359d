package source

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bartonlees/aforge/internal/logger"
)

// Screen captures a region of the X11 root window at a fixed rate.
type Screen struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	region image.Rectangle
	fps    int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	onFrame FrameHandler
	onError ErrorHandler
}

// NewScreen creates a screen capture source for the given region. A zero
// region captures the whole screen.
func NewScreen(region image.Rectangle, fps int) (*Screen, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	if region.Empty() {
		region = image.Rect(0, 0, int(screen.WidthInPixels), int(screen.HeightInPixels))
	}
	if fps <= 0 {
		fps = 10
	}

	return &Screen{
		conn:   conn,
		screen: screen,
		region: region,
		fps:    fps,
	}, nil
}

// Name returns the source name
func (s *Screen) Name() string {
	return "X11 Screen"
}

// SetFrameHandler registers the new-frame callback
func (s *Screen) SetFrameHandler(h FrameHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = h
}

// SetErrorHandler registers the error callback
func (s *Screen) SetErrorHandler(h ErrorHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = h
}

// Start begins polling the screen on a background goroutine
func (s *Screen) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("screen source already running")
	}

	s.stopCh = make(chan struct{})
	s.running = true

	s.wg.Add(1)
	go s.loop(s.stopCh)

	logger.WithComponent("screen").Info().
		Int("x", s.region.Min.X).
		Int("y", s.region.Min.Y).
		Int("width", s.region.Dx()).
		Int("height", s.region.Dy()).
		Int("fps", s.fps).
		Msg("Screen source started")
	return nil
}

// SignalToStop asks the capture loop to exit without waiting for it
func (s *Screen) SignalToStop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

// WaitForStop blocks until the capture loop has exited
func (s *Screen) WaitForStop() {
	s.wg.Wait()
}

// Stop terminates the source and waits for the loop to exit
func (s *Screen) Stop() {
	s.SignalToStop()
	s.WaitForStop()
}

// IsRunning reports whether the capture loop is alive
func (s *Screen) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close releases the X connection. The source cannot be restarted afterwards.
func (s *Screen) Close() {
	s.Stop()
	s.conn.Close()
}

func (s *Screen) handlers() (FrameHandler, ErrorHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onFrame, s.onError
}

func (s *Screen) loop(stopCh chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.wg.Done()
	}()

	log := logger.WithComponent("screen")
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			log.Info().Msg("Screen source stopped")
			return
		case <-ticker.C:
			frame, err := s.capture()
			if err != nil {
				log.Warn().Err(err).Msg("Screen capture failed")
				if _, onError := s.handlers(); onError != nil {
					onError(err.Error())
				}
				continue
			}
			if onFrame, _ := s.handlers(); onFrame != nil {
				onFrame(frame)
			}
		}
	}
}

// capture grabs the configured region of the root window and converts the
// server's BGRx pixels to RGBA.
func (s *Screen) capture() (*Frame, error) {
	width := s.region.Dx()
	height := s.region.Dy()

	reply, err := xproto.GetImage(
		s.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(s.screen.Root),
		int16(s.region.Min.X), int16(s.region.Min.Y),
		uint16(width), uint16(height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	data := reply.Data
	if len(data) < width*height*4 {
		return nil, fmt.Errorf("short image reply: got %d bytes, expected %d", len(data), width*height*4)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		src := i * 4
		dst := i * 4
		img.Pix[dst] = data[src+2]   // R
		img.Pix[dst+1] = data[src+1] // G
		img.Pix[dst+2] = data[src]   // B
		img.Pix[dst+3] = 0xff
	}

	return NewFrame(img), nil
}
