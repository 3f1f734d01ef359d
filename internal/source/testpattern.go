package source

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/bartonlees/aforge/internal/logger"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// barColors are the classic SMPTE-ish bars drawn by the test pattern
var barColors = []color.RGBA{
	{R: 0xbf, G: 0xbf, B: 0xbf, A: 0xff}, // gray
	{R: 0xbf, G: 0xbf, B: 0x00, A: 0xff}, // yellow
	{R: 0x00, G: 0xbf, B: 0xbf, A: 0xff}, // cyan
	{R: 0x00, G: 0xbf, B: 0x00, A: 0xff}, // green
	{R: 0xbf, G: 0x00, B: 0xbf, A: 0xff}, // magenta
	{R: 0xbf, G: 0x00, B: 0x00, A: 0xff}, // red
	{R: 0x00, G: 0x00, B: 0xbf, A: 0xff}, // blue
}

// TestPattern generates a synthetic moving test pattern at a fixed rate.
// Useful for demos and for exercising the player without a real camera.
type TestPattern struct {
	width  int
	height int
	fps    int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	onFrame FrameHandler
	onError ErrorHandler
}

// NewTestPattern creates a test pattern source with the given geometry and
// frame rate. Out-of-range arguments fall back to 640x480 @ 25fps.
func NewTestPattern(width, height, fps int) *TestPattern {
	if width <= 0 || height <= 0 {
		width, height = 640, 480
	}
	if fps <= 0 {
		fps = 25
	}
	return &TestPattern{width: width, height: height, fps: fps}
}

// Name returns the source name
func (s *TestPattern) Name() string {
	return "Test Pattern"
}

// SetFrameHandler registers the new-frame callback
func (s *TestPattern) SetFrameHandler(h FrameHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = h
}

// SetErrorHandler registers the error callback
func (s *TestPattern) SetErrorHandler(h ErrorHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = h
}

// Start begins generating frames on a background goroutine
func (s *TestPattern) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("test pattern source already running")
	}

	s.stopCh = make(chan struct{})
	s.running = true

	s.wg.Add(1)
	go s.loop(s.stopCh)

	logger.WithComponent("testpattern").Debug().
		Int("width", s.width).
		Int("height", s.height).
		Int("fps", s.fps).
		Msg("Test pattern source started")
	return nil
}

// SignalToStop asks the generator loop to exit without waiting for it
func (s *TestPattern) SignalToStop() {
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

// WaitForStop blocks until the generator loop has exited
func (s *TestPattern) WaitForStop() {
	s.wg.Wait()
}

// Stop terminates the source and waits for the loop to exit
func (s *TestPattern) Stop() {
	s.SignalToStop()
	s.WaitForStop()
}

// IsRunning reports whether the generator loop is alive
func (s *TestPattern) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *TestPattern) handlers() (FrameHandler, ErrorHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onFrame, s.onError
}

func (s *TestPattern) loop(stopCh chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.wg.Done()
	}()

	interval := time.Second / time.Duration(s.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	counter := 0
	for {
		select {
		case <-stopCh:
			logger.WithComponent("testpattern").Debug().
				Int("frames", counter).
				Msg("Test pattern source stopped")
			return
		case <-ticker.C:
			frame := s.drawFrame(counter)
			counter++
			if onFrame, _ := s.handlers(); onFrame != nil {
				onFrame(frame)
			}
		}
	}
}

// drawFrame renders color bars, a sweeping cursor and a frame counter
func (s *TestPattern) drawFrame(counter int) *Frame {
	dc := gg.NewContext(s.width, s.height)

	barWidth := float64(s.width) / float64(len(barColors))
	for i, c := range barColors {
		dc.SetColor(c)
		dc.DrawRectangle(float64(i)*barWidth, 0, barWidth, float64(s.height))
		dc.Fill()
	}

	// sweeping cursor, one full pass per 2 seconds
	sweep := (counter % (2 * s.fps)) * s.width / (2 * s.fps)
	dc.SetColor(color.White)
	dc.DrawRectangle(float64(sweep), float64(s.height)*0.8, 4, float64(s.height)*0.2)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(color.Black)
	dc.DrawString(fmt.Sprintf("frame %06d", counter), 8, 16)

	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		b := dc.Image().Bounds()
		img = image.NewRGBA(b)
		draw.Draw(img, b, dc.Image(), b.Min, draw.Src)
	}
	return NewFrame(img)
}
