package source

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"mime"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/bartonlees/aforge/internal/logger"
)

// reconnectDelay is how long the MJPEG source waits before re-dialing a
// stream that failed or ended.
const reconnectDelay = time.Second

// MJPEG reads frames from an MJPEG-over-HTTP camera stream
// (multipart/x-mixed-replace with JPEG parts).
//
// Read and decode failures are reported through the error handler; the
// source keeps reconnecting until it is signaled to stop.
type MJPEG struct {
	url    string
	client *http.Client

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	onFrame FrameHandler
	onError ErrorHandler
}

// NewMJPEG creates an MJPEG stream source for the given URL
func NewMJPEG(url string) *MJPEG {
	return &MJPEG{
		url: url,
		client: &http.Client{
			// no overall timeout: the response body is a live stream
			Timeout: 0,
		},
	}
}

// Name returns the source name
func (s *MJPEG) Name() string {
	return "MJPEG Stream"
}

// SetFrameHandler registers the new-frame callback
func (s *MJPEG) SetFrameHandler(h FrameHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = h
}

// SetErrorHandler registers the error callback
func (s *MJPEG) SetErrorHandler(h ErrorHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = h
}

// Start connects to the stream and begins delivering frames
func (s *MJPEG) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("MJPEG source already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopCh = make(chan struct{})
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.loop(ctx, s.stopCh)

	logger.WithComponent("mjpeg").Info().
		Str("url", s.url).
		Msg("MJPEG source started")
	return nil
}

// SignalToStop asks the reader loop to wind down. The in-flight body read
// is canceled as well, otherwise a silent camera could delay the stop
// indefinitely.
func (s *MJPEG) SignalToStop() {
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
	s.cancel()
}

// WaitForStop blocks until the reader loop has exited
func (s *MJPEG) WaitForStop() {
	s.wg.Wait()
}

// Stop aborts the stream and waits for the reader loop to exit
func (s *MJPEG) Stop() {
	s.SignalToStop()
	s.WaitForStop()
}

// IsRunning reports whether the reader loop is alive
func (s *MJPEG) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *MJPEG) handlers() (FrameHandler, ErrorHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onFrame, s.onError
}

func (s *MJPEG) emitError(msg string) {
	if _, onError := s.handlers(); onError != nil {
		onError(msg)
	}
}

func (s *MJPEG) loop(ctx context.Context, stopCh chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.wg.Done()
	}()

	log := logger.WithComponent("mjpeg")

	for {
		select {
		case <-stopCh:
			log.Info().Msg("MJPEG source stopped")
			return
		default:
		}

		if err := s.readStream(ctx, stopCh); err != nil {
			select {
			case <-stopCh:
				log.Info().Msg("MJPEG source stopped")
				return
			default:
			}

			log.Warn().Err(err).Msg("MJPEG stream failed, reconnecting")
			s.emitError(err.Error())

			select {
			case <-stopCh:
				log.Info().Msg("MJPEG source stopped")
				return
			case <-time.After(reconnectDelay):
			}
		}
	}
}

// readStream dials the camera and decodes JPEG parts until the stream ends,
// a part fails to parse, or the source is signaled to stop.
func (s *MJPEG) readStream(ctx context.Context, stopCh chan struct{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect to stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, s.url)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return fmt.Errorf("parse content type: %w", err)
	}
	boundary, ok := params["boundary"]
	if !ok || mediaType != "multipart/x-mixed-replace" {
		return fmt.Errorf("not an MJPEG stream: content type %q", mediaType)
	}

	reader := multipart.NewReader(resp.Body, boundary)
	for {
		select {
		case <-stopCh:
			return nil
		default:
		}

		part, err := reader.NextPart()
		if err != nil {
			return fmt.Errorf("read stream part: %w", err)
		}

		img, err := jpeg.Decode(part)
		part.Close()
		if err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}

		if onFrame, _ := s.handlers(); onFrame != nil {
			onFrame(NewFrame(toRGBA(img)))
		}
	}
}

// toRGBA converts a decoded image to RGBA without copying when it already is one
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}
