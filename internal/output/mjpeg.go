package output

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bartonlees/aforge/internal/logger"
	"github.com/bartonlees/aforge/internal/player"
	"github.com/bartonlees/aforge/internal/render"
	"github.com/google/uuid"
)

// Config holds the broadcast geometry and encoding settings
type Config struct {
	Width   int
	Height  int
	FPS     int
	Quality int
}

// Broadcaster presents a player as a Motion JPEG HTTP stream. It acts as
// the player's host: invalidations mark the stream dirty, a render loop
// repaints at the configured rate, and the encoded frames fan out to any
// number of connected clients.
type Broadcaster struct {
	config Config
	player *player.Player

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	dirty atomic.Bool

	clientsMu sync.RWMutex
	clients   map[chan []byte]struct{}

	frameCount atomic.Uint64
}

// NewBroadcaster creates an MJPEG broadcaster for the given player
func NewBroadcaster(p *player.Player, config Config) *Broadcaster {
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = 800, 600
	}
	if config.FPS <= 0 {
		config.FPS = 15
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = 90
	}
	return &Broadcaster{
		config:  config,
		player:  p,
		clients: make(map[chan []byte]struct{}),
	}
}

// Bounds implements player.Host with the fixed broadcast geometry
func (b *Broadcaster) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.config.Width, b.config.Height)
}

// Invalidate implements player.Host; the render loop picks the mark up on
// its next tick
func (b *Broadcaster) Invalidate() {
	b.dirty.Store(true)
}

// Start launches the render loop
func (b *Broadcaster) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return fmt.Errorf("MJPEG broadcaster already running")
	}
	b.stopCh = make(chan struct{})
	b.running = true

	b.wg.Add(1)
	go b.loop(b.stopCh)

	logger.WithComponent("mjpeg-out").Info().
		Int("width", b.config.Width).
		Int("height", b.config.Height).
		Int("fps", b.config.FPS).
		Msg("MJPEG broadcast started")
	return nil
}

// Stop shuts the render loop down and disconnects all clients
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	close(b.stopCh)
	b.running = false
	b.mu.Unlock()

	b.wg.Wait()

	b.clientsMu.Lock()
	for ch := range b.clients {
		close(ch)
	}
	b.clients = make(map[chan []byte]struct{})
	b.clientsMu.Unlock()

	logger.WithComponent("mjpeg-out").Info().
		Uint64("frames", b.frameCount.Load()).
		Msg("MJPEG broadcast stopped")
}

// IsRunning reports whether the render loop is active
func (b *Broadcaster) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// FrameCount returns the number of frames broadcast so far
func (b *Broadcaster) FrameCount() uint64 {
	return b.frameCount.Load()
}

// ClientCount returns the number of connected stream clients
func (b *Broadcaster) ClientCount() int {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) loop(stopCh chan struct{}) {
	defer b.wg.Done()

	surface := render.NewImageSurface(b.config.Width, b.config.Height)
	ticker := time.NewTicker(time.Second / time.Duration(b.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !b.dirty.Swap(false) {
				continue
			}
			surface.Clear(color.Black)
			b.player.Render(surface)
			b.broadcast(surface.Image())
		}
	}
}

// broadcast encodes the rendered surface and fans it out. Slow clients
// skip frames instead of stalling the loop.
func (b *Broadcaster) broadcast(img *image.RGBA) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: b.config.Quality}); err != nil {
		logger.WithComponent("mjpeg-out").Error().Err(err).Msg("Failed to encode JPEG")
		return
	}
	data := buf.Bytes()
	b.frameCount.Add(1)

	b.clientsMu.RLock()
	for ch := range b.clients {
		select {
		case ch <- data:
		default:
		}
	}
	b.clientsMu.RUnlock()
}

// ServeHTTP streams multipart JPEG frames to a client until it disconnects
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !b.IsRunning() {
		http.Error(w, "stream not running", http.StatusServiceUnavailable)
		return
	}

	clientID := uuid.NewString()
	log := logger.WithComponent("mjpeg-out")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Connection", "close")

	frameChan := make(chan []byte, 2)
	b.clientsMu.Lock()
	b.clients[frameChan] = struct{}{}
	count := len(b.clients)
	b.clientsMu.Unlock()

	log.Info().Str("client", clientID).Int("total", count).Msg("Stream client connected")

	defer func() {
		b.clientsMu.Lock()
		delete(b.clients, frameChan)
		remaining := len(b.clients)
		b.clientsMu.Unlock()
		log.Info().Str("client", clientID).Int("remaining", remaining).Msg("Stream client disconnected")
	}()

	// first paint may be pending; nudge the render loop
	b.Invalidate()

	for data := range frameChan {
		if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
			return
		}
		if _, err := w.Write(data); err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
