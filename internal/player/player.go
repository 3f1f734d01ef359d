package player

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/bartonlees/aforge/internal/logger"
	"github.com/bartonlees/aforge/internal/source"
	"github.com/rs/zerolog"
)

var (
	// ErrSourceRunning is returned when replacing a video source that is
	// still delivering frames. Stop it first.
	ErrSourceRunning = errors.New("video source is running and cannot be replaced")

	// ErrNoSource is returned by Start when no video source is attached
	ErrNoSource = errors.New("no video source attached")
)

// State describes the player lifecycle
type State int

const (
	// Detached means no video source is attached
	Detached State = iota
	// Idle means a source is attached but not started
	Idle
	// Running means the attached source is delivering frames
	Running
	// StopRequested means the source has been asked to wind down but has
	// not yet confirmed termination
	StopRequested
)

func (s State) String() string {
	switch s {
	case Detached:
		return "detached"
	case Idle:
		return "idle"
	case Running:
		return "running"
	case StopRequested:
		return "stop-requested"
	default:
		return "unknown"
	}
}

// FrameHook is invoked synchronously, on the source's goroutine, for every
// accepted frame before it is stored for presentation. Returning a non-nil
// frame substitutes it for the one that will be stored and drawn; returning
// nil keeps the current frame. Hooks run in registration order, each seeing
// the result of the previous one.
type FrameHook func(frame *source.Frame) *source.Frame

// Status is a point-in-time snapshot of the player's observable state
type Status struct {
	State       string `json:"state"`
	Running     bool   `json:"running"`
	Source      string `json:"source,omitempty"`
	FrameWidth  int    `json:"frame_width"`
	FrameHeight int    `json:"frame_height"`
	LastError   string `json:"last_error,omitempty"`
}

// Player synchronizes frames delivered asynchronously by a video source
// with a host surface that draws them on its own schedule.
//
// Two goroutines meet here: the source's (ingest callbacks) and the host's
// (lifecycle calls and Render). A single mutex guards the frame slot, the
// lifecycle state and the geometry; every entry point acquires it with
// scoped lock/unlock pairs. The only blocking operation is WaitForStop,
// which waits on the source with the mutex released, so a source shutting
// itself down can never deadlock against a host waiting for it.
type Player struct {
	mu sync.Mutex

	src   source.Source
	state State
	slot  frameSlot
	hooks []FrameHook

	autoSize    bool
	borderColor color.RGBA
	host        Host
	layout      image.Rectangle
	frameSize   image.Point // zero until the first frame of the current run

	log *zerolog.Logger
}

// New creates a player with auto-sizing enabled and the default border color
func New() *Player {
	return &Player{
		autoSize:    true,
		borderColor: color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff},
		log:         logger.WithComponent("player"),
	}
}

// SetSource attaches a video source, or detaches the current one when src
// is nil. Fails with ErrSourceRunning while the current source is still
// delivering frames; the old source is left fully attached in that case.
func (p *Player) SetSource(src source.Source) error {
	p.mu.Lock()

	if p.src != nil && p.src.IsRunning() {
		p.mu.Unlock()
		return ErrSourceRunning
	}

	if p.src != nil {
		p.src.SetFrameHandler(nil)
		p.src.SetErrorHandler(nil)
	}

	p.src = src
	p.slot.clear()
	p.frameSize = image.Point{}

	if src != nil {
		src.SetFrameHandler(p.handleFrame)
		src.SetErrorHandler(p.handleError)
		p.state = Idle
		p.log.Info().Str("source", src.Name()).Msg("Video source attached")
	} else {
		p.state = Detached
		p.log.Info().Msg("Video source detached")
	}

	p.updateLayoutLocked()
	host := p.host
	p.mu.Unlock()

	if host != nil {
		host.Invalidate()
	}
	return nil
}

// Source returns the currently attached video source, or nil
func (p *Player) Source() source.Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

// Start starts the attached video source. Calling Start with no source
// attached is a usage error and fails with ErrNoSource.
func (p *Player) Start() error {
	p.mu.Lock()

	if p.src == nil {
		p.mu.Unlock()
		return ErrNoSource
	}

	if err := p.src.Start(); err != nil {
		p.mu.Unlock()
		return err
	}

	p.state = Running
	p.frameSize = image.Point{} // size is re-derived from the first frame
	p.updateLayoutLocked()
	host := p.host
	p.log.Info().Str("source", p.src.Name()).Msg("Playback started")
	p.mu.Unlock()

	if host != nil {
		host.Invalidate()
	}
	return nil
}

// SignalToStop asks the source to wind down without blocking. The player
// stays in StopRequested until the source confirms termination through
// WaitForStop or Stop.
func (p *Player) SignalToStop() {
	p.mu.Lock()
	src := p.src
	if src != nil && p.state == Running {
		p.state = StopRequested
	}
	p.mu.Unlock()

	if src != nil {
		src.SignalToStop()
	}
}

// WaitForStop blocks until the source has terminated, then clears the frame
// slot and returns the player to Idle. The wait happens with the player
// mutex released.
func (p *Player) WaitForStop() {
	p.mu.Lock()
	src := p.src
	p.mu.Unlock()

	if src == nil {
		return
	}
	src.WaitForStop()

	p.finishStop()
}

// Stop aborts the source and waits for it to terminate, then clears the
// frame slot and returns the player to Idle. Stopping a player whose source
// is already stopped, or that has no source at all, is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	src := p.src
	p.mu.Unlock()

	if src == nil {
		return
	}
	src.Stop()

	p.finishStop()
}

func (p *Player) finishStop() {
	p.mu.Lock()
	p.slot.clear()
	if p.state == Running || p.state == StopRequested {
		p.state = Idle
	}
	host := p.host
	p.log.Info().Msg("Playback stopped")
	p.mu.Unlock()

	if host != nil {
		host.Invalidate()
	}
}

// IsRunning reports whether the attached source is delivering frames.
// Returns false when no source is attached.
func (p *Player) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == nil {
		return false
	}
	return p.src.IsRunning()
}

// State returns the current lifecycle state
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Status returns a snapshot of the player's observable state
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		State:   p.state.String(),
		Running: p.src != nil && p.src.IsRunning(),
	}
	if p.src != nil {
		st.Source = p.src.Name()
	}
	frame, lastErr := p.slot.snapshot()
	st.LastError = lastErr
	if frame != nil {
		st.FrameWidth = frame.Width()
		st.FrameHeight = frame.Height()
	}
	return st
}

// OnNewFrame registers a hook invoked for every accepted frame
func (p *Player) OnNewFrame(hook FrameHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, hook)
}

// SetHost attaches the surface owner that embeds this player
func (p *Player) SetHost(h Host) {
	p.mu.Lock()
	p.host = h
	p.updateLayoutLocked()
	p.mu.Unlock()

	if h != nil {
		h.Invalidate()
	}
}

// SetAutoSize enables or disables deriving the control geometry from the
// frame dimensions
func (p *Player) SetAutoSize(enabled bool) {
	p.mu.Lock()
	p.autoSize = enabled
	p.updateLayoutLocked()
	host := p.host
	p.mu.Unlock()

	if host != nil {
		host.Invalidate()
	}
}

// AutoSize reports whether auto-sizing is enabled
func (p *Player) AutoSize() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoSize
}

// SetBorderColor sets the border color. It takes effect on the next repaint.
func (p *Player) SetBorderColor(c color.RGBA) {
	p.mu.Lock()
	p.borderColor = c
	host := p.host
	p.mu.Unlock()

	if host != nil {
		host.Invalidate()
	}
}

// BorderColor returns the configured border color
func (p *Player) BorderColor() color.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.borderColor
}

// handleFrame is the ingest entry point, invoked by the source on its own
// goroutine for every new frame. The inbound frame is only borrowed, so it
// is cloned before anything else; the critical section itself is just the
// reference swap plus geometry bookkeeping.
func (p *Player) handleFrame(f *source.Frame) {
	frame := f.Clone()

	p.mu.Lock()
	if p.state != Running && p.state != StopRequested {
		p.mu.Unlock()
		return
	}
	hooks := p.hooks
	p.mu.Unlock()

	for _, hook := range hooks {
		if replaced := hook(frame); replaced != nil {
			frame = replaced
		}
	}

	p.mu.Lock()
	if p.state != Running && p.state != StopRequested {
		// stopped while the hooks were running
		p.mu.Unlock()
		return
	}
	p.slot.put(frame)
	size := frame.Size()
	if p.frameSize != size {
		p.frameSize = size
		p.updateLayoutLocked()
	}
	host := p.host
	p.mu.Unlock()

	if host != nil {
		host.Invalidate()
	}
}

// handleError records a source-reported error. The current frame is kept;
// only a repaint is scheduled, not a geometry update.
func (p *Player) handleError(message string) {
	p.mu.Lock()
	p.slot.putError(message)
	host := p.host
	p.mu.Unlock()

	p.log.Warn().Str("error", message).Msg("Video source reported an error")

	if host != nil {
		host.Invalidate()
	}
}
