package overlay

import (
	"sync"

	"github.com/bartonlees/aforge/internal/player"
	"github.com/bartonlees/aforge/internal/source"
)

// Widget draws onto a frame before it is presented
type Widget interface {
	// Name returns the widget type name
	Name() string

	// Render draws the widget onto the frame in place
	Render(frame *source.Frame)

	// IsEnabled returns whether the widget should be rendered
	IsEnabled() bool

	// SetEnabled sets whether the widget should be rendered
	SetEnabled(enabled bool)
}

// Manager chains widgets into a single frame hook. Widgets draw on the
// player's private clone of each frame, before it is published for
// presentation, so in-place drawing is safe.
type Manager struct {
	mu      sync.RWMutex
	widgets []Widget
}

// NewManager creates an empty widget manager
func NewManager() *Manager {
	return &Manager{}
}

// Add appends a widget to the render chain
func (m *Manager) Add(w Widget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.widgets = append(m.widgets, w)
}

// Widgets returns the current render chain
func (m *Manager) Widgets() []Widget {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Widget(nil), m.widgets...)
}

// Hook returns the frame hook to register with a player
func (m *Manager) Hook() player.FrameHook {
	return func(frame *source.Frame) *source.Frame {
		for _, w := range m.Widgets() {
			if w.IsEnabled() {
				w.Render(frame)
			}
		}
		return nil // widgets draw in place, the frame itself stands
	}
}
