package overlay_test

import (
	"image"
	"testing"
	"time"

	"github.com/bartonlees/aforge/internal/overlay"
	"github.com/bartonlees/aforge/internal/source"
)

type countingWidget struct {
	name    string
	enabled bool
	renders int
}

func (w *countingWidget) Name() string            { return w.name }
func (w *countingWidget) IsEnabled() bool         { return w.enabled }
func (w *countingWidget) SetEnabled(enabled bool) { w.enabled = enabled }
func (w *countingWidget) Render(f *source.Frame)  { w.renders++ }

func TestManagerHookRunsEnabledWidgets(t *testing.T) {
	m := overlay.NewManager()
	on := &countingWidget{name: "on", enabled: true}
	off := &countingWidget{name: "off", enabled: false}
	m.Add(on)
	m.Add(off)

	hook := m.Hook()
	frame := source.NewFrame(image.NewRGBA(image.Rect(0, 0, 64, 48)))

	if got := hook(frame); got != nil {
		t.Errorf("hook returned %v, want nil (widgets draw in place)", got)
	}
	if on.renders != 1 {
		t.Errorf("enabled widget rendered %d times, want 1", on.renders)
	}
	if off.renders != 0 {
		t.Errorf("disabled widget rendered %d times, want 0", off.renders)
	}

	if got := len(m.Widgets()); got != 2 {
		t.Errorf("Widgets() returned %d entries, want 2", got)
	}
}

func TestTimestampWidgetDraws(t *testing.T) {
	w := overlay.NewTimestampWidget("")
	if w.Name() != "timestamp" {
		t.Errorf("name = %q", w.Name())
	}
	if !w.IsEnabled() {
		t.Error("widget must start enabled")
	}

	frame := source.NewFrame(image.NewRGBA(image.Rect(0, 0, 160, 120)))
	frame.Timestamp = time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC)
	before := frame.Clone()

	w.Render(frame)

	changed := false
	for i := range frame.Image.Pix {
		if frame.Image.Pix[i] != before.Image.Pix[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("Render did not touch the frame")
	}
}

func TestTimestampWidgetToggle(t *testing.T) {
	w := overlay.NewTimestampWidget("15:04")
	w.SetEnabled(false)
	if w.IsEnabled() {
		t.Error("SetEnabled(false) had no effect")
	}
	w.SetEnabled(true)
	if !w.IsEnabled() {
		t.Error("SetEnabled(true) had no effect")
	}
}
