package player

import (
	"github.com/bartonlees/aforge/internal/source"
)

// frameSlot is the single-slot hand-off buffer between the ingest path and
// the presentation driver. It holds at most one frame plus the most recent
// source-reported error message. The slot carries no lock of its own:
// every access happens under the owning player's mutex, the one exclusion
// domain shared by ingest, lifecycle and presentation.
type frameSlot struct {
	frame     *source.Frame
	lastError string
}

// put stores a new frame, dropping the reference to the previous one and
// clearing any recorded error. The swap is O(1); reclamation of the old
// pixel buffer is the garbage collector's job, which keeps the critical
// section free of any per-pixel work.
func (s *frameSlot) put(f *source.Frame) {
	s.frame = f
	s.lastError = ""
}

// putError records a source-reported error without discarding the frame
// currently held.
func (s *frameSlot) putError(msg string) {
	s.lastError = msg
}

// snapshot returns the held frame (or nil) and the recorded error (or "")
// as a consistent pair.
func (s *frameSlot) snapshot() (*source.Frame, string) {
	return s.frame, s.lastError
}

// clear drops the held frame and resets the slot to empty
func (s *frameSlot) clear() {
	s.frame = nil
	s.lastError = ""
}
