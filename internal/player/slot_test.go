package player

import (
	"image"
	"testing"

	"github.com/bartonlees/aforge/internal/source"
)

func testFrame(w, h int) *source.Frame {
	return source.NewFrame(image.NewRGBA(image.Rect(0, 0, w, h)))
}

func TestFrameSlotHoldsLatestFrame(t *testing.T) {
	var slot frameSlot

	if frame, lastErr := slot.snapshot(); frame != nil || lastErr != "" {
		t.Fatalf("empty slot returned frame=%v err=%q", frame, lastErr)
	}

	a := testFrame(640, 480)
	b := testFrame(640, 480)

	slot.put(a)
	if frame, _ := slot.snapshot(); frame != a {
		t.Error("slot does not hold the frame that was put")
	}

	slot.put(b)
	if frame, _ := slot.snapshot(); frame != b {
		t.Error("slot did not replace the previous frame")
	}
}

func TestFrameSlotErrorKeepsFrame(t *testing.T) {
	var slot frameSlot

	slot.put(testFrame(320, 240))
	slot.putError("connection lost")

	frame, lastErr := slot.snapshot()
	if frame == nil {
		t.Error("recording an error must not discard the held frame")
	}
	if lastErr != "connection lost" {
		t.Errorf("lastErr = %q, want %q", lastErr, "connection lost")
	}
}

func TestFrameSlotNewFrameClearsError(t *testing.T) {
	var slot frameSlot

	slot.putError("decode failed")
	slot.put(testFrame(320, 240))

	if _, lastErr := slot.snapshot(); lastErr != "" {
		t.Errorf("new frame must clear the recorded error, got %q", lastErr)
	}
}

func TestFrameSlotClear(t *testing.T) {
	var slot frameSlot

	slot.put(testFrame(320, 240))
	slot.putError("stale")
	slot.clear()

	if frame, lastErr := slot.snapshot(); frame != nil || lastErr != "" {
		t.Errorf("clear left frame=%v err=%q", frame, lastErr)
	}
}
