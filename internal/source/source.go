package source

// FrameHandler receives every new frame, on the source's own goroutine.
// The frame is borrowed for the duration of the call: a handler that wants
// to keep the pixels past its return must Clone() the frame first, because
// the source is free to reuse or drop its buffer immediately afterwards.
type FrameHandler func(frame *Frame)

// ErrorHandler receives a description of a source-side failure, on the
// source's own goroutine. Reporting an error does not stop the source;
// whether it keeps retrying is the source's own business.
type ErrorHandler func(message string)

// Source defines the interface for video source backends.
//
// A running source delivers frames and errors asynchronously through the
// registered handlers. Stopping an already-stopped source and signaling a
// non-running one are no-ops.
type Source interface {
	// Start begins frame delivery on the source's own goroutine
	Start() error

	// SignalToStop asks the source to wind down without waiting for it
	SignalToStop()

	// WaitForStop blocks until the source has fully terminated
	WaitForStop()

	// Stop aborts the source and waits for termination
	Stop()

	// IsRunning reports whether the source is currently delivering frames
	IsRunning() bool

	// SetFrameHandler registers the callback invoked for every new frame
	SetFrameHandler(h FrameHandler)

	// SetErrorHandler registers the callback invoked on source failures
	SetErrorHandler(h ErrorHandler)

	// Name returns a human-readable name for this source
	Name() string
}
