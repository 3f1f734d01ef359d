package source_test

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bartonlees/aforge/internal/source"
)

// serveMJPEG streams count JPEG frames as multipart/x-mixed-replace, the
// wire format IP cameras use.
func serveMJPEG(t *testing.T, count int) *httptest.Server {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	var jpegData bytes.Buffer
	if err := jpeg.Encode(&jpegData, img, nil); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		flusher := w.(http.Flusher)
		for i := 0; i < count; i++ {
			fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", jpegData.Len())
			w.Write(jpegData.Bytes())
			fmt.Fprint(w, "\r\n")
			flusher.Flush()
		}
	}))
}

func TestMJPEGDeliversFrames(t *testing.T) {
	srv := serveMJPEG(t, 5)
	defer srv.Close()

	src := source.NewMJPEG(srv.URL)

	var mu sync.Mutex
	var frames []*source.Frame
	src.SetFrameHandler(func(f *source.Frame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	})

	if err := src.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer src.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(frames)
		mu.Unlock()
		if n >= 5 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(frames) < 5 {
		t.Fatalf("received %d frames, want 5", len(frames))
	}
	if frames[0].Width() != 32 || frames[0].Height() != 24 {
		t.Errorf("frame size = %dx%d, want 32x24", frames[0].Width(), frames[0].Height())
	}
}

func TestMJPEGReportsNonStreamResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>not a camera</html>")
	}))
	defer srv.Close()

	src := source.NewMJPEG(srv.URL)

	errCh := make(chan string, 1)
	src.SetErrorHandler(func(msg string) {
		select {
		case errCh <- msg:
		default:
		}
	})

	if err := src.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer src.Stop()

	select {
	case msg := <-errCh:
		if msg == "" {
			t.Error("empty error message")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no error reported for a non-MJPEG response")
	}
}

func TestMJPEGReportsConnectFailure(t *testing.T) {
	// a server that is immediately closed leaves a refused port behind
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	src := source.NewMJPEG(url)

	errCh := make(chan string, 1)
	src.SetErrorHandler(func(msg string) {
		select {
		case errCh <- msg:
		default:
		}
	})

	if err := src.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer src.Stop()

	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("no error reported for a refused connection")
	}
}

func TestMJPEGStopDuringStream(t *testing.T) {
	srv := serveMJPEG(t, 1_000_000)
	defer srv.Close()

	src := source.NewMJPEG(srv.URL)

	got := make(chan struct{}, 1)
	src.SetFrameHandler(func(f *source.Frame) {
		select {
		case got <- struct{}{}:
		default:
		}
	})

	if err := src.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case <-got:
	case <-time.After(3 * time.Second):
		t.Fatal("no frame delivered")
	}

	done := make(chan struct{})
	go func() {
		src.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not complete while the stream was live")
	}
	if src.IsRunning() {
		t.Error("IsRunning = true after Stop")
	}
}
