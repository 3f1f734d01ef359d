package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bartonlees/aforge/internal/api"
	"github.com/bartonlees/aforge/internal/config"
	"github.com/bartonlees/aforge/internal/player"
	"github.com/bartonlees/aforge/internal/source"
)

func newTestServer(t *testing.T, withSource bool) (*api.Server, *player.Player) {
	t.Helper()

	mgr, err := config.NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}

	p := player.New()
	if withSource {
		if err := p.SetSource(source.NewTestPattern(64, 48, 50)); err != nil {
			t.Fatalf("SetSource: %v", err)
		}
	}
	t.Cleanup(p.Stop)

	return api.NewServer(p, mgr, nil), p
}

func doJSON(t *testing.T, srv *api.Server, method, path string, body []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: invalid JSON response: %v", method, path, err)
		}
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec, body := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("body = %v", body)
	}
}

func TestStatusDetached(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec, body := doJSON(t, srv, http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["state"] != "detached" {
		t.Errorf("state = %v, want detached", body["state"])
	}
	if body["running"] != false {
		t.Errorf("running = %v, want false", body["running"])
	}
}

func TestStartWithoutSourceConflicts(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec, body := doJSON(t, srv, http.MethodPost, "/api/player/start", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if msg, _ := body["error"].(string); msg == "" {
		t.Error("missing error message")
	}
}

func TestPlayerLifecycleOverHTTP(t *testing.T) {
	srv, p := newTestServer(t, true)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/player/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: status = %d, body = %v", rec.Code, body)
	}
	if body["state"] != "running" {
		t.Errorf("state after start = %v, want running", body["state"])
	}
	if !p.IsRunning() {
		t.Error("player not running after POST /api/player/start")
	}

	rec, body = doJSON(t, srv, http.MethodPost, "/api/player/signal-stop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("signal-stop: status = %d", rec.Code)
	}
	if body["state"] != "stop-requested" {
		t.Errorf("state after signal-stop = %v, want stop-requested", body["state"])
	}

	rec, body = doJSON(t, srv, http.MethodPost, "/api/player/wait-stop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("wait-stop: status = %d", rec.Code)
	}
	if body["state"] != "idle" {
		t.Errorf("state after wait-stop = %v, want idle", body["state"])
	}
	if p.IsRunning() {
		t.Error("player still running after wait-stop")
	}
}

func TestStopEndpoint(t *testing.T) {
	srv, p := newTestServer(t, true)

	if rec, _ := doJSON(t, srv, http.MethodPost, "/api/player/start", nil); rec.Code != http.StatusOK {
		t.Fatalf("start: status = %d", rec.Code)
	}
	rec, body := doJSON(t, srv, http.MethodPost, "/api/player/stop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop: status = %d", rec.Code)
	}
	if body["state"] != "idle" {
		t.Errorf("state after stop = %v, want idle", body["state"])
	}
	if p.IsRunning() {
		t.Error("player still running after stop")
	}
}

func TestGetConfig(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec, body := doJSON(t, srv, http.MethodGet, "/api/config", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["server_port"] != float64(8080) {
		t.Errorf("server_port = %v, want 8080", body["server_port"])
	}
}

func TestUpdatePlayerConfig(t *testing.T) {
	srv, p := newTestServer(t, false)

	payload := []byte(`{"auto_size": false, "border_color": "#ff0000", "timestamp": false}`)
	rec, body := doJSON(t, srv, http.MethodPut, "/api/config/player", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %v", rec.Code, body)
	}

	if p.AutoSize() {
		t.Error("auto-size not applied to the player")
	}
	if got := p.BorderColor(); got.R != 0xff || got.G != 0 || got.B != 0 {
		t.Errorf("border color not applied: %v", got)
	}

	// persisted too
	rec, body = doJSON(t, srv, http.MethodGet, "/api/config", nil)
	if rec.Code != http.StatusOK {
		t.Fatal("config fetch failed")
	}
	playerCfg, ok := body["player"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing player section: %v", body)
	}
	if playerCfg["border_color"] != "#ff0000" {
		t.Errorf("persisted border color = %v", playerCfg["border_color"])
	}
}

func TestUpdatePlayerConfigRejectsBadColor(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec, _ := doJSON(t, srv, http.MethodPut, "/api/config/player", []byte(`{"border_color": "red"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodGet, "/api/player/start", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
