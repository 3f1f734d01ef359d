package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bartonlees/aforge/internal/config"
	"github.com/bartonlees/aforge/internal/logger"
	"github.com/bartonlees/aforge/internal/output"
	"github.com/bartonlees/aforge/internal/player"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// statusInterval paces the websocket status feed
const statusInterval = time.Second

// Server exposes the player over HTTP: status and lifecycle control under
// /api, the live MJPEG stream under /stream, and a websocket status feed.
type Server struct {
	router      *mux.Router
	player      *player.Player
	configMgr   *config.Manager
	broadcaster *output.Broadcaster
	upgrader    websocket.Upgrader
}

// NewServer creates an API server for the given player
func NewServer(p *player.Player, configMgr *config.Manager, broadcaster *output.Broadcaster) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		player:      p,
		configMgr:   configMgr,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/events", s.handleEvents)

	api.HandleFunc("/player/start", s.handleStart).Methods("POST")
	api.HandleFunc("/player/stop", s.handleStop).Methods("POST")
	api.HandleFunc("/player/signal-stop", s.handleSignalToStop).Methods("POST")
	api.HandleFunc("/player/wait-stop", s.handleWaitForStop).Methods("POST")

	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/config/player", s.handleUpdatePlayerConfig).Methods("PUT")

	if s.broadcaster != nil {
		s.router.Handle("/stream", s.broadcaster)
	}
}

// Router returns the configured router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().Str("addr", addr).Msg("API server starting")
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type statusResponse struct {
		player.Status
		StreamClients int    `json:"stream_clients"`
		StreamFrames  uint64 `json:"stream_frames"`
	}
	resp := statusResponse{Status: s.player.Status()}
	if s.broadcaster != nil {
		resp.StreamClients = s.broadcaster.ClientCount()
		resp.StreamFrames = s.broadcaster.FrameCount()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.player.Start(); err != nil {
		status := http.StatusInternalServerError
		if err == player.ErrNoSource {
			status = http.StatusConflict
		}
		s.writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, s.player.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.player.Stop()
	s.writeJSON(w, http.StatusOK, s.player.Status())
}

func (s *Server) handleSignalToStop(w http.ResponseWriter, r *http.Request) {
	s.player.SignalToStop()
	s.writeJSON(w, http.StatusOK, s.player.Status())
}

func (s *Server) handleWaitForStop(w http.ResponseWriter, r *http.Request) {
	// blocks until the source confirms termination
	s.player.WaitForStop()
	s.writeJSON(w, http.StatusOK, s.player.Status())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.configMgr.Get())
}

// handleUpdatePlayerConfig applies presentation settings to the running
// player and persists them
func (s *Server) handleUpdatePlayerConfig(w http.ResponseWriter, r *http.Request) {
	var req config.PlayerConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	borderColor, err := config.ParseHexColor(req.BorderColor)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.player.SetAutoSize(req.AutoSize)
	s.player.SetBorderColor(borderColor)

	cfg := s.configMgr.Get()
	cfg.Player = req
	if err := s.configMgr.Update(cfg); err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, cfg.Player)
}

// handleEvents upgrades to a websocket and feeds the client the player
// status once a second until it disconnects
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	log := logger.WithComponent("api")
	log.Info().Str("client", clientID).Msg("Event client connected")
	defer log.Info().Str("client", clientID).Msg("Event client disconnected")

	if err := conn.WriteJSON(s.player.Status()); err != nil {
		return
	}

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteJSON(s.player.Status()); err != nil {
			return
		}
	}
}
