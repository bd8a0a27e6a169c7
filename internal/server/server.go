// Package server exposes the simulation over HTTP: the historical data API,
// a websocket render stream, Prometheus scraping and a health probe.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wallstreet-rpg/internal/fetch"
	"wallstreet-rpg/internal/metrics"
	"wallstreet-rpg/internal/models"
	"wallstreet-rpg/internal/stream"
)

// Config holds server options.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible server defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8090",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

// Server serves the data API and the render-event websocket.
type Server struct {
	cfg      Config
	fetcher  *fetch.Client
	hub      *stream.Hub
	met      *metrics.Metrics
	log      zerolog.Logger
	httpSrv  *http.Server
	upgrader websocket.Upgrader
}

// New creates a server. met may be nil.
func New(cfg Config, fetcher *fetch.Client, hub *stream.Hub, met *metrics.Metrics, logger zerolog.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	s := &Server{
		cfg:     cfg,
		fetcher: fetcher,
		hub:     hub,
		met:     met,
		log:     logger.With().Str("component", "server").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/historical", s.handleHistorical)
	mux.HandleFunc("/api/random", s.handleRandom)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", met.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.Addr).Msg("Server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains connections and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// handleHistorical serves seeded historical candles. The response always
// succeeds: upstream failures fall back to demo generation inside the
// fetch client, so callers never need a retry path.
func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	symbol := r.URL.Query().Get("symbol")
	yearStr := r.URL.Query().Get("year")
	if symbol == "" || yearStr == "" {
		s.writeError(w, http.StatusBadRequest, "symbol and year are required")
		return
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "year must be an integer")
		return
	}

	resp := s.fetcher.Historical(r.Context(), symbol, year)
	source := "live"
	if resp.IsDemo {
		source = "demo"
	}
	s.met.IncHistorical(source)
	s.writeJSON(w, http.StatusOK, resp)
}

// handleRandom serves a random era-eligible instrument's season, used by the
// start screen before any card has been drafted.
func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := s.fetcher.RandomSample()
	s.met.IncHistorical("random")
	s.writeJSON(w, http.StatusOK, resp)
}

// handleWS upgrades to a websocket and pumps render events until the client
// disconnects. Each connection gets its own hub subscription.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	events := s.hub.Subscribe(id)
	s.met.AddWSClient(1)
	s.log.Info().Str("client", id).Str("remote", r.RemoteAddr).Msg("Render client connected")

	go s.writePump(conn, id, events)
	s.readPump(conn, id)
}

func (s *Server) readPump(conn *websocket.Conn, id string) {
	defer func() {
		s.hub.Unsubscribe(id)
		s.met.AddWSClient(-1)
		conn.Close()
		s.log.Info().Str("client", id).Msg("Render client disconnected")
	}()

	conn.SetReadLimit(1024)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, id string, events <-chan models.RenderEvent) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case ev, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug().Err(err).Str("client", id).Msg("Write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("Response encoding failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, models.HistoricalResponse{Success: false, Message: msg})
}
