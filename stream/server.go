package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"

	"github.com/pthm-cable/gridmapf/env"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/telemetry"
)

// Routes served by the stream server.
const (
	URIWebSocket = "/ws"
	URIGrid      = "/grid"
	URIState     = "/state"
)

// Stepper is a live source the server can drive. rollout.Runner
// implements it.
type Stepper interface {
	Tick() (telemetry.StepRecord, error)
	State() env.State
	LastDiagnostics() *env.Diagnostics
}

// Server exposes a hub and the static grid over HTTP.
type Server struct {
	Hub *Hub

	router   *way.Router
	upgrader *websocket.Upgrader
	grid     GridInfo
	log      *slog.Logger
}

// NewServer builds the router for g.
func NewServer(g *grid.Grid, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Hub: NewHub(logger),
		// Viewers are usually served from another origin.
		upgrader: &websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		grid:     NewGridInfo(g),
		log:      logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", URIWebSocket, s.handleWebSocket())
	s.router.HandleFunc("GET", URIGrid, s.handleGrid())
	s.router.HandleFunc("GET", URIState, s.handleState())
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied to the client.
			s.log.Warn("websocket upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		c := s.Hub.add(conn)
		go c.writeLoop()
		c.readLoop()
		s.Hub.remove(c)
	}
}

func (s *Server) handleGrid() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.grid); err != nil {
			s.log.Warn("encode grid", "err", err)
		}
	}
}

func (s *Server) handleState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest := s.Hub.Latest()
		if latest == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(latest)
	}
}

// Pump publishes the source's current state, then ticks it every interval
// and publishes each result until ctx is cancelled or steps ticks have run.
// steps <= 0 runs until cancelled.
func (s *Server) Pump(ctx context.Context, src Stepper, interval time.Duration, steps int) error {
	if err := s.Hub.Publish(NewFrame(src.State(), src.LastDiagnostics())); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; steps <= 0 || n < steps; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if _, err := src.Tick(); err != nil {
			return err
		}
		if err := s.Hub.Publish(NewFrame(src.State(), src.LastDiagnostics())); err != nil {
			return err
		}
	}
	return nil
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("stream listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
