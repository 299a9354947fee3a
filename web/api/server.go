// Package api serves stored projects and their analyses over HTTP, and
// pushes fresh analyses to SSE and websocket clients.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hochfrequenz/critpath/internal/cpa"
	"github.com/hochfrequenz/critpath/internal/observer"
	"github.com/hochfrequenz/critpath/internal/parser"
	"github.com/hochfrequenz/critpath/internal/taskstore"
)

// Store interface for database operations
type Store interface {
	ListProjects() ([]taskstore.ProjectInfo, error)
	LoadProject(name string) (*parser.Project, error)
	LatestAnalysis(project string) (*taskstore.Analysis, error)
}

// Server is the HTTP API server
type Server struct {
	store    Store
	observer *observer.Observer
	addr     string
	mux      *http.ServeMux
	hub      *Hub
	upgrader websocket.Upgrader

	pingInterval time.Duration
}

// NewServer creates a new API server. obs may be nil.
func NewServer(store Store, obs *observer.Observer, addr string) *Server {
	s := &Server{
		store:    store,
		observer: obs,
		addr:     addr,
		mux:      http.NewServeMux(),
		hub:      NewHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingInterval: 30 * time.Second,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /api/projects", s.listProjectsHandler())
	s.mux.HandleFunc("GET /api/projects/{name}", s.getProjectHandler())
	s.mux.HandleFunc("GET /api/projects/{name}/analysis", s.analysisHandler())
	s.mux.HandleFunc("GET /api/metrics", s.metricsHandler())
	s.mux.HandleFunc("GET /api/events", s.sseHandler())
	s.mux.HandleFunc("GET /api/ws", s.wsHandler())
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Printf("api listening on %s", s.addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Publish pushes a fresh analysis to every connected client
func (s *Server) Publish(project string, r *cpa.Result) {
	s.hub.Broadcast(Event{Type: EventAnalysis, Project: project, Data: NewAnalysisResponse(r)})
}

// Broadcast sends an event to all SSE and websocket clients
func (s *Server) Broadcast(event Event) {
	s.hub.Broadcast(event)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
