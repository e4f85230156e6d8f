// Package server exposes the way counter HTTP API.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jacentio/waytally/locations"
	"github.com/jacentio/waytally/store"
)

// CounterStore is the way counter operations the API depends on.
type CounterStore interface {
	// List returns all counters in the normalized external shape.
	List(ctx context.Context) ([]store.Counter, error)

	// ApplyDelta atomically adds delta to the counter identified by cand.
	ApplyDelta(ctx context.Context, cand store.Candidates, delta int64) (*store.Counter, error)
}

// LocationStore persists user-submitted map positions.
type LocationStore interface {
	Save(e locations.Entry) error
	Remove(id string) error
	List() ([]locations.Entry, error)
}

// Server handles the HTTP API.
type Server struct {
	counters  CounterStore
	locations LocationStore
	staticDir string
	logger    *slog.Logger
}

// New creates a new Server. staticDir may be empty to disable static
// file serving.
func New(counters CounterStore, locs LocationStore, staticDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		counters:  counters,
		locations: locs,
		staticDir: staticDir,
		logger:    logger,
	}
}

// Routes builds the request router with logging middleware applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /config", s.handleConfig)
	mux.HandleFunc("POST /value", s.handleValue)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /save-location", s.handleSaveLocation)
	mux.HandleFunc("POST /remove-location", s.handleRemoveLocation)
	mux.HandleFunc("GET /get-locations", s.handleGetLocations)

	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}

	return s.requestLogger(mux)
}
