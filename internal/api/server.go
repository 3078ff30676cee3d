// Package api serves a read-only status view over the run-history
// journal. The loop itself is the system's only writer, so there are
// no mutating endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dailysign/internal/history"
)

// Reader is the slice of the journal the server needs.
type Reader interface {
	ListRecent(ctx context.Context, limit int) ([]history.BatchRecord, error)
	Get(ctx context.Context, id string) (history.BatchRecord, error)
}

type Server struct {
	r       *chi.Mux
	journal Reader
}

func NewServer(journal Reader) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	s := &Server{r: r, journal: journal}

	r.Get("/health", s.health)
	r.Get("/metrics", s.metrics)
	r.Get("/api/batches", s.listBatches)
	r.Get("/api/batches/{id}", s.getBatch)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("dailysign_up 1\n"))
}

func (s *Server) listBatches(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	batches, err := s.journal.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if batches == nil {
		batches = []history.BatchRecord{}
	}
	writeJSON(w, 200, batches)
}

func (s *Server) getBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := s.journal.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			http.Error(w, "not found", 404)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, 200, b)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
