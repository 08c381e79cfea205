// Package server exposes recorded builds over a read-only HTTP API.
//
// Routes:
//
//	GET /healthz                              liveness probe
//	GET /api/builds?limit=N                   recent builds, newest first
//	GET /api/builds/latest                    the most recent build
//	GET /api/builds/{buildID}                 one build record
//	GET /api/builds/{buildID}/steps/{index}/log   a step's log, text/plain
//
// The server only reads the build root; nothing here mutates state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"stepline/internal/build"
)

// defaultListLimit bounds /api/builds when no limit parameter is given.
const defaultListLimit = 20

// Server serves the build status API.
type Server struct {
	reader *build.Reader
}

// New creates a [Server] over the given build reader.
func New(reader *build.Reader) *Server {
	return &Server{reader: reader}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/builds", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/latest", s.handleLatest)
		r.Get("/{buildID}", s.handleGet)
		r.Get("/{buildID}/steps/{index}/log", s.handleStepLog)
	})
	return r
}

// ListenAndServe runs the server until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	builds, err := s.reader.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if builds == nil {
		builds = []*build.Build{}
	}
	writeJSON(w, http.StatusOK, builds)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	b, err := s.reader.LoadLatest()
	if err != nil {
		if errors.Is(err, build.ErrNoBuilds) {
			writeError(w, http.StatusNotFound, "no recorded builds")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := requestBuildID(w, r)
	if !ok {
		return
	}
	b, err := s.reader.Load(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "build not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleStepLog(w http.ResponseWriter, r *http.Request) {
	id, ok := requestBuildID(w, r)
	if !ok {
		return
	}
	b, err := s.reader.Load(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "build not found")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid step index")
		return
	}

	logPath, err := s.reader.StepLogPath(b, index)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		writeError(w, http.StatusNotFound, "log not found")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// requestBuildID extracts and validates the buildID URL parameter,
// writing a 400 response when it could be used to escape the build root.
func requestBuildID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "buildID"))
	if err != nil || !build.ValidID(id) {
		writeError(w, http.StatusBadRequest, "invalid build id")
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
