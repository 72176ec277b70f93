// Package server exposes the generation pipeline over HTTP.
//
// Endpoints:
//
//	POST /api/generate          run the pipeline; JSON stats or PNG via ?format=png
//	GET  /api/runs              list archived runs (metadata only)
//	GET  /api/runs/{id}         one run's metadata
//	GET  /api/runs/{id}/image   one run's PNG artifact
//	GET  /healthz               liveness probe
package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/imageio"
	"github.com/tilewright/tilewright/pkg/pipeline"
	"github.com/tilewright/tilewright/pkg/store"
)

// DefaultListLimit bounds GET /api/runs responses.
const DefaultListLimit = 50

// Server wires the pipeline runner and the run archive into an HTTP
// handler.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
}

// New creates a server. A nil store falls back to an in-memory
// archive; a nil logger falls back to the default logger.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: st, logger: logger}
}

// Router builds the chi router for the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/image", s.handleGetRunImage)
	})
	return r
}

// generateResponse is the JSON body for a completed generation.
type generateResponse struct {
	RunID       string             `json:"run_id"`
	Seed        uint64             `json:"seed"`
	Attempts    int                `json:"attempts"`
	CatalogHash string             `json:"catalog_hash"`
	Fragments   int                `json:"fragments"`
	Nodes       int                `json:"nodes"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	CacheInfo   pipeline.CacheInfo `json:"cache_info"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		s.writeError(w, http.StatusBadRequest,
			errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid request body"))
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	var png bytes.Buffer
	if err := imageio.EncodePNG(&png, result.Output.Image()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	run := store.NewRun(opts, result, png.Bytes())
	if err := s.store.Put(r.Context(), run); err != nil {
		s.logger.Error("failed to archive run", "id", run.ID, "err", err)
	}

	if r.URL.Query().Get("format") == "png" {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("X-Run-Id", run.ID)
		_, _ = w.Write(png.Bytes())
		return
	}

	s.writeJSON(w, http.StatusOK, generateResponse{
		RunID:       run.ID,
		Seed:        result.Seed,
		Attempts:    result.Attempts,
		CatalogHash: result.CatalogHash,
		Fragments:   result.Stats.FragmentCount,
		Nodes:       result.Stats.NodeCount,
		Width:       result.Output.Width,
		Height:      result.Output.Height,
		CacheInfo:   result.CacheInfo,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.List(r.Context(), DefaultListLimit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.fetchRun(w, r)
	if run == nil || err != nil {
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetRunImage(w http.ResponseWriter, r *http.Request) {
	run, err := s.fetchRun(w, r)
	if run == nil || err != nil {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(run.PNG)
}

// fetchRun loads the run named in the URL, writing the error response
// itself on failure.
func (s *Server) fetchRun(w http.ResponseWriter, r *http.Request) (*store.Run, error) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateRunID(id); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return nil, err
	}
	run, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return nil, err
	}
	return run, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "err", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}

// statusFor maps error codes to HTTP statuses.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFragment,
		errors.ErrCodeInvalidOutput, errors.ErrCodeInvalidSample,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidColor,
		errors.ErrCodeDecode, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeRunNotFound, errors.ErrCodeSampleNotFound:
		return http.StatusNotFound
	case errors.ErrCodeContradiction:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
