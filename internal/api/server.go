// Package api exposes the daemon's HTTP surface: job submission, status
// queries, live progress streaming over SSE, and artifact retrieval.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"papercast/internal/jobs"
	"papercast/internal/logging"
	"papercast/internal/pipeline"
	"papercast/internal/progress"
	"papercast/internal/services"
)

// Submitter accepts validated submissions and starts their pipelines.
type Submitter interface {
	Submit(ctx context.Context, req pipeline.Request) (jobs.Snapshot, error)
}

// Config wires the server to its collaborators.
type Config struct {
	Bind      string
	OutputDir string
	LockPath  string
	Store     *jobs.Store
	Hub       *progress.Hub
	Submitter Submitter
	Logger    *slog.Logger
}

// Server serves the papercast HTTP API.
type Server struct {
	bind      string
	outputDir string
	lockPath  string
	store     *jobs.Store
	hub       *progress.Hub
	submitter Submitter
	logger    *slog.Logger
	startedAt time.Time

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("api server requires a job store")
	}
	if cfg.Hub == nil {
		return nil, errors.New("api server requires a progress hub")
	}
	if cfg.Submitter == nil {
		return nil, errors.New("api server requires a submitter")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		bind:      cfg.Bind,
		outputDir: cfg.OutputDir,
		lockPath:  cfg.LockPath,
		store:     cfg.Store,
		hub:       cfg.Hub,
		submitter: cfg.Submitter,
		logger:    logging.NewComponentLogger(logger, "api"),
		startedAt: time.Now(),
	}, nil
}

// Handler returns the route table. Exposed so tests can drive the server
// through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/jobs", s.handleSubmit)
	mux.HandleFunc("GET /api/jobs", s.handleList)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGet)
	mux.HandleFunc("GET /api/jobs/{id}/stream", s.handleStream)
	mux.HandleFunc("GET /api/jobs/{id}/transcript", s.handleTranscript)
	mux.HandleFunc("GET /api/audio/{name}", s.handleAudio)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return mux
}

// Start begins serving on the configured bind address.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.bind, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.Handler()}
	server := s.httpServer
	s.mu.Unlock()

	s.logger.Info("api listening", logging.String("bind", listener.Addr().String()))
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server stopped", logging.Error(err))
		}
	}()
	return nil
}

// Addr reports the bound address, useful when Bind used port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.httpServer
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	generateAudio := true
	if req.GenerateAudio != nil {
		generateAudio = *req.GenerateAudio
	}

	snap, err := s.submitter.Submit(r.Context(), pipeline.Request{
		Reference:     req.SourceReference,
		TextBackend:   req.TextBackend,
		AudioBackend:  req.AudioBackend,
		GenerateAudio: generateAudio,
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusBadRequest, services.Details(err).Message)
			return
		}
		s.logger.Error("submission failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}

	s.logger.Info("job accepted", logging.String(logging.FieldJobID, snap.ID))
	writeJSON(w, http.StatusAccepted, SubmitResponse{JobID: snap.ID})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list jobs failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "list jobs failed")
		return
	}
	payloads := make([]SnapshotPayload, 0, len(snaps))
	for _, snap := range snaps {
		payloads = append(payloads, SnapshotFromJob(snap))
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, services.Details(err).Message)
			return
		}
		writeError(w, http.StatusInternalServerError, "get job failed")
		return
	}
	writeJSON(w, http.StatusOK, SnapshotFromJob(snap))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, services.Details(err).Message)
			return
		}
		writeError(w, http.StatusInternalServerError, "get job failed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel, subscribed := s.hub.Subscribe(id)
	if !subscribed {
		// The hub forgot the job (e.g. it predates this process); fall back
		// to a single snapshot from the store.
		if snap, err := s.store.Get(r.Context(), id); err == nil {
			writeEvent(w, flusher, snap)
		}
		return
	}
	defer cancel()

	for {
		select {
		case snap, open := <-ch:
			if !open {
				return
			}
			writeEvent(w, flusher, snap)
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, services.Details(err).Message)
			return
		}
		writeError(w, http.StatusInternalServerError, "get job failed")
		return
	}
	if snap.Status != jobs.StatusDone || snap.Result == nil || snap.Result.Script == "" {
		writeError(w, http.StatusConflict, "transcript not available until the job completes")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, snap.Result.Script)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusBadRequest, "invalid artifact name")
		return
	}
	path := filepath.Join(s.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "job stats failed")
		return
	}
	counts := make(map[string]int, len(stats))
	for status, count := range stats {
		counts[string(status)] = count
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Running:       true,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Jobs:          counts,
		Database:      s.store.Path(),
		LockPath:      s.lockPath,
	})
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, snap jobs.Snapshot) {
	data, err := json.Marshal(SnapshotFromJob(snap))
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
