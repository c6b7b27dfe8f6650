// Package server exposes the chat hooks over a small JSON HTTP API.
//
// Routes:
//
//	GET  /healthz
//	POST /api/sessions                              start a chat, returns the welcome message
//	POST /api/sessions/{id}/messages                send a message, returns the reply
//	GET  /api/sessions/{id}/events                  session transcript
//	GET  /api/sessions/{id}/reports                 archived report ids
//	GET  /api/sessions/{id}/reports/{reportID}      one report as markdown
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/hupe1980/deepresearch/artifact"
	"github.com/hupe1980/deepresearch/chat"
	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/logging"
	"github.com/hupe1980/deepresearch/model"
)

// Options configures a Server.
type Options struct {
	// SessionStore backs the transcript route; nil disables it.
	SessionStore core.SessionStore
	// ArtifactStore backs the report routes; nil disables them.
	ArtifactStore core.ArtifactStore
	// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
	ShutdownTimeout time.Duration
	Logger          logging.Logger
}

// Server serves the chat API. Only sessions started through
// POST /api/sessions are addressable.
type Server struct {
	shim            *chat.Shim
	mu              sync.RWMutex
	started         map[string]struct{}
	sessions        core.SessionStore
	artifacts       core.ArtifactStore
	shutdownTimeout time.Duration
	router          *mux.Router
	logger          logging.Logger
}

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SessionResponse is returned when a chat starts.
type SessionResponse struct {
	SessionID string         `json:"session_id"`
	Messages  []chat.Message `json:"messages"`
}

// MessageRequest is the body of a message post.
type MessageRequest struct {
	Content string `json:"content"`
}

// ReportInfo names one archived report and the run that produced it.
type ReportInfo struct {
	ID    string `json:"id"`
	RunID string `json:"run_id"`
}

// MessageResponse carries the replies to one message.
type MessageResponse struct {
	SessionID string         `json:"session_id"`
	Messages  []chat.Message `json:"messages"`
}

// New creates a Server for shim.
func New(shim *chat.Shim, optFns ...func(o *Options)) *Server {
	opts := Options{
		ShutdownTimeout: 30 * time.Second,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Server{
		shim:            shim,
		started:         make(map[string]struct{}),
		sessions:        opts.SessionStore,
		artifacts:       opts.ArtifactStore,
		shutdownTimeout: opts.ShutdownTimeout,
		router:          mux.NewRouter(),
		logger:          opts.Logger,
	}

	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.start", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server.shutdown", "address", addr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", s.handleStartSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/messages", s.handleMessage).Methods(http.MethodPost)

	if s.sessions != nil {
		api.HandleFunc("/sessions/{id}/events", s.handleEvents).Methods(http.MethodGet)
	}

	if s.artifacts != nil {
		api.HandleFunc("/sessions/{id}/reports", s.handleListReports).Methods(http.MethodGet)
		api.HandleFunc("/sessions/{id}/reports/{reportID}", s.handleGetReport).Methods(http.MethodGet)
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Debug("server.request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"status": "healthy"},
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sessionID := core.NewID()

	if s.sessions != nil {
		if _, err := s.sessions.Create(sessionID); err != nil {
			s.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	rec := &chat.Recorder{}
	if err := s.shim.OnChatStart(r.Context(), sessionID, rec); err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.started[sessionID] = struct{}{}
	s.mu.Unlock()

	s.writeJSONResponse(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    SessionResponse{SessionID: sessionID, Messages: rec.Messages()},
	})
}

// sessionFromRequest returns the session id of r and false, after writing a
// 404, when that session was never started.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := mux.Vars(r)["id"]

	s.mu.RLock()
	_, ok := s.started[sessionID]
	s.mu.RUnlock()

	if !ok {
		s.writeErrorResponse(w, http.StatusNotFound, "session not found")
		return "", false
	}

	return sessionID, true
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if req.Content == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "content is required")
		return
	}

	rec := &chat.Recorder{}
	if err := s.shim.OnMessage(r.Context(), sessionID, chat.Message{Author: "user", Content: req.Content}, rec); err != nil {
		s.logger.Warn("server.message.error", "session_id", sessionID, "error", err.Error())
		s.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	s.writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    MessageResponse{SessionID: sessionID, Messages: rec.Messages()},
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSONResponse(w, http.StatusOK, APIResponse{Success: true, Data: sess.GetEvents()})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	ids, err := s.artifacts.List(sessionID)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	reports := make([]ReportInfo, 0, len(ids))
	for _, id := range ids {
		runID, err := artifact.RunIDFromReport(id)
		if err != nil {
			continue
		}
		reports = append(reports, ReportInfo{ID: id, RunID: runID})
	}

	s.writeJSONResponse(w, http.StatusOK, APIResponse{Success: true, Data: reports})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	data, err := s.artifacts.Get(sessionID, mux.Vars(r)["reportID"])
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			s.writeErrorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		s.logger.Warn("server.report.write.error", "error", err.Error())
	}
}

// statusForError maps run failures onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, model.ErrRemoteCall):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrModelCallLimit):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Warn("server.response.encode.error", "error", err.Error())
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, status int, message string) {
	s.writeJSONResponse(w, status, APIResponse{Success: false, Error: message})
}
