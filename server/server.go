// Package server exposes sessions over HTTP and plays searches to browsers
// over a websocket.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"

	"github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/config"
	"github.com/pdrpinto/gridastar/session"
)

const (
	URI_HEALTH   = "/healthz"
	URI_SESSIONS = "/sessions"
	URI_SESSION  = "/sessions/:id"
	URI_PLAY     = "/sessions/:id/play"
)

type Server struct {
	router   *way.Router
	manager  *session.Manager
	upgrader *websocket.Upgrader
	cfg      config.Config
}

// New builds the router around manager. Delays for played searches come
// from cfg.
func New(cfg config.Config, manager *session.Manager) *Server {
	s := &Server{
		manager:  manager,
		upgrader: &websocket.Upgrader{},
		cfg:      cfg,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", URI_HEALTH, s.handleHealth())
	s.router.HandleFunc("POST", URI_SESSIONS, s.handleCreate())
	s.router.HandleFunc("GET", URI_SESSION, s.handleGet())
	s.router.HandleFunc("DELETE", URI_SESSION, s.handleDelete())
	s.router.HandleFunc("GET", URI_PLAY, s.handlePlay())
	s.router.HandleFunc("GET", "/", s.handleIndex())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type createResponse struct {
	ID   string `json:"id"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.manager.Create()
		if err != nil {
			writeError(w, err)
			return
		}
		grid := sess.Grid()
		writeJSON(w, http.StatusCreated, createResponse{
			ID:   sess.ID.String(),
			Rows: grid.Rows(),
			Cols: grid.Cols(),
		})
	}
}

func (s *Server) handleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.lookup(r)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewGrid(sess))
	}
}

func (s *Server) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.manager.Remove(id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handlePlay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.lookup(r)
		if err != nil {
			writeError(w, err)
			return
		}
		logger := log.WithField("session", sess.ID.String())
		if err := sess.Attach(); err != nil {
			writeError(w, err)
			return
		}
		defer sess.Detach()

		con, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied
			logger.Warnf("websocket upgrade failed: %v", err)
			return
		}
		defer con.Close()

		logger.Info("player joined")
		pacer := NewPacer(s.cfg.StepDelay, s.cfg.PathDelay, s.cfg.SpeedRamp)
		newPlayer(sess, con, pacer).serve()
	}
}

// handleIndex serves index.html from the static directory, or from the
// example client when none is configured.
func (s *Server) handleIndex() http.HandlerFunc {
	candidates := []string{
		"examples/vizweb/static/index.html", // run from the repo root
		"static/index.html",                 // run from examples/vizweb
	}
	if s.cfg.StaticDir != "" {
		candidates = []string{filepath.Join(s.cfg.StaticDir, "index.html")}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				http.ServeFile(w, r, p)
				return
			}
		}
		http.NotFound(w, r)
	}
}

func (s *Server) lookup(r *http.Request) (*session.Session, error) {
	id, err := sessionID(r)
	if err != nil {
		return nil, err
	}
	return s.manager.Get(id)
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(way.Param(r.Context(), "id"))
	if err != nil {
		return uuid.Nil, errors.Join(gridastar.ErrInvalidInput, err)
	}
	return id, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, gridastar.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrRunActive), errors.Is(err, session.ErrNoRun), errors.Is(err, session.ErrSessionBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("cannot encode response")
	}
}
