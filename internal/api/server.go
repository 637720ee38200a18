// Package api exposes the conversation over HTTP. Three JSON endpoints
// drive the dialogue; health and metrics ride on the same mux.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"subsidy-concierge/internal/common/logger"
	"subsidy-concierge/internal/dialogue"
)

// Server routes HTTP requests to the dialogue controller.
type Server struct {
	controller *dialogue.Controller
	log        logger.Logger
	ready      func(context.Context) error
}

// NewServer wires the controller behind the HTTP surface. ready is called by
// the readiness probe and may be nil.
func NewServer(controller *dialogue.Controller, log logger.Logger, ready func(context.Context) error) *Server {
	return &Server{controller: controller, log: log, ready: ready}
}

// Handler builds the mux with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/start", s.handleStart)
	mux.HandleFunc("/api/chat/message", s.handleMessage)
	mux.HandleFunc("/api/chat/reset", s.handleReset)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	reply, err := s.controller.Start(r.Context())
	if err != nil {
		s.log.Error("failed to start conversation", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "failed to start conversation")
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

type messageRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "sessionId and message are required")
		return
	}

	reply, err := s.controller.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.log.Error("failed to handle message", map[string]interface{}{
			"sessionId": req.SessionID,
			"error":     err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

type resetRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	reply, err := s.controller.Reset(r.Context(), req.SessionID)
	if err != nil {
		s.log.Error("failed to reset conversation", map[string]interface{}{
			"sessionId": req.SessionID,
			"error":     err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "failed to reset conversation")
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
