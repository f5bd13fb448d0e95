package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hsccorp/node-bluetooth-tcp-obd/elm"
	"github.com/hsccorp/node-bluetooth-tcp-obd/obd"
	"github.com/hsccorp/node-bluetooth-tcp-obd/pid"
)

// Server handles incoming HTTP requests for interacting with the
// configured OBD-II session
type Server struct {
	Logger  *slog.Logger
	Session *obd.Session
	Hub     *Hub
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pids", s.handlePIDs)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /request", s.handleRequest)
	if s.Hub != nil {
		mux.Handle("GET /ws", s.Hub)
	}
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	s.sendJSON(w, resp, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Failed to encode response", "error", err)
	}
}

// handlePIDs lists the parameters of the session's table
func (s *Server) handlePIDs(w http.ResponseWriter, r *http.Request) {
	descriptors := s.Session.Table().All()
	if descriptors == nil {
		descriptors = []pid.Descriptor{}
	}
	s.sendJSON(w, descriptors, http.StatusOK)
}

// StateResponse is the body of GET /state.
type StateResponse struct {
	State        string   `json:"state"`
	Protocol     string   `json:"protocol"`
	ProtocolName string   `json:"protocol_name"`
	Pollers      []string `json:"pollers"`
	PollInterval string   `json:"poll_interval,omitempty"`
	Queued       int      `json:"queued"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	pollers := s.Session.Pollers()
	if pollers == nil {
		pollers = []string{}
	}

	resp := StateResponse{
		State:        s.Session.State().String(),
		Protocol:     s.Session.Protocol(),
		ProtocolName: elm.ProtocolName(s.Session.Protocol()),
		Pollers:      pollers,
		Queued:       s.Session.QueueLen(),
	}
	if interval := s.Session.PollInterval(); interval > 0 {
		resp.PollInterval = interval.String()
	}
	s.sendJSON(w, resp, http.StatusOK)
}

// handleRequest queues a single request for a named parameter. The reply
// is delivered to websocket clients.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	type ValueRequest struct {
		Name string `json:"name"`
	}

	var req ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		s.sendError(w, "'name' field is required", http.StatusBadRequest)
		return
	}

	err := s.Session.RequestValueByName(req.Name)

	var unknown obd.ErrUnknownPID
	switch {
	case err == nil:
	case errors.As(err, &unknown):
		s.sendError(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, obd.ErrNotConnected):
		s.sendError(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, obd.ErrQueueOverflow):
		s.sendError(w, err.Error(), http.StatusServiceUnavailable)
		return
	default:
		s.Logger.Error("Failed to queue request", "error", err, "name", req.Name)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Request queued", "name", req.Name)
	w.WriteHeader(http.StatusAccepted)
}
