package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"i4.energy/across/cellgw/at"
	"i4.energy/across/cellgw/dispatch"
	"i4.energy/across/cellgw/modem"
	"i4.energy/across/cellgw/status"
)

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger     *slog.Logger
	Dispatcher *dispatch.Dispatcher
	Store      *status.Store
	Metrics    http.Handler
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /command", s.handleCommand)
	mux.HandleFunc("POST /fetch", s.handleFetch)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
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
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)

}

// handleCommand processes incoming HTTP POST requests to run a single
// AT command on the modem
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, "", http.StatusMethodNotAllowed)
		return
	}

	type CommandRequest struct {
		Command string `json:"command"`
	}

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	command := at.SanitizeCommand(req.Command)
	if command == "" {
		s.sendError(w, "'command' field is required", http.StatusBadRequest)
		return
	}

	if !s.Dispatcher.Submit(dispatch.Trigger{Kind: dispatch.KindCommand, Command: command}) {
		s.sendError(w, "a trigger is already in service", http.StatusConflict)
		return
	}

	s.Logger.Info("Command accepted", "command", command)
	w.WriteHeader(http.StatusAccepted)
}

// handleFetch processes incoming HTTP POST requests to run the fetch
// workflow over the modem's data call
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, "", http.StatusMethodNotAllowed)
		return
	}

	type FetchRequest struct {
		Workflow string `json:"workflow"`
	}

	var req FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	workflow := req.Workflow
	if workflow == "" {
		workflow = modem.WorkflowFetch
	}

	if !s.Dispatcher.Submit(dispatch.Trigger{Kind: dispatch.KindFetch, Workflow: workflow}) {
		s.sendError(w, "a trigger is already in service", http.StatusConflict)
		return
	}

	s.Logger.Info("Fetch accepted", "workflow", workflow)
	w.WriteHeader(http.StatusAccepted)
}

// handleStatus reports the gateway's current activity, transfer totals
// and recent modem traffic
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Store.Snapshot()); err != nil {
		s.Logger.Error("Failed to encode status response", "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
