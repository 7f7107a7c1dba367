package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/gateway/internal/ingest/fetcher"
)

// AdmitFunc queues a transaction ID for fetching.
type AdmitFunc func(txID string) error

// Server provides HTTP endpoints for health monitoring and tx admission.
type Server struct {
	monitor *Monitor
	admit   AdmitFunc
	server  *http.Server
}

// NewServer creates a new health server. A nil admit disables POST /tx/{id}.
func NewServer(monitor *Monitor, port int, admit AdmitFunc) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor: monitor,
		admit:   admit,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())
	if admit != nil {
		mux.HandleFunc("POST /tx/{id}", s.handleQueueTx)
	}

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())

	response := map[string]string{"status": string(report.SystemStatus)}
	w.Header().Set("Content-Type", "application/json")

	if report.SystemStatus == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (s *Server) handleQueueTx(w http.ResponseWriter, r *http.Request) {
	txID := r.PathValue("id")
	w.Header().Set("Content-Type", "application/json")

	err := s.admit(txID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "queued", "id": txID})
	case errors.Is(err, fetcher.ErrEmptyTxID):
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	case errors.Is(err, fetcher.ErrStopped):
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	default:
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	}
}
