package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/parser"
	"github.com/rayen-mansouri/packet-analyzer/pkg/analysis"
	"github.com/rayen-mansouri/packet-analyzer/reporting"
	"github.com/rayen-mansouri/packet-analyzer/resources"
	log "github.com/sirupsen/logrus"
)

const apiSource = "api"

type (
	// Server exposes the analyzer over HTTP
	Server struct {
		res      *resources.Resources
		analyzer *analysis.Analyzer
		metrics  *metrics
		router   *mux.Router
	}

	health struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Version string `json:"version"`
	}
)

// New creates a server analyzing with the configuration in res
func New(res *resources.Resources, analyzer *analysis.Analyzer) *Server {
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(res.Log)
	}
	s := &Server{
		res:      res,
		analyzer: analyzer,
		metrics:  newMetrics(),
		router:   mux.NewRouter(),
	}

	s.router.HandleFunc("/", s.healthHandler).Methods("GET")
	s.router.HandleFunc("/api/analyze", s.analyzeHandler).Methods("POST")
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods("GET")
	return s
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.res.Config.S.Server.ListenAddr,
		Handler: s.router,
	}

	errc := make(chan error, 1)
	go func() {
		s.res.Log.WithField("address", srv.Addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, health{
		Status:  "healthy",
		Service: "packet-analyzer",
		Version: s.res.Config.S.Version,
	})
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.res.Config.S.Server.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusBadRequest)
		return
	}
	records, err := parser.ReadRecords(bytes.NewReader(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, dropped := parser.FilterRecords(s.res.Config, records)

	start := time.Now()
	res, err := s.analyzer.Analyze(records, s.res.Config)
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			s.res.Log.WithField("problems", len(invalid.Problems)).Error("configuration rejected")
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.metrics.observe(res, time.Since(start).Seconds())

	env, err := reporting.NewEnvelope(res, apiSource, s.res.Config.S.Version)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.res.Log.WithFields(log.Fields{
		"analysis_id": env.ID,
		"records":     len(records),
		"filtered":    dropped,
		"risk_score":  res.RiskScore,
	}).Info("served analysis")
	s.writeJSON(w, http.StatusOK, env)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := reporting.WriteJSON(w, v, false); err != nil {
		s.res.Log.WithField("error", err.Error()).Error("failed to write response")
	}
}
