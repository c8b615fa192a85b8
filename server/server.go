package server

import (
	"net/http"

	"bronson/config"
	"bronson/housekeeper"
	"bronson/metrics"
	"bronson/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Server is the HTTP transport around the housekeeping core. It owns option
// parsing, error-to-status mapping, result rendering, and the observability
// consumers (metrics recorder, telemetry exporter). The core itself stays a
// pure function of (root, patterns, flags).
type Server struct {
	cfg      *config.Config
	scanner  *housekeeper.Scanner
	cleaner  *housekeeper.Cleaner
	recorder *metrics.Recorder
	registry *prometheus.Registry
	exporter *telemetry.Exporter
}

// New wires the transport. recorder and registry may be nil when metrics are
// disabled; exporter may be nil when telemetry is unconfigured.
func New(cfg *config.Config, recorder *metrics.Recorder, registry *prometheus.Registry, exporter *telemetry.Exporter) *Server {
	scanner := housekeeper.NewScanner(cfg.MaxFSOpsPerSecond)
	return &Server{
		cfg:      cfg,
		scanner:  scanner,
		cleaner:  housekeeper.NewCleaner(scanner),
		recorder: recorder,
		registry: registry,
		exporter: exporter,
	}
}

// Handler builds the full middleware stack. The metrics endpoint sits
// outside the request instrumentation so it does not count itself.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /{$}", s.handleRoot)
	api.HandleFunc("GET /health", s.handleHealth)
	api.HandleFunc("GET /version", s.handleVersion)
	api.HandleFunc("GET /api/v1/cleanup/scan", s.handleScan)
	api.HandleFunc("POST /api/v1/cleanup/files", s.handleCleanup)
	api.HandleFunc("GET /api/v1/compare/directories", s.handleCompare)
	api.HandleFunc("POST /api/v1/move/non-duplicates", s.handleMove)

	root := http.NewServeMux()
	if s.registry != nil {
		root.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	root.Handle("/", s.recorder.InstrumentHandler(api))

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(root)
}
