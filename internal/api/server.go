package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dgallion1/doctailor/internal/config"
	"github.com/dgallion1/doctailor/internal/metrics"
	"github.com/dgallion1/doctailor/internal/pipeline"
	"github.com/dgallion1/doctailor/internal/rewrite"
)

// Server is the HTTP API server for doctailor.
type Server struct {
	handler      http.Handler
	orchestrator *pipeline.Orchestrator
	rewriter     rewrite.Rewriter
	stats        *rewrite.LLMStats
	metrics      *metrics.Metrics
	gatherer     prometheus.Gatherer
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats, m and gatherer
// may be nil.
func NewServer(orch *pipeline.Orchestrator, rw rewrite.Rewriter, stats *rewrite.LLMStats, m *metrics.Metrics, gatherer prometheus.Gatherer, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		rewriter:     rw,
		stats:        stats,
		metrics:      m,
		gatherer:     gatherer,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(RequestMetrics(s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.DoctailorAPIKey, s.log))

		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Route("/api/resumes", func(r chi.Router) {
			r.Use(UserMiddleware)

			r.Post("/master", s.handleUploadMaster)
			r.Get("/master", s.handleGetMaster)

			r.Post("/tailor", s.handleTailor)
			r.Get("/tailor/{jobID}/status", s.handleTailorStatus)

			r.Get("/tailored", s.handleListTailored)
			r.Delete("/tailored", s.handleDeleteTailored)
		})
	})

	s.handler = otelhttp.NewHandler(r, "doctailor",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" && r.URL.Path != "/metrics" }),
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
