// Package httpapi exposes the pipeline over HTTP: article and fragment
// ingestion with size-based sync/async dispatch, job status polling,
// health, metrics, and monitoring endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/andinanews/pipeline/alerts"
	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/errs"
	"github.com/andinanews/pipeline/internal/breaker"
	"github.com/andinanews/pipeline/internal/idgen"
	"github.com/andinanews/pipeline/jobs"
	"github.com/andinanews/pipeline/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default sync/async dispatch thresholds, overridable via WithSyncThresholds
// and the SYNC_MAX_BYTES_ARTICLE/SYNC_MAX_BYTES_FRAGMENT env vars.
const (
	defaultSyncMaxBytesArticle  = 10 * 1024
	defaultSyncMaxBytesFragment = 5 * 1024
)

// syncDeadline bounds a synchronous request's total processing time.
const syncDeadline = 60 * time.Second

// Processor is the subset of *controller.Controller the HTTP layer
// needs: processing whole articles and raw fragments alike.
type Processor interface {
	ProcessArticle(ctx context.Context, requestID string, article domain.Article) []domain.Result
	ProcessFragment(ctx context.Context, requestID string, fragment domain.Fragment) domain.Result
}

// HealthChecker reports a dependency's circuit breaker state, for the
// detailed health check. *llm.FallbackChain and *datastore.Client both
// satisfy this.
type HealthChecker interface {
	BreakerState() breaker.State
}

// Server wires the pipeline's HTTP surface.
type Server struct {
	processor Processor
	tracker   *jobs.Tracker
	registry  *metrics.Registry
	alerts    *alerts.Manager
	logger    *slog.Logger
	mux       *http.ServeMux

	syncMaxBytesArticle  int
	syncMaxBytesFragment int

	llmHealth       HealthChecker
	datastoreHealth HealthChecker
}

// ServerOption configures optional Server behavior.
type ServerOption func(*Server)

// WithSyncThresholds overrides the default sync/async dispatch size
// thresholds. A zero value leaves the corresponding default in place.
func WithSyncThresholds(articleBytes, fragmentBytes int) ServerOption {
	return func(s *Server) {
		if articleBytes > 0 {
			s.syncMaxBytesArticle = articleBytes
		}
		if fragmentBytes > 0 {
			s.syncMaxBytesFragment = fragmentBytes
		}
	}
}

// WithHealthCheckers wires the LLM and datastore dependencies /health/detailed
// probes. Either may be nil, in which case that check always passes.
func WithHealthCheckers(llmHealth, datastoreHealth HealthChecker) ServerOption {
	return func(s *Server) {
		s.llmHealth = llmHealth
		s.datastoreHealth = datastoreHealth
	}
}

// NewServer builds the HTTP router with every endpoint registered.
func NewServer(processor Processor, tracker *jobs.Tracker, registry *metrics.Registry, alertManager *alerts.Manager, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		processor:            processor,
		tracker:              tracker,
		registry:             registry,
		alerts:               alertManager,
		logger:               logger,
		mux:                  http.NewServeMux(),
		syncMaxBytesArticle:  defaultSyncMaxBytesArticle,
		syncMaxBytesFragment: defaultSyncMaxBytesFragment,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /procesar_articulo", s.withMiddleware(s.handleProcessArticle))
	s.mux.HandleFunc("POST /procesar_fragmento", s.withMiddleware(s.handleProcessFragment))
	s.mux.HandleFunc("GET /status/{job_id}", s.withMiddleware(s.handleJobStatus))
	s.mux.HandleFunc("GET /health", s.withMiddleware(s.handleHealth))
	s.mux.HandleFunc("GET /health/detailed", s.withMiddleware(s.handleHealthDetailed))
	s.mux.HandleFunc("GET /monitoring/dashboard", s.withMiddleware(s.handleDashboardStatus))
	s.mux.HandleFunc("GET /monitoring/pipeline-status", s.withMiddleware(s.handlePipelineStatus))
	s.mux.HandleFunc("GET /monitoring/alerts", s.withMiddleware(s.handleAlertsList))
	s.mux.HandleFunc("GET /monitoring/alerts/summary", s.withMiddleware(s.handleAlertsSummary))
	s.mux.HandleFunc("POST /monitoring/alerts/test", s.withMiddleware(s.handleAlertsTest))
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry.Gatherer(), promhttp.HandlerOpts{}))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// requestIDKey is the context key request-ID middleware stores under.
type requestIDKey struct{}

// withMiddleware wraps a handler with request-ID propagation and
// latency metrics, mirroring the teacher's HTTP handler wiring.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = idgen.WithPrefix("req")
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r.WithContext(ctx))

		s.registry.ObserveHTTPRequest(r.URL.Path, http.StatusText(rec.status), time.Since(start))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// errorResponse is the uniform error body shape.
type errorResponse struct {
	Error       string `json:"error"`
	Details     any    `json:"detalles,omitempty"`
	SupportCode string `json:"support_code,omitempty"`
	RetryAfter  int    `json:"retry_after,omitempty"`
	RequestID   string `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, phase, message string, details any) {
	writeJSON(w, status, errorResponse{
		Error:       message,
		Details:     details,
		SupportCode: errs.SupportCode(phase),
		RequestID:   requestIDFrom(r.Context()),
	})
}
