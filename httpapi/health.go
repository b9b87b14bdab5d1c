package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/andinanews/pipeline/internal/breaker"
	"github.com/andinanews/pipeline/phases"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// checkResult is the per-dependency shape /health/detailed reports.
type checkResult struct {
	Status         string `json:"status"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	Message        string `json:"message,omitempty"`
}

type detailedHealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]checkResult `json:"checks"`
}

// handleHealthDetailed probes every dependency the controller needs —
// LLM, datastore, filesystem, and the controller's own wiring — and
// returns 503 if any check fails.
func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	checks := map[string]checkResult{
		"llm":        checkBreaker(s.llmHealth, "llm"),
		"datastore":  checkBreaker(s.datastoreHealth, "datastore"),
		"filesystem": checkFilesystem(),
		"controller": s.checkController(),
	}

	status := http.StatusOK
	overall := "pass"
	for _, c := range checks {
		if c.Status != "pass" {
			status = http.StatusServiceUnavailable
			overall = "fail"
			break
		}
	}

	writeJSON(w, status, detailedHealthResponse{Status: overall, Checks: checks})
}

func checkBreaker(checker HealthChecker, name string) checkResult {
	start := time.Now()
	if checker == nil {
		return checkResult{Status: "pass", ResponseTimeMs: time.Since(start).Milliseconds(), Message: name + " check not configured"}
	}
	state := checker.BreakerState()
	elapsed := time.Since(start).Milliseconds()
	if state == breaker.Open {
		return checkResult{Status: "fail", ResponseTimeMs: elapsed, Message: name + " circuit breaker is open"}
	}
	return checkResult{Status: "pass", ResponseTimeMs: elapsed}
}

func checkFilesystem() checkResult {
	start := time.Now()
	f, err := os.CreateTemp("", "pipeline-health-*")
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return checkResult{Status: "fail", ResponseTimeMs: elapsed, Message: err.Error()}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return checkResult{Status: "pass", ResponseTimeMs: elapsed}
}

func (s *Server) checkController() checkResult {
	start := time.Now()
	if s.processor == nil {
		return checkResult{Status: "fail", ResponseTimeMs: time.Since(start).Milliseconds(), Message: "controller not wired"}
	}
	return checkResult{Status: "pass", ResponseTimeMs: time.Since(start).Milliseconds()}
}

// phaseStatus describes one extraction phase for the pipeline-status
// monitoring endpoint, combining static topology with live metrics.
type phaseStatus struct {
	Name              string   `json:"name"`
	Dependencies      []string `json:"dependencies"`
	TypicalDurationMs float64  `json:"typical_duration_ms"`
	SuccessRate       float64  `json:"success_rate"`
}

type pipelineStatusResponse struct {
	Phases []phaseStatus `json:"phases"`
}

var pipelinePhaseOrder = []phases.Name{phases.Triage, phases.Elements, phases.QuotesData, phases.Normalization}

var pipelinePhaseDependencies = map[phases.Name][]string{
	phases.Triage:        {"llm"},
	phases.Elements:      {"llm"},
	phases.QuotesData:    {"llm"},
	phases.Normalization: {"llm", "datastore"},
}

// handlePipelineStatus reports the pipeline's phase topology alongside
// live success rate and average duration, distinct from the dashboard's
// throughput/latency/resource view.
func (s *Server) handlePipelineStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.registry.Snapshot()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "monitoring", "failed to gather metrics", nil)
		return
	}

	byPhase := map[string]float64{}
	counts := map[string]uint64{}
	fallbacks := map[string]float64{}
	for _, p := range snapshot.Phases {
		byPhase[p.Phase] = p.AvgDurationSec
		counts[p.Phase] = p.Count
		fallbacks[p.Phase] = p.FallbackCount
	}

	resp := pipelineStatusResponse{}
	for _, name := range pipelinePhaseOrder {
		successRate := 1.0
		if count := counts[string(name)]; count > 0 {
			successRate = 1 - (fallbacks[string(name)] / float64(count))
		}
		resp.Phases = append(resp.Phases, phaseStatus{
			Name:              string(name),
			Dependencies:      pipelinePhaseDependencies[name],
			TypicalDurationMs: byPhase[string(name)] * 1000,
			SuccessRate:       successRate,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
