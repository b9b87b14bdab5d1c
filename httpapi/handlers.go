package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/andinanews/pipeline/alerts"
	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/internal/idgen"
	"github.com/andinanews/pipeline/validation"
)

// maxRequestBodyBytes bounds the article/fragment payload the server
// will read at all, well above either sync threshold so legitimate
// async-dispatched payloads still get through.
const maxRequestBodyBytes = 10 * 1024 * 1024 // 10MB

// syncResponse is returned for a request handled inline.
type syncResponse struct {
	RequestID string          `json:"request_id"`
	Results   []domain.Result `json:"results"`
}

// asyncResponse is returned for a request dispatched to a background
// job. Per the upstream contract, this is still HTTP 200 — Accepted
// status is 200 whether the request was handled sync or async.
type asyncResponse struct {
	RequestID string `json:"request_id"`
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
}

func (s *Server) handleProcessArticle(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "ingest", "failed to read request body", nil)
		return
	}
	if len(body) > maxRequestBodyBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, "ingest", "article payload exceeds maximum size", nil)
		return
	}

	var article domain.Article
	if err := json.Unmarshal(body, &article); err != nil {
		writeError(w, r, http.StatusBadRequest, "ingest", "malformed article payload", nil)
		return
	}

	if verr := validation.Article(article); verr != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "validation", "article failed validation", verr.Fields)
		return
	}

	if len(body) <= s.syncMaxBytesArticle {
		s.processArticleSync(w, r, requestID, article)
		return
	}
	s.processArticleAsync(w, r, requestID, article)
}

func (s *Server) handleProcessFragment(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "ingest", "failed to read request body", nil)
		return
	}
	if len(body) > maxRequestBodyBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, "ingest", "fragment payload exceeds maximum size", nil)
		return
	}

	var fragment domain.Fragment
	if err := json.Unmarshal(body, &fragment); err != nil {
		writeError(w, r, http.StatusBadRequest, "ingest", "malformed fragment payload", nil)
		return
	}

	if verr := validation.Fragment(fragment); verr != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "validation", "fragment failed validation", verr.Fields)
		return
	}

	if len(body) <= s.syncMaxBytesFragment {
		s.processFragmentSync(w, r, requestID, fragment)
		return
	}
	s.processFragmentAsync(w, r, requestID, fragment)
}

func (s *Server) processArticleSync(w http.ResponseWriter, r *http.Request, requestID string, article domain.Article) {
	ctx, cancel := context.WithTimeout(r.Context(), syncDeadline)
	defer cancel()

	results := s.processor.ProcessArticle(ctx, requestID, article)
	s.recordOutcome(results)

	writeJSON(w, http.StatusOK, syncResponse{RequestID: requestID, Results: results})
}

func (s *Server) processArticleAsync(w http.ResponseWriter, r *http.Request, requestID string, article domain.Article) {
	jobID := idgen.WithPrefix("job")
	s.tracker.Register(jobID, requestID)

	go func() {
		ctx := context.Background()
		if err := s.tracker.Start(jobID); err != nil {
			s.logger.Error("job start failed", "job_id", jobID, "error", err)
			return
		}

		results := s.processor.ProcessArticle(ctx, requestID, article)
		s.recordOutcome(results)

		result := domain.Result{RequestID: requestID}
		if len(results) > 0 {
			result = results[0]
		}
		if err := s.tracker.Complete(jobID, &result); err != nil {
			s.logger.Error("job complete failed", "job_id", jobID, "error", err)
		}
	}()

	writeJSON(w, http.StatusOK, asyncResponse{RequestID: requestID, JobID: jobID, Status: "processing"})
}

func (s *Server) processFragmentSync(w http.ResponseWriter, r *http.Request, requestID string, fragment domain.Fragment) {
	ctx, cancel := context.WithTimeout(r.Context(), syncDeadline)
	defer cancel()

	result := s.processor.ProcessFragment(ctx, requestID, fragment)
	s.recordOutcome([]domain.Result{result})

	writeJSON(w, http.StatusOK, syncResponse{RequestID: requestID, Results: []domain.Result{result}})
}

func (s *Server) processFragmentAsync(w http.ResponseWriter, r *http.Request, requestID string, fragment domain.Fragment) {
	jobID := idgen.WithPrefix("job")
	s.tracker.Register(jobID, requestID)

	go func() {
		ctx := context.Background()
		if err := s.tracker.Start(jobID); err != nil {
			s.logger.Error("job start failed", "job_id", jobID, "error", err)
			return
		}

		result := s.processor.ProcessFragment(ctx, requestID, fragment)
		s.recordOutcome([]domain.Result{result})

		if err := s.tracker.Complete(jobID, &result); err != nil {
			s.logger.Error("job complete failed", "job_id", jobID, "error", err)
		}
	}()

	writeJSON(w, http.StatusOK, asyncResponse{RequestID: requestID, JobID: jobID, Status: "processing"})
}

func (s *Server) recordOutcome(results []domain.Result) {
	for _, r := range results {
		outcome := "success"
		if r.PartialProcessing {
			outcome = "partial"
		}
		s.registry.ObserveRequest(outcome)

		for phase, duration := range r.Metrics.PerPhaseDurations {
			fallback := !r.Metrics.PerPhaseSuccess[phase]
			s.registry.ObservePhase(phase, duration, fallback)
		}

		persistOutcome := "ok"
		switch {
		case r.Persistence.Skipped:
			persistOutcome = "skipped"
		case !r.Persistence.OK:
			persistOutcome = "error"
		}
		s.registry.ObservePersistence(persistOutcome)
	}
	s.registry.SetActiveJobs(s.tracker.Count())
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	job, ok := s.tracker.Get(jobID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "status", "job not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDashboardStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.registry.Snapshot()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "dashboard", "failed to gather metrics", nil)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAlertsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.alerts.List())
}

func (s *Server) handleAlertsSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.alerts.Summary())
}

type alertTestRequest struct {
	RuleName string          `json:"rule_name"`
	Severity alerts.Severity `json:"severity"`
}

func (s *Server) handleAlertsTest(w http.ResponseWriter, r *http.Request) {
	var req alertTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "alerts", "malformed test request", nil)
		return
	}
	if req.RuleName == "" {
		req.RuleName = "synthetic_test"
	}
	if req.Severity == "" {
		req.Severity = alerts.SeverityWarning
	}
	alert := s.alerts.Test(req.RuleName, req.Severity)
	writeJSON(w, http.StatusOK, alert)
}
