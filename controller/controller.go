// Package controller sequences the four extraction phases for a
// fragment, accumulates fallback warnings and per-phase metrics, and
// hands the result to the datastore adapter for persistence.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/andinanews/pipeline/datastore"
	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/payload"
	"github.com/andinanews/pipeline/phases"
)

// Persister is the subset of *datastore.Client the controller needs to
// write a fragment's results.
type Persister interface {
	InsertWholeFragment(ctx context.Context, req datastore.InsertWholeFragmentRequest) (*datastore.InsertWholeFragmentResponse, error)
}

// Controller runs the phase pipeline for one fragment at a time.
// request_id-level fan-out across fragments is the caller's
// responsibility (see httpapi's async dispatch).
type Controller struct {
	llmClient phases.Completer
	finder    phases.EntityFinder
	store     Persister
}

// New builds a Controller. llmClient is typically an *llm.FallbackChain
// so phases transparently try secondary providers.
func New(llmClient phases.Completer, finder phases.EntityFinder, store Persister) *Controller {
	return &Controller{llmClient: llmClient, finder: finder, store: store}
}

// ProcessFragment runs the four phases for a single fragment in order
// and persists the result, unless phase 2 produced neither facts nor
// entities. It stops after triage, without persisting, when triage
// discards the fragment or the context is already cancelled.
func (c *Controller) ProcessFragment(ctx context.Context, requestID string, fragment domain.Fragment) domain.Result {
	start := time.Now()

	result := domain.Result{
		RequestID:  requestID,
		FragmentID: fragment.FragmentID,
	}

	metrics := domain.Metrics{
		PerPhaseDurations: map[string]time.Duration{},
		PerPhaseSuccess:   map[string]bool{},
	}

	var warnings []string
	recordPhase := func(name phases.Name, fallbackUsed bool, duration time.Duration, warning string) {
		metrics.PerPhaseDurations[string(name)] = duration
		metrics.PerPhaseSuccess[string(name)] = !fallbackUsed
		if fallbackUsed {
			result.PartialProcessing = true
		}
		if warning != "" {
			warnings = append(warnings, fmt.Sprintf("%s: %s", name, warning))
		}
	}

	triage := phases.RunTriage(ctx, c.llmClient, fragment)
	recordPhase(phases.Triage, triage.FallbackUsed, triage.Duration, triage.Warning)
	result.PhaseOutputs.Phase1 = triage

	if triage.Decision == domain.DecisionDiscard {
		result.Metrics = finalizeMetrics(metrics, start)
		result.Warnings = warnings
		result.Persistence = domain.Persistence{Skipped: true}
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Warnings = append(warnings, fmt.Sprintf("processing cancelled before phase %s", phases.Elements))
		result.Metrics = finalizeMetrics(metrics, start)
		result.Persistence = domain.Persistence{Skipped: true}
		result.PartialProcessing = true
		return result
	}

	elements := phases.RunElements(ctx, c.llmClient, fragment, triage)
	recordPhase(phases.Elements, elements.FallbackUsed, elements.Duration, elements.Warning)
	result.PhaseOutputs.Phase2 = elements

	quotesData := phases.RunQuotesData(ctx, c.llmClient, fragment, elements)
	recordPhase(phases.QuotesData, quotesData.FallbackUsed, quotesData.Duration, quotesData.Warning)
	result.PhaseOutputs.Phase3 = quotesData

	normalization := phases.RunNormalization(ctx, c.finder, c.llmClient, elements, quotesData)
	recordPhase(phases.Normalization, normalization.FallbackUsed, normalization.Duration, normalization.Warning)
	result.PhaseOutputs.Phase4 = normalization

	metrics.ElementCounts = domain.ElementCounts{
		Facts:    len(elements.Facts),
		Entities: len(elements.Entities),
		Quotes:   len(quotesData.Quotes),
		Data:     len(quotesData.QuantitativeData),
	}

	var persistWarning string
	result.Persistence, persistWarning = c.persist(ctx, requestID, fragment, result.PhaseOutputs)
	if persistWarning != "" {
		warnings = append(warnings, persistWarning)
	}

	result.Metrics = finalizeMetrics(metrics, start)
	result.Warnings = warnings

	return result
}

// persist hands the built payload to the datastore, skipping the RPC
// entirely when the payload has neither facts nor entities. It returns an
// additional warning to surface on the result when persistence was
// skipped for lack of data, per the spec's `no_data_to_persist` boundary
// behavior.
func (c *Controller) persist(ctx context.Context, requestID string, fragment domain.Fragment, outputs domain.PhaseOutputs) (domain.Persistence, string) {
	doc := payload.Build(fragment, outputs)
	if payload.IsEmpty(doc) {
		return domain.Persistence{Skipped: true}, "no_data_to_persist"
	}

	resp, err := c.store.InsertWholeFragment(ctx, datastore.InsertWholeFragmentRequest{
		FragmentID: fragment.FragmentID,
		RequestID:  requestID,
		Payload:    doc,
	})
	if err != nil {
		return domain.Persistence{OK: false, Error: err.Error()}, ""
	}
	return domain.Persistence{OK: resp.OK, InsertedCounts: resp.InsertedCounts}, ""
}

func finalizeMetrics(m domain.Metrics, start time.Time) domain.Metrics {
	m.TotalDuration = time.Since(start)
	succeeded := 0
	for _, ok := range m.PerPhaseSuccess {
		if ok {
			succeeded++
		}
	}
	if len(m.PerPhaseSuccess) > 0 {
		m.OverallSuccessRate = float64(succeeded) / float64(len(m.PerPhaseSuccess))
	}
	return m
}
