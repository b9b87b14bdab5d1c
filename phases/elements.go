package phases

import (
	"context"
	"fmt"
	"time"

	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/llm"
)

const elementsSystemPrompt = `You are a fact and entity extraction assistant. Given cleaned article ` +
	`text, extract discrete facts and named entities. Respond with a single JSON object: ` +
	`{"facts": [{"id": int, "text": string, "confidence": number, "type": "EVENT"|"STATEMENT"|"ANNOUNCEMENT"|"OTHER"}], ` +
	`"entities": [{"id": int, "text": string, "type": "PERSON"|"ORGANIZATION"|"PLACE"|"OTHER", "relevance": number}]}`

type elementsLLMOutput struct {
	Facts    []domain.Fact   `json:"facts"`
	Entities []domain.Entity `json:"entities"`
	Summary  string          `json:"summary"`
}

// RunElements executes phase 2. On failure it falls back to a single
// synthetic Fact drawn from the article headline plus a single synthetic
// Entity drawn from the medium name, rather than aborting the fragment —
// a later phase may still extract quotes/data independently.
func RunElements(ctx context.Context, c Completer, fragment domain.Fragment, triage domain.TriagePhaseResult) domain.ElementsPhaseResult {
	start := time.Now()

	resp, err := c.Complete(ctx, llm.Request{
		Phase: string(Elements),
		Messages: []llm.Message{
			{Role: "system", Content: elementsSystemPrompt},
			{Role: "user", Content: triage.CleanedTextForNextPhase},
		},
	})
	if err != nil {
		return fallbackElements(fragment, time.Since(start), fmt.Sprintf("elements llm call failed: %v", err))
	}

	var out elementsLLMOutput
	if err := llm.ExtractJSONObject(string(Elements), resp.Content, &out); err != nil {
		return fallbackElements(fragment, time.Since(start), fmt.Sprintf("elements response unparseable: %v", err))
	}

	for i := range out.Facts {
		out.Facts[i].SourceFragmentID = fragment.FragmentID
	}
	for i := range out.Entities {
		out.Entities[i].SourceFragmentID = fragment.FragmentID
	}

	return domain.ElementsPhaseResult{
		PhaseMeta: domain.PhaseMeta{Duration: time.Since(start)},
		Facts:     out.Facts,
		Entities:  out.Entities,
		Summary:   out.Summary,
	}
}

// fallbackElements synthesizes exactly one Fact from the article
// headline and one Entity from the medium name, rather than returning an
// empty element set — a later phase can still attach quotes/data to this
// synthetic fact, and persistence still has something to write.
func fallbackElements(fragment domain.Fragment, duration time.Duration, warning string) domain.ElementsPhaseResult {
	result := domain.ElementsPhaseResult{
		PhaseMeta: domain.PhaseMeta{FallbackUsed: true, Duration: duration, Warning: warning},
		Metadata:  map[string]any{"is_fallback": true},
	}

	if headline := fragment.Headline(); headline != "" {
		result.Facts = []domain.Fact{{
			ID:               1,
			SourceFragmentID: fragment.FragmentID,
			Text:             headline,
			Confidence:       0.3,
			Type:             domain.FactOther,
		}}
	}

	if medium := fragment.Medium(); medium != "" {
		result.Entities = []domain.Entity{{
			ID:               1,
			SourceFragmentID: fragment.FragmentID,
			Text:             medium,
			Type:             domain.EntityOrganization,
			Relevance:        0.3,
		}}
	}

	return result
}
