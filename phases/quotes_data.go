package phases

import (
	"context"
	"fmt"
	"time"

	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/llm"
)

const quotesDataSystemPrompt = `You are a quote and statistic extraction assistant. Given cleaned ` +
	`article text and the entities already found, extract verbatim quotes attributed to speakers and ` +
	`any quantitative data points. Respond with a single JSON object: ` +
	`{"quotes": [{"id": int, "text": string, "speaker_text": string, "cited_entity_id": int, "relevance": number}], ` +
	`"quantitative_data": [{"id": int, "description": string, "value": number, "unit": string}]}`

type quotesDataLLMOutput struct {
	Quotes           []domain.Quote `json:"quotes"`
	QuantitativeData []domain.Datum `json:"quantitative_data"`
}

// RunQuotesData executes phase 3. Failure degrades to an empty
// quote/data set; facts and entities from phase 2 are unaffected.
func RunQuotesData(ctx context.Context, c Completer, fragment domain.Fragment, elements domain.ElementsPhaseResult) domain.QuotesDataPhaseResult {
	start := time.Now()

	resp, err := c.Complete(ctx, llm.Request{
		Phase: string(QuotesData),
		Messages: []llm.Message{
			{Role: "system", Content: quotesDataSystemPrompt},
			{Role: "user", Content: fragment.OriginalText},
		},
	})
	if err != nil {
		return domain.QuotesDataPhaseResult{
			PhaseMeta: domain.PhaseMeta{FallbackUsed: true, Duration: time.Since(start), Warning: fmt.Sprintf("quotes_data llm call failed: %v", err)},
		}
	}

	var out quotesDataLLMOutput
	if err := llm.ExtractJSONObject(string(QuotesData), resp.Content, &out); err != nil {
		return domain.QuotesDataPhaseResult{
			PhaseMeta: domain.PhaseMeta{FallbackUsed: true, Duration: time.Since(start), Warning: fmt.Sprintf("quotes_data response unparseable: %v", err)},
		}
	}

	entityIDs := make(map[int]bool, len(elements.Entities))
	for _, e := range elements.Entities {
		entityIDs[e.ID] = true
	}

	for i := range out.Quotes {
		out.Quotes[i].SourceFragmentID = fragment.FragmentID
		if out.Quotes[i].CitedEntityID != 0 && !entityIDs[out.Quotes[i].CitedEntityID] {
			out.Quotes[i].CitedEntityID = 0
		}
	}
	for i := range out.QuantitativeData {
		out.QuantitativeData[i].SourceFragmentID = fragment.FragmentID
	}

	return domain.QuotesDataPhaseResult{
		PhaseMeta:        domain.PhaseMeta{Duration: time.Since(start)},
		Quotes:           out.Quotes,
		QuantitativeData: out.QuantitativeData,
	}
}
