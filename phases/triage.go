package phases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/errs"
	"github.com/andinanews/pipeline/llm"
)

const triageSystemPrompt = `You are a news triage assistant. Given an article fragment, decide ` +
	`whether it warrants further factual extraction. Respond with a single JSON object: ` +
	`{"is_relevant": bool, "decision": "PROCESS"|"DISCARD", "justification": string, ` +
	`"category": string, "keywords": [string], "score": number, "cleaned_text_for_next_phase": string}`

const translationSystemPrompt = `You are a translation assistant. Translate the given text to Spanish, ` +
	`preserving meaning and named entities. Respond with a single JSON object: {"translated_text": string}`

type translationLLMOutput struct {
	TranslatedText string `json:"translated_text"`
}

type triageLLMOutput struct {
	IsRelevant             bool     `json:"is_relevant"`
	Decision               string   `json:"decision"`
	Justification          string   `json:"justification"`
	Category               string   `json:"category"`
	Keywords               []string `json:"keywords"`
	Score                  float64  `json:"score"`
	CleanedTextForNextPhase string  `json:"cleaned_text_for_next_phase"`
}

// RunTriage executes phase 1. On any LLM or parsing failure it falls
// back to accepting the fragment as-is for downstream processing,
// since discarding an article silently on an LLM hiccup would lose
// data the reader expects to see reviewed.
func RunTriage(ctx context.Context, c Completer, fragment domain.Fragment) domain.TriagePhaseResult {
	start := time.Now()

	workingText, translationAttempted := translateIfNeeded(ctx, c, fragment)

	resp, err := c.Complete(ctx, llm.Request{
		Phase: string(Triage),
		Messages: []llm.Message{
			{Role: "system", Content: triageSystemPrompt},
			{Role: "user", Content: workingText},
		},
	})

	if err != nil {
		decision := domain.DecisionFallbackAcceptedLLMError
		if _, ok := errs.AsLLMUnavailable(err); !ok {
			decision = domain.DecisionFallbackAcceptedPreprocessing
		}
		result := fallbackTriage(fragment, decision, fmt.Sprintf("triage llm call failed: %v", err), time.Since(start))
		result.TranslationAttempted = translationAttempted
		return result
	}

	var out triageLLMOutput
	if err := llm.ExtractJSONObject(string(Triage), resp.Content, &out); err != nil {
		result := fallbackTriage(fragment, domain.DecisionFallbackAcceptedPreprocessing,
			fmt.Sprintf("triage response unparseable: %v", err), time.Since(start))
		result.TranslationAttempted = translationAttempted
		return result
	}

	cleaned := out.CleanedTextForNextPhase
	if cleaned == "" {
		cleaned = workingText
	}

	return domain.TriagePhaseResult{
		PhaseMeta: domain.PhaseMeta{
			FallbackUsed: false,
			Duration:     time.Since(start),
		},
		IsRelevant:              out.IsRelevant,
		Decision:                domain.TriageDecision(out.Decision),
		Justification:           out.Justification,
		Category:                out.Category,
		Keywords:                out.Keywords,
		Score:                   out.Score,
		CleanedTextForNextPhase: cleaned,
		TranslationAttempted:    translationAttempted,
		Model:                   ModelMetadataFromResponse(resp),
	}
}

// translateIfNeeded asks the LLM to translate non-Spanish input before
// triage classification. Translation failure is non-critical: it is not
// a phase failure, and processing continues with the original text,
// flagging translation_attempted=false.
func translateIfNeeded(ctx context.Context, c Completer, fragment domain.Fragment) (text string, attempted bool) {
	lang := strings.ToLower(strings.TrimSpace(fragment.Language()))
	if lang == "" || lang == "es" || lang == "spanish" || lang == "español" {
		return fragment.OriginalText, false
	}

	resp, err := c.Complete(ctx, llm.Request{
		Phase: string(Triage),
		Messages: []llm.Message{
			{Role: "system", Content: translationSystemPrompt},
			{Role: "user", Content: fragment.OriginalText},
		},
	})
	if err != nil {
		return fragment.OriginalText, false
	}

	var out translationLLMOutput
	if err := llm.ExtractJSONObject(string(Triage), resp.Content, &out); err != nil || out.TranslatedText == "" {
		return fragment.OriginalText, false
	}

	return out.TranslatedText, true
}

// fallbackTriage degrades to accepting the fragment for further
// processing — discarding is never the fallback outcome, since an
// unreviewable article is worse than an over-processed one.
func fallbackTriage(fragment domain.Fragment, decision domain.TriageDecision, warning string, duration time.Duration) domain.TriagePhaseResult {
	return domain.TriagePhaseResult{
		PhaseMeta: domain.PhaseMeta{
			FallbackUsed: true,
			Duration:     duration,
			Warning:      warning,
		},
		IsRelevant:              true,
		Decision:                decision,
		Justification:           "automatic fallback: article accepted without triage review",
		Category:                "uncategorized",
		CleanedTextForNextPhase: fragment.OriginalText,
	}
}

// ModelMetadataFromResponse extracts auditability metadata from an LLM
// response, shared by every phase.
func ModelMetadataFromResponse(resp *llm.Response) domain.ModelMetadata {
	if resp == nil {
		return domain.ModelMetadata{}
	}
	return domain.ModelMetadata{Model: resp.Model}
}
