package domain

import "time"

// TriageDecision is the phase-1 verdict on whether a fragment warrants
// further processing.
type TriageDecision string

const (
	DecisionProcess                          TriageDecision = "PROCESS"
	DecisionDiscard                          TriageDecision = "DISCARD"
	DecisionFallbackAcceptedPreprocessing     TriageDecision = "FALLBACK_ACCEPTED_PREPROCESSING_ERROR"
	DecisionFallbackAcceptedLLMError          TriageDecision = "FALLBACK_ACCEPTED_LLM_ERROR"
)

// ModelMetadata records which model/provider produced a phase's output,
// for auditability; it is informational only.
type ModelMetadata struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// PhaseMeta is embedded in every phase result and carries the bookkeeping
// the controller needs regardless of which phase produced it.
type PhaseMeta struct {
	FallbackUsed bool          `json:"fallback_used"`
	Duration     time.Duration `json:"duration"`
	Warning      string        `json:"warning,omitempty"`
}

// TriagePhaseResult is the output of phase 1.
type TriagePhaseResult struct {
	PhaseMeta
	IsRelevant             bool           `json:"is_relevant"`
	Decision               TriageDecision `json:"decision"`
	Justification          string         `json:"justification"`
	Category               string         `json:"category"`
	Keywords               []string       `json:"keywords,omitempty"`
	Score                  float64        `json:"score"`
	CleanedTextForNextPhase string        `json:"cleaned_text_for_next_phase"`
	TranslationAttempted    bool          `json:"translation_attempted"`
	Model                   ModelMetadata `json:"model_metadata"`
}

// ElementsPhaseResult is the output of phase 2.
type ElementsPhaseResult struct {
	PhaseMeta
	Facts    []Fact            `json:"facts"`
	Entities []Entity          `json:"entities"`
	Summary  string            `json:"summary,omitempty"`
	Metadata map[string]any    `json:"metadata,omitempty"`
}

// QuotesDataPhaseResult is the output of phase 3.
type QuotesDataPhaseResult struct {
	PhaseMeta
	Quotes           []Quote        `json:"quotes"`
	QuantitativeData []Datum        `json:"quantitative_data"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// NormalizationStatus reports how phase 4 concluded.
type NormalizationStatus string

const (
	NormalizationCompleted               NormalizationStatus = "completed"
	NormalizationCompletedWithoutEntities NormalizationStatus = "completed_without_normalization"
)

// NormalizationPhaseResult is the output of phase 4.
type NormalizationPhaseResult struct {
	PhaseMeta
	EntitiesWithNormalizedRefs []Entity            `json:"entities_with_normalized_refs"`
	Relations                  Relations           `json:"relations"`
	Status                     NormalizationStatus `json:"status"`
	Metadata                   map[string]any      `json:"metadata,omitempty"`
}

// PhaseOutputs bundles the four phase results for one fragment.
type PhaseOutputs struct {
	Phase1 TriagePhaseResult        `json:"phase1"`
	Phase2 ElementsPhaseResult      `json:"phase2"`
	Phase3 QuotesDataPhaseResult    `json:"phase3"`
	Phase4 NormalizationPhaseResult `json:"phase4"`
}
