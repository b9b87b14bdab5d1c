package domain

// FactType classifies the kind of assertion a Fact represents.
type FactType string

const (
	FactEvent        FactType = "EVENT"
	FactStatement    FactType = "STATEMENT"
	FactAnnouncement FactType = "ANNOUNCEMENT"
	FactOther        FactType = "OTHER"
)

// Fact is a discrete assertion extracted from a fragment's text. IDs are
// small dense integers scoped to the fragment that produced them, so
// cross-references (quotes -> facts, relations -> facts) can be plain
// integers instead of global identifiers.
type Fact struct {
	ID               int      `json:"id"`
	SourceFragmentID string   `json:"source_fragment_id"`
	Text             string   `json:"text"`
	Confidence       float64  `json:"confidence"`
	Type             FactType `json:"type"`
	TemporalPrecision string  `json:"temporal_precision,omitempty"`
}

// EntityType classifies the kind of named entity.
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityPlace        EntityType = "PLACE"
	EntityOther        EntityType = "OTHER"
)

// Entity is a named person, organization, place, or similar extracted
// from a fragment. NormalizedID/NormalizedName/NormalizationSimilarity are
// populated by phase 4 when the datastore resolves the entity to a known
// canonical record.
type Entity struct {
	ID                       int        `json:"id"`
	SourceFragmentID         string     `json:"source_fragment_id"`
	Text                     string     `json:"text"`
	Type                     EntityType `json:"type"`
	Relevance                float64    `json:"relevance"`
	Descriptors              []string   `json:"descriptors,omitempty"`
	NormalizedID             string     `json:"normalized_id,omitempty"`
	NormalizedName           string     `json:"normalized_name,omitempty"`
	NormalizationSimilarity  float64    `json:"normalization_similarity,omitempty"`
}

// Quote is a verbatim statement attributed to a speaker. CitedEntityID, if
// non-zero, must reference an Entity produced by the same fragment.
type Quote struct {
	ID               int    `json:"id"`
	SourceFragmentID string `json:"source_fragment_id"`
	Text             string `json:"text"`
	SpeakerText      string `json:"speaker_text"`
	CitedEntityID    int    `json:"cited_entity_id,omitempty"`
	Context          string `json:"context,omitempty"`
	Relevance        float64 `json:"relevance"`
}

// Datum is a quantitative value with a unit and reporting period.
type Datum struct {
	ID               int     `json:"id"`
	SourceFragmentID string  `json:"source_fragment_id"`
	Description      string  `json:"description"`
	Value            float64 `json:"value"`
	Unit             string  `json:"unit"`
	PeriodReference  string  `json:"period_reference,omitempty"`
	Category         string  `json:"category,omitempty"`
	Trend            string  `json:"trend,omitempty"`
}

// FactRelation links two facts within the same fragment.
type FactRelation struct {
	FactAID     int     `json:"fact_a_id"`
	FactBID     int     `json:"fact_b_id"`
	Type        string  `json:"type"`
	Strength    float64 `json:"strength"`
	Description string  `json:"description,omitempty"`
}

// EntityRelation links two entities within the same fragment.
type EntityRelation struct {
	EntityAID int     `json:"entity_a_id"`
	EntityBID int     `json:"entity_b_id"`
	Type      string  `json:"type"`
	Strength  float64 `json:"strength"`
}

// Contradiction flags two facts within the same fragment that conflict.
type Contradiction struct {
	FactAID     int    `json:"fact_a_id"`
	FactBID     int    `json:"fact_b_id"`
	Description string `json:"description,omitempty"`
}

// Relations bundles the three relation kinds phase 4 produces.
type Relations struct {
	FactFact     []FactRelation   `json:"fact_fact,omitempty"`
	EntityEntity []EntityRelation `json:"entity_entity,omitempty"`
	Contradictions []Contradiction `json:"contradictions,omitempty"`
}
