package phases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andinanews/pipeline/datastore"
	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/llm"
)

// normalizationSimilarityThreshold is the minimum similarity score at
// which a datastore match is accepted as a normalization hit.
const normalizationSimilarityThreshold = 0.85

const relationsSystemPrompt = `You are a relation-extraction assistant. Given a fragment's extracted ` +
	`facts and entities (as JSON), derive relations between them. Respond with a single JSON object: ` +
	`{"fact_fact": [{"fact_a_id": int, "fact_b_id": int, "type": string, "strength": number, "description": string}], ` +
	`"entity_entity": [{"entity_a_id": int, "entity_b_id": int, "type": string, "strength": number}], ` +
	`"contradictions": [{"fact_a_id": int, "fact_b_id": int, "description": string}]}`

type relationsLLMOutput struct {
	FactFact       []domain.FactRelation   `json:"fact_fact"`
	EntityEntity   []domain.EntityRelation `json:"entity_entity"`
	Contradictions []domain.Contradiction  `json:"contradictions"`
}

// EntityFinder is the subset of *datastore.Client phase 4 needs.
type EntityFinder interface {
	FindSimilarEntity(ctx context.Context, req datastore.FindSimilarEntityRequest) (*datastore.FindSimilarEntityResponse, error)
}

// RunNormalization executes phase 4: for each entity found in phase 2,
// ask the datastore whether a similar canonical entity already exists,
// then make a second LLM call to derive fact/entity relations and
// contradictions. The relations call runs unconditionally, even when
// phase 2/3 produced nothing, per the source's behavior.
func RunNormalization(ctx context.Context, finder EntityFinder, c Completer, elements domain.ElementsPhaseResult, quotesData domain.QuotesDataPhaseResult) domain.NormalizationPhaseResult {
	start := time.Now()

	entities := make([]domain.Entity, len(elements.Entities))
	copy(entities, elements.Entities)

	anyDatastoreFailure := false
	for i := range entities {
		resp, err := finder.FindSimilarEntity(ctx, datastore.FindSimilarEntityRequest{
			EntityType: string(entities[i].Type),
			Name:       entities[i].Text,
			Threshold:  normalizationSimilarityThreshold,
		})
		if err != nil {
			anyDatastoreFailure = true
			continue
		}
		if resp.Found {
			entities[i].NormalizedID = resp.EntityID
			entities[i].NormalizedName = resp.MatchedName
			entities[i].NormalizationSimilarity = resp.Similarity
		}
	}

	relations, relationsWarning := runRelations(ctx, c, elements, quotesData)

	result := domain.NormalizationPhaseResult{
		EntitiesWithNormalizedRefs: entities,
		Relations:                  relations,
		Status:                     domain.NormalizationCompleted,
	}
	result.Duration = time.Since(start)

	switch {
	case anyDatastoreFailure && relationsWarning != "":
		result.FallbackUsed = true
		result.Status = domain.NormalizationCompletedWithoutEntities
		result.Warning = "one or more entity normalization lookups failed; entities kept unnormalized; " + relationsWarning
	case anyDatastoreFailure:
		result.FallbackUsed = true
		result.Status = domain.NormalizationCompletedWithoutEntities
		result.Warning = "one or more entity normalization lookups failed; entities kept unnormalized"
	case relationsWarning != "":
		result.FallbackUsed = true
		result.Warning = relationsWarning
	}

	return result
}

// runRelations makes the second phase-4 LLM call to derive fact/entity
// relations and contradictions. On failure it falls back to empty
// relations with a warning, never aborting normalization.
func runRelations(ctx context.Context, c Completer, elements domain.ElementsPhaseResult, quotesData domain.QuotesDataPhaseResult) (domain.Relations, string) {
	payload := struct {
		Facts            []domain.Fact   `json:"facts"`
		Entities         []domain.Entity `json:"entities"`
		Quotes           []domain.Quote  `json:"quotes"`
		QuantitativeData []domain.Datum  `json:"quantitative_data"`
	}{
		Facts:            elements.Facts,
		Entities:         elements.Entities,
		Quotes:           quotesData.Quotes,
		QuantitativeData: quotesData.QuantitativeData,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return domain.Relations{}, fmt.Sprintf("relations request could not be built: %v", err)
	}
	body := string(bodyBytes)

	resp, err := c.Complete(ctx, llm.Request{
		Phase: string(Normalization),
		Messages: []llm.Message{
			{Role: "system", Content: relationsSystemPrompt},
			{Role: "user", Content: body},
		},
	})
	if err != nil {
		return domain.Relations{}, fmt.Sprintf("relations llm call failed: %v", err)
	}

	var out relationsLLMOutput
	if err := llm.ExtractJSONObject(string(Normalization), resp.Content, &out); err != nil {
		return domain.Relations{}, fmt.Sprintf("relations response unparseable: %v", err)
	}

	return domain.Relations{
		FactFact:       out.FactFact,
		EntityEntity:   out.EntityEntity,
		Contradictions: out.Contradictions,
	}, ""
}
